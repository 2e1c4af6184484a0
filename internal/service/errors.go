package service

import "errors"

var (
	// ErrSelfAction 不能对自己执行该操作
	ErrSelfAction = errors.New("you cannot perform this action on yourself")
	// ErrNotParticipant 非会话参与者
	ErrNotParticipant = errors.New("you are not a participant in this conversation")
	// ErrUserBlocked 双方存在有效屏蔽
	ErrUserBlocked = errors.New("you cannot interact with this user")
	// ErrVerificationReviewed 认证申请已审核
	ErrVerificationReviewed = errors.New("this verification has already been reviewed")
	// ErrInvalidReportStatus 举报状态不合法
	ErrInvalidReportStatus = errors.New("invalid report status")
	// ErrFlagReasonRequired 标记消息需要原因
	ErrFlagReasonRequired = errors.New("flag reason is required")
	// ErrCannotModifySelf 不能修改自己
	ErrCannotModifySelf = errors.New("cannot modify self")
	// ErrCannotModifySuper 不能修改超级管理员
	ErrCannotModifySuper = errors.New("cannot modify super admin")
)
