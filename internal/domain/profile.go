package domain

import "time"

// Gender 性别
type Gender string

const (
	GenderMale           Gender = "male"
	GenderFemale         Gender = "female"
	GenderNonBinary      Gender = "non_binary"
	GenderOther          Gender = "other"
	GenderPreferNotToSay Gender = "prefer_not_to_say"
)

// Valid 判断性别取值是否合法
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderNonBinary, GenderOther, GenderPreferNotToSay:
		return true
	}
	return false
}

// RelationshipGoal 交友目的
type RelationshipGoal string

const (
	GoalLongTerm   RelationshipGoal = "long_term"
	GoalDating     RelationshipGoal = "dating"
	GoalFriendship RelationshipGoal = "friendship"
	GoalNotSure    RelationshipGoal = "not_sure"
)

// Valid 判断交友目的取值是否合法，空值视为未填写
func (g RelationshipGoal) Valid() bool {
	switch g {
	case "", GoalLongTerm, GoalDating, GoalFriendship, GoalNotSure:
		return true
	}
	return false
}

// Profile 用户资料
type Profile struct {
	ID               string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID           string           `json:"userId" gorm:"uniqueIndex;type:varchar(36);not null"`
	Email            string           `json:"email" gorm:"type:varchar(255)"`
	FirstName        string           `json:"firstName,omitempty" gorm:"type:varchar(100)"`
	DisplayName      string           `json:"displayName" gorm:"type:varchar(100)"`
	BirthDate        *time.Time       `json:"birthDate,omitempty"`
	Gender           Gender           `json:"gender,omitempty" gorm:"type:varchar(30);index"`
	LookingForGender []Gender         `json:"lookingForGender" gorm:"serializer:json"`
	Bio              string           `json:"bio,omitempty" gorm:"type:text"`
	University       string           `json:"university,omitempty" gorm:"type:varchar(255)"`
	CourseOfStudy    string           `json:"courseOfStudy,omitempty" gorm:"type:varchar(255)"`
	YearOfStudy      int              `json:"yearOfStudy,omitempty"`
	Interests        []string         `json:"interests" gorm:"serializer:json"`
	Photos           []string         `json:"photos" gorm:"serializer:json"`
	RelationshipGoal RelationshipGoal `json:"relationshipGoal,omitempty" gorm:"type:varchar(30)"`
	IsComplete       bool             `json:"isComplete" gorm:"default:false;index"`
	IsVerified       bool             `json:"isVerified" gorm:"default:false"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Age 按给定时间计算周岁，未填写生日返回 0
func (p *Profile) Age(now time.Time) int {
	if p.BirthDate == nil {
		return 0
	}
	birth := p.BirthDate.UTC()
	now = now.UTC()
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// CheckComplete 根据必填字段刷新 IsComplete
func (p *Profile) CheckComplete() bool {
	p.IsComplete = p.DisplayName != "" &&
		p.BirthDate != nil &&
		p.Gender != "" &&
		len(p.Photos) > 0
	return p.IsComplete
}

// Accepts 判断该资料的性别偏好是否接受 g，未设置偏好视为全部接受
func (p *Profile) Accepts(g Gender) bool {
	if len(p.LookingForGender) == 0 {
		return true
	}
	for _, want := range p.LookingForGender {
		if want == g {
			return true
		}
	}
	return false
}

// ProfileUpdate 资料更新请求，nil 字段表示不修改
type ProfileUpdate struct {
	FirstName        *string           `json:"firstName,omitempty"`
	DisplayName      *string           `json:"displayName,omitempty"`
	BirthDate        *time.Time        `json:"birthDate,omitempty"`
	Gender           *Gender           `json:"gender,omitempty"`
	LookingForGender []Gender          `json:"lookingForGender,omitempty"`
	Bio              *string           `json:"bio,omitempty"`
	CourseOfStudy    *string           `json:"courseOfStudy,omitempty"`
	YearOfStudy      *int              `json:"yearOfStudy,omitempty"`
	Interests        []string          `json:"interests,omitempty"`
	Photos           []string          `json:"photos,omitempty"`
	RelationshipGoal *RelationshipGoal `json:"relationshipGoal,omitempty"`
}
