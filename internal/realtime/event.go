package realtime

import (
	"context"
	"encoding/json"
	"time"
)

// 变更事件涉及的表
const (
	TableMessageRequests   = "message_requests"
	TableConversations     = "conversations"
	TableMessages          = "messages"
	TableMatches           = "matches"
	TableUserVerifications = "user_verifications"
)

// Action 变更类型
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event 数据变更事件
//
// UserIDs 为需要收到通知的用户，Payload 为变更后的记录。
type Event struct {
	Table    string          `json:"table"`
	Action   Action          `json:"action"`
	RecordID string          `json:"recordId"`
	UserIDs  []string        `json:"userIds"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	At       time.Time       `json:"at"`
}

// NewEvent 创建事件，record 会被序列化为 Payload
func NewEvent(table string, action Action, recordID string, record any, userIDs ...string) Event {
	var payload json.RawMessage
	if record != nil {
		if data, err := json.Marshal(record); err == nil {
			payload = data
		}
	}
	return Event{
		Table:    table,
		Action:   action,
		RecordID: recordID,
		UserIDs:  dedupe(userIDs),
		Payload:  payload,
		At:       time.Now().UTC(),
	}
}

// Encode 序列化为 JSON
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent 解析 JSON 事件
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// Publisher 事件发布方（存储层持有）
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Sink 事件最终投递方（websocket hub、redis 总线等）
type Sink interface {
	Deliver(event Event)
}

// SinkFunc 函数适配 Sink
type SinkFunc func(Event)

// Deliver 实现 Sink
func (f SinkFunc) Deliver(e Event) { f(e) }

// NopPublisher 丢弃所有事件
type NopPublisher struct{}

// Publish 实现 Publisher
func (NopPublisher) Publish(context.Context, Event) error { return nil }

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
