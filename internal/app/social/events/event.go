// Package events 收集每次 dispatch 的结果事件，发到日志或 Kafka。
// 只用于观测，不是帖子或指标的持久化。
package events

import (
	"time"

	"github.com/google/uuid"
)

// DispatchEvent 一次 /api/social 请求的结果
type DispatchEvent struct {
	ID         string        `json:"id"`
	At         time.Time     `json:"at"`
	ClientID   string        `json:"clientId"`
	RequestID  string        `json:"requestId,omitempty"`
	Platform   string        `json:"platform"`
	Action     string        `json:"action"`
	Outcome    string        `json:"outcome"` //ok / validation / platform / ...
	Status     int           `json:"status"`
	PostID     string        `json:"postId,omitempty"`
	Duration   time.Duration `json:"durationNs"`
	ErrMessage string        `json:"error,omitempty"`
}

// NewDispatchEvent 填好 ID 和时间。
func NewDispatchEvent(platform, action string) DispatchEvent {
	return DispatchEvent{
		ID:       uuid.NewString(),
		At:       time.Now().UTC(),
		Platform: platform,
		Action:   action,
	}
}

// Collector 收集器接口，channel 和 kafka 两种实现
type Collector interface {
	Collect(event DispatchEvent)
	Close()
}

// Discard 不做任何事，EVENTS_BACKEND=none 时使用
type Discard struct{}

func (Discard) Collect(DispatchEvent) {}
func (Discard) Close()                {}
