package social

import (
	"context"
	"time"
)

// PostPayload 是 action=post 的 data。
//
// content 的长度限制对所有平台统一（按字符数），各平台自己的上限不在网关层区分。
// recipient/repository/videoUrl/title 只被个别 adapter 使用，其他平台忽略。
type PostPayload struct {
	Content       string     `json:"content" validate:"required,max=280"`
	ImageURL      string     `json:"imageUrl,omitempty" validate:"omitempty,url"`
	ScheduledTime *time.Time `json:"scheduledTime,omitempty"`

	Recipient  string `json:"recipient,omitempty" validate:"omitempty,e164"`
	Repository string `json:"repository,omitempty" validate:"omitempty,github_repo"`
	VideoURL   string `json:"videoUrl,omitempty" validate:"omitempty,url"`
	Title      string `json:"title,omitempty" validate:"omitempty,max=100"`
}

// PostResult.PostID 对网关是不透明的，只会原样交回给同一个平台的 Analytics。
type PostResult struct {
	PostID string `json:"postId"`
}

type AnalyticsQuery struct {
	PostID    string     `json:"postId" validate:"required"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// Metrics 的字段永远都在，平台没有的维度填 0。
type Metrics struct {
	Likes      uint64  `json:"likes"`
	Comments   uint64  `json:"comments"`
	Shares     uint64  `json:"shares"`
	Views      uint64  `json:"views"`
	Engagement float64 `json:"engagement"`
}

// Adapter 把统一的 payload 翻译成某个平台的 REST 调用。
type Adapter interface {
	Platform() PlatformID
	Post(ctx context.Context, payload PostPayload) (PostResult, error)
	Analytics(ctx context.Context, query AnalyticsQuery) (Metrics, error)
}
