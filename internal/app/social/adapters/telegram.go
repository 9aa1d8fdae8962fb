package adapters

import (
	"context"
	"net/http"
	"strconv"

	"socialgw.local/internal/app/social"
)

type TelegramConfig struct {
	BotToken  string
	ChannelID string

	BaseURL string // https://api.telegram.org
}

// Telegram 固定发到配置的频道。Bot API 没有单条消息的统计，
// analytics 只能给出频道订阅数（作为 views），互动率恒为 0。
type Telegram struct {
	cfg    TelegramConfig
	client *vendorClient
}

func NewTelegram(cfg TelegramConfig, opts Options) *Telegram {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.telegram.org"
	}
	return &Telegram{cfg: cfg, client: newVendorClient(social.Telegram, opts.httpClient(), opts)}
}

func (t *Telegram) Platform() social.PlatformID { return social.Telegram }

func (t *Telegram) method(name string) string {
	return t.cfg.BaseURL + "/bot" + t.cfg.BotToken + "/" + name
}

type telegramResponse[T any] struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      T      `json:"result"`
}

func (t *Telegram) Post(ctx context.Context, p social.PostPayload) (social.PostResult, error) {
	var (
		step string
		body map[string]any
	)
	if p.ImageURL != "" {
		step = "sendPhoto"
		body = map[string]any{"chat_id": t.cfg.ChannelID, "photo": p.ImageURL, "caption": p.Content}
	} else {
		step = "sendMessage"
		body = map[string]any{"chat_id": t.cfg.ChannelID, "text": p.Content}
	}

	var out telegramResponse[struct {
		MessageID int64 `json:"message_id"`
	}]
	if _, err := t.client.doJSON(ctx, step, http.MethodPost, t.method(step), nil, body, &out); err != nil {
		return social.PostResult{}, err
	}
	if !out.OK {
		return social.PostResult{}, t.client.fail(step, "telegram error: %s", out.Description)
	}
	return social.PostResult{PostID: strconv.FormatInt(out.Result.MessageID, 10)}, nil
}

func (t *Telegram) Analytics(ctx context.Context, _ social.AnalyticsQuery) (social.Metrics, error) {
	var out telegramResponse[uint64]
	body := map[string]any{"chat_id": t.cfg.ChannelID}
	if _, err := t.client.doJSON(ctx, "getChatMemberCount", http.MethodPost, t.method("getChatMemberCount"), nil, body, &out); err != nil {
		return social.Metrics{}, err
	}
	if !out.OK {
		return social.Metrics{}, t.client.fail("getChatMemberCount", "telegram error: %s", out.Description)
	}
	return social.Metrics{Views: out.Result, Engagement: 0}, nil
}
