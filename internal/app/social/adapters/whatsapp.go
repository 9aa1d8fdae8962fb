package adapters

import (
	"context"
	"net/http"
	"net/url"

	"socialgw.local/internal/app/social"
)

type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string

	BaseURL string
}

// WhatsApp 必须指定收件人。analytics 只有送达/未送达，映射为 views 0 或 1。
type WhatsApp struct {
	cfg    WhatsAppConfig
	client *vendorClient
}

func NewWhatsApp(cfg WhatsAppConfig, opts Options) *WhatsApp {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGraphURL
	}
	return &WhatsApp{cfg: cfg, client: newVendorClient(social.WhatsApp, opts.httpClient(), opts)}
}

func (w *WhatsApp) Platform() social.PlatformID { return social.WhatsApp }

func (w *WhatsApp) Post(ctx context.Context, p social.PostPayload) (social.PostResult, error) {
	if p.Recipient == "" {
		return social.PostResult{}, social.PlatformPrecondition(social.WhatsApp, "WhatsApp requires a recipient")
	}

	msg := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                p.Recipient,
	}
	if p.ImageURL != "" {
		msg["type"] = "image"
		msg["image"] = map[string]string{"link": p.ImageURL, "caption": p.Content}
	} else {
		msg["type"] = "text"
		msg["text"] = map[string]any{"body": p.Content, "preview_url": false}
	}

	var out struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	u := w.cfg.BaseURL + "/" + url.PathEscape(w.cfg.PhoneNumberID) + "/messages"
	if _, err := w.client.doJSON(ctx, "send_message", http.MethodPost, u, bearer(w.cfg.AccessToken), msg, &out); err != nil {
		return social.PostResult{}, err
	}
	if len(out.Messages) == 0 || out.Messages[0].ID == "" {
		return social.PostResult{}, w.client.fail("send_message", "response has no message id")
	}
	return social.PostResult{PostID: out.Messages[0].ID}, nil
}

func (w *WhatsApp) Analytics(ctx context.Context, q social.AnalyticsQuery) (social.Metrics, error) {
	var out struct {
		Status string `json:"status"`
	}
	u := w.cfg.BaseURL + "/" + url.PathEscape(q.PostID)
	if _, err := w.client.doJSON(ctx, "message_status", http.MethodGet, u, bearer(w.cfg.AccessToken), nil, &out); err != nil {
		return social.Metrics{}, err
	}
	var views uint64
	switch out.Status {
	case "delivered", "read":
		views = 1
	}
	return social.NewMetrics(social.EngagementInput{Views: views}), nil
}
