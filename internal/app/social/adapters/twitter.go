package adapters

import (
	"bytes"
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/dghubble/oauth1"

	"socialgw.local/internal/app/social"
)

type TwitterConfig struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string

	BaseURL   string // https://api.twitter.com
	UploadURL string // https://upload.twitter.com
}

// Twitter 使用 OAuth 1.0a user context 签名，图片先走 v1.1 media/upload 再发 v2 推文。
type Twitter struct {
	cfg    TwitterConfig
	client *vendorClient
	media  MediaFetcher
}

func NewTwitter(cfg TwitterConfig, opts Options) *Twitter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twitter.com"
	}
	if cfg.UploadURL == "" {
		cfg.UploadURL = "https://upload.twitter.com"
	}
	// oauth1 的 client 在底层 client 之上加签名 transport
	ctx := context.WithValue(context.Background(), oauth1.HTTPClient, opts.httpClient())
	signed := oauth1.NewConfig(cfg.APIKey, cfg.APISecret).Client(ctx, oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret))
	return &Twitter{
		cfg:    cfg,
		client: newVendorClient(social.Twitter, signed, opts),
		media:  opts.Media,
	}
}

func (t *Twitter) Platform() social.PlatformID { return social.Twitter }

type tweetCreate struct {
	Text  string      `json:"text"`
	Media *tweetMedia `json:"media,omitempty"`
}

type tweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

func (t *Twitter) Post(ctx context.Context, p social.PostPayload) (social.PostResult, error) {
	if p.ScheduledTime != nil {
		slog.Debug("twitter has no native scheduling, posting now", "scheduledTime", p.ScheduledTime)
	}

	body := tweetCreate{Text: p.Content}
	if p.ImageURL != "" {
		mediaID, err := t.uploadImage(ctx, p.ImageURL)
		if err != nil {
			return social.PostResult{}, err
		}
		body.Media = &tweetMedia{MediaIDs: []string{mediaID}}
	}

	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if _, err := t.client.doJSON(ctx, "create_tweet", http.MethodPost, t.cfg.BaseURL+"/2/tweets", nil, body, &out); err != nil {
		return social.PostResult{}, err
	}
	if out.Data.ID == "" {
		return social.PostResult{}, t.client.fail("create_tweet", "response has no tweet id")
	}
	return social.PostResult{PostID: out.Data.ID}, nil
}

func (t *Twitter) uploadImage(ctx context.Context, imageURL string) (string, error) {
	if t.media == nil {
		return "", t.client.fail("upload_media", "no media fetcher configured")
	}
	m, err := t.client.fetchMedia(ctx, t.media, imageURL)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("media", m.Filename)
	if err != nil {
		return "", t.client.fail("upload_media", "multipart: %v", err)
	}
	if _, err := part.Write(m.Data); err != nil {
		return "", t.client.fail("upload_media", "multipart: %v", err)
	}
	if err := w.Close(); err != nil {
		return "", t.client.fail("upload_media", "multipart: %v", err)
	}

	resp, err := t.client.do(ctx, vendorRequest{
		step:        "upload_media",
		method:      http.MethodPost,
		url:         t.cfg.UploadURL + "/1.1/media/upload.json",
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
	})
	if err != nil {
		return "", err
	}
	var out struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := t.client.decode("upload_media", resp, &out); err != nil {
		return "", err
	}
	if out.MediaIDString == "" {
		return "", t.client.fail("upload_media", "response has no media id")
	}
	return out.MediaIDString, nil
}

func (t *Twitter) Analytics(ctx context.Context, q social.AnalyticsQuery) (social.Metrics, error) {
	u := t.cfg.BaseURL + "/2/tweets/" + url.PathEscape(q.PostID) + "?tweet.fields=public_metrics"
	var out struct {
		Data struct {
			PublicMetrics struct {
				RetweetCount    uint64 `json:"retweet_count"`
				ReplyCount      uint64 `json:"reply_count"`
				LikeCount       uint64 `json:"like_count"`
				QuoteCount      uint64 `json:"quote_count"`
				ImpressionCount uint64 `json:"impression_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if _, err := t.client.doJSON(ctx, "tweet_metrics", http.MethodGet, u, nil, nil, &out); err != nil {
		return social.Metrics{}, err
	}
	pm := out.Data.PublicMetrics
	return social.NewMetrics(social.EngagementInput{
		Likes:    pm.LikeCount,
		Comments: pm.ReplyCount,
		Shares:   pm.RetweetCount + pm.QuoteCount,
		Views:    pm.ImpressionCount,
	}), nil
}
