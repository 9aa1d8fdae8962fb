package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"socialgw.local/internal/app/social"
)

type FacebookConfig struct {
	PageID          string
	PageAccessToken string

	BaseURL string // https://graph.facebook.com/v19.0
}

// Facebook 发到主页 feed；带图时先上传一张未发布的照片，再把它挂到 feed 帖子上。
type Facebook struct {
	cfg    FacebookConfig
	client *vendorClient
}

func NewFacebook(cfg FacebookConfig, opts Options) *Facebook {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGraphURL
	}
	return &Facebook{cfg: cfg, client: newVendorClient(social.Facebook, opts.httpClient(), opts)}
}

func (f *Facebook) Platform() social.PlatformID { return social.Facebook }

func (f *Facebook) Post(ctx context.Context, p social.PostPayload) (social.PostResult, error) {
	form := url.Values{}
	form.Set("message", p.Content)
	form.Set("access_token", f.cfg.PageAccessToken)
	if p.ScheduledTime != nil {
		form.Set("published", "false")
		form.Set("scheduled_publish_time", strconv.FormatInt(p.ScheduledTime.Unix(), 10))
	}

	if p.ImageURL != "" {
		photoID, err := f.uploadPhoto(ctx, p.ImageURL)
		if err != nil {
			return social.PostResult{}, err
		}
		attached, _ := json.Marshal(map[string]string{"media_fbid": photoID})
		form.Set("attached_media[0]", string(attached))
	}

	var out graphID
	if _, err := f.client.doForm(ctx, "create_post", f.cfg.BaseURL+"/"+url.PathEscape(f.cfg.PageID)+"/feed", form, &out); err != nil {
		return social.PostResult{}, err
	}
	if out.ID == "" {
		return social.PostResult{}, f.client.fail("create_post", "response has no id")
	}
	return social.PostResult{PostID: out.ID}, nil
}

func (f *Facebook) uploadPhoto(ctx context.Context, imageURL string) (string, error) {
	form := url.Values{}
	form.Set("url", imageURL)
	form.Set("published", "false")
	form.Set("access_token", f.cfg.PageAccessToken)

	var out graphID
	if _, err := f.client.doForm(ctx, "upload_photo", f.cfg.BaseURL+"/"+url.PathEscape(f.cfg.PageID)+"/photos", form, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", f.client.fail("upload_photo", "response has no id")
	}
	return out.ID, nil
}

func (f *Facebook) Analytics(ctx context.Context, q social.AnalyticsQuery) (social.Metrics, error) {
	var (
		fields struct {
			Likes struct {
				Summary struct {
					TotalCount uint64 `json:"total_count"`
				} `json:"summary"`
			} `json:"likes"`
			Comments struct {
				Summary struct {
					TotalCount uint64 `json:"total_count"`
				} `json:"summary"`
			} `json:"comments"`
			Shares struct {
				Count uint64 `json:"count"`
			} `json:"shares"`
		}
		impressions uint64
	)
	postURL := f.cfg.BaseURL + "/" + url.PathEscape(q.PostID)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u := postURL + "?" + url.Values{
			"fields": {"likes.summary(true),comments.summary(true),shares"},
		}.Encode()
		_, err := f.client.doJSON(gctx, "post_fields", http.MethodGet, u, bearer(f.cfg.PageAccessToken), nil, &fields)
		return err
	})
	g.Go(func() error {
		u := postURL + "/insights?" + url.Values{
			"metric": {"post_impressions"},
		}.Encode()
		var out graphInsights
		if _, err := f.client.doJSON(gctx, "post_insights", http.MethodGet, u, bearer(f.cfg.PageAccessToken), nil, &out); err != nil {
			return err
		}
		impressions = out.value("post_impressions")
		return nil
	})
	if err := g.Wait(); err != nil {
		return social.Metrics{}, err
	}

	return social.NewMetrics(social.EngagementInput{
		Likes:    fields.Likes.Summary.TotalCount,
		Comments: fields.Comments.Summary.TotalCount,
		Shares:   fields.Shares.Count,
		Views:    impressions,
	}), nil
}
