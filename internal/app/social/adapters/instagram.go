package adapters

import (
	"context"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"socialgw.local/internal/app/social"
)

type InstagramConfig struct {
	AccountID   string
	AccessToken string

	BaseURL string
}

// Instagram 只能发带图的内容：先建 media container，再 media_publish。
type Instagram struct {
	cfg    InstagramConfig
	client *vendorClient
}

func NewInstagram(cfg InstagramConfig, opts Options) *Instagram {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGraphURL
	}
	return &Instagram{cfg: cfg, client: newVendorClient(social.Instagram, opts.httpClient(), opts)}
}

func (i *Instagram) Platform() social.PlatformID { return social.Instagram }

func (i *Instagram) Post(ctx context.Context, p social.PostPayload) (social.PostResult, error) {
	if p.ImageURL == "" {
		return social.PostResult{}, social.PlatformPrecondition(social.Instagram, "Instagram requires an image")
	}
	account := i.cfg.BaseURL + "/" + url.PathEscape(i.cfg.AccountID)

	form := url.Values{}
	form.Set("image_url", p.ImageURL)
	form.Set("caption", p.Content)
	form.Set("access_token", i.cfg.AccessToken)
	var container graphID
	if _, err := i.client.doForm(ctx, "create_container", account+"/media", form, &container); err != nil {
		return social.PostResult{}, err
	}
	if container.ID == "" {
		return social.PostResult{}, i.client.fail("create_container", "response has no id")
	}

	publish := url.Values{}
	publish.Set("creation_id", container.ID)
	publish.Set("access_token", i.cfg.AccessToken)
	var published graphID
	if _, err := i.client.doForm(ctx, "publish", account+"/media_publish", publish, &published); err != nil {
		return social.PostResult{}, err
	}
	if published.ID == "" {
		return social.PostResult{}, i.client.fail("publish", "response has no id")
	}
	return social.PostResult{PostID: published.ID}, nil
}

func (i *Instagram) Analytics(ctx context.Context, q social.AnalyticsQuery) (social.Metrics, error) {
	var (
		fields struct {
			LikeCount     uint64 `json:"like_count"`
			CommentsCount uint64 `json:"comments_count"`
		}
		impressions uint64
	)
	mediaURL := i.cfg.BaseURL + "/" + url.PathEscape(q.PostID)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u := mediaURL + "?" + url.Values{
			"fields": {"like_count,comments_count"},
		}.Encode()
		_, err := i.client.doJSON(gctx, "media_fields", http.MethodGet, u, bearer(i.cfg.AccessToken), nil, &fields)
		return err
	})
	g.Go(func() error {
		u := mediaURL + "/insights?" + url.Values{
			"metric": {"impressions"},
		}.Encode()
		var out graphInsights
		if _, err := i.client.doJSON(gctx, "media_insights", http.MethodGet, u, bearer(i.cfg.AccessToken), nil, &out); err != nil {
			return err
		}
		impressions = out.value("impressions")
		return nil
	})
	if err := g.Wait(); err != nil {
		return social.Metrics{}, err
	}

	return social.NewMetrics(social.EngagementInput{
		Likes:    fields.LikeCount,
		Comments: fields.CommentsCount,
		Views:    impressions,
	}), nil
}
