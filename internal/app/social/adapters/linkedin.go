package adapters

import (
	"context"
	"net/http"
	"net/url"

	"socialgw.local/internal/app/social"
)

type LinkedInConfig struct {
	AccessToken string
	PersonURN   string // urn:li:person:xxxx

	BaseURL string // https://api.linkedin.com
	Version string // LinkedIn-Version 头，YYYYMM
}

// LinkedIn 使用 /rest 版本化 API。带图的帖子是三步：初始化上传、PUT 原始字节、确认图片，
// 然后再创建帖子。中途失败不回滚，已上传的图片留在 LinkedIn 那边。
type LinkedIn struct {
	cfg    LinkedInConfig
	client *vendorClient
	media  MediaFetcher
}

func NewLinkedIn(cfg LinkedInConfig, opts Options) *LinkedIn {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.linkedin.com"
	}
	if cfg.Version == "" {
		cfg.Version = "202401"
	}
	return &LinkedIn{
		cfg:    cfg,
		client: newVendorClient(social.LinkedIn, opts.httpClient(), opts),
		media:  opts.Media,
	}
}

func (l *LinkedIn) Platform() social.PlatformID { return social.LinkedIn }

func (l *LinkedIn) header() http.Header {
	h := bearer(l.cfg.AccessToken)
	h.Set("LinkedIn-Version", l.cfg.Version)
	h.Set("X-Restli-Protocol-Version", "2.0.0")
	return h
}

type linkedInPost struct {
	Author                    string               `json:"author"`
	Commentary                string               `json:"commentary"`
	Visibility                string               `json:"visibility"`
	Distribution              linkedInDistribution `json:"distribution"`
	Content                   *linkedInContent     `json:"content,omitempty"`
	LifecycleState            string               `json:"lifecycleState"`
	IsReshareDisabledByAuthor bool                 `json:"isReshareDisabledByAuthor"`
}

type linkedInDistribution struct {
	FeedDistribution               string   `json:"feedDistribution"`
	TargetEntities                 []string `json:"targetEntities"`
	ThirdPartyDistributionChannels []string `json:"thirdPartyDistributionChannels"`
}

type linkedInContent struct {
	Media linkedInMedia `json:"media"`
}

type linkedInMedia struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

func (l *LinkedIn) Post(ctx context.Context, p social.PostPayload) (social.PostResult, error) {
	post := linkedInPost{
		Author:     l.cfg.PersonURN,
		Commentary: p.Content,
		Visibility: "PUBLIC",
		Distribution: linkedInDistribution{
			FeedDistribution:               "MAIN_FEED",
			TargetEntities:                 []string{},
			ThirdPartyDistributionChannels: []string{},
		},
		LifecycleState: "PUBLISHED",
	}
	if p.ImageURL != "" {
		imageURN, err := l.uploadImage(ctx, p.ImageURL)
		if err != nil {
			return social.PostResult{}, err
		}
		post.Content = &linkedInContent{Media: linkedInMedia{ID: imageURN, Title: p.Title}}
	}

	resp, err := l.client.doJSON(ctx, "create_post", http.MethodPost, l.cfg.BaseURL+"/rest/posts", l.header(), post, nil)
	if err != nil {
		return social.PostResult{}, err
	}
	id := resp.header.Get("X-Restli-Id")
	if id == "" {
		id = resp.header.Get("X-LinkedIn-Id")
	}
	if id == "" {
		return social.PostResult{}, l.client.fail("create_post", "response has no x-restli-id header")
	}
	return social.PostResult{PostID: id}, nil
}

func (l *LinkedIn) uploadImage(ctx context.Context, imageURL string) (string, error) {
	if l.media == nil {
		return "", l.client.fail("initialize_upload", "no media fetcher configured")
	}
	m, err := l.client.fetchMedia(ctx, l.media, imageURL)
	if err != nil {
		return "", err
	}

	// 1. initializeUpload
	init := map[string]any{
		"initializeUploadRequest": map[string]string{"owner": l.cfg.PersonURN},
	}
	var initOut struct {
		Value struct {
			UploadURL string `json:"uploadUrl"`
			Image     string `json:"image"`
		} `json:"value"`
	}
	if _, err := l.client.doJSON(ctx, "initialize_upload", http.MethodPost,
		l.cfg.BaseURL+"/rest/images?action=initializeUpload", l.header(), init, &initOut); err != nil {
		return "", err
	}
	if initOut.Value.UploadURL == "" || initOut.Value.Image == "" {
		return "", l.client.fail("initialize_upload", "response missing uploadUrl or image urn")
	}

	// 2. PUT 原始字节到签名 URL
	if _, err := l.client.do(ctx, vendorRequest{
		step:        "upload_image",
		method:      http.MethodPut,
		url:         initOut.Value.UploadURL,
		header:      bearer(l.cfg.AccessToken),
		body:        m.Data,
		contentType: m.ContentType,
	}); err != nil {
		return "", err
	}

	// 3. 确认图片已经登记
	var status struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if _, err := l.client.doJSON(ctx, "confirm_image", http.MethodGet,
		l.cfg.BaseURL+"/rest/images/"+url.PathEscape(initOut.Value.Image), l.header(), nil, &status); err != nil {
		return "", err
	}
	if status.Status == "PROCESSING_FAILED" {
		return "", l.client.fail("confirm_image", "image %s processing failed", initOut.Value.Image)
	}
	return initOut.Value.Image, nil
}

func (l *LinkedIn) Analytics(ctx context.Context, q social.AnalyticsQuery) (social.Metrics, error) {
	var out struct {
		LikesSummary struct {
			TotalLikes uint64 `json:"totalLikes"`
		} `json:"likesSummary"`
		CommentsSummary struct {
			AggregatedTotalComments uint64 `json:"aggregatedTotalComments"`
		} `json:"commentsSummary"`
	}
	if _, err := l.client.doJSON(ctx, "social_actions", http.MethodGet,
		l.cfg.BaseURL+"/rest/socialActions/"+url.PathEscape(q.PostID), l.header(), nil, &out); err != nil {
		return social.Metrics{}, err
	}
	return social.NewMetrics(social.EngagementInput{
		Likes:    out.LikesSummary.TotalLikes,
		Comments: out.CommentsSummary.AggregatedTotalComments,
	}), nil
}
