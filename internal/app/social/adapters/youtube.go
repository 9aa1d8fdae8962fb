package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"

	"socialgw.local/internal/app/social"
)

type YouTubeConfig struct {
	AccessToken string
	APIKey      string

	BaseURL string // https://www.googleapis.com
}

// YouTube 用 multipart/related 一次上传元数据和视频字节。
type YouTube struct {
	cfg    YouTubeConfig
	client *vendorClient
	media  MediaFetcher
}

func NewYouTube(cfg YouTubeConfig, opts Options) *YouTube {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.googleapis.com"
	}
	return &YouTube{
		cfg:    cfg,
		client: newVendorClient(social.YouTube, opts.httpClient(), opts),
		media:  opts.Media,
	}
}

func (y *YouTube) Platform() social.PlatformID { return social.YouTube }

type youTubeVideo struct {
	Snippet struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"snippet"`
	Status struct {
		PrivacyStatus string `json:"privacyStatus"`
		PublishAt     string `json:"publishAt,omitempty"`
	} `json:"status"`
}

func (y *YouTube) Post(ctx context.Context, p social.PostPayload) (social.PostResult, error) {
	if p.VideoURL == "" {
		return social.PostResult{}, social.PlatformPrecondition(social.YouTube, "YouTube requires a videoUrl")
	}
	if y.media == nil {
		return social.PostResult{}, y.client.fail("upload_video", "no media fetcher configured")
	}
	video, err := y.client.fetchMedia(ctx, y.media, p.VideoURL)
	if err != nil {
		return social.PostResult{}, err
	}

	var meta youTubeVideo
	meta.Snippet.Title = titleFrom(p)
	meta.Snippet.Description = p.Content
	meta.Status.PrivacyStatus = "public"
	if p.ScheduledTime != nil {
		// publishAt 只对 private 视频生效
		meta.Status.PrivacyStatus = "private"
		meta.Status.PublishAt = p.ScheduledTime.UTC().Format(time.RFC3339)
	}

	body, contentType, err := multipartRelated(meta, video.ContentType, video.Data)
	if err != nil {
		return social.PostResult{}, y.client.fail("upload_video", "build body: %v", err)
	}

	u := y.cfg.BaseURL + "/upload/youtube/v3/videos?uploadType=multipart&part=snippet,status"
	resp, err := y.client.do(ctx, vendorRequest{
		step:        "upload_video",
		method:      http.MethodPost,
		url:         u,
		header:      bearer(y.cfg.AccessToken),
		body:        body,
		contentType: contentType,
	})
	if err != nil {
		return social.PostResult{}, err
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := y.client.decode("upload_video", resp, &out); err != nil {
		return social.PostResult{}, err
	}
	if out.ID == "" {
		return social.PostResult{}, y.client.fail("upload_video", "response has no video id")
	}
	return social.PostResult{PostID: out.ID}, nil
}

// multipartRelated 第一段是 JSON 元数据，第二段是视频本身。
func multipartRelated(meta any, mediaType string, data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	metaPart, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json; charset=UTF-8"}})
	if err != nil {
		return nil, "", err
	}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return nil, "", err
	}

	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	mediaPart, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {mediaType}})
	if err != nil {
		return nil, "", err
	}
	if _, err := mediaPart.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "multipart/related; boundary=" + w.Boundary(), nil
}

func (y *YouTube) Analytics(ctx context.Context, q social.AnalyticsQuery) (social.Metrics, error) {
	u := y.cfg.BaseURL + "/youtube/v3/videos?" + url.Values{
		"part": {"statistics"},
		"id":   {q.PostID},
		"key":  {y.cfg.APIKey},
	}.Encode()

	// statistics 里的计数是字符串
	var out struct {
		Items []struct {
			Statistics struct {
				ViewCount    string `json:"viewCount"`
				LikeCount    string `json:"likeCount"`
				CommentCount string `json:"commentCount"`
			} `json:"statistics"`
		} `json:"items"`
	}
	if _, err := y.client.doJSON(ctx, "video_statistics", http.MethodGet, u, bearer(y.cfg.AccessToken), nil, &out); err != nil {
		return social.Metrics{}, err
	}
	if len(out.Items) == 0 {
		e := social.PlatformError(social.YouTube, fmt.Errorf("video_statistics: video %q not found", q.PostID))
		e.Status = http.StatusNotFound
		return social.Metrics{}, e
	}
	st := out.Items[0].Statistics
	return social.NewMetrics(social.EngagementInput{
		Likes:    parseCount(st.LikeCount),
		Comments: parseCount(st.CommentCount),
		Views:    parseCount(st.ViewCount),
	}), nil
}

// 隐藏了点赞数的视频不返回 likeCount，按 0 处理
func parseCount(s string) uint64 {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
