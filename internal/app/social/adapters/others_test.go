package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialgw.local/internal/app/social"
	"socialgw.local/internal/app/social/media"
)

func TestYouTubeRequiresVideo(t *testing.T) {
	srv, rec := newVendor(t, http.NewServeMux())
	yt := NewYouTube(YouTubeConfig{AccessToken: "tok", APIKey: "key", BaseURL: srv.URL}, Options{HTTPClient: srv.Client(), Media: &fakeMedia{}})

	_, err := yt.Post(context.Background(), social.PostPayload{Content: "no video"})
	requirePlatformError(t, err, social.YouTube, http.StatusBadRequest)
	assert.Empty(t, rec.list())
}

func TestYouTubeMultipartUploadWithSchedule(t *testing.T) {
	var (
		meta  youTubeVideo
		video string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload/youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		mt, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mt != "multipart/related" || r.URL.Query().Get("uploadType") != "multipart" {
			writeJSON(w, http.StatusBadRequest, nil)
			return
		}
		mr := multipart.NewReader(r.Body, params["boundary"])
		part, _ := mr.NextPart()
		_ = json.NewDecoder(part).Decode(&meta)
		part, _ = mr.NextPart()
		b, _ := io.ReadAll(part)
		video = string(b)
		writeJSON(w, http.StatusOK, map[string]string{"id": "vid1"})
	})
	srv, _ := newVendor(t, mux)
	yt := NewYouTube(YouTubeConfig{AccessToken: "tok", APIKey: "key", BaseURL: srv.URL}, Options{HTTPClient: srv.Client(), Media: &fakeMedia{}})

	at := time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC)
	res, err := yt.Post(context.Background(), social.PostPayload{
		Content:       "Launch day\nmore details",
		VideoURL:      "https://cdn.example/v.mp4",
		ScheduledTime: &at,
	})
	require.NoError(t, err)
	assert.Equal(t, "vid1", res.PostID)
	assert.Equal(t, "Launch day", meta.Snippet.Title)
	assert.Equal(t, "private", meta.Status.PrivacyStatus)
	assert.Equal(t, "2030-05-01T09:00:00Z", meta.Status.PublishAt)
	assert.Equal(t, "BYTES:https://cdn.example/v.mp4", video)
}

func TestYouTubeAnalyticsParsesStringCounts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "missing" {
			writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{map[string]any{
			"statistics": map[string]string{"viewCount": "100", "likeCount": "10", "commentCount": "7"},
		}}})
	})
	srv, _ := newVendor(t, mux)
	yt := NewYouTube(YouTubeConfig{AccessToken: "tok", APIKey: "key", BaseURL: srv.URL}, Options{HTTPClient: srv.Client()})

	m, err := yt.Analytics(context.Background(), social.AnalyticsQuery{PostID: "vid1"})
	require.NoError(t, err)
	assert.Equal(t, social.Metrics{Likes: 10, Comments: 7, Views: 100, Engagement: 17}, m)

	_, err = yt.Analytics(context.Background(), social.AnalyticsQuery{PostID: "missing"})
	requirePlatformError(t, err, social.YouTube, http.StatusNotFound)
}

func TestTelegramPhotoVersusText(t *testing.T) {
	var bodies []map[string]any
	mux := http.NewServeMux()
	handler := func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": map[string]int{"message_id": 55}})
	}
	mux.HandleFunc("POST /botT0K/sendPhoto", handler)
	mux.HandleFunc("POST /botT0K/sendMessage", handler)
	srv, rec := newVendor(t, mux)
	tg := NewTelegram(TelegramConfig{BotToken: "T0K", ChannelID: "@chan", BaseURL: srv.URL}, Options{HTTPClient: srv.Client()})

	res, err := tg.Post(context.Background(), social.PostPayload{Content: "cap", ImageURL: "https://img.example/t.png"})
	require.NoError(t, err)
	assert.Equal(t, "55", res.PostID)

	_, err = tg.Post(context.Background(), social.PostPayload{Content: "plain"})
	require.NoError(t, err)

	assert.Equal(t, []string{"POST /botT0K/sendPhoto", "POST /botT0K/sendMessage"}, rec.list())
	require.Len(t, bodies, 2)
	assert.Equal(t, "@chan", bodies[0]["chat_id"])
	assert.Equal(t, "cap", bodies[0]["caption"])
	assert.Equal(t, "plain", bodies[1]["text"])
}

func TestTelegramAnalyticsIsChannelWide(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /botT0K/getChatMemberCount", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": 1200})
	})
	srv, _ := newVendor(t, mux)
	tg := NewTelegram(TelegramConfig{BotToken: "T0K", ChannelID: "@chan", BaseURL: srv.URL}, Options{HTTPClient: srv.Client()})

	m, err := tg.Analytics(context.Background(), social.AnalyticsQuery{PostID: "55"})
	require.NoError(t, err)
	assert.Equal(t, social.Metrics{Views: 1200, Engagement: 0}, m)
}

func TestGitHubIssuePostAndAnalytics(t *testing.T) {
	var issue map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/acme/site/issues", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ghp" {
			writeJSON(w, http.StatusUnauthorized, nil)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&issue)
		writeJSON(w, http.StatusCreated, map[string]any{"number": 12, "html_url": "https://github.com/acme/site/issues/12"})
	})
	mux.HandleFunc("GET /repos/acme/site/issues/12", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"comments":  2,
			"reactions": map[string]int{"+1": 3, "-1": 9, "heart": 4},
		})
	})
	srv, _ := newVendor(t, mux)
	gh := NewGitHub(GitHubConfig{Token: "ghp", BaseURL: srv.URL}, Options{HTTPClient: srv.Client()})

	res, err := gh.Post(context.Background(), social.PostPayload{Content: "Release notes\nbody", Repository: "acme/site"})
	require.NoError(t, err)
	assert.Equal(t, "acme/site#12", res.PostID)
	assert.Equal(t, "Release notes", issue["title"])
	assert.Equal(t, []any{"social-post"}, issue["labels"])

	m, err := gh.Analytics(context.Background(), social.AnalyticsQuery{PostID: res.PostID})
	require.NoError(t, err)
	assert.Equal(t, social.Metrics{Likes: 3, Comments: 2, Shares: 0, Views: 0, Engagement: 5.0}, m)
}

func TestGitHubPreconditions(t *testing.T) {
	srv, rec := newVendor(t, http.NewServeMux())
	gh := NewGitHub(GitHubConfig{Token: "ghp", BaseURL: srv.URL}, Options{HTTPClient: srv.Client()})

	_, err := gh.Post(context.Background(), social.PostPayload{Content: "x"})
	requirePlatformError(t, err, social.GitHub, http.StatusBadRequest)

	for _, id := range []string{"12", "acme/site", "acme/site#x", "acme#1"} {
		_, err := gh.Analytics(context.Background(), social.AnalyticsQuery{PostID: id})
		requirePlatformError(t, err, social.GitHub, http.StatusBadRequest)
	}
	assert.Empty(t, rec.list())
}

func TestVendorTimeout(t *testing.T) {
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/acme/site/issues", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	srv, _ := newVendor(t, mux)
	defer close(release)

	gh := NewGitHub(GitHubConfig{Token: "ghp", BaseURL: srv.URL}, Options{HTTPClient: srv.Client(), Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := gh.Post(context.Background(), social.PostPayload{Content: "x", Repository: "acme/site"})
	requirePlatformError(t, err, social.GitHub, http.StatusInternalServerError)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestTransportErrorsDoNotLeakCredentials(t *testing.T) {
	// 关掉的 server 保证连接被拒绝
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	defer slog.SetDefault(prev)

	const botToken = "123:SECRET-BOT-TOKEN"
	tg := NewTelegram(TelegramConfig{BotToken: botToken, ChannelID: "@chan", BaseURL: deadURL}, Options{})
	_, err := tg.Post(context.Background(), social.PostPayload{Content: "hi"})
	requirePlatformError(t, err, social.Telegram, http.StatusInternalServerError)
	assert.NotContains(t, err.Error(), "SECRET-BOT-TOKEN")

	const pageToken = "SECRET-PAGE-TOKEN"
	fb := NewFacebook(FacebookConfig{PageID: "page1", PageAccessToken: pageToken, BaseURL: deadURL}, Options{})
	_, err = fb.Analytics(context.Background(), social.AnalyticsQuery{PostID: "p1"})
	requirePlatformError(t, err, social.Facebook, http.StatusInternalServerError)
	assert.NotContains(t, err.Error(), pageToken)

	assert.NotEmpty(t, logs.String())
	assert.NotContains(t, logs.String(), "SECRET-BOT-TOKEN")
	assert.NotContains(t, logs.String(), pageToken)
}

// hangingMedia 一直阻塞到 ctx 结束，模拟永不响应的素材地址。
type hangingMedia struct{}

func (hangingMedia) Fetch(ctx context.Context, _ string) (media.Media, error) {
	<-ctx.Done()
	return media.Media{}, ctx.Err()
}

func TestMediaFetchHonoursVendorTimeout(t *testing.T) {
	srv, rec := newVendor(t, http.NewServeMux())
	yt := NewYouTube(YouTubeConfig{AccessToken: "tok", APIKey: "key", BaseURL: srv.URL},
		Options{HTTPClient: srv.Client(), Media: hangingMedia{}, Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := yt.Post(context.Background(), social.PostPayload{Content: "x", VideoURL: "https://slow.example/v.mp4"})
	e := requirePlatformError(t, err, social.YouTube, http.StatusInternalServerError)
	assert.ErrorIs(t, e, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Empty(t, rec.list())
}

func TestBreakerOpensOnRepeatedServerErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/site/issues/1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	srv, rec := newVendor(t, mux)
	gh := NewGitHub(GitHubConfig{Token: "ghp", BaseURL: srv.URL}, Options{HTTPClient: srv.Client(), BreakerEnabled: true})

	var last error
	for i := 0; i < 12; i++ {
		_, last = gh.Analytics(context.Background(), social.AnalyticsQuery{PostID: "acme/site#1"})
	}
	requirePlatformError(t, last, social.GitHub, http.StatusServiceUnavailable)
	// 熔断后不再打到 vendor
	assert.Less(t, len(rec.list()), 12)
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	assert.False(t, breakerFailure(&StatusError{Status: 404}))
	assert.True(t, breakerFailure(&StatusError{Status: 429}))
	assert.True(t, breakerFailure(&StatusError{Status: 503}))
	assert.True(t, breakerFailure(io.ErrUnexpectedEOF))
	assert.False(t, breakerFailure(nil))
}

func TestNewAllCoversEveryPlatform(t *testing.T) {
	all := NewAll(social.MapProvider{"GITHUB_BASE_URL": "http://gh.local/"}, Options{})
	got := make([]social.PlatformID, 0, len(all))
	for _, a := range all {
		got = append(got, a.Platform())
	}
	assert.Equal(t, social.SupportedPlatforms(), got)

	for _, a := range all {
		if gh, ok := a.(*GitHub); ok {
			assert.Equal(t, "http://gh.local", gh.cfg.BaseURL)
		}
	}
	_, err := social.NewRegistry(all...)
	require.NoError(t, err)
}

func TestTitleFrom(t *testing.T) {
	assert.Equal(t, "explicit", titleFrom(social.PostPayload{Title: "explicit", Content: "c"}))
	assert.Equal(t, "first", titleFrom(social.PostPayload{Content: "  first\nsecond"}))
	assert.Len(t, []rune(titleFrom(social.PostPayload{Content: strings.Repeat("é", 150)})), 100)
}
