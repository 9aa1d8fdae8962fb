package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialgw.local/internal/app/social"
)

func TestFacebookImagePostUploadsUnpublishedPhotoFirst(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /page1/photos", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("published") != "false" || r.PostForm.Get("url") != "https://img.example/p.jpg" {
			writeJSON(w, http.StatusBadRequest, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": "photo9"})
	})
	mux.HandleFunc("POST /page1/feed", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		var attached map[string]string
		_ = json.Unmarshal([]byte(r.PostForm.Get("attached_media[0]")), &attached)
		if attached["media_fbid"] != "photo9" || r.PostForm.Get("message") != "look" || r.PostForm.Get("access_token") != "pat" {
			writeJSON(w, http.StatusBadRequest, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": "page1_post1"})
	})
	srv, rec := newVendor(t, mux)
	fb := NewFacebook(FacebookConfig{PageID: "page1", PageAccessToken: "pat", BaseURL: srv.URL}, Options{HTTPClient: srv.Client()})

	res, err := fb.Post(context.Background(), social.PostPayload{Content: "look", ImageURL: "https://img.example/p.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "page1_post1", res.PostID)
	assert.Equal(t, []string{"POST /page1/photos", "POST /page1/feed"}, rec.list())
}

func TestFacebookAnalytics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /p1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"likes":    map[string]any{"summary": map[string]int{"total_count": 10}},
			"comments": map[string]any{"summary": map[string]int{"total_count": 5}},
			"shares":   map[string]int{"count": 2},
		})
	})
	mux.HandleFunc("GET /p1/insights", func(w http.ResponseWriter, r *http.Request) {
		// token 走 header，不能出现在 URL 里
		if r.URL.Query().Get("metric") != "post_impressions" || r.URL.Query().Has("access_token") || r.Header.Get("Authorization") != "Bearer pat" {
			writeJSON(w, http.StatusBadRequest, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{
			map[string]any{"name": "post_impressions", "values": []any{map[string]int{"value": 100}}},
		}})
	})
	srv, _ := newVendor(t, mux)
	fb := NewFacebook(FacebookConfig{PageID: "page1", PageAccessToken: "pat", BaseURL: srv.URL}, Options{HTTPClient: srv.Client()})

	m, err := fb.Analytics(context.Background(), social.AnalyticsQuery{PostID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, social.Metrics{Likes: 10, Comments: 5, Shares: 2, Views: 100, Engagement: 17}, m)
}

func TestFacebookAnalyticsFailsWhenEitherCallFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /p1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	mux.HandleFunc("GET /p1/insights", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]string{"message": "bad metric"}})
	})
	srv, _ := newVendor(t, mux)
	fb := NewFacebook(FacebookConfig{PageID: "page1", PageAccessToken: "pat", BaseURL: srv.URL}, Options{HTTPClient: srv.Client()})

	_, err := fb.Analytics(context.Background(), social.AnalyticsQuery{PostID: "p1"})
	requirePlatformError(t, err, social.Facebook, http.StatusInternalServerError)
}

func TestInstagramRequiresImageBeforeAnyCall(t *testing.T) {
	srv, rec := newVendor(t, http.NewServeMux())
	ig := NewInstagram(InstagramConfig{AccountID: "ig1", AccessToken: "tok", BaseURL: srv.URL}, Options{HTTPClient: srv.Client()})

	_, err := ig.Post(context.Background(), social.PostPayload{Content: "no image"})
	e := requirePlatformError(t, err, social.Instagram, http.StatusBadRequest)
	assert.Equal(t, "INSTAGRAM_ERROR", e.Code)
	assert.NotEqual(t, social.CodeValidation, e.Code)
	assert.Empty(t, rec.list())
}

func TestInstagramContainerThenPublish(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ig1/media", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("image_url") == "" || r.PostForm.Get("caption") != "cap" {
			writeJSON(w, http.StatusBadRequest, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": "container1"})
	})
	mux.HandleFunc("POST /ig1/media_publish", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("creation_id") != "container1" {
			writeJSON(w, http.StatusBadRequest, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": "media77"})
	})
	mux.HandleFunc("GET /media77", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{"like_count": 3, "comments_count": 1})
	})
	mux.HandleFunc("GET /media77/insights", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{
			map[string]any{"name": "impressions", "values": []any{map[string]int{"value": 40}}},
		}})
	})
	srv, rec := newVendor(t, mux)
	ig := NewInstagram(InstagramConfig{AccountID: "ig1", AccessToken: "tok", BaseURL: srv.URL}, Options{HTTPClient: srv.Client()})

	res, err := ig.Post(context.Background(), social.PostPayload{Content: "cap", ImageURL: "https://img.example/i.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "media77", res.PostID)
	assert.Equal(t, []string{"POST /ig1/media", "POST /ig1/media_publish"}, rec.list())

	m, err := ig.Analytics(context.Background(), social.AnalyticsQuery{PostID: "media77"})
	require.NoError(t, err)
	assert.Equal(t, social.Metrics{Likes: 3, Comments: 1, Views: 40, Engagement: 10}, m)
}

func TestWhatsAppRequiresRecipient(t *testing.T) {
	srv, rec := newVendor(t, http.NewServeMux())
	wa := NewWhatsApp(WhatsAppConfig{AccessToken: "tok", PhoneNumberID: "555", BaseURL: srv.URL}, Options{HTTPClient: srv.Client()})

	_, err := wa.Post(context.Background(), social.PostPayload{Content: "hi"})
	requirePlatformError(t, err, social.WhatsApp, http.StatusBadRequest)
	assert.Empty(t, rec.list())
}

func TestWhatsAppPostAndDeliveryStatus(t *testing.T) {
	var sent map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /555/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			writeJSON(w, http.StatusUnauthorized, nil)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&sent)
		writeJSON(w, http.StatusOK, map[string]any{"messages": []map[string]string{{"id": "wamid.1"}}})
	})
	statuses := map[string]string{"wamid.1": "delivered", "wamid.2": "sent", "wamid.3": "read"}
	mux.HandleFunc("GET /{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": statuses[r.PathValue("id")]})
	})
	srv, _ := newVendor(t, mux)
	wa := NewWhatsApp(WhatsAppConfig{AccessToken: "tok", PhoneNumberID: "555", BaseURL: srv.URL}, Options{HTTPClient: srv.Client()})

	res, err := wa.Post(context.Background(), social.PostPayload{Content: "hi", Recipient: "+15551234567"})
	require.NoError(t, err)
	assert.Equal(t, "wamid.1", res.PostID)
	assert.Equal(t, "+15551234567", sent["to"])
	assert.Equal(t, "text", sent["type"])

	tests := map[string]uint64{"wamid.1": 1, "wamid.2": 0, "wamid.3": 1}
	for id, views := range tests {
		m, err := wa.Analytics(context.Background(), social.AnalyticsQuery{PostID: id})
		require.NoError(t, err)
		assert.Equal(t, social.Metrics{Views: views}, m, id)
	}
}
