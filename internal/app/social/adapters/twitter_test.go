package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialgw.local/internal/app/social"
)

func newTestTwitter(t *testing.T, mux *http.ServeMux) (*Twitter, *recorder, *fakeMedia) {
	srv, rec := newVendor(t, mux)
	fm := &fakeMedia{}
	tw := NewTwitter(TwitterConfig{
		APIKey: "ck", APISecret: "cs", AccessToken: "at", AccessSecret: "as",
		BaseURL: srv.URL, UploadURL: srv.URL,
	}, Options{HTTPClient: srv.Client(), Media: fm})
	return tw, rec, fm
}

func TestTwitterPostTextIsSigned(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /2/tweets", func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "OAuth ") || !strings.Contains(auth, `oauth_consumer_key="ck"`) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"title": "Unauthorized"})
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["text"] != "hello" || body["media"] != nil {
			writeJSON(w, http.StatusBadRequest, body)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]string{"id": "123", "text": "hello"}})
	})
	tw, rec, _ := newTestTwitter(t, mux)

	res, err := tw.Post(context.Background(), social.PostPayload{Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, social.PostResult{PostID: "123"}, res)
	assert.Equal(t, []string{"POST /2/tweets"}, rec.list())
}

func TestTwitterPostWithImageUploadsFirst(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /1.1/media/upload.json", func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("media")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		file.Close()
		writeJSON(w, http.StatusOK, map[string]any{"media_id": 999, "media_id_string": "999"})
	})
	mux.HandleFunc("POST /2/tweets", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Media struct {
				MediaIDs []string `json:"media_ids"`
			} `json:"media"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Media.MediaIDs) != 1 || body.Media.MediaIDs[0] != "999" {
			writeJSON(w, http.StatusBadRequest, body)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]string{"id": "124"}})
	})
	tw, rec, fm := newTestTwitter(t, mux)

	res, err := tw.Post(context.Background(), social.PostPayload{Content: "pic", ImageURL: "https://img.example/a.png"})
	require.NoError(t, err)
	assert.Equal(t, "124", res.PostID)
	assert.Equal(t, []string{"POST /1.1/media/upload.json", "POST /2/tweets"}, rec.list())
	assert.Equal(t, []string{"https://img.example/a.png"}, fm.fetched)
}

func TestTwitterAnalytics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /2/tweets/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "123" || r.URL.Query().Get("tweet.fields") != "public_metrics" {
			writeJSON(w, http.StatusBadRequest, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"id": "123",
			"public_metrics": map[string]int{
				"like_count": 10, "reply_count": 5, "retweet_count": 1, "quote_count": 1, "impression_count": 100,
			},
		}})
	})
	tw, _, _ := newTestTwitter(t, mux)

	m, err := tw.Analytics(context.Background(), social.AnalyticsQuery{PostID: "123"})
	require.NoError(t, err)
	assert.Equal(t, social.Metrics{Likes: 10, Comments: 5, Shares: 2, Views: 100, Engagement: 17}, m)
}

func TestTwitterVendorErrorBecomesPlatformError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /2/tweets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "duplicate content"})
	})
	tw, _, _ := newTestTwitter(t, mux)

	_, err := tw.Post(context.Background(), social.PostPayload{Content: "dup"})
	e := requirePlatformError(t, err, social.Twitter, http.StatusInternalServerError)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Status)
	assert.Contains(t, se.Body, "duplicate content")
	assert.Equal(t, social.Twitter, e.Platform)
}
