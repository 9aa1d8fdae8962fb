package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"socialgw.local/internal/app/social"
	"socialgw.local/internal/app/social/media"
)

type fakeMedia struct {
	mu      sync.Mutex
	fetched []string
}

func (f *fakeMedia) Fetch(_ context.Context, rawURL string) (media.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, rawURL)
	return media.Media{Data: []byte("BYTES:" + rawURL), ContentType: "image/png", Filename: "a.png"}, nil
}

// recorder 记录 vendor 收到的请求顺序。
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, req.Method+" "+req.URL.Path)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

func newVendor(t *testing.T, mux *http.ServeMux) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requirePlatformError(t *testing.T, err error, p social.PlatformID, status int) *social.Error {
	t.Helper()
	require.Error(t, err)
	e, ok := social.AsError(err)
	require.True(t, ok, "want *social.Error, got %T: %v", err, err)
	require.Equal(t, social.KindPlatform, e.Kind)
	require.Equal(t, p.Code(), e.Code)
	require.Equal(t, status, e.HTTPStatus())
	return e
}
