package gee

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type bindTarget struct {
	Platform string `json:"platform"`
}

func TestShouldBindJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"ok", `{"platform":"twitter"}`, nil},
		{"unknown fields allowed", `{"platform":"twitter","extra":1}`, nil},
		{"empty", ``, ErrEmptyBody},
		{"two values", `{"platform":"a"}{"platform":"b"}`, ErrMultipleJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			c := newContext(httptest.NewRecorder(), req)
			var dst bindTarget
			err := c.ShouldBindJSON(&dst)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("error: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBindJSONWritesBadRequest(t *testing.T) {
	w := httptest.NewRecorder()
	c := newContext(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json")))

	var dst bindTarget
	if err := c.BindJSON(&dst); err == nil {
		t.Fatal("expected error")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusBadRequest)
	}
	if !strings.Contains(w.Body.String(), `"error":"Invalid JSON"`) {
		t.Fatalf("body: got %q", w.Body.String())
	}
}
