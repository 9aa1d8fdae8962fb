package gee

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseWriterDefaultStatus(t *testing.T) {
	rw := NewResponseWriter(httptest.NewRecorder())
	if rw.Status() != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rw.Status(), http.StatusOK)
	}
	if rw.Written() {
		t.Fatal("Written() should be false before any write")
	}
}

func TestResponseWriterWriteHeaderOnce(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	rw.WriteHeader(http.StatusTooManyRequests)
	rw.WriteHeader(http.StatusInternalServerError)

	if rw.Status() != http.StatusTooManyRequests {
		t.Fatalf("status: got %d, want %d", rw.Status(), http.StatusTooManyRequests)
	}
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("underlying status: got %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}

func TestResponseWriterSizeAndImplicitStatus(t *testing.T) {
	rw := NewResponseWriter(httptest.NewRecorder())

	rw.Write([]byte("hello"))
	rw.Write([]byte(" world"))

	if rw.Size() != 11 {
		t.Fatalf("size: got %d, want 11", rw.Size())
	}
	if !rw.Written() || rw.Status() != http.StatusOK {
		t.Fatalf("written=%v status=%d, want true/200", rw.Written(), rw.Status())
	}
}

func TestResponseWriterUnwrap(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)
	if rw.Unwrap() != w {
		t.Fatal("Unwrap should return the wrapped writer")
	}
}
