package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/dgraph-io/ristretto"

	"socialgw.local/internal/platform/metrics"
)

var ErrTooLarge = errors.New("media: body exceeds size limit")

// Media 是下载下来的图片或视频。
type Media struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Fetcher 下载 imageUrl/videoUrl 指向的文件。
// 同一个 URL 在 ttl 内只下载一次（ristretto，按字节计 cost）。
type Fetcher struct {
	client   *http.Client
	cache    *ristretto.Cache
	maxBytes int64
	ttl      time.Duration
}

// NewFetcher cacheBytes 为 0 时不缓存。
func NewFetcher(client *http.Client, maxBytes, cacheBytes int64) (*Fetcher, error) {
	if client == nil {
		client = http.DefaultClient
	}
	f := &Fetcher{client: client, maxBytes: maxBytes, ttl: 10 * time.Minute}
	if cacheBytes > 0 {
		c, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 10_000,
			MaxCost:     cacheBytes,
			BufferItems: 64,
		})
		if err != nil {
			return nil, err
		}
		f.cache = c
	}
	return f, nil
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Media, error) {
	if f.cache != nil {
		if v, ok := f.cache.Get(rawURL); ok {
			metrics.MediaCacheTotal.WithLabelValues("hit").Inc()
			return v.(Media), nil
		}
		metrics.MediaCacheTotal.WithLabelValues("miss").Inc()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Media{}, fmt.Errorf("media: build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Media{}, fmt.Errorf("media: GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Media{}, fmt.Errorf("media: GET %s: status %d", rawURL, resp.StatusCode)
	}
	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return Media{}, ErrTooLarge
	}

	var body io.Reader = resp.Body
	if f.maxBytes > 0 {
		// 多读一个字节，用来判断是否超限
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return Media{}, fmt.Errorf("media: read %s: %w", rawURL, err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return Media{}, ErrTooLarge
	}

	m := Media{
		Data:        data,
		ContentType: contentType(resp.Header.Get("Content-Type"), data),
		Filename:    filename(rawURL),
	}
	if f.cache != nil {
		if !f.cache.SetWithTTL(rawURL, m, int64(len(data)), f.ttl) {
			slog.Debug("media cache rejected item", "url", rawURL, "bytes", len(data))
		}
	}
	return m, nil
}

func (f *Fetcher) Close() {
	if f.cache != nil {
		f.cache.Close()
	}
}

func contentType(header string, data []byte) string {
	if header != "" {
		if mt, _, err := mime.ParseMediaType(header); err == nil && mt != "application/octet-stream" {
			return mt
		}
	}
	return http.DetectContentType(data)
}

func filename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "upload"
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return "upload"
	}
	return base
}
