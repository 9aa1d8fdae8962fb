package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"socialgw.local/internal/app/social"
	"socialgw.local/internal/app/social/media"
	"socialgw.local/internal/platform/metrics"
	sgtrace "socialgw.local/internal/platform/trace"
)

const maxErrorBody = 512

// MediaFetcher 下载 payload 里的图片/视频。
type MediaFetcher interface {
	Fetch(ctx context.Context, rawURL string) (media.Media, error)
}

// Options 是所有 adapter 共用的出站配置。
type Options struct {
	// HTTPClient 为空时使用带 otelhttp transport 的默认 client
	HTTPClient *http.Client
	// Timeout 单次 vendor 调用的截止时间，0 表示不设
	Timeout time.Duration
	// BreakerEnabled 为每个平台启用一个熔断器，vendor 持续 5xx 时快速失败
	BreakerEnabled bool
	Media          MediaFetcher
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}

// StatusError 是 vendor 返回的非 2xx 响应。
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return "vendor returned status " + strconv.Itoa(e.Status)
	}
	return "vendor returned status " + strconv.Itoa(e.Status) + ": " + e.Body
}

type vendorRequest struct {
	step        string
	method      string
	url         string
	header      http.Header
	body        []byte
	contentType string
}

type vendorResponse struct {
	status int
	header http.Header
	body   []byte
}

// vendorClient 执行一次 vendor 调用：截止时间、熔断、span、延迟指标，
// 非 2xx 和传输错误统一转成 PlatformError。不重试。
type vendorClient struct {
	platform social.PlatformID
	http     *http.Client
	timeout  time.Duration
	breaker  circuitbreaker.CircuitBreaker[any]
	tracer   trace.Tracer
}

func newVendorClient(p social.PlatformID, client *http.Client, opts Options) *vendorClient {
	c := &vendorClient{
		platform: p,
		http:     client,
		timeout:  opts.Timeout,
		tracer:   otel.Tracer("socialgw.local/internal/app/social/adapters"),
	}
	if opts.BreakerEnabled {
		c.breaker = newBreaker(p)
	}
	return c
}

func newBreaker(p social.PlatformID) circuitbreaker.CircuitBreaker[any] {
	return circuitbreaker.NewBuilder[any]().
		HandleIf(func(_ any, err error) bool { return breakerFailure(err) }).
		WithFailureThresholdRatio(5, 10).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("vendor circuit breaker state change",
				"platform", p, "from", e.OldState, "to", e.NewState)
		}).
		Build()
}

// 只有传输错误、429 和 5xx 计入熔断，4xx 是调用方的问题。
func breakerFailure(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status == http.StatusTooManyRequests || se.Status >= 500
	}
	return true
}

func (c *vendorClient) do(ctx context.Context, r vendorRequest) (*vendorResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span := c.tracer.Start(ctx, "vendor."+r.step, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String(sgtrace.SocialPlatform, string(c.platform)),
		attribute.String(sgtrace.SocialStep, r.step),
	)
	defer span.End()

	start := time.Now()
	var (
		resp *vendorResponse
		err  error
	)
	if c.breaker != nil {
		var v any
		v, err = failsafe.With(c.breaker).Get(func() (any, error) {
			return c.send(ctx, r)
		})
		resp, _ = v.(*vendorResponse)
	} else {
		resp, err = c.send(ctx, r)
	}

	status := "error"
	if resp != nil {
		status = strconv.Itoa(resp.status)
	}
	metrics.VendorRequestDurationSeconds.WithLabelValues(string(c.platform), r.step, status).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, r.step)
		slog.Warn("vendor call failed", "platform", c.platform, "step", r.step, "status", status, "err", err)
		perr := social.PlatformError(c.platform, fmt.Errorf("%s: %w", r.step, err))
		if errors.Is(err, circuitbreaker.ErrOpen) {
			perr.Status = http.StatusServiceUnavailable
		}
		return resp, perr
	}
	return resp, nil
}

// fetchMedia 下载素材，和 vendor 调用共用同一个截止时间。
func (c *vendorClient) fetchMedia(ctx context.Context, src MediaFetcher, rawURL string) (media.Media, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	m, err := src.Fetch(ctx, rawURL)
	if err != nil {
		return media.Media{}, social.PlatformError(c.platform, fmt.Errorf("fetch media: %w", err))
	}
	return m, nil
}

func (c *vendorClient) send(ctx context.Context, r vendorRequest) (*vendorResponse, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", redactURL(err))
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, redactURL(err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	out := &vendorResponse{status: res.StatusCode, header: res.Header, body: data}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return out, &StatusError{Status: res.StatusCode, Body: truncate(string(data), maxErrorBody)}
	}
	return out, nil
}

// doJSON 发送 JSON 请求体（in 为 nil 时不带 body），并把响应解码到 out（可为 nil）。
func (c *vendorClient) doJSON(ctx context.Context, step, method, rawURL string, header http.Header, in, out any) (*vendorResponse, error) {
	r := vendorRequest{step: step, method: method, url: rawURL, header: header}
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, social.PlatformError(c.platform, fmt.Errorf("%s: marshal: %w", step, err))
		}
		r.body = data
		r.contentType = "application/json"
	}
	resp, err := c.do(ctx, r)
	if err != nil {
		return resp, err
	}
	if err := c.decode(step, resp, out); err != nil {
		return resp, err
	}
	return resp, nil
}

// doForm 发送 application/x-www-form-urlencoded（Graph API 的写接口）。
func (c *vendorClient) doForm(ctx context.Context, step, rawURL string, form url.Values, out any) (*vendorResponse, error) {
	resp, err := c.do(ctx, vendorRequest{
		step:        step,
		method:      http.MethodPost,
		url:         rawURL,
		body:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	})
	if err != nil {
		return resp, err
	}
	if err := c.decode(step, resp, out); err != nil {
		return resp, err
	}
	return resp, nil
}

func (c *vendorClient) decode(step string, resp *vendorResponse, out any) error {
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return social.PlatformError(c.platform, fmt.Errorf("%s: decode response: %w", step, err))
	}
	return nil
}

// fail 用于 vendor 返回 2xx 但内容不符合预期的情况。
func (c *vendorClient) fail(step, format string, args ...any) error {
	return social.PlatformError(c.platform, fmt.Errorf("%s: "+format, append([]any{step}, args...)...))
}

// redactURL 去掉 *url.Error 里的完整 URL，Telegram 的 bot token 在 path 里。
func redactURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}

func bearer(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// titleFrom 取 payload.Title，没有时用正文第一行（最多 100 个字符）。
func titleFrom(p social.PostPayload) string {
	if t := strings.TrimSpace(p.Title); t != "" {
		return t
	}
	line, _, _ := strings.Cut(strings.TrimSpace(p.Content), "\n")
	r := []rune(strings.TrimSpace(line))
	if len(r) > 100 {
		r = r[:100]
	}
	return string(r)
}

func baseURL(provider social.ConfigProvider, key, def string) string {
	if v := social.Value(provider, key); v != "" {
		return strings.TrimRight(v, "/")
	}
	return def
}
