package httpmiddleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"socialgw.local/gee"
	"socialgw.local/gee/middleware"
	"socialgw.local/internal/platform/auth"
	"socialgw.local/internal/platform/metrics"
	"socialgw.local/internal/platform/ratelimit"
)

// 与访问日志共用同一个 key
const clientIDKey = middleware.ClientKey

// ClientIP 获取限流用的客户端标识。
//
// trustForwarded=true 时无条件取 X-Forwarded-For 的第一个值，客户端可以伪造它绕过限流，
// 只适合前面一定有反代覆盖该头的部署。false 时只有请求来自可信代理（同机/内网）才看转发头。
func ClientIP(req *http.Request, trustForwarded bool) string {
	remoteHost, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		remoteHost = req.RemoteAddr
	}

	if trustForwarded {
		if first := firstForwarded(req.Header.Get("X-Forwarded-For")); first != "" {
			return first
		}
		return remoteHost
	}

	remoteIP := net.ParseIP(remoteHost)
	if remoteIP == nil || !isTrustedProxy(remoteIP) {
		return remoteHost
	}

	// Cloudflare -> Caddy -> app：优先使用 CF-Connecting-IP。
	if cf := strings.TrimSpace(req.Header.Get("CF-Connecting-IP")); cf != "" {
		if net.ParseIP(cf) != nil {
			return cf
		}
	}

	// 第一个 IP 一般是原始客户端 IP（后面会追加经过的代理 IP）。
	if xff := firstForwarded(req.Header.Get("X-Forwarded-For")); xff != "" {
		if net.ParseIP(xff) != nil {
			return xff
		}
	}

	if xrip := strings.TrimSpace(req.Header.Get("X-Real-IP")); xrip != "" {
		if net.ParseIP(xrip) != nil {
			return xrip
		}
	}

	return remoteHost
}

func firstForwarded(xff string) string {
	if i := strings.IndexByte(xff, ','); i >= 0 {
		xff = xff[:i]
	}
	return strings.TrimSpace(xff)
}

func isTrustedProxy(ip net.IP) bool {
	if ip.IsLoopback() {
		return true
	}

	// RFC1918 私网网段（docker bridge / 内网转发）。
	ip4 := ip.To4()
	if ip4 == nil {
		// IPv6 ULA：fc00::/7
		return len(ip) == net.IPv6len && (ip[0]&0xfe) == 0xfc
	}
	if ip4[0] == 10 {
		return true
	}
	if ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31 {
		return true
	}
	if ip4[0] == 192 && ip4[1] == 168 {
		return true
	}
	return false
}

// ClientIDFrom 返回 RateLimit 中间件识别出的客户端标识。
func ClientIDFrom(ctx *gee.Context) string {
	if v, ok := ctx.Get(clientIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

type rateLimitBody struct {
	Error      string `json:"error"`
	RetryAfter int64  `json:"retryAfter"`
}

// RateLimit 每个请求都会带上 X-RateLimit-* 头；超限返回 429。
// limiter 为 nil 时只识别客户端，不做限流。store 出错时放行。
func RateLimit(limiter *ratelimit.Limiter, trustForwarded bool) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		clientID := ClientIP(ctx.Req, trustForwarded)
		ctx.Set(clientIDKey, clientID)
		ctx.Req = ctx.Req.WithContext(auth.WithIdentity(ctx.Req.Context(), auth.Identity{ClientID: clientID}))

		if limiter == nil {
			ctx.Next()
			return
		}

		rlCtx, cancel := context.WithTimeout(ctx.Req.Context(), 100*time.Millisecond)
		d, err := limiter.Allow(rlCtx, clientID)
		cancel()
		if err != nil {
			metrics.RateLimitDecisionsTotal.WithLabelValues("error").Inc()
			slog.Error("rate limit check failed", "client", clientID, "err", err)
			// store 故障时放行，头里只能给出配置值
			ctx.SetHeader("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			ctx.SetHeader("X-RateLimit-Remaining", strconv.Itoa(limiter.Limit()))
			ctx.SetHeader("X-RateLimit-Reset", strconv.FormatInt(resetUnix(time.Now().Add(limiter.Window())), 10))
			ctx.Next()
			return
		}

		ctx.SetHeader("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		ctx.SetHeader("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		ctx.SetHeader("X-RateLimit-Reset", strconv.FormatInt(resetUnix(d.ResetAt), 10))

		if !d.Allowed {
			metrics.RateLimitDecisionsTotal.WithLabelValues("rejected").Inc()
			secs := d.RetryAfterSeconds()
			ctx.SetHeader("Retry-After", strconv.FormatInt(secs, 10))
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, rateLimitBody{
				Error:      "Too many requests",
				RetryAfter: secs,
			})
			return
		}
		metrics.RateLimitDecisionsTotal.WithLabelValues("allowed").Inc()
		ctx.Next()
	}
}

// resetUnix 向上取整到秒，客户端等到这个时间点一定已经进入新窗口。
func resetUnix(t time.Time) int64 {
	return (t.UnixMilli() + 999) / 1000
}
