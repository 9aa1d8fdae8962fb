package middleware

import (
	"log/slog"
	"time"

	"socialgw.local/gee"
)

// ClientKey 是限流中间件写入客户端标识用的 key，访问日志顺带记录。
const ClientKey = "client_id"

// AccessLog 每个请求一行日志；5xx 用 Error 级别，健康检查不记。
func AccessLog() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		if ctx.Path == "/healthz" {
			ctx.Next()
			return
		}
		start := time.Now()

		ctx.Next()

		status := ctx.Writer.Status()
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}
		attrs := []slog.Attr{
			slog.String("request_id", RequestID(ctx)),
			slog.String("method", ctx.Method),
			slog.String("path", ctx.Path),
			slog.String("route", ctx.RoutePattern),
			slog.Int("status", status),
			slog.Int("bytes", ctx.Writer.Size()),
			slog.Int64("latency_ms", time.Since(start).Milliseconds()),
		}
		if v, ok := ctx.Get(ClientKey); ok {
			if s, ok := v.(string); ok {
				attrs = append(attrs, slog.String("client", s))
			}
		}
		slog.LogAttrs(ctx.Req.Context(), level, "access", attrs...)
	}
}
