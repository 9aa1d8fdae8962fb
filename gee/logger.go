package gee

import (
	"log/slog"
	"time"
)

// Logger 是 Default() 带的简易访问日志（Debug 级别），
// 网关进程用 middleware.AccessLog，它带 request id 和客户端标识。
func Logger() HandlerFunc {
	return func(ctx *Context) {
		t := time.Now()
		ctx.Next()
		route := ctx.RoutePattern
		if route == "" {
			route = ctx.Path
		}
		slog.Debug("request",
			"method", ctx.Method,
			"route", route,
			"status", ctx.Writer.Status(),
			"latency_us", time.Since(t).Microseconds(),
			"bytes", ctx.Writer.Size())
	}
}
