package httpmiddleware

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"socialgw.local/gee"
	sgtrace "socialgw.local/internal/platform/trace"
)

// TraceName 用路由模板重命名 otelhttp 创建的 span，并记下客户端标识。
func TraceName() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		ctx.Next()
		span := trace.SpanFromContext(ctx.Req.Context())
		if ctx.RoutePattern != "" {
			span.SetName(ctx.Method + " " + ctx.RoutePattern)
		}
		if id := ClientIDFrom(ctx); id != "" {
			span.SetAttributes(attribute.String(sgtrace.ClientID, id))
		}
	}
}
