package httpmiddleware

import (
	"strconv"
	"time"

	"socialgw.local/gee"
	"socialgw.local/internal/platform/metrics"
)

func Metrics() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		start := time.Now()
		metrics.HTTPInflightRequests.Inc()       //正在处理的请求数+1
		defer metrics.HTTPInflightRequests.Dec() //请求处理结束
		defer func() {
			// RoutePattern 在路由匹配后才有值，所以放到 Next 之后再取
			routePattern := ctx.RoutePattern
			if routePattern == "" {
				routePattern = "UNMATCHED"
			}
			duration := time.Since(start).Seconds()
			status := ctx.Writer.Status()
			metrics.HTTPRequestsTotal.WithLabelValues(ctx.Method, routePattern, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDurationSeconds.WithLabelValues(ctx.Method, routePattern).Observe(duration)
		}()
		ctx.Next()
	}
}
