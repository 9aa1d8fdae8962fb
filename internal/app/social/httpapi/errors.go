package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"socialgw.local/gee"
	"socialgw.local/internal/app/social"
)

// errorBody 是所有错误响应的形状；只有 error 一定存在。
type errorBody struct {
	Error              string   `json:"error"`
	Code               string   `json:"code,omitempty"`
	SupportedPlatforms []string `json:"supportedPlatforms,omitempty"`
	RetryAfter         int64    `json:"retryAfter,omitempty"`
}

// writeError 是错误到 HTTP 的唯一映射。非 *social.Error 一律 500，详情只进日志。
// 返回实际写出的状态码。
func writeError(ctx *gee.Context, err error) int {
	e, ok := social.AsError(err)
	if !ok {
		slog.Error("social request failed", "err", err, "path", ctx.Path,
			"request_id", ctx.Req.Header.Get("X-Request-ID"))
		ctx.AbortWithError(http.StatusInternalServerError, "Internal server error")
		return http.StatusInternalServerError
	}

	status := e.HTTPStatus()
	body := errorBody{Error: e.Message}
	switch e.Kind {
	case social.KindValidation:
		if len(e.Supported) > 0 {
			body.SupportedPlatforms = social.PlatformNames(e.Supported)
		}
	case social.KindAuthentication:
	case social.KindRateLimit:
		body.RetryAfter = e.RetryAfter
		ctx.SetHeader("Retry-After", strconv.FormatInt(e.RetryAfter, 10))
	case social.KindPlatform:
		body.Code = e.Code
		slog.Warn("platform error", "platform", e.Platform, "status", status, "err", e)
	case social.KindConfig:
		// 缺了哪些 key 只写日志和 /readyz，不返回给调用方
		body.Code = e.Code
		slog.Error("configuration incomplete", "missing", e.Missing)
	}
	ctx.AbortWithStatusJSON(status, body)
	return status
}
