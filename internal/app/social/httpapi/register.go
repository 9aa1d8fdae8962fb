// Package httpapi 是 social 网关的传输层：HTTP <-> dispatcher。
// 领域逻辑在 internal/app/social，本包只做解析、错误映射和响应格式。
package httpapi

import (
	"socialgw.local/gee"
	"socialgw.local/internal/app/social"
	"socialgw.local/internal/app/social/events"
	"socialgw.local/internal/platform/auth"
	"socialgw.local/internal/platform/httpmiddleware"
)

// RegisterRoutes 挂载 /api/social。
//
// 限流是全局中间件（在 cmd/api 里挂）；鉴权和凭证检查挂在路由上，
// 这样 GET /api/social 直接 405，不需要 key。
func RegisterRoutes(r *gee.Engine, d *social.Dispatcher, gate *social.ConfigGate, authn auth.Authenticator, collector events.Collector) {
	api := r.Group("/api/social")
	api.POST("", httpmiddleware.APIKey(authn), RequireConfig(gate), NewSocialHandler(d, collector))
	api.GET("/platforms", httpmiddleware.APIKey(authn), NewPlatformsHandler(d.Registry(), gate))
}
