package httpapi

import (
	"errors"
	"net/http"
	"time"

	"socialgw.local/gee"
	"socialgw.local/internal/app/social"
	"socialgw.local/internal/app/social/events"
	"socialgw.local/internal/platform/httpmiddleware"
)

// NewSocialHandler 就是 handleSocialRequest：解析信封，交给 dispatcher，
// 成功时原样返回 adapter 的结果。
func NewSocialHandler(d *social.Dispatcher, collector events.Collector) gee.HandlerFunc {
	if collector == nil {
		collector = events.Discard{}
	}
	return func(ctx *gee.Context) {
		start := time.Now()

		var env social.Envelope
		if err := ctx.ShouldBindJSON(&env); err != nil {
			switch {
			case errors.Is(err, gee.ErrEmptyBody):
				writeError(ctx, social.ValidationError("Missing required fields"))
			case errors.Is(err, gee.ErrBodyTooLarge):
				ctx.AbortWithError(http.StatusRequestEntityTooLarge, "Request body too large")
			default:
				ctx.AbortWithError(http.StatusBadRequest, "Invalid JSON")
			}
			return
		}

		result, err := d.Handle(ctx.Req.Context(), env)

		ev := events.NewDispatchEvent(env.Platform, env.Action)
		ev.ClientID = httpmiddleware.ClientIDFrom(ctx)
		ev.RequestID = ctx.Req.Header.Get("X-Request-ID")
		ev.Outcome = social.Outcome(err)
		if err != nil {
			ev.Status = writeError(ctx, err)
			if e, ok := social.AsError(err); ok {
				ev.ErrMessage = e.Message
			}
		} else {
			ctx.JSON(http.StatusOK, result)
			ev.Status = http.StatusOK
			if r, ok := result.(social.PostResult); ok {
				ev.PostID = r.PostID
			}
		}
		ev.Duration = time.Since(start)
		collector.Collect(ev)
	}
}

// RequireConfig 每个请求都检查一次凭证是否齐全，缺失时 500。
func RequireConfig(gate *social.ConfigGate) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		if err := gate.EnsureReady(); err != nil {
			writeError(ctx, err)
			return
		}
		ctx.Next()
	}
}

type platformStatus struct {
	Name    string   `json:"name"`
	Enabled bool     `json:"enabled"`
	Ready   bool     `json:"ready"`
	Actions []string `json:"actions"`
}

// NewPlatformsHandler 列出支持的平台以及各自的凭证状态（不含 key 名）。
func NewPlatformsHandler(reg *social.Registry, gate *social.ConfigGate) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		enabled := make(map[social.PlatformID]bool)
		for _, p := range gate.Scope() {
			enabled[p] = true
		}
		actions := []string{string(social.ActionPost), string(social.ActionAnalytics)}

		out := make([]platformStatus, 0, len(reg.Platforms()))
		for _, p := range reg.Platforms() {
			out = append(out, platformStatus{
				Name:    string(p),
				Enabled: enabled[p],
				Ready:   gate.Ready(p),
				Actions: actions,
			})
		}
		ctx.JSON(http.StatusOK, gee.H{"platforms": out})
	}
}
