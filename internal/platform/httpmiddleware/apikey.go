package httpmiddleware

import (
	"log/slog"
	"net/http"

	"socialgw.local/gee"
	"socialgw.local/internal/platform/auth"
)

const APIKeyHeader = "X-API-Key"

// APIKey 要求请求携带正确的 x-api-key。
func APIKey(a auth.Authenticator) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		if err := a.Authenticate(ctx.Req.Header.Get(APIKeyHeader)); err != nil {
			slog.Debug("api key rejected", "path", ctx.Path, "client", ClientIDFrom(ctx), "err", err)
			ctx.AbortWithError(http.StatusUnauthorized, "Unauthorized")
			return
		}
		id, _ := auth.GetIdentity(ctx.Req.Context())
		id.Authenticated = true
		ctx.Req = ctx.Req.WithContext(auth.WithIdentity(ctx.Req.Context(), id))
		ctx.Next()
	}
}
