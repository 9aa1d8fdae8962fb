package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"socialgw.local/internal/platform/config"
)

// 请求头上限；请求体由 gee.MaxBodyBytes 单独限制
const maxHeaderBytes = 64 << 10

// New 构造对外服务。
func New(cfg config.Config, handler http.Handler) *http.Server {
	return build(cfg, cfg.Addr, handler)
}

// NewAdmin 构造 /metrics、/readyz 所在的管理服务，只应监听本机或内网地址。
func NewAdmin(cfg config.Config, handler http.Handler) *http.Server {
	return build(cfg, cfg.AdminAddr, handler)
}

func build(cfg config.Config, addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
		// net/http 内部错误（TLS 握手、请求头解析）也走 slog
		ErrorLog: slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
	}
}

// RunWithGracefulShutdownContext 阻塞到 stopCtx 结束或监听失败。
// stopCtx 结束后最多等 shutdownTimeout 让进行中的请求（包括慢的 vendor 调用）完成。
func RunWithGracefulShutdownContext(srv *http.Server, shutdownTimeout time.Duration, stopCtx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-stopCtx.Done():
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		slog.Info("http server stopped", "addr", srv.Addr)
	}
	return nil
}
