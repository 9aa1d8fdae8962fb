package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"socialgw.local/gee"
	"socialgw.local/gee/middleware"
	"socialgw.local/internal/app/social"
	"socialgw.local/internal/app/social/adapters"
	"socialgw.local/internal/app/social/events"
	"socialgw.local/internal/app/social/httpapi"
	"socialgw.local/internal/app/social/media"
	"socialgw.local/internal/platform/auth"
	platformcache "socialgw.local/internal/platform/cache"
	"socialgw.local/internal/platform/config"
	"socialgw.local/internal/platform/httpmiddleware"
	"socialgw.local/internal/platform/httpserver"
	"socialgw.local/internal/platform/metrics"
	"socialgw.local/internal/platform/ratelimit"
	"socialgw.local/internal/platform/trace"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cfg := config.Load()

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.LogFormat == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	var shutdown func(context.Context) error
	if cfg.TracingEnabled {
		shutdown = trace.InitTrace(cfg.OtlpGrpcEndpoint, cfg.OtlpServiceName)
		if shutdown == nil {
			slog.Error("Trace init failed")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					slog.Error(err.Error())
				}
			}()
		}
	} else {
		slog.Warn("Tracing disabled by config", "TRACING_ENABLED", false)
	}

	//限流器
	var limiter *ratelimit.Limiter
	if cfg.RateLimitEnabled {
		var store ratelimit.Store
		switch cfg.RateLimitBackend {
		case "redis":
			redisClient, err := platformcache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				log.Fatal(err)
			}
			defer redisClient.Close()
			store = ratelimit.NewRedisStore(redisClient, "rl:social:")
			slog.Info("限流使用 Redis", "addr", cfg.RedisAddr)
		default:
			memStore, err := ratelimit.NewMemoryStore(cfg.RateLimitMaxClients)
			if err != nil {
				log.Fatal(err)
			}
			go memStore.RunSweeper(stopCtx, cfg.RateLimitSweepInterval)
			store = memStore
			slog.Info("限流使用本地内存", "max_clients", cfg.RateLimitMaxClients)
		}
		var err error
		limiter, err = ratelimit.NewLimiter(store, cfg.RateLimitLimit, cfg.RateLimitWindow)
		if err != nil {
			log.Fatal(err)
		}
		slog.Info("RateLimit enabled", "limit", limiter.Limit(), "window", limiter.Window())
	} else {
		slog.Warn("RateLimit disabled by config", "RATELIMIT_ENABLED", false)
	}
	if cfg.RateLimitTrustForwarded {
		slog.Warn("X-Forwarded-For is trusted from any peer; clients can choose their rate-limit identity",
			"RATELIMIT_TRUST_FORWARDED", true)
	}

	//vendor 出站
	vendorHTTP := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	fetcher, err := media.NewFetcher(vendorHTTP, cfg.MediaMaxBytes, cfg.MediaCacheBytes)
	if err != nil {
		log.Fatal(err)
	}
	defer fetcher.Close()

	registry, err := social.NewRegistry(adapters.NewAll(cfg, adapters.Options{
		HTTPClient:     vendorHTTP,
		Timeout:        cfg.VendorTimeout,
		BreakerEnabled: cfg.VendorBreakerEnabled,
		Media:          fetcher,
	})...)
	if err != nil {
		log.Fatal(err)
	}
	dispatcher := social.NewDispatcher(registry)

	scope, unknown := social.ParsePlatformList(cfg.EnabledPlatforms)
	if len(unknown) > 0 {
		slog.Warn("ENABLED_PLATFORMS has unknown platforms", "unknown", unknown)
	}
	gate := social.NewConfigGate(cfg, scope)
	if err := gate.EnsureReady(); err != nil {
		// 不退出：运维可以补齐凭证后重启，期间请求返回 500
		if e, ok := social.AsError(err); ok {
			slog.Warn("platform credentials incomplete", "missing", e.Missing)
		}
	}
	if cfg.APIKey == "" {
		slog.Warn("API_KEY is empty, every request will be rejected")
	}

	//初始化分发事件收集器（根据配置选择 Channel 或 Kafka）
	var collector events.Collector
	switch cfg.EventsBackend {
	case "kafka":
		slog.Info("使用 Kafka 收集分发事件", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		collector = events.NewKafkaCollector(cfg.KafkaBrokers, cfg.KafkaTopic)
	case "none":
		collector = events.Discard{}
	default:
		slog.Info("使用 Channel 收集分发事件")
		channelCollector := events.NewChannelCollector(cfg.EventsBuffer)
		collector = channelCollector
		go events.NewConsumer(channelCollector, nil).Run(stopCtx)
	}
	defer collector.Close()

	// 对外业务
	r := gee.New()
	r.Use(
		gee.Recovery(),
		middleware.ReqID(),
		middleware.AccessLog(),
		httpmiddleware.Metrics(),
		httpmiddleware.TraceName(),
		httpmiddleware.RateLimit(limiter, cfg.RateLimitTrustForwarded),
	)

	httpapi.RegisterRoutes(r, dispatcher, gate, auth.NewSharedSecret(cfg.APIKey), collector)

	r.GET("/healthz", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "ok")
	})

	publicHandler := http.Handler(r)
	if cfg.TracingEnabled {
		publicHandler = otelhttp.NewHandler(r, "http")
	}
	publicSrv := httpserver.New(cfg, publicHandler)

	// 仅本机/内网
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	// 凭证是否齐全；缺失的 key 名只在这里和日志里出现
	adminMux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := gate.EnsureReady(); err != nil {
			var missing []string
			if e, ok := social.AsError(err); ok {
				missing = e.Missing
			}
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]any{"ready": false, "missing": missing})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"ready": true, "platforms": gate.Scope()})
	})

	adminMux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"service_name": cfg.ServiceName,
			"version":      version,
			"commit":       commit,
			"build_time":   buildTime,
			"go_version":   runtime.Version(),
		})
	})

	if cfg.PprofEnabled {
		adminMux.HandleFunc("/debug/pprof/", pprof.Index)
		adminMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		adminMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		adminMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		adminMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	adminSrv := httpserver.NewAdmin(cfg, adminMux) // 推荐：127.0.0.1:6060

	slog.Info("social gateway starting", "addr", cfg.Addr, "admin", cfg.AdminAddr,
		"platforms", registry.Platforms(), "version", version)

	errch := make(chan error, 2)

	go func() {
		errch <- httpserver.RunWithGracefulShutdownContext(publicSrv, cfg.ShutdownTimeout, stopCtx)
	}()
	go func() {
		errch <- httpserver.RunWithGracefulShutdownContext(adminSrv, cfg.ShutdownTimeout, stopCtx)
	}()

	err = <-errch
	if err != nil {
		stop()
		select {
		case <-errch:
		case <-time.After(cfg.ShutdownTimeout + time.Second):
		}
		log.Fatal(err)
	}

	stop()
	<-errch
}
