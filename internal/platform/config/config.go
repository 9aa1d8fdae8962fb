package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string
	IdleTimeout       time.Duration // 连接处理完一个请求后等待 IdleTimeout 后依旧没有请求，就会关闭此空闲连接
	ShutdownTimeout   time.Duration // 关闭服务的最长等待时间，超过后强制断开连接
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration

	// 日志配置信息
	LogLevel    slog.Level
	LogFormat   string
	ServiceName string

	PprofEnabled bool
	AdminAddr    string

	OtlpGrpcEndpoint string
	OtlpServiceName  string
	TracingEnabled   bool

	// 网关共享密钥（x-api-key）
	APIKey string
	// 逗号分隔，为空表示全部平台
	EnabledPlatforms string

	// RateLimit
	RateLimitEnabled        bool
	RateLimitBackend        string // memory | redis
	RateLimitLimit          int
	RateLimitWindow         time.Duration
	RateLimitMaxClients     int
	RateLimitSweepInterval  time.Duration
	RateLimitTrustForwarded bool

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// 分发事件：log | kafka
	EventsBackend string
	EventsBuffer  int
	KafkaBrokers  []string
	KafkaTopic    string

	// Vendor 调用
	VendorTimeout        time.Duration
	VendorBreakerEnabled bool
	MediaMaxBytes        int64
	MediaCacheBytes      int64

	// 加载时的环境变量快照（已合并 .env），平台凭证从这里读
	env map[string]string
}

func Load() Config {
	cfg := Config{
		Addr:              ":9999",
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// 视频上传会比较慢，写超时要大于 VendorTimeout
		WriteTimeout: 60 * time.Second,

		LogLevel:    slog.LevelInfo,
		LogFormat:   "json",
		ServiceName: "social-gateway",

		PprofEnabled: false,
		AdminAddr:    "127.0.0.1:6060",

		OtlpGrpcEndpoint: "127.0.0.1:4317",
		OtlpServiceName:  "social-gateway",
		TracingEnabled:   true,

		RateLimitEnabled:        true,
		RateLimitBackend:        "memory",
		RateLimitLimit:          60,
		RateLimitWindow:         60 * time.Second,
		RateLimitMaxClients:     100_000,
		RateLimitSweepInterval:  time.Minute,
		RateLimitTrustForwarded: true,

		RedisAddr:     "localhost:6379",
		RedisPassword: "",
		RedisDB:       0,

		EventsBackend: "log",
		EventsBuffer:  10000,
		KafkaBrokers:  []string{"localhost:9092"},
		KafkaTopic:    "social-dispatch-events",

		VendorTimeout:        30 * time.Second,
		VendorBreakerEnabled: false,
		MediaMaxBytes:        50 << 20,
		MediaCacheBytes:      64 << 20,
	}

	_ = godotenv.Load(".env")

	if v, ok := os.LookupEnv("ADDR"); ok && v != "" {
		cfg.Addr = v
	}
	if v, ok := os.LookupEnv("IDLE_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.IdleTimeout = d
		}
	}
	if v, ok := os.LookupEnv("SHUTDOWN_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}
	if v, ok := os.LookupEnv("READ_HEADER_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ReadHeaderTimeout = d
		}
	}
	if v, ok := os.LookupEnv("READ_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ReadTimeout = d
		}
	}
	if v, ok := os.LookupEnv("WRITE_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WriteTimeout = d
		}
	}

	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		switch strings.ToLower(v) {
		case "debug":
			cfg.LogLevel = slog.LevelDebug
		case "info":
			cfg.LogLevel = slog.LevelInfo
		case "warn", "warning":
			cfg.LogLevel = slog.LevelWarn
		case "error":
			cfg.LogLevel = slog.LevelError
		default:
			cfg.LogLevel = slog.LevelInfo
		}
	}
	if v, ok := os.LookupEnv("LOG_FORMAT"); ok && v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv("SERVICE_NAME"); ok && v != "" {
		cfg.ServiceName = v
	}

	if v, ok := os.LookupEnv("PPROF_ENABLED"); ok && v != "" {
		cfg.PprofEnabled = strings.ToLower(v) == "true"
	}
	if v, ok := os.LookupEnv("ADMIN_ADDR"); ok && v != "" {
		cfg.AdminAddr = v
	}

	if v, ok := os.LookupEnv("OTLP_GRPC_ENDPOINT"); ok && v != "" {
		cfg.OtlpGrpcEndpoint = v
	}
	if v, ok := os.LookupEnv("OTLP_SERVICE_NAME"); ok && v != "" {
		cfg.OtlpServiceName = v
	}
	if v, ok := os.LookupEnv("TRACING_ENABLED"); ok && v != "" {
		cfg.TracingEnabled = strings.ToLower(v) == "true"
	}

	if v, ok := os.LookupEnv("API_KEY"); ok && v != "" {
		cfg.APIKey = v
	}
	if v, ok := os.LookupEnv("ENABLED_PLATFORMS"); ok && v != "" {
		cfg.EnabledPlatforms = v
	}

	// RateLimit
	if v, ok := os.LookupEnv("RATELIMIT_ENABLED"); ok && v != "" {
		cfg.RateLimitEnabled = strings.ToLower(v) == "true"
	}
	if v, ok := os.LookupEnv("RATELIMIT_BACKEND"); ok && v != "" {
		cfg.RateLimitBackend = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv("RATELIMIT_LIMIT"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitLimit = n
		}
	}
	if v, ok := os.LookupEnv("RATELIMIT_WINDOW"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RateLimitWindow = d
		}
	}
	if v, ok := os.LookupEnv("RATELIMIT_MAX_CLIENTS"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitMaxClients = n
		}
	}
	if v, ok := os.LookupEnv("RATELIMIT_SWEEP_INTERVAL"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RateLimitSweepInterval = d
		}
	}
	if v, ok := os.LookupEnv("RATELIMIT_TRUST_FORWARDED"); ok && v != "" {
		cfg.RateLimitTrustForwarded = strings.ToLower(v) == "true"
	}

	// Redis
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok && v != "" {
		cfg.RedisAddr = v
	}
	if v, ok := os.LookupEnv("REDIS_PASSWORD"); ok && v != "" {
		cfg.RedisPassword = v
	}
	if v, ok := os.LookupEnv("REDIS_DB"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RedisDB = n
		}
	}

	// Events
	if v, ok := os.LookupEnv("EVENTS_BACKEND"); ok && v != "" {
		cfg.EventsBackend = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv("EVENTS_BUFFER"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EventsBuffer = n
		}
	}
	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok && v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("KAFKA_TOPIC"); ok && v != "" {
		cfg.KafkaTopic = v
	}

	// Vendor
	if v, ok := os.LookupEnv("VENDOR_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.VendorTimeout = d
		}
	}
	if v, ok := os.LookupEnv("VENDOR_BREAKER_ENABLED"); ok && v != "" {
		cfg.VendorBreakerEnabled = strings.ToLower(v) == "true"
	}
	if v, ok := os.LookupEnv("MEDIA_MAX_BYTES"); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MediaMaxBytes = n
		}
	}
	if v, ok := os.LookupEnv("MEDIA_CACHE_BYTES"); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			cfg.MediaCacheBytes = n
		}
	}

	cfg.env = snapshotEnv()
	return cfg
}

func snapshotEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			env[k] = v
		}
	}
	return env
}

// Lookup 读取加载时的环境变量，平台凭证通过它提供给 config gate 和 adapter。
func (c Config) Lookup(key string) (string, bool) {
	v, ok := c.env[key]
	return v, ok
}

// WithEnv 返回一个使用给定凭证的副本，测试用。
func (c Config) WithEnv(env map[string]string) Config {
	c.env = env
	return c
}
