package social

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"socialgw.local/internal/platform/metrics"
	sgtrace "socialgw.local/internal/platform/trace"
)

// Envelope 是 POST /api/social 的请求体。Data 延迟解码，等确定了 action 再按对应结构解析。
type Envelope struct {
	Platform string          `json:"platform"`
	Action   string          `json:"action"`
	Data     json.RawMessage `json:"data"`
}

type actionFunc func(ctx context.Context, d *Dispatcher, a Adapter, data json.RawMessage) (any, error)

var actions = map[Action]actionFunc{
	ActionPost:      runPost,
	ActionAnalytics: runAnalytics,
}

type Dispatcher struct {
	registry *Registry
	validate *validator.Validate
	tracer   trace.Tracer
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		validate: newValidator(),
		tracer:   otel.Tracer("socialgw.local/internal/app/social"),
	}
}

func (d *Dispatcher) Registry() *Registry { return d.registry }

// Handle 校验信封、两级查找（平台、action）、解码并校验 data，最后才调用 adapter。
// 前四步任何一步失败都不会产生 vendor 调用。
func (d *Dispatcher) Handle(ctx context.Context, env Envelope) (result any, err error) {
	platformLabel, actionLabel := "unknown", "unknown"
	start := time.Now()

	ctx, span := d.tracer.Start(ctx, "social.dispatch")
	defer func() {
		span.SetAttributes(
			attribute.String(sgtrace.SocialPlatform, platformLabel),
			attribute.String(sgtrace.SocialAction, actionLabel),
		)
		outcome := Outcome(err)
		span.SetAttributes(attribute.String(sgtrace.SocialOutcome, outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
		metrics.DispatchTotal.WithLabelValues(platformLabel, actionLabel, outcome).Inc()
		metrics.DispatchDurationSeconds.WithLabelValues(platformLabel, actionLabel).Observe(time.Since(start).Seconds())
	}()

	if env.Platform == "" || env.Action == "" || isAbsent(env.Data) {
		return nil, ValidationError("Missing required fields")
	}

	adapter, ok := d.registry.Lookup(env.Platform)
	if !ok {
		return nil, UnsupportedPlatformError(d.registry.Platforms())
	}
	platformLabel = string(adapter.Platform())

	action, ok := ParseAction(env.Action)
	if !ok {
		return nil, ValidationError("Invalid action")
	}
	run, ok := actions[action]
	if !ok {
		return nil, ValidationError("Invalid action")
	}
	actionLabel = string(action)

	return run(ctx, d, adapter, env.Data)
}

func runPost(ctx context.Context, d *Dispatcher, a Adapter, data json.RawMessage) (any, error) {
	var payload PostPayload
	if err := d.decode(data, &payload); err != nil {
		return nil, err
	}
	res, err := a.Post(ctx, payload)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func runAnalytics(ctx context.Context, d *Dispatcher, a Adapter, data json.RawMessage) (any, error) {
	var query AnalyticsQuery
	if err := d.decode(data, &query); err != nil {
		return nil, err
	}
	if query.StartDate != nil && query.EndDate != nil && query.EndDate.Before(*query.StartDate) {
		return nil, ValidationError("endDate must not be before startDate")
	}
	m, err := a.Analytics(ctx, query)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (d *Dispatcher) decode(data json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ValidationError("data must be an object")
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return &Error{Kind: KindValidation, Code: CodeValidation, Message: "Invalid data", Cause: err}
	}
	if err := d.validate.Struct(dst); err != nil {
		return &Error{Kind: KindValidation, Code: CodeValidation, Message: validationMessage(err), Cause: err}
	}
	return nil
}

func isAbsent(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Outcome 给日志、指标和 span 用的结果标签。
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if e, ok := AsError(err); ok {
		return e.Kind.String()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "internal"
}
