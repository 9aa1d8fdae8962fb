package social

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthentication
	KindRateLimit
	KindPlatform
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindRateLimit:
		return "rate_limit"
	case KindPlatform:
		return "platform"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeConfig     = "CONFIG_ERROR"
)

// Error 是网关唯一的业务错误类型，Kind 决定它属于哪一类。
// 非 *Error 的错误在传输层一律按 500 处理，详情只写日志。
type Error struct {
	Kind    Kind
	Status  int // 只有 KindPlatform 会用到：adapter 声明的状态码，0 表示 500
	Code    string
	Message string

	Platform   PlatformID
	Supported  []PlatformID
	Missing    []string
	RetryAfter int64

	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Platform != "" {
		b.WriteString(" [")
		b.WriteString(string(e.Platform))
		b.WriteString("]")
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Missing) > 0 {
		b.WriteString(" (missing: ")
		b.WriteString(strings.Join(e.Missing, ", "))
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// HTTPStatus 对 Kind 做穷举匹配。
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindPlatform:
		if e.Status >= 400 && e.Status <= 599 {
			return e.Status
		}
		return http.StatusInternalServerError
	case KindConfig:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func ValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: message}
}

func UnsupportedPlatformError(supported []PlatformID) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: "Unsupported platform", Supported: supported}
}

func AuthenticationError() *Error {
	return &Error{Kind: KindAuthentication, Message: "Unauthorized"}
}

func RateLimitError(retryAfter int64) *Error {
	return &Error{Kind: KindRateLimit, Message: "Too many requests", RetryAfter: retryAfter}
}

// PlatformError 包装一次失败的 vendor 调用，状态码默认 500。
func PlatformError(p PlatformID, cause error) *Error {
	return &Error{
		Kind:     KindPlatform,
		Code:     p.Code(),
		Message:  fmt.Sprintf("%s request failed", p),
		Platform: p,
		Cause:    cause,
	}
}

// PlatformPrecondition 是平台特有的前置条件失败（例如 Instagram 必须带图），
// 在调用 vendor 之前返回 400，错误码仍然是 <PLATFORM>_ERROR。
func PlatformPrecondition(p PlatformID, message string) *Error {
	return &Error{
		Kind:     KindPlatform,
		Status:   http.StatusBadRequest,
		Code:     p.Code(),
		Message:  message,
		Platform: p,
	}
}

func ConfigError(missing []string) *Error {
	return &Error{
		Kind:    KindConfig,
		Code:    CodeConfig,
		Message: "Missing required configuration",
		Missing: missing,
	}
}
