package auth

import (
	"crypto/subtle"
	"errors"
)

var (
	ErrMissingKey = errors.New("auth: missing api key")
	ErrInvalidKey = errors.New("auth: invalid api key")
	ErrNoSecret   = errors.New("auth: no api key configured")
)

// Authenticator 校验调用方提供的凭证。
type Authenticator interface {
	Authenticate(provided string) error
}

// SharedSecret 和网关配置的 API_KEY 做常量时间比较。
// 没有配置密钥时拒绝所有请求。
type SharedSecret struct {
	secret []byte
}

func NewSharedSecret(secret string) *SharedSecret {
	return &SharedSecret{secret: []byte(secret)}
}

func (s *SharedSecret) Authenticate(provided string) error {
	if len(s.secret) == 0 {
		return ErrNoSecret
	}
	if provided == "" {
		return ErrMissingKey
	}
	if subtle.ConstantTimeCompare([]byte(provided), s.secret) != 1 {
		return ErrInvalidKey
	}
	return nil
}
