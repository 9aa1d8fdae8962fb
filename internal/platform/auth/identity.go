package auth

import "context"

// Identity 是通过 API key 校验后的调用方。
// ClientID 是限流用的客户端标识（转发头或连接地址）。
type Identity struct {
	ClientID      string
	Authenticated bool
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func GetIdentity(ctx context.Context) (Identity, bool) {
	v := ctx.Value(identityKey{})
	id, ok := v.(Identity)
	return id, ok
}
