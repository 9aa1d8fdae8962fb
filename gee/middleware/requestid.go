package middleware

import (
	"github.com/google/uuid"

	"socialgw.local/gee"
)

const requestIDHeader = "X-Request-ID"

// 调用方带来的 id 超过这个长度就换成自己生成的
const maxRequestIDLen = 64

// ReqID 沿用调用方的 X-Request-ID，没有或不合法时生成一个，并写回响应头。
func ReqID() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id := ctx.Req.Header.Get(requestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
			ctx.Req.Header.Set(requestIDHeader, id)
		}
		ctx.SetHeader(requestIDHeader, id)

		ctx.Next()
	}
}

// RequestID 返回当前请求的 id，ReqID 之前调用时可能为空。
func RequestID(ctx *gee.Context) string {
	return ctx.Req.Header.Get(requestIDHeader)
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		// 只接受可打印 ASCII，避免日志注入
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
