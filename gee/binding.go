package gee

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// MaxBodyBytes 限制 JSON 请求体大小
const MaxBodyBytes = 1 << 20

var (
	ErrEmptyBody    = errors.New("empty body")
	ErrMultipleJSON = errors.New("body must contain only one JSON value")
	ErrBodyTooLarge = errors.New("body too large")
)

// ShouldBindJSON 只解析 json，不写响应。未知字段允许存在。
func (c *Context) ShouldBindJSON(dst any) error {
	body := http.MaxBytesReader(c.Writer, c.Req.Body, MaxBodyBytes)
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return ErrEmptyBody
		case errors.As(err, &tooLarge):
			return ErrBodyTooLarge
		}
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return ErrMultipleJSON
	}
	return nil
}

// BindJSON 解析 json，失败时直接返回 400
func (c *Context) BindJSON(dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithError(http.StatusBadRequest, "Invalid JSON")
		return err
	}
	return nil
}
