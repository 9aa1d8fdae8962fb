package gee

// ErrorResponse 是所有错误响应的最小形状：{"error": "..."}。
// 请求序号走 X-Request-ID 响应头，不进 body。
type ErrorResponse struct {
	Error string `json:"error"`
}

func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}
