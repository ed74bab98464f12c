package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrNoCredential 表示链上没有任何上游配置了凭证。
var ErrNoCredential = errors.New("upstream: no provider credential configured")

// HTTPError 记录上游的非 2xx 响应。Details 在响应体是合法 JSON 时保存原文，
// 否则为 {message, text}。
type HTTPError struct {
	Provider   string
	StatusCode int
	Details    any
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream %s: unexpected status %d", e.Provider, e.StatusCode)
}

// HTTPStatusCode 返回需要透传给调用方的状态码。
func (e *HTTPError) HTTPStatusCode() int {
	return e.StatusCode
}

// TransportError 包装连接失败、超时以及模型客户端错误。
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func errorDetails(status int, body []byte) any {
	if len(body) > 0 && json.Valid(body) {
		return json.RawMessage(body)
	}
	return map[string]string{
		"message": fmt.Sprintf("%d %s", status, http.StatusText(status)),
		"text":    string(body),
	}
}
