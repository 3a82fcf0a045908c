package posthog

import (
	"fmt"
	"net/http"
)

// ErrorKind 上游失败分类
type ErrorKind int

const (
	KindClient      ErrorKind = iota // 4xx（429 除外）
	KindRateLimited                  // 429
	KindServer                       // 5xx
	KindTimeout                      // 单次尝试超时
	KindTransport                    // 网络、DNS 等传输层错误
	KindDecode                       // 响应体无法解析
)

func (k ErrorKind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Retryable 是否可以重试
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimited, KindServer, KindTimeout:
		return true
	}
	return false
}

// QueryError 上游查询错误
type QueryError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("posthog query failed (%s, status %d): %s", e.Kind, e.StatusCode, e.Message)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Retryable 是否可以重试
func (e *QueryError) Retryable() bool {
	return e.Kind.Retryable()
}

// kindForStatus 根据状态码分类
func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindServer
	default:
		return KindClient
	}
}

func newStatusError(status int, detail string) *QueryError {
	message := detail
	if message == "" {
		message = fmt.Sprintf("PostHog API error: %d", status)
	}
	return &QueryError{
		Kind:       kindForStatus(status),
		StatusCode: status,
		Message:    message,
	}
}
