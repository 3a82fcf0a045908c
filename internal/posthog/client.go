package posthog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/config"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/protocol"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/telemetry"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

// 错误响应体最多读取的字节数
const maxErrorBody = 64 << 10

// Client PostHog 查询客户端
type Client struct {
	logger     *zap.Logger
	httpClient *http.Client
	limiter    *Limiter
	metrics    *telemetry.Metrics

	endpoint    string
	apiKey      string
	timeout     time.Duration
	maxAttempts int
	retryBase   time.Duration
	retryMax    time.Duration
}

// Option 客户端可选项
type Option func(*Client)

// WithHTTPClient 替换底层 HTTP 客户端
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMetrics 设置指标收集
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// NewClient 创建查询客户端，limiter 由调用方创建以便在多个客户端之间共享
func NewClient(logger *zap.Logger, cfg config.PostHogConfig, limiter *Limiter, opts ...Option) *Client {
	c := &Client{
		logger:      logger,
		httpClient:  &http.Client{},
		limiter:     limiter,
		endpoint:    fmt.Sprintf("%s/api/projects/%s/query/", strings.TrimRight(cfg.APIHost, "/"), cfg.ProjectID),
		apiKey:      cfg.APIKey,
		timeout:     cfg.Timeout,
		maxAttempts: cfg.MaxAttempts,
		retryBase:   cfg.RetryBaseDelay,
		retryMax:    cfg.RetryMaxDelay,
	}
	if c.limiter == nil {
		c.limiter = NewLimiter(cfg.MaxConcurrent)
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = 1
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Limiter 客户端使用的并发闸门
func (c *Client) Limiter() *Limiter {
	return c.limiter
}

// Query 执行 HogQL 查询。
// 429、5xx 和超时按指数退避重试，其余错误立即返回；退避期间不占用并发槽位。
func (c *Client) Query(ctx context.Context, hogql string) (*protocol.QueryResult, error) {
	b := &backoff.Backoff{
		Min:    c.retryBase,
		Max:    c.retryMax,
		Factor: 2,
	}

	var lastErr *QueryError
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		result, err := c.attempt(ctx, hogql)
		if err == nil {
			return result, nil
		}

		var qe *QueryError
		if !errors.As(err, &qe) {
			return nil, err
		}
		lastErr = qe

		if !qe.Retryable() || attempt == c.maxAttempts {
			break
		}

		wait := b.Duration()
		c.logger.Warn("PostHog 查询失败，准备重试",
			zap.Int("attempt", attempt),
			zap.Int("statusCode", qe.StatusCode),
			zap.String("kind", qe.Kind.String()),
			zap.Duration("backoff", wait))
		c.metrics.IncRetry()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, lastErr
}

// attempt 在并发槽位内执行一次请求，持有槽位直到响应体读取完成
func (c *Client) attempt(ctx context.Context, hogql string) (result *protocol.QueryResult, err error) {
	err = c.limiter.Do(ctx, func() error {
		start := time.Now()
		result, err = c.send(ctx, hogql)
		c.metrics.ObserveUpstream(outcome(err), time.Since(start))
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// send 发送请求并解析结果，单次请求受 timeout 限制
func (c *Client) send(ctx context.Context, hogql string) (*protocol.QueryResult, error) {
	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(protocol.NewQueryPayload(hogql))
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.requestError(ctx, attemptCtx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError(resp)
	}

	result, err := protocol.DecodeQueryResult(resp.Body)
	if err != nil {
		if ctx.Err() == nil && attemptCtx.Err() != nil {
			return nil, c.timeoutError(err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &QueryError{
			Kind:       KindDecode,
			StatusCode: http.StatusBadGateway,
			Message:    "Invalid response from PostHog",
			Err:        err,
		}
	}
	return result, nil
}

// requestError 区分调用方取消、单次超时和传输层错误
func (c *Client) requestError(ctx, attemptCtx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return c.timeoutError(err)
	}
	c.logger.Error("PostHog 请求失败", zap.Error(err))
	return &QueryError{
		Kind:       KindTransport,
		StatusCode: http.StatusBadGateway,
		Message:    "PostHog API is unreachable",
		Err:        err,
	}
}

func (c *Client) timeoutError(err error) *QueryError {
	return &QueryError{
		Kind:       KindTimeout,
		StatusCode: http.StatusGatewayTimeout,
		Message:    fmt.Sprintf("PostHog query timed out after %s", c.timeout),
		Err:        err,
	}
}

// statusError 解析上游错误响应，优先使用 detail 字段
func (c *Client) statusError(resp *http.Response) *QueryError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var errResp protocol.ErrorResponse
	if len(body) > 0 {
		_ = json.Unmarshal(body, &errResp)
	}
	return newStatusError(resp.StatusCode, errResp.Detail)
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind.String()
	}
	return "canceled"
}
