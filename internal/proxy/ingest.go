package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/config"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/telemetry"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// StatusClientClosedRequest 客户端在转发完成前断开
const StatusClientClosedRequest = 499

// 转发目标
const (
	TargetIngest = "ingest"
	TargetAsset  = "asset"
)

// 转发结果
const (
	outcomeOK           = "ok"
	outcomeClientClosed = "client_closed"
	outcomeError        = "error"
)

// 逐跳头部，不转发给上游
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Doer 发送转发请求
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Ingest 将前缀下的采集请求转发到 PostHog 的上报域名和静态资源域名
type Ingest struct {
	logger  *zap.Logger
	client  Doer
	metrics *telemetry.Metrics

	prefix     string
	ingestHost string
	assetHost  string
	scheme     string
}

// Option 可选项
type Option func(*Ingest)

// WithDoer 替换发送请求的客户端
func WithDoer(client Doer) Option {
	return func(p *Ingest) {
		p.client = client
	}
}

// WithMetrics 设置指标收集
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(p *Ingest) {
		p.metrics = metrics
	}
}

// NewIngest 创建转发器
func NewIngest(logger *zap.Logger, cfg config.ProxyConfig, opts ...Option) *Ingest {
	p := &Ingest{
		logger:     logger,
		prefix:     strings.TrimRight(cfg.Prefix, "/"),
		ingestHost: cfg.IngestHost,
		assetHost:  cfg.AssetHost,
		scheme:     cfg.Scheme,
	}
	if p.scheme == "" {
		p.scheme = "https"
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = newHTTPClient()
	}
	return p
}

// newHTTPClient 压缩内容原样透传，重定向交给浏览器处理
func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableCompression = true
	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Route 计算转发目标和去掉前缀后的路径
func (p *Ingest) Route(path string) (target, host, rest string) {
	rest = strings.TrimPrefix(path, p.prefix)
	if rest == "" {
		rest = "/"
	}
	if strings.HasPrefix(rest, "/static/") {
		return TargetAsset, p.assetHost, rest
	}
	return TargetIngest, p.ingestHost, rest
}

// Register 挂载前缀下的全部方法和路径，按路径段匹配（/phone 不匹配 /ph）
func (p *Ingest) Register(e *echo.Echo) {
	g := e.Group(p.prefix)
	g.Any("", p.Forward)
	g.Any("/*", p.Forward)
}

// Forward 转发当前请求并原样返回上游响应
func (p *Ingest) Forward(c echo.Context) error {
	r := c.Request()
	target, host, rest := p.Route(r.URL.Path)

	outURL := &url.URL{
		Scheme:   p.scheme,
		Host:     host,
		Path:     rest,
		RawQuery: r.URL.RawQuery,
	}
	if r.URL.RawPath != "" {
		outURL.RawPath = strings.TrimPrefix(r.URL.RawPath, p.prefix)
	}

	var body io.Reader = r.Body
	if r.ContentLength == 0 || r.Body == nil {
		body = http.NoBody
	}
	outReq, err := http.NewRequestWithContext(r.Context(), r.Method, outURL.String(), body)
	if err != nil {
		p.metrics.ObserveProxy(target, outcomeError)
		p.logger.Error("构造转发请求失败", zap.String("path", r.URL.Path), zap.Error(err))
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Proxy request failed"})
	}
	outReq.ContentLength = r.ContentLength
	outReq.Header = r.Header.Clone()
	for _, h := range hopHeaders {
		outReq.Header.Del(h)
	}
	outReq.Host = host

	resp, err := p.client.Do(outReq)
	if err != nil {
		if clientGone(r.Context(), err) {
			p.metrics.ObserveProxy(target, outcomeClientClosed)
			p.logger.Debug("客户端已断开，取消转发", zap.String("target", target), zap.String("path", rest))
			return c.JSON(StatusClientClosedRequest, map[string]string{"error": "Client closed request"})
		}
		p.metrics.ObserveProxy(target, outcomeError)
		p.logger.Error("转发采集请求失败",
			zap.String("target", target),
			zap.String("host", host),
			zap.String("path", rest),
			zap.Error(err),
		)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Proxy request failed"})
	}
	defer resp.Body.Close()

	header := c.Response().Header()
	for k, v := range resp.Header {
		header[k] = v
	}
	c.Response().WriteHeader(resp.StatusCode)

	written, err := io.Copy(c.Response(), resp.Body)
	if err != nil {
		// 响应头已发送，只能记录
		p.logger.Warn("复制转发响应失败",
			zap.String("target", target),
			zap.String("path", rest),
			zap.Int64("written", written),
			zap.Error(err),
		)
	}
	p.metrics.ObserveProxy(target, outcomeOK)
	return nil
}

// clientGone 判断失败是否由客户端断开引起
func clientGone(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}
