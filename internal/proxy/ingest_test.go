package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"

	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/config"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/telemetry"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type doerFunc func(req *http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func testProxyConfig() config.ProxyConfig {
	return config.Default().Proxy
}

func newTestEcho(doer Doer) *echo.Echo {
	e := echo.New()
	p := NewIngest(zap.NewNop(), testProxyConfig(), WithDoer(doer), WithMetrics(telemetry.New()))
	p.Register(e)
	e.GET("/api/stats", func(c echo.Context) error {
		return c.String(http.StatusOK, "routed")
	})
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegisterMatchesPrefixSegments(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/ph", "/"},
		{http.MethodGet, "/ph/", "/"},
		{http.MethodPost, "/ph/e", "/e"},
		{http.MethodPut, "/ph/e", "/e"},
		{http.MethodOptions, "/ph/flags/", "/flags/"},
		{http.MethodGet, "/ph/static/array.js", "/static/array.js"},
		{http.MethodGet, "/phone", ""},
		{http.MethodGet, "/api/ph/e", ""},
		{http.MethodGet, "/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var forwarded string
			e := newTestEcho(doerFunc(func(req *http.Request) (*http.Response, error) {
				forwarded = req.URL.Path
				return &http.Response{StatusCode: http.StatusNoContent, Header: http.Header{}, Body: http.NoBody}, nil
			}))

			rec := serve(e, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.want, forwarded)
			if tt.want == "" {
				assert.Equal(t, http.StatusNotFound, rec.Code)
			} else {
				assert.Equal(t, http.StatusNoContent, rec.Code)
			}
		})
	}
}

func TestForwardStaticToAssetHost(t *testing.T) {
	var got *http.Request
	e := newTestEcho(doerFunc(func(req *http.Request) (*http.Response, error) {
		got = req
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": {"application/javascript"}, "Content-Encoding": {"gzip"}},
			Body:       io.NopCloser(strings.NewReader("compressed-bytes")),
		}, nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/ph/static/x.js?v=1.2&x=%20y", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := serve(e, req)

	require.NotNil(t, got)
	assert.Equal(t, "https", got.URL.Scheme)
	assert.Equal(t, "us-assets.i.posthog.com", got.URL.Host)
	assert.Equal(t, "us-assets.i.posthog.com", got.Host)
	assert.Equal(t, "/static/x.js", got.URL.Path)
	assert.Equal(t, "v=1.2&x=%20y", got.URL.RawQuery)
	assert.Equal(t, "gzip", got.Header.Get("Accept-Encoding"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "compressed-bytes", rec.Body.String())
}

func TestForwardEventToIngestHost(t *testing.T) {
	var (
		got     *http.Request
		gotBody string
	)
	e := newTestEcho(doerFunc(func(req *http.Request) (*http.Response, error) {
		got = req
		b, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		gotBody = string(b)
		return &http.Response{
			StatusCode: http.StatusAccepted,
			Header:     http.Header{"X-Upstream": {"1"}},
			Body:       io.NopCloser(strings.NewReader(`{"status":1}`)),
		}, nil
	}))

	req := httptest.NewRequest(http.MethodPost, "/ph/e/?ip=1", strings.NewReader(`{"event":"$pageview"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Connection", "keep-alive")
	rec := serve(e, req)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "us.i.posthog.com", got.URL.Host)
	assert.Equal(t, "/e/", got.URL.Path)
	assert.Equal(t, "ip=1", got.URL.RawQuery)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Empty(t, got.Header.Get("Connection"))
	assert.Equal(t, int64(len(`{"event":"$pageview"}`)), got.ContentLength)
	assert.Equal(t, `{"event":"$pageview"}`, gotBody)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Upstream"))
	assert.Equal(t, `{"status":1}`, rec.Body.String())
}

func TestUpstreamErrorStatusIsRelayed(t *testing.T) {
	e := newTestEcho(doerFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusServiceUnavailable,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader("unavailable")),
		}, nil
	}))

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/ph/decide", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", rec.Body.String())
}

func TestNonPrefixedRequestPassesThrough(t *testing.T) {
	called := false
	e := newTestEcho(doerFunc(func(req *http.Request) (*http.Response, error) {
		called = true
		return nil, errors.New("unexpected")
	}))

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.False(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "routed", rec.Body.String())
}

func TestForwardFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"取消", context.Canceled, StatusClientClosedRequest},
		{"连接重置", fmt.Errorf("read tcp: %w", syscall.ECONNRESET), StatusClientClosedRequest},
		{"管道断开", fmt.Errorf("write tcp: %w", syscall.EPIPE), StatusClientClosedRequest},
		{"其他错误", errors.New("dial tcp: no such host"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho(doerFunc(func(req *http.Request) (*http.Response, error) {
				return nil, tt.err
			}))

			rec := serve(e, httptest.NewRequest(http.MethodPost, "/ph/e", strings.NewReader("{}")))
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestClientDisconnectBeforeResponse(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := newTestEcho(doerFunc(func(req *http.Request) (*http.Response, error) {
		cancel()
		<-req.Context().Done()
		return nil, errors.New("net/http: request canceled")
	}))

	req := httptest.NewRequest(http.MethodGet, "/ph/e", nil).WithContext(ctx)
	rec := serve(e, req)
	assert.Equal(t, StatusClientClosedRequest, rec.Code)
}

func TestForwardThroughRealUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/flags/", r.URL.Path)
		assert.Equal(t, "v=2", r.URL.RawQuery)
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = io.WriteString(w, "raw")
	}))
	defer upstream.Close()

	cfg := testProxyConfig()
	cfg.Scheme = "http"
	cfg.IngestHost = strings.TrimPrefix(upstream.URL, "http://")

	e := echo.New()
	NewIngest(zap.NewNop(), cfg).Register(e)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/ph/flags/?v=2", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "raw", rec.Body.String())
}
