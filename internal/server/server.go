package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/config"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/handler"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/proxy"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/telemetry"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/version"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Server HTTP 服务
type Server struct {
	logger  *zap.Logger
	cfg     config.ServerConfig
	metrics *telemetry.Metrics
	echo    *echo.Echo
}

// New 创建 HTTP 服务，ingest 为 nil 时不启用采集转发
func New(logger *zap.Logger, cfg config.ServerConfig, metrics *telemetry.Metrics, stats *handler.StatsHandler, ingest *proxy.Ingest) *Server {
	s := &Server{
		logger:  logger,
		cfg:     cfg,
		metrics: metrics,
		echo:    echo.New(),
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler
	e.Server.ReadHeaderTimeout = cfg.ReadHeaderTimeout
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Pre(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(s.observe)
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:     true,
		LogURI:        true,
		LogStatus:     true,
		LogLatency:    true,
		LogRequestID:  true,
		LogRemoteIP:   true,
		LogError:      true,
		HandleError:   true,
		LogValuesFunc: s.logRequest,
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.logger.Error("请求处理发生 panic",
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
				zap.ByteString("stack", stack),
			)
			return err
		},
	}))

	e.GET("/healthz", s.health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}
	stats.Register(e.Group(handler.BasePath))
	if ingest != nil {
		ingest.Register(e)
	}

	return s
}

// Handler 返回完整的 HTTP 处理链
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run 启动服务，ctx 结束后优雅退出
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP 服务启动", zap.String("addr", s.cfg.Addr))
		if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("starting http server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("HTTP 服务正在关闭")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return <-errCh
}

func (s *Server) health(c echo.Context) error {
	return handler.Success(c, map[string]string{
		"status":  "ok",
		"version": version.Full(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// observe 按路由统计请求数
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		route := c.Path()
		if route == "/metrics" {
			return err
		}
		status := c.Response().Status
		if status == http.StatusNotFound || route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTP(route, status)
		return err
	}
}

func (s *Server) logRequest(c echo.Context, v middleware.RequestLoggerValues) error {
	fields := []zap.Field{
		zap.String("method", v.Method),
		zap.String("uri", v.URI),
		zap.Int("status", v.Status),
		zap.Duration("latency", v.Latency),
		zap.String("requestId", v.RequestID),
		zap.String("remoteIp", v.RemoteIP),
	}
	if v.Error != nil {
		fields = append(fields, zap.Error(v.Error))
		s.logger.Warn("请求失败", fields...)
		return nil
	}
	s.logger.Debug("请求完成", fields...)
	return nil
}

// errorHandler 框架错误（路由不存在、方法不允许、panic）同样使用统一响应格式
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}

	var writeErr error
	switch {
	case code == http.StatusNotFound:
		writeErr = handler.Fail(c, code, handler.CodeNotFound, "Resource not found")
	case code == http.StatusMethodNotAllowed:
		allowed := c.Response().Header().Get(echo.HeaderAllow)
		if allowed == "" {
			allowed = http.MethodGet
		}
		writeErr = handler.Fail(c, code, handler.CodeMethodNotAllowed, "Method not allowed. Allowed methods: "+allowed)
	case code < http.StatusInternalServerError:
		writeErr = handler.Fail(c, code, handler.CodeBadRequest, fmt.Sprint(he.Message))
	default:
		s.logger.Error("未处理的错误", zap.String("path", c.Request().URL.Path), zap.Error(err))
		writeErr = handler.InternalError(c, "")
	}
	if writeErr != nil {
		s.logger.Error("写入错误响应失败", zap.Error(writeErr))
	}
}
