package main

import (
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/config"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/handler"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/posthog"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/proxy"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/query"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/server"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/service"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/telemetry"

	"github.com/google/wire"
	"go.uber.org/zap"
)

var configSet = wire.NewSet(
	wire.FieldsOf(new(*config.AppConfig), "Server", "PostHog", "Proxy"),
)

var clientSet = wire.NewSet(
	telemetry.New,
	provideLimiter,
	provideClient,
)

var serverSet = wire.NewSet(
	configSet,
	clientSet,
	query.Default,
	wire.Bind(new(service.Querier), new(*posthog.Client)),
	service.NewStatsService,
	handler.NewStatsHandler,
	provideIngest,
	server.New,
)

// provideLimiter 创建上游并发闸门并导出排队指标
func provideLimiter(cfg config.PostHogConfig, metrics *telemetry.Metrics) *posthog.Limiter {
	limiter := posthog.NewLimiter(cfg.MaxConcurrent)
	metrics.RegisterLimiter(
		func() float64 { return float64(limiter.Running()) },
		func() float64 { return float64(limiter.Waiting()) },
	)
	return limiter
}

func provideClient(logger *zap.Logger, cfg config.PostHogConfig, limiter *posthog.Limiter, metrics *telemetry.Metrics) *posthog.Client {
	return posthog.NewClient(logger, cfg, limiter, posthog.WithMetrics(metrics))
}

// provideIngest 未启用转发时返回 nil
func provideIngest(logger *zap.Logger, cfg config.ProxyConfig, metrics *telemetry.Metrics) *proxy.Ingest {
	if !cfg.Enabled {
		return nil
	}
	return proxy.NewIngest(logger, cfg, proxy.WithMetrics(metrics))
}
