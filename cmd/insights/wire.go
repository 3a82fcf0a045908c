//go:build wireinject

package main

import (
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/config"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/posthog"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/server"

	"github.com/google/wire"
	"go.uber.org/zap"
)

func initServer(cfg *config.AppConfig, logger *zap.Logger) *server.Server {
	wire.Build(serverSet)
	return nil
}

func initClient(cfg *config.AppConfig, logger *zap.Logger) *posthog.Client {
	wire.Build(configSet, clientSet)
	return nil
}
