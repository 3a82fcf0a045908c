package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/config"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/logger"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/query"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile  string
	logLevel string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Portfolio analytics API backed by PostHog",
		Long: `insights serves read-only visitor, traffic, device and web vitals
statistics queried from PostHog, and forwards first-party analytics
traffic to the PostHog ingestion hosts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (optional, environment overrides it)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	cmd.AddCommand(serveCmd(), queryCmd(), versionCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

func queryCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "query <template>",
		Short: "Run one catalog query and print the raw rows",
		Long:  "Available templates: " + strings.Join(templateNames(), ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), args[0], days)
		},
	}
	cmd.Flags().IntVar(&days, "days", query.DefaultWindow.Days(), "time window in days (7, 30 or 90)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.FullWithPlatform())
		},
	}
}

// loadConfig 命令行参数优先于配置文件和环境变量，并与其一起校验
func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load(cfgFile, config.WithLogLevel(logLevel))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("启动 insights",
		zap.String("version", version.Full()),
		zap.String("apiHost", cfg.PostHog.APIHost),
		zap.Int("maxConcurrent", cfg.PostHog.MaxConcurrent),
		zap.Bool("proxy", cfg.Proxy.Enabled),
	)

	srv := initServer(cfg, log)
	if err := srv.Run(ctx); err != nil {
		log.Error("HTTP 服务异常退出", zap.Error(err))
		return err
	}

	log.Info("insights 已退出")
	return nil
}

func runQuery(ctx context.Context, name string, days int) error {
	if ctx == nil {
		ctx = context.Background()
	}

	w, err := query.ParseWindow(strconv.Itoa(days))
	if err != nil {
		return err
	}

	catalog := query.Default()
	id := query.ID(name)
	if !catalog.Has(id) {
		return fmt.Errorf("unknown template %q (available: %s)", name, strings.Join(templateNames(), ", "))
	}
	hogql, err := catalog.Render(id, w)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	result, err := initClient(cfg, log).Query(ctx, hogql)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result.Results)
}

func templateNames() []string {
	ids := query.Default().IDs()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, string(id))
	}
	return names
}
