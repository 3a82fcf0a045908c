package logger

import (
	"os"
	"strings"

	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// TimeLayout 日志时间格式
const TimeLayout = "2006-01-02 15:04:05.000"

// ParseLevel 解析日志级别，未知级别按 info 处理
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New 初始化日志
func New(cfg config.LogConfig) *zap.Logger {
	var writer zapcore.WriteSyncer

	// 如果配置了日志文件，使用 lumberjack 进行日志滚动
	if cfg.Filename != "" {
		writer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	} else {
		writer = zapcore.Lock(os.Stdout)
	}

	return zap.New(zapcore.NewCore(newEncoder(), writer, ParseLevel(cfg.Level)), zap.AddCaller())
}

func newEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(TimeLayout)
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}
