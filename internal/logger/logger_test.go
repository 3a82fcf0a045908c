package logger

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{" warn ", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "insights.log")
	log := New(config.LogConfig{Level: "warn", Filename: path, MaxSize: 1})

	log.Info("丢弃")
	log.Warn("上游限流", zap.Int("statusCode", 429))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.NotContains(t, content, "丢弃")
	assert.Contains(t, content, "上游限流")
	assert.Contains(t, content, `"statusCode"`)
	assert.Contains(t, content, "429")
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}\tWARN`), content)
}
