package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `yaml:"Server"`
	Log     LogConfig     `yaml:"Log"`
	PostHog PostHogConfig `yaml:"PostHog"`
	Proxy   ProxyConfig   `yaml:"Proxy"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr              string        `yaml:"Addr" validate:"required"`
	ReadHeaderTimeout time.Duration `yaml:"ReadHeaderTimeout"` // 只限制请求头，上传的请求体不受影响
	ReadTimeout       time.Duration `yaml:"ReadTimeout"`       // 0 表示不限制，转发大体积上报时需要
	WriteTimeout      time.Duration `yaml:"WriteTimeout"`      // 0 表示不限制，转发流式响应时需要
	ShutdownTimeout   time.Duration `yaml:"ShutdownTimeout"`   // 优雅退出等待时间
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"Level" validate:"omitempty,oneof=debug info warn error"`
	Filename   string `yaml:"Filename"`   // 为空时输出到标准输出
	MaxSize    int    `yaml:"MaxSize"`    // MB
	MaxBackups int    `yaml:"MaxBackups"` // 保留的旧日志文件数
	MaxAge     int    `yaml:"MaxAge"`     // 天数
	Compress   bool   `yaml:"Compress"`   // 是否压缩
}

// PostHogConfig PostHog 查询配置
type PostHogConfig struct {
	APIHost        string        `yaml:"APIHost" validate:"required,url"`
	APIKey         string        `yaml:"APIKey" validate:"required"`    // Personal API Key
	ProjectID      string        `yaml:"ProjectID" validate:"required"` // 项目 ID
	MaxConcurrent  int           `yaml:"MaxConcurrent" validate:"min=1"`
	Timeout        time.Duration `yaml:"Timeout" validate:"gt=0"`
	MaxAttempts    int           `yaml:"MaxAttempts" validate:"min=1"`
	RetryBaseDelay time.Duration `yaml:"RetryBaseDelay" validate:"gte=0"`
	RetryMaxDelay  time.Duration `yaml:"RetryMaxDelay" validate:"gte=0"`
}

// ProxyConfig 采集请求转发配置
type ProxyConfig struct {
	Enabled    bool   `yaml:"Enabled"`
	Prefix     string `yaml:"Prefix" validate:"required_if=Enabled true,omitempty,startswith=/"`
	IngestHost string `yaml:"IngestHost" validate:"required_if=Enabled true"` // 事件上报域名
	AssetHost  string `yaml:"AssetHost" validate:"required_if=Enabled true"`  // 静态资源域名
	Scheme     string `yaml:"Scheme" validate:"omitempty,oneof=http https"`
}

// 环境变量
const (
	EnvAPIKey    = "POSTHOG_PERSONAL_API_KEY"
	EnvProjectID = "POSTHOG_PROJECT_ID"
	EnvAPIHost   = "POSTHOG_API_HOST"
	EnvAddr      = "INSIGHTS_ADDR"
	EnvLogLevel  = "LOG_LEVEL"
)

// Default 默认配置
func Default() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
		},
		PostHog: PostHogConfig{
			APIHost:        "https://us.posthog.com",
			MaxConcurrent:  2,
			Timeout:        30 * time.Second,
			MaxAttempts:    3,
			RetryBaseDelay: time.Second,
			RetryMaxDelay:  10 * time.Second,
		},
		Proxy: ProxyConfig{
			Enabled:    true,
			Prefix:     "/ph",
			IngestHost: "us.i.posthog.com",
			AssetHost:  "us-assets.i.posthog.com",
			Scheme:     "https",
		},
	}
}

// Override 命令行等外部来源对配置的修改，在校验之前生效
type Override func(*AppConfig)

// WithLogLevel 覆盖日志级别，空字符串不做修改
func WithLogLevel(level string) Override {
	return func(c *AppConfig) {
		if level != "" {
			c.Log.Level = level
		}
	}
}

// Load 从本地文件系统加载配置
func Load(path string, overrides ...Override) (*AppConfig, error) {
	return LoadFS(afero.NewOsFs(), path, overrides...)
}

// LoadFS 加载配置：默认值 -> 配置文件（可选）-> 环境变量 -> overrides，然后校验
func LoadFS(fs afero.Fs, path string, overrides ...Override) (*AppConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(EnvAPIKey, &c.PostHog.APIKey)
	set(EnvProjectID, &c.PostHog.ProjectID)
	set(EnvAPIHost, &c.PostHog.APIHost)
	set(EnvAddr, &c.Server.Addr)
	set(EnvLogLevel, &c.Log.Level)
}

var (
	validate = validator.New(validator.WithRequiredStructEnabled())
	trans    = newTranslator(validate)
)

// newTranslator 注册英文校验提示
func newTranslator(v *validator.Validate) ut.Translator {
	english := en.New()
	t, _ := ut.New(english, english).GetTranslator("en")
	if err := entranslations.RegisterDefaultTranslations(v, t); err != nil {
		panic(err)
	}
	return t
}

// 必填项缺失时提示对应的环境变量
var envHints = map[string]string{
	"AppConfig.PostHog.APIKey":    EnvAPIKey,
	"AppConfig.PostHog.ProjectID": EnvProjectID,
}

// Validate 校验配置
func (c *AppConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.TrimPrefix(fe.Namespace(), "AppConfig.")
		msg := field + ": " + fe.Translate(trans)
		if env, ok := envHints[fe.Namespace()]; ok {
			msg += fmt.Sprintf(" (set %s)", env)
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
