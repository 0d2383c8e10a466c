package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxUploadSize = 50 * 1024 * 1024 // Bot upload ceiling
	DefaultWorkers       = 16
)

type Config struct {
	BotToken   string `yaml:"bot_token" envconfig:"BOT_TOKEN"`
	AppID      int    `yaml:"app_id" envconfig:"APP_ID"`
	AppHash    string `yaml:"app_hash" envconfig:"APP_HASH"`
	SessionDir string `yaml:"session_dir" envconfig:"SESSION_DIR"`
	OwnerID    int64  `yaml:"owner_id" envconfig:"OWNER_ID"`

	WorkDir            string        `yaml:"work_dir" envconfig:"WORK_DIR"`
	MaxUploadSize      int64         `yaml:"max_upload_size" envconfig:"MAX_UPLOAD_SIZE"`
	RequestTimeout     time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	MaxParallelFetches int           `yaml:"max_parallel_fetches" envconfig:"MAX_PARALLEL_FETCHES"`
	Workers            int           `yaml:"workers" envconfig:"WORKERS"`

	LogLevel     string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	MTProtoDebug bool   `yaml:"mtproto_debug" envconfig:"MTPROTO_DEBUG"`
	HealthAddr   string `yaml:"health_addr" envconfig:"HEALTH_ADDR"`

	Cobalt CobaltConfig `yaml:"cobalt"`
	TikWM  TikWMConfig  `yaml:"tikwm"`
	YtDlp  YtDlpConfig  `yaml:"ytdlp"`
	Probe  ProbeConfig  `yaml:"probe"`
	Fetch  FetchConfig  `yaml:"fetch"`
}

type CobaltConfig struct {
	API     string        `yaml:"api" envconfig:"COBALT_API"`
	APIKey  string        `yaml:"api_key" envconfig:"COBALT_API_KEY"`
	Timeout time.Duration `yaml:"timeout" envconfig:"COBALT_TIMEOUT"`
}

type TikWMConfig struct {
	API     string        `yaml:"api" envconfig:"TIKWM_API"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIKWM_TIMEOUT"`
}

type YtDlpConfig struct {
	Binary  string        `yaml:"binary" envconfig:"YTDLP_BINARY"`
	Cookies string        `yaml:"cookies" envconfig:"YTDLP_COOKIES"`
	Timeout time.Duration `yaml:"timeout" envconfig:"YTDLP_TIMEOUT"`
}

type ProbeConfig struct {
	Binary  string        `yaml:"binary" envconfig:"FFPROBE_BINARY"`
	Timeout time.Duration `yaml:"timeout" envconfig:"FFPROBE_TIMEOUT"`
}

type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout" envconfig:"FETCH_TIMEOUT"`
	UserAgent string        `yaml:"user_agent" envconfig:"FETCH_USER_AGENT"`
}

// Default returns the configuration used when neither the YAML file nor the
// environment set a value.
func Default() *Config {
	return &Config{
		SessionDir:         "./session",
		WorkDir:            "./temp",
		MaxUploadSize:      DefaultMaxUploadSize,
		RequestTimeout:     5 * time.Minute,
		MaxParallelFetches: 4,
		Workers:            DefaultWorkers,
		LogLevel:           "info",
		Cobalt: CobaltConfig{
			API:     "http://cobalt:9000",
			Timeout: 30 * time.Second,
		},
		TikWM: TikWMConfig{
			API:     "https://www.tikwm.com/api/",
			Timeout: 30 * time.Second,
		},
		YtDlp: YtDlpConfig{
			Binary:  "yt-dlp",
			Timeout: 2 * time.Minute,
		},
		Probe: ProbeConfig{
			Binary:  "ffprobe",
			Timeout: 30 * time.Second,
		},
		Fetch: FetchConfig{
			Timeout:   2 * time.Minute,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		},
	}
}

// Load reads the optional YAML file at path and lets environment variables
// override anything it sets.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.AppID == 0 || c.AppHash == "" {
		return fmt.Errorf("APP_ID and APP_HASH are required")
	}
	if c.WorkDir == "" {
		return fmt.Errorf("WORK_DIR is required")
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive, got %d", c.MaxUploadSize)
	}
	if c.MaxParallelFetches <= 0 {
		c.MaxParallelFetches = 1
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}

// MaxUploadSizeMB is the ceiling as shown to users.
func (c *Config) MaxUploadSizeMB() int64 {
	return c.MaxUploadSize / (1024 * 1024)
}
