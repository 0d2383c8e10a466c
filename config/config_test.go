package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("APP_ID", "42")
	t.Setenv("APP_HASH", "deadbeef")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.WorkDir != "./temp" {
		t.Errorf("WorkDir = %q, want %q", cfg.WorkDir, "./temp")
	}
	if cfg.MaxUploadSize != DefaultMaxUploadSize {
		t.Errorf("MaxUploadSize = %d, want %d", cfg.MaxUploadSize, DefaultMaxUploadSize)
	}
	if cfg.MaxUploadSizeMB() != 50 {
		t.Errorf("MaxUploadSizeMB = %d, want 50", cfg.MaxUploadSizeMB())
	}
	if cfg.RequestTimeout != 5*time.Minute {
		t.Errorf("RequestTimeout = %v, want 5m", cfg.RequestTimeout)
	}
	if cfg.Probe.Binary != "ffprobe" {
		t.Errorf("Probe.Binary = %q, want ffprobe", cfg.Probe.Binary)
	}
	if cfg.Cobalt.API != "http://cobalt:9000" {
		t.Errorf("Cobalt.API = %q", cfg.Cobalt.API)
	}
	if cfg.TikWM.API != "https://www.tikwm.com/api/" {
		t.Errorf("TikWM.API = %q", cfg.TikWM.API)
	}
}

func TestLoad_YAMLThenEnvOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WORK_DIR", "/from/env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("work_dir: /from/yaml\nmax_upload_size: 1024\nprobe:\n  binary: /usr/local/bin/ffprobe\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.WorkDir != "/from/env" {
		t.Errorf("WorkDir = %q, env should override yaml", cfg.WorkDir)
	}
	if cfg.Probe.Binary != "/usr/local/bin/ffprobe" {
		t.Errorf("Probe.Binary = %q, want yaml value", cfg.Probe.Binary)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	setRequiredEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			BotToken:           "t",
			AppID:              1,
			AppHash:            "h",
			WorkDir:            "./temp",
			MaxUploadSize:      DefaultMaxUploadSize,
			MaxParallelFetches: 4,
			Workers:            2,
			LogLevel:           "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing token", func(c *Config) { c.BotToken = "" }, true},
		{"missing app id", func(c *Config) { c.AppID = 0 }, true},
		{"missing work dir", func(c *Config) { c.WorkDir = "" }, true},
		{"zero ceiling", func(c *Config) { c.MaxUploadSize = 0 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"upper-case log level", func(c *Config) { c.LogLevel = "DEBUG" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_FillsWorkerDefaults(t *testing.T) {
	c := &Config{BotToken: "t", AppID: 1, AppHash: "h", WorkDir: "w", MaxUploadSize: 1, LogLevel: "info"}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.MaxParallelFetches != 1 {
		t.Errorf("MaxParallelFetches = %d, want 1", c.MaxParallelFetches)
	}
	if c.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", c.Workers, DefaultWorkers)
	}
}
