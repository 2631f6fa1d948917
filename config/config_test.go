package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gridhook/gridhook/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.Concurrency != 10 {
		t.Errorf("concurrency = %d, want 10", cfg.Engine.Concurrency)
	}
	if cfg.Engine.PollInterval != time.Second {
		t.Errorf("poll interval = %s, want 1s", cfg.Engine.PollInterval)
	}
	if cfg.Notify.RateLimit != 60 || cfg.Notify.RateWindow != time.Minute {
		t.Errorf("rate limit = %d/%s, want 60/1m", cfg.Notify.RateLimit, cfg.Notify.RateWindow)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("redis addr = %q, want empty", cfg.Redis.Addr)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GRIDHOOK_ENGINE_CONCURRENCY", "4")
	t.Setenv("GRIDHOOK_REDIS_ADDR", "localhost:6380")
	t.Setenv("GRIDHOOK_NOTIFY_RETRY_BASE", "250ms")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.Concurrency != 4 {
		t.Errorf("concurrency = %d, want 4", cfg.Engine.Concurrency)
	}
	if cfg.Redis.Addr != "localhost:6380" {
		t.Errorf("redis addr = %q, want localhost:6380", cfg.Redis.Addr)
	}
	if cfg.Notify.RetryBase != 250*time.Millisecond {
		t.Errorf("retry base = %s, want 250ms", cfg.Notify.RetryBase)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gridhook.yaml")
	data := []byte(`
engine:
  batch_size: 25
notify:
  chat:
    token: xoxb-test
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.BatchSize != 25 {
		t.Errorf("batch size = %d, want 25", cfg.Engine.BatchSize)
	}
	if cfg.Notify.Chat.Token != "xoxb-test" {
		t.Errorf("chat token = %q, want xoxb-test", cfg.Notify.Chat.Token)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Engine.Concurrency != 10 {
		t.Errorf("concurrency = %d, want default 10", cfg.Engine.Concurrency)
	}

	if _, err := config.Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
