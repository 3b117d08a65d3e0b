package config

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	def := Default()
	if cfg.Listen.Address != "0.0.0.0:8765" {
		t.Errorf("Expected default listen address, got %q", cfg.Listen.Address)
	}
	if cfg.Stream != def.Stream {
		t.Errorf("Expected default stream config %+v, got %+v", def.Stream, cfg.Stream)
	}
	if cfg.Encoder.Quality != 88 {
		t.Errorf("Expected quality 88, got %d", cfg.Encoder.Quality)
	}
	if cfg.Transport.PingTimeout != 60*time.Second {
		t.Errorf("Expected ping timeout 60s, got %v", cfg.Transport.PingTimeout)
	}
}

func TestLoadOverridesAndFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
listen:
  address: "127.0.0.1:9999"
capture:
  backend: synthetic
  region: {x: 10, y: 20, width: 300, height: 200}
stream:
  target_interval: 33ms
  change_threshold: 4.5
  frame_header: true
encoder:
  quality: 70
transport:
  send_timeout: 2s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Listen.Address != "127.0.0.1:9999" {
		t.Errorf("listen.address = %q", cfg.Listen.Address)
	}
	if cfg.Capture.Backend != BackendSynthetic {
		t.Errorf("capture.backend = %q", cfg.Capture.Backend)
	}
	if got, want := cfg.Capture.Region.Rect(), image.Rect(10, 20, 310, 220); got != want {
		t.Errorf("region = %v, want %v", got, want)
	}
	if cfg.Stream.TargetInterval != 33*time.Millisecond {
		t.Errorf("target_interval = %v", cfg.Stream.TargetInterval)
	}
	if cfg.Stream.ChangeThreshold != 4.5 || !cfg.Stream.FrameHeader {
		t.Errorf("stream = %+v", cfg.Stream)
	}
	if cfg.Stream.MaxDimension != 1920 || cfg.Stream.ThumbnailSize != 64 {
		t.Errorf("expected untouched stream defaults, got %+v", cfg.Stream)
	}
	if cfg.Encoder.Quality != 70 || cfg.Encoder.Codec != "jpeg" {
		t.Errorf("encoder = %+v", cfg.Encoder)
	}
	if cfg.Transport.SendTimeout != 2*time.Second || cfg.Transport.PingInterval != 20*time.Second {
		t.Errorf("transport = %+v", cfg.Transport)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "stream: [not, a, map")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad address", func(c *Config) { c.Listen.Address = "8765" }, true},
		{"unknown backend", func(c *Config) { c.Capture.Backend = "vnc" }, true},
		{"negative display", func(c *Config) { c.Capture.Display = -1 }, true},
		{"half region", func(c *Config) { c.Capture.Region.Width = 10 }, true},
		{"thumbnail larger than cap", func(c *Config) { c.Stream.ThumbnailSize = 4096 }, true},
		{"threshold out of range", func(c *Config) { c.Stream.ChangeThreshold = 300 }, true},
		{"negative interval", func(c *Config) { c.Stream.TargetInterval = -time.Millisecond }, true},
		{"quality too high", func(c *Config) { c.Encoder.Quality = 101 }, true},
		{"ping interval not shorter", func(c *Config) { c.Transport.PingInterval = time.Minute }, true},
		{"negative sessions", func(c *Config) { c.Transport.MaxSessions = -2 }, true},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"zero values get defaults", func(c *Config) {
			c.Stream.TargetInterval = 0
			c.Transport.SendTimeout = 0
			c.Encoder.Codec = ""
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if cfg.Stream.TargetInterval <= 0 || cfg.Transport.SendTimeout <= 0 || cfg.Encoder.Codec == "" {
					t.Errorf("defaults not filled: %+v", cfg)
				}
			}
		})
	}
}
