package config

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// Capture backends
const (
	BackendScreenshot = "screenshot"
	BackendSynthetic  = "synthetic"
)

// Validate checks if the configuration is valid. Zero values of optional
// settings are replaced by their defaults.
func Validate(cfg *Config) error {
	def := Default()

	// Validate listen address
	if cfg.Listen.Address == "" {
		cfg.Listen.Address = def.Listen.Address
	}
	if _, _, err := net.SplitHostPort(cfg.Listen.Address); err != nil {
		return fmt.Errorf("listen.address %q: %w", cfg.Listen.Address, err)
	}

	// Validate capture
	switch cfg.Capture.Backend {
	case "":
		cfg.Capture.Backend = def.Capture.Backend
	case BackendScreenshot, BackendSynthetic:
	default:
		return fmt.Errorf("capture.backend: unknown backend '%s' (must be '%s' or '%s')",
			cfg.Capture.Backend, BackendScreenshot, BackendSynthetic)
	}
	if cfg.Capture.Display < 0 {
		return fmt.Errorf("capture.display must be >= 0, got %d", cfg.Capture.Display)
	}
	r := cfg.Capture.Region
	if r.X < 0 || r.Y < 0 || r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("capture.region must not have negative fields, got %+v", r)
	}
	if (r.Width == 0) != (r.Height == 0) {
		return fmt.Errorf("capture.region needs both width and height, got %dx%d", r.Width, r.Height)
	}
	if cfg.Capture.SyntheticWidth <= 0 {
		cfg.Capture.SyntheticWidth = def.Capture.SyntheticWidth
	}
	if cfg.Capture.SyntheticHeight <= 0 {
		cfg.Capture.SyntheticHeight = def.Capture.SyntheticHeight
	}

	// Validate stream policy
	if cfg.Stream.MaxDimension <= 0 {
		cfg.Stream.MaxDimension = def.Stream.MaxDimension
	}
	if cfg.Stream.ThumbnailSize <= 0 {
		cfg.Stream.ThumbnailSize = def.Stream.ThumbnailSize
	}
	if cfg.Stream.ThumbnailSize > cfg.Stream.MaxDimension {
		return fmt.Errorf("stream.thumbnail_size (%d) must not exceed stream.max_dimension (%d)",
			cfg.Stream.ThumbnailSize, cfg.Stream.MaxDimension)
	}
	if cfg.Stream.ChangeThreshold < 0 || cfg.Stream.ChangeThreshold > 255 {
		return fmt.Errorf("stream.change_threshold must be within [0, 255], got %v", cfg.Stream.ChangeThreshold)
	}
	if cfg.Stream.TargetInterval < 0 {
		return fmt.Errorf("stream.target_interval must be >= 0, got %v", cfg.Stream.TargetInterval)
	}
	if cfg.Stream.TargetInterval == 0 {
		cfg.Stream.TargetInterval = def.Stream.TargetInterval
	}

	// Validate encoder
	cfg.Encoder.Codec = strings.ToLower(cfg.Encoder.Codec)
	if cfg.Encoder.Codec == "" {
		cfg.Encoder.Codec = def.Encoder.Codec
	}
	if cfg.Encoder.Quality == 0 {
		cfg.Encoder.Quality = def.Encoder.Quality
	}
	if cfg.Encoder.Quality < 1 || cfg.Encoder.Quality > 100 {
		return fmt.Errorf("encoder.quality must be within [1, 100], got %d", cfg.Encoder.Quality)
	}

	// Validate transport
	if err := validateTimeout("transport.send_timeout", &cfg.Transport.SendTimeout, def.Transport.SendTimeout); err != nil {
		return err
	}
	if err := validateTimeout("transport.ping_interval", &cfg.Transport.PingInterval, def.Transport.PingInterval); err != nil {
		return err
	}
	if err := validateTimeout("transport.ping_timeout", &cfg.Transport.PingTimeout, def.Transport.PingTimeout); err != nil {
		return err
	}
	if cfg.Transport.PingInterval >= cfg.Transport.PingTimeout {
		return fmt.Errorf("transport.ping_interval (%v) must be shorter than transport.ping_timeout (%v)",
			cfg.Transport.PingInterval, cfg.Transport.PingTimeout)
	}
	if cfg.Transport.MaxSessions < 0 {
		return fmt.Errorf("transport.max_sessions must be >= 0, got %d", cfg.Transport.MaxSessions)
	}

	// Validate logging
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level '%s'", cfg.Log.Level)
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("log.format: unknown format '%s' (must be 'json' or 'text')", cfg.Log.Format)
	}

	return nil
}

func validateTimeout(name string, v *time.Duration, def time.Duration) error {
	if *v < 0 {
		return fmt.Errorf("%s must be >= 0, got %v", name, *v)
	}
	if *v == 0 {
		*v = def
	}
	return nil
}
