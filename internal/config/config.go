package config

import (
	"fmt"
	"image"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete agent configuration
type Config struct {
	Listen    ListenConfig    `yaml:"listen"`
	Capture   CaptureConfig   `yaml:"capture"`
	Stream    StreamConfig    `yaml:"stream"`
	Encoder   EncoderConfig   `yaml:"encoder"`
	Transport TransportConfig `yaml:"transport"`
	Log       LogConfig       `yaml:"log"`
}

// ListenConfig contains the network listener settings
type ListenConfig struct {
	Address string `yaml:"address"` // host:port, all interfaces by default
}

// CaptureConfig selects what part of the host display is streamed
type CaptureConfig struct {
	Backend string       `yaml:"backend"` // screenshot, synthetic
	Display int          `yaml:"display"` // index into the active displays
	Region  RegionConfig `yaml:"region"`  // relative to the display, zero = whole display

	// Synthetic backend only
	SyntheticWidth  int `yaml:"synthetic_width"`
	SyntheticHeight int `yaml:"synthetic_height"`
}

// RegionConfig is a rectangle relative to the selected display
type RegionConfig struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// StreamConfig contains the per-session capture loop policy
type StreamConfig struct {
	MaxDimension    int           `yaml:"max_dimension"`    // cap for the longer side of a sent frame
	ThumbnailSize   int           `yaml:"thumbnail_size"`   // side of the square comparison thumbnail
	ChangeThreshold float64       `yaml:"change_threshold"` // mean abs difference on a 0-255 scale
	TargetInterval  time.Duration `yaml:"target_interval"`  // cycle ceiling, 16ms ~ 60Hz
	FrameHeader     bool          `yaml:"frame_header"`     // prefix payloads with seq + capture time
}

// EncoderConfig selects the frame codec
type EncoderConfig struct {
	Codec   string `yaml:"codec"`
	Quality int    `yaml:"quality"`
}

// TransportConfig contains websocket timing and admission settings
type TransportConfig struct {
	SendTimeout  time.Duration `yaml:"send_timeout"`
	PingInterval time.Duration `yaml:"ping_interval"`
	PingTimeout  time.Duration `yaml:"ping_timeout"`
	MaxSessions  int           `yaml:"max_sessions"` // 0 = unlimited
}

// LogConfig contains logger settings
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Default returns a Config populated with the standard policy values.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{
			Address: "0.0.0.0:8765",
		},
		Capture: CaptureConfig{
			Backend:         BackendScreenshot,
			Display:         0,
			SyntheticWidth:  1280,
			SyntheticHeight: 720,
		},
		Stream: StreamConfig{
			MaxDimension:    1920,
			ThumbnailSize:   64,
			ChangeThreshold: 2.0,
			TargetInterval:  16 * time.Millisecond,
		},
		Encoder: EncoderConfig{
			Codec:   "jpeg",
			Quality: 88,
		},
		Transport: TransportConfig{
			SendTimeout:  5 * time.Second,
			PingInterval: 20 * time.Second,
			PingTimeout:  60 * time.Second,
			MaxSessions:  4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a YAML configuration file on top of the defaults. A missing
// file is not an error: the defaults are returned as is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Rect returns the region as an image.Rectangle, empty when unset.
func (r RegionConfig) Rect() image.Rectangle {
	if r.Width <= 0 || r.Height <= 0 {
		return image.Rectangle{}
	}
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}
