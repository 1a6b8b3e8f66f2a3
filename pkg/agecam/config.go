// Package agecam wires the camera, model, inference loop and display server
// into one application.
package agecam

import (
	"fmt"
	"strconv"

	"github.com/teslashibe/go-agecam/internal/config"
	"github.com/teslashibe/go-agecam/pkg/camera"
	"github.com/teslashibe/go-agecam/pkg/face"
	"github.com/teslashibe/go-agecam/pkg/loop"
	"github.com/teslashibe/go-agecam/pkg/model"
	"github.com/teslashibe/go-agecam/pkg/overlay"
)

// DefaultPort is where the display server listens.
const DefaultPort = "8080"

// Config holds all configuration for the application.
// Flag parsing is done in cmd/agecam/main.go; this struct is data only.
type Config struct {
	// Port the display server listens on.
	Port string

	Model   model.Config
	Camera  camera.Config
	Loop    loop.Config
	Overlay overlay.Config
	Face    face.Config

	// ImagePath, when set, replaces the camera with a still image.
	ImagePath string

	LogLevel  string
	LogFormat string // "text" or "json"; empty picks by GO_ENV
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:     DefaultPort,
		Model:    model.DefaultConfig(),
		Camera:   camera.DefaultConfig(),
		Loop:     loop.DefaultConfig(),
		Overlay:  overlay.DefaultConfig(),
		Face:     face.DefaultConfig(),
		LogLevel: "info",
	}
}

// LoadEnvConfig applies AGECAM_* environment overrides.
// Call this before flag parsing so flags win.
func (c *Config) LoadEnvConfig() {
	c.Port = config.String(config.EnvPort, c.Port)
	c.Model.URL = config.String(config.EnvModelURL, c.Model.URL)
	c.Model.Backend = model.Backend(config.String(config.EnvBackend, string(c.Model.Backend)))
	c.Model.RuntimeLibrary = config.String(config.EnvORTLibrary, c.Model.RuntimeLibrary)
	c.Model.Timeout = config.Duration(config.EnvModelTimeout, c.Model.Timeout)
	c.Camera.Device = config.String(config.EnvCamera, c.Camera.Device)
	c.ImagePath = config.String(config.EnvImage, c.ImagePath)
	c.Face.ModelPath = config.String(config.EnvFaceModel, c.Face.ModelPath)
	if fps := config.Int(config.EnvFPS, 0); fps > 0 {
		c.Loop.Interval = loop.IntervalForRate(fps)
	}
	c.Loop.Serial = config.Bool(config.EnvSerial, c.Loop.Serial)
	c.LogLevel = config.String(config.EnvLogLevel, c.LogLevel)
	c.LogFormat = config.String(config.EnvLogFormat, c.LogFormat)
}

// Validate checks that the configuration can be used.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return &ConfigError{Field: "Port", Message: fmt.Sprintf("invalid port %q", c.Port)}
	}
	if err := c.Model.Validate(); err != nil {
		return &ConfigError{Field: "Model", Message: err.Error()}
	}
	if c.ImagePath == "" {
		if errs := c.Camera.Validate(); len(errs) > 0 {
			return &ConfigError{Field: "Camera", Message: fmt.Sprintf("invalid camera config: %v", errs)}
		}
	}
	if c.Face.Margin < 0 || c.Face.ConfidenceThresh < 0 || c.Face.ConfidenceThresh > 1 {
		return &ConfigError{Field: "Face", Message: "face margin must be >= 0 and confidence within [0, 1]"}
	}
	if err := c.Loop.Validate(); err != nil {
		return &ConfigError{Field: "Loop", Message: err.Error()}
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return &ConfigError{Field: "LogFormat", Message: fmt.Sprintf("unknown log format %q", c.LogFormat)}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
