// Package camera provides the live video sources agecam reads frames from.
package camera

import (
	"fmt"
	"strconv"
	"strings"
)

// Config holds capture configuration.
type Config struct {
	// Device is a capture device index ("0"), a video file path or a stream URL.
	Device string `json:"device"`

	Width     int `json:"width"`     // Requested frame width in pixels
	Height    int `json:"height"`    // Requested frame height in pixels
	Framerate int `json:"framerate"` // Requested FPS
}

// Capture limits accepted by Validate.
const (
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns the default webcam configuration: device 0 at 640x480.
func DefaultConfig() Config {
	return Config{
		Device:    "0",
		Width:     640,
		Height:    480,
		Framerate: 30,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if strings.TrimSpace(c.Device) == "" {
		errors = append(errors, "device is required")
	}
	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between 160 and %d", MaxWidth))
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between 120 and %d", MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}

	return errors
}

// ParseDevice interprets a device string for gocv: a non-negative integer is a
// device index, anything else is passed through as a file name or URL.
func ParseDevice(device string) interface{} {
	device = strings.TrimSpace(device)
	if id, err := strconv.Atoi(device); err == nil && id >= 0 {
		return id
	}
	return device
}
