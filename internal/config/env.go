// Package config provides environment helpers for agecam commands.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Prefix is prepended to every agecam environment variable.
const Prefix = "AGECAM_"

// Environment variable names.
const (
	EnvPort         = Prefix + "PORT"
	EnvModelURL     = Prefix + "MODEL_URL"
	EnvBackend      = Prefix + "BACKEND"
	EnvORTLibrary   = Prefix + "ORT_LIBRARY"
	EnvCamera       = Prefix + "CAMERA"
	EnvImage        = Prefix + "IMAGE"
	EnvFPS          = Prefix + "FPS"
	EnvSerial       = Prefix + "SERIAL"
	EnvLogLevel     = Prefix + "LOG_LEVEL"
	EnvLogFormat    = Prefix + "LOG_FORMAT"
	EnvModelTimeout = Prefix + "MODEL_TIMEOUT"
	EnvFaceModel    = Prefix + "FACE_MODEL"
)

// String returns the value of key, or def if unset or blank.
func String(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Int returns key parsed as an int, or def if unset or invalid.
func Int(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Bool returns key parsed as a bool, or def if unset or invalid.
// Accepts the forms strconv.ParseBool does ("1", "true", "false", ...).
func Bool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Duration returns key parsed with time.ParseDuration, or def if unset or invalid.
func Duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
