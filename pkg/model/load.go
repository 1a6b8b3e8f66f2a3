package model

import (
	"context"
	"time"

	"github.com/teslashibe/go-agecam/internal/log"
)

// Load fetches the model described by cfg and opens a session on the
// configured backend. It is called once at startup.
func Load(ctx context.Context, cfg Config) (Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	logger := log.Component("model")
	start := time.Now()

	data, err := Fetch(ctx, cfg.URL, cfg.MaxBytes)
	if err != nil {
		return nil, &LoadError{Source: cfg.URL, Err: err}
	}
	logger.Debug("model fetched", "source", cfg.URL, "bytes", len(data), "elapsed", time.Since(start))

	sess, err := Open(data, cfg)
	if err != nil {
		return nil, &LoadError{Source: cfg.URL, Backend: cfg.Backend, Err: err}
	}

	logger.Info("model loaded",
		"backend", cfg.Backend,
		"bytes", len(data),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return sess, nil
}

// Open creates a session from in-memory model bytes.
func Open(data []byte, cfg Config) (Session, error) {
	if len(data) == 0 {
		return nil, ErrEmptyModel
	}

	switch cfg.Backend {
	case BackendOpenCV:
		return NewOpenCV(data)
	case BackendONNXRuntime:
		return NewONNXRuntime(data, cfg.RuntimeLibrary)
	default:
		return nil, ErrUnknownBackend
	}
}
