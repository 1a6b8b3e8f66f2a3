package agecam

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-agecam/internal/log"
	"github.com/teslashibe/go-agecam/pkg/camera"
	"github.com/teslashibe/go-agecam/pkg/face"
	"github.com/teslashibe/go-agecam/pkg/loop"
	"github.com/teslashibe/go-agecam/pkg/model"
	"github.com/teslashibe/go-agecam/pkg/overlay"
	"github.com/teslashibe/go-agecam/pkg/prediction"
	"github.com/teslashibe/go-agecam/pkg/web"
)

// App is the application orchestrator.
// It manages all components and their lifecycle.
type App struct {
	config  Config
	runID   string
	started time.Time
	logger  *slog.Logger

	store   *prediction.Store
	surface *overlay.Surface
	loop    *loop.Loop
	server  *web.Server

	// Acquired by Init; nil on failure.
	mu           sync.RWMutex
	session      model.Session
	source       camera.Source
	detector     face.Detector
	modelHealth  web.ComponentHealth
	cameraHealth web.ComponentHealth
	faceHealth   web.ComponentHealth

	initOnce     sync.Once
	shutdownOnce sync.Once

	loadModel  func(ctx context.Context, cfg model.Config) (model.Session, error)
	openCamera func(cfg Config) (camera.Source, error)
	openFace   func(cfg face.Config) (face.Detector, error)
}

// New creates an application with the given configuration.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	surface, err := overlay.New(cfg.Overlay)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:     cfg,
		runID:      uuid.NewString(),
		started:    time.Now(),
		store:      prediction.NewStore(),
		surface:    surface,
		loadModel:  model.Load,
		openCamera: openSource,
		openFace:   openDetector,
	}
	a.logger = log.Component("app").With("run", a.runID)
	a.modelHealth = web.ComponentHealth{Pending: true, Source: cfg.Model.URL}
	a.cameraHealth = web.ComponentHealth{Pending: true, Source: a.cameraLabel()}
	a.faceHealth = web.ComponentHealth{Pending: true, Source: cfg.Face.ModelPath}

	a.server = web.NewServer(cfg.Port, a)
	a.loop = loop.New(cfg.Loop, nil, nil, a.store, surface, a.server)
	return a, nil
}

// openSource opens the still image when one is configured, else the camera.
func openSource(cfg Config) (camera.Source, error) {
	if cfg.ImagePath != "" {
		still, err := camera.LoadStill(cfg.ImagePath)
		if err != nil {
			return nil, err
		}
		return still, nil
	}
	webcam, err := camera.OpenWebcam(cfg.Camera)
	if err != nil {
		return nil, err
	}
	return webcam, nil
}

func openDetector(cfg face.Config) (face.Detector, error) {
	d, err := face.NewYuNet(cfg)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (a *App) cameraLabel() string {
	if a.config.ImagePath != "" {
		return a.config.ImagePath
	}
	return a.config.Camera.Device
}

// Init acquires the model, the camera and, if configured, the face detector
// concurrently and attaches whichever succeed to the loop. Failures are logged and reported by Health; they are
// not fatal. Init runs once; later calls return immediately after the first
// completes.
func (a *App) Init(ctx context.Context) {
	a.initOnce.Do(func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			a.acquireModel(ctx)
		}()
		go func() {
			defer wg.Done()
			a.acquireCamera()
		}()
		if a.config.Face.Enabled() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				a.acquireDetector()
			}()
		}
		wg.Wait()
	})
}

func (a *App) acquireModel(ctx context.Context) {
	a.logger.Info("loading model", "source", a.config.Model.URL, "backend", a.config.Model.Backend)

	sess, err := a.loadModel(ctx, a.config.Model)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.modelHealth.Pending = false
	if err != nil {
		a.modelHealth.Error = err.Error()
		a.logger.Error("model load failed, running without inference", "error", err)
		return
	}
	a.session = sess
	a.modelHealth.Ready = true
	a.loop.SetSession(sess)
}

func (a *App) acquireCamera() {
	src, err := a.openCamera(a.config)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cameraHealth.Pending = false
	if err != nil {
		a.cameraHealth.Error = err.Error()
		a.logger.Error("camera unavailable, running without frames", "source", a.cameraLabel(), "error", err)
		return
	}
	a.source = src
	a.cameraHealth.Ready = true
	a.loop.SetSource(src)
	a.logger.Info("camera ready", "source", a.cameraLabel())
}

func (a *App) acquireDetector() {
	d, err := a.openFace(a.config.Face)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.faceHealth.Pending = false
	if err != nil {
		a.faceHealth.Error = err.Error()
		a.logger.Error("face detector unavailable, using whole frames", "model", a.config.Face.ModelPath, "error", err)
		return
	}
	a.detector = d
	a.faceHealth.Ready = true
	a.loop.SetDetector(d, a.config.Face.Margin)
	a.logger.Info("face detector ready", "model", a.config.Face.ModelPath)
}

// Run serves the display, acquires the model and camera, and drives the
// loop. Blocks until ctx is cancelled or the display server fails to start.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.logger.Info("agecam starting",
		"port", a.config.Port,
		"mode", a.config.Loop.Mode(),
		"interval", a.config.Loop.Interval)

	serverErr := a.server.StartAsync()
	go a.Init(ctx)

	loopDone := make(chan error, 1)
	go func() { loopDone <- a.loop.Run(ctx) }()

	var runErr error
	select {
	case err := <-serverErr:
		if err != nil {
			runErr = err
		}
	case <-ctx.Done():
	}

	cancel()
	if err := <-loopDone; err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Step runs a single loop iteration. It is used by tests and tools that
// drive the loop by hand instead of calling Run.
func (a *App) Step(ctx context.Context) {
	a.loop.Step(ctx)
}

// Shutdown waits for an in-flight inference, stops the display server and
// releases the camera and model. Safe to call more than once.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		// Blocks until a running Init finishes; marks it done otherwise.
		a.initOnce.Do(func() {})
		a.loop.Wait()

		var errs []error
		if err := a.server.Shutdown(); err != nil {
			errs = append(errs, err)
		}

		a.mu.Lock()
		if a.source != nil {
			if err := a.source.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if a.detector != nil {
			if err := a.detector.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if a.session != nil {
			if err := a.session.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		a.mu.Unlock()

		if err := errors.Join(errs...); err != nil {
			a.logger.Warn("shutdown", "error", err)
		}
		a.logger.Info("agecam stopped", "uptime", time.Since(a.started).Round(time.Second))
	})
}

// Snapshot returns the latest prediction and its version.
func (a *App) Snapshot() (prediction.Prediction, uint64) {
	return a.store.Snapshot()
}

// Stats returns loop statistics.
func (a *App) Stats() loop.Stats {
	return a.loop.Stats()
}

// Health reports model and camera acquisition state.
func (a *App) Health() web.Health {
	a.mu.RLock()
	defer a.mu.RUnlock()

	status := "ok"
	switch {
	case a.modelHealth.Pending || a.cameraHealth.Pending:
		status = "starting"
	case !a.modelHealth.Ready || !a.cameraHealth.Ready:
		status = "degraded"
	}

	h := web.Health{
		Status: status,
		RunID:  a.runID,
		Uptime: time.Since(a.started).Round(time.Second).String(),
		Model:  a.modelHealth,
		Camera: a.cameraHealth,
	}
	if m, ok := a.source.(interface{ Misses() uint64 }); ok {
		h.Camera.Misses = m.Misses()
	}
	if a.config.Face.Enabled() {
		fh := a.faceHealth
		h.Face = &fh
	}
	return h
}

// RunID identifies this process in logs and health output.
func (a *App) RunID() string {
	return a.runID
}

// Verify App implements web.Backend at compile time.
var _ web.Backend = (*App)(nil)
