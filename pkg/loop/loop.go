// Package loop drives per-frame inference: each display tick it draws the
// latest camera frame with the current readout and, when a model is loaded,
// runs age/gender inference on that frame.
package loop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-agecam/internal/log"
	"github.com/teslashibe/go-agecam/pkg/camera"
	"github.com/teslashibe/go-agecam/pkg/face"
	"github.com/teslashibe/go-agecam/pkg/model"
	"github.com/teslashibe/go-agecam/pkg/prediction"
	"github.com/teslashibe/go-agecam/pkg/tensor"
)

// ErrPanic wraps a panic recovered during inference.
var ErrPanic = errors.New("loop: inference panicked")

// Renderer draws a frame with the readout and encodes it for display.
type Renderer interface {
	RenderJPEG(frame image.Image, p prediction.Prediction) ([]byte, error)
}

// Sink receives display output.
type Sink interface {
	PublishFrame(jpeg []byte)
	PublishPrediction(p prediction.Prediction, version uint64)
}

// Loop is the frame inference loop.
type Loop struct {
	cfg      Config
	store    *prediction.Store
	renderer Renderer
	sink     Sink
	logger   *slog.Logger

	// Attached as acquisition completes; nil until then.
	mu       sync.RWMutex
	session  model.Session
	source   camera.Source
	detector face.Detector
	margin   float64

	inflight atomic.Bool
	wg       sync.WaitGroup
	stats    counters
}

// New creates a loop. session and source may be nil and attached later with
// SetSession and SetSource. sink may be nil.
func New(cfg Config, session model.Session, source camera.Source, store *prediction.Store, renderer Renderer, sink Sink) *Loop {
	if store == nil {
		store = prediction.NewStore()
	}
	return &Loop{
		cfg:      cfg,
		session:  session,
		source:   source,
		store:    store,
		renderer: renderer,
		sink:     sink,
		logger:   log.Component("loop"),
	}
}

// SetSession attaches the loaded model.
func (l *Loop) SetSession(s model.Session) {
	l.mu.Lock()
	l.session = s
	l.mu.Unlock()
}

// SetSource attaches the camera.
func (l *Loop) SetSource(s camera.Source) {
	l.mu.Lock()
	l.source = s
	l.mu.Unlock()
}

// SetDetector enables face cropping: inference runs on the best detected
// face, grown by margin. Frames without a face use the whole frame.
func (l *Loop) SetDetector(d face.Detector, margin float64) {
	l.mu.Lock()
	l.detector = d
	l.margin = margin
	l.mu.Unlock()
}

func (l *Loop) current() (model.Session, camera.Source) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.session, l.source
}

func (l *Loop) cropper() (face.Detector, float64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.detector, l.margin
}

// Store returns the prediction store the loop publishes to.
func (l *Loop) Store() *prediction.Store {
	return l.store
}

// Run ticks until ctx is cancelled. An inference in flight at that point is
// left to finish; its result is discarded. Use Wait to block until it has.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.cfg.Validate(); err != nil {
		return err
	}

	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	l.logger.Info("loop started", "interval", l.cfg.Interval, "mode", l.cfg.Mode())

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("loop stopped", "cycles", l.stats.cycles.Load())
			return nil
		case <-ticker.C:
			l.Step(ctx)
		}
	}
}

// Step runs one iteration.
func (l *Loop) Step(ctx context.Context) {
	cycle := l.stats.cycles.Add(1)
	session, source := l.current()

	if source == nil || !source.Ready() {
		l.stats.notReady.Add(1)
		return
	}
	frame, ok := source.Frame()
	if !ok {
		l.stats.notReady.Add(1)
		return
	}

	l.draw(frame.Image)

	if session == nil {
		l.stats.noModel.Add(1)
		return
	}

	if l.cfg.Serial {
		l.infer(ctx, session, frame.Image, cycle)
		return
	}

	if !l.inflight.CompareAndSwap(false, true) {
		l.stats.busy.Add(1)
		return
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer l.inflight.Store(false)
		l.infer(ctx, session, frame.Image, cycle)
	}()
}

// Wait blocks until no inference is in flight.
func (l *Loop) Wait() {
	l.wg.Wait()
}

// Stats returns a snapshot of the loop counters.
func (l *Loop) Stats() Stats {
	s := l.stats.snapshot()
	s.Mode = l.cfg.Mode()
	s.InFlight = l.inflight.Load()
	return s
}

func (l *Loop) draw(img image.Image) {
	if l.renderer == nil {
		return
	}
	jpeg, err := l.renderer.RenderJPEG(img, l.store.Latest())
	if err != nil {
		l.logger.Warn("render failed", "error", err)
		return
	}
	l.stats.frames.Add(1)
	if l.sink != nil {
		l.sink.PublishFrame(jpeg)
	}
}

// infer runs the model on img and publishes the result. The session call is
// not cancelled by ctx; if ctx is done by the time it returns the result is
// dropped.
func (l *Loop) infer(ctx context.Context, session model.Session, img image.Image, cycle uint64) {
	l.stats.started.Add(1)
	start := time.Now()

	detector, margin := l.cropper()
	p, err := predict(context.WithoutCancel(ctx), session, detector, margin, img)
	l.stats.lastLatency.Store(int64(time.Since(start)))

	if ctx.Err() != nil {
		l.stats.discarded.Add(1)
		l.logger.Debug("discarding result after teardown", "cycle", cycle)
		return
	}
	if err != nil {
		l.stats.failed.Add(1)
		l.logger.Warn("inference failed", "cycle", cycle, "error", err)
		return
	}

	l.stats.succeeded.Add(1)
	version := l.store.Publish(p)
	if l.sink != nil {
		l.sink.PublishPrediction(p, version)
	}
}

func predict(ctx context.Context, session model.Session, detector face.Detector, margin float64, img image.Image) (p prediction.Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			p = prediction.Prediction{}
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	var box *prediction.Box
	if detector != nil {
		dets, err := detector.Detect(img)
		if err != nil {
			return p, fmt.Errorf("detect face: %w", err)
		}
		if best := face.SelectBest(dets); best != nil {
			region := best.Expand(margin)
			img = face.Crop(img, region)
			box = &prediction.Box{X: region.X, Y: region.Y, W: region.W, H: region.H}
		}
	}

	in, err := tensor.FromImage(img)
	if err != nil {
		return p, fmt.Errorf("derive tensor: %w", err)
	}

	out, err := session.Run(ctx, model.Inputs{model.InputName: in})
	if err != nil {
		return p, fmt.Errorf("run model: %w", err)
	}

	p, err = prediction.Decode(out)
	if err != nil {
		return p, err
	}
	p.Face = box
	return p, nil
}
