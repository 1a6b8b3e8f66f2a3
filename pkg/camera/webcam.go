package camera

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-agecam/internal/log"
	"gocv.io/x/gocv"
)

// readRetryDelay is how long the capture goroutine backs off after a failed read.
const readRetryDelay = 50 * time.Millisecond

// Webcam captures frames from a device, file or stream with OpenCV.
// A background goroutine keeps only the most recent frame.
type Webcam struct {
	cfg    Config
	device interface{}
	cap    *gocv.VideoCapture

	latest atomic.Pointer[Frame]
	seq    atomic.Uint64
	misses atomic.Uint64

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// OpenWebcam opens the configured device and starts capturing.
// It fails when the device cannot be opened (no device, permission denied,
// unreadable file).
func OpenWebcam(cfg Config) (*Webcam, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera config: %v", errs)
	}

	device := ParseDevice(cfg.Device)
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %v: %w", device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open camera %v: device not opened", device)
	}

	if _, isIndex := device.(int); isIndex {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
		vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}

	w := &Webcam{
		cfg:    cfg,
		device: device,
		cap:    vc,
		done:   make(chan struct{}),
	}

	w.wg.Add(1)
	go w.captureLoop()

	log.Component("camera").Info("camera opened",
		"device", cfg.Device,
		"width", int(vc.Get(gocv.VideoCaptureFrameWidth)),
		"height", int(vc.Get(gocv.VideoCaptureFrameHeight)))
	return w, nil
}

// captureLoop reads frames until Close. Video files rewind at the end so a
// recorded clip behaves like a live camera.
func (w *Webcam) captureLoop() {
	defer w.wg.Done()

	logger := log.Component("camera")
	mat := gocv.NewMat()
	defer mat.Close()

	_, isIndex := w.device.(int)

	for {
		select {
		case <-w.done:
			return
		default:
		}

		if ok := w.cap.Read(&mat); !ok || mat.Empty() {
			misses := w.misses.Add(1)
			if !isIndex {
				w.cap.Set(gocv.VideoCapturePosFrames, 0)
			}
			if misses == 1 || misses%100 == 0 {
				logger.Warn("camera read failed", "device", w.cfg.Device, "misses", misses)
			}
			select {
			case <-w.done:
				return
			case <-time.After(readRetryDelay):
			}
			continue
		}

		img, err := mat.ToImage()
		if err != nil {
			logger.Warn("frame conversion failed", "error", err)
			continue
		}

		w.latest.Store(&Frame{
			Image:      img,
			Seq:        w.seq.Add(1),
			CapturedAt: time.Now(),
		})
	}
}

// Ready reports whether at least one frame has been decoded.
func (w *Webcam) Ready() bool {
	return w.latest.Load() != nil
}

// Frame returns the most recent frame.
func (w *Webcam) Frame() (Frame, bool) {
	f := w.latest.Load()
	if f == nil {
		return Frame{}, false
	}
	return *f, true
}

// Misses returns how many reads have failed since opening.
func (w *Webcam) Misses() uint64 {
	return w.misses.Load()
}

// Close stops the capture goroutine and releases the device.
func (w *Webcam) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
		err = w.cap.Close()
	})
	return err
}

// Verify Webcam implements Source at compile time.
var _ Source = (*Webcam)(nil)
