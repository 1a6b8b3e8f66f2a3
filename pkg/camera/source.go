package camera

import (
	"fmt"
	"image"
	"os"
	"sync/atomic"
	"time"

	// Register decoders for LoadStill.
	_ "image/jpeg"
	_ "image/png"
)

// Frame is one captured image. A source never modifies a Frame's image after
// handing it out; the next capture produces a new one.
type Frame struct {
	Image      image.Image
	Seq        uint64
	CapturedAt time.Time
}

// Source is a live video source.
type Source interface {
	// Ready reports whether a decoded frame is available to read.
	Ready() bool

	// Frame returns the latest frame. ok is false when none is available yet.
	Frame() (frame Frame, ok bool)

	// Close stops capture and releases the device.
	Close() error
}

// Still is a Source that always serves the same image.
// It is used for demo mode and tests.
type Still struct {
	frame  Frame
	closed atomic.Bool
}

// NewStill wraps img as an always-ready source.
func NewStill(img image.Image) *Still {
	return &Still{frame: Frame{Image: img, Seq: 1, CapturedAt: time.Now()}}
}

// LoadStill reads a JPEG or PNG file into a Still source.
func LoadStill(path string) (*Still, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return NewStill(img), nil
}

// Ready is true until the source is closed.
func (s *Still) Ready() bool {
	return !s.closed.Load() && s.frame.Image != nil
}

// Frame returns the still image.
func (s *Still) Frame() (Frame, bool) {
	if !s.Ready() {
		return Frame{}, false
	}
	return s.frame, true
}

// Close marks the source closed.
func (s *Still) Close() error {
	s.closed.Store(true)
	return nil
}

// Verify Still implements Source at compile time.
var _ Source = (*Still)(nil)
