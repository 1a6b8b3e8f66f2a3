// Package face finds faces in a frame so inference can run on the face
// region instead of the whole image.
package face

import (
	"image"
	"image/draw"
)

// Detection represents a detected face. Coordinates are normalized to the
// frame: X, Y is the top-left corner.
type Detection struct {
	X, Y       float64
	W, H       float64
	Confidence float64
}

// Center returns the center point of the detection
func (d Detection) Center() (x, y float64) {
	return d.X + d.W/2, d.Y + d.H/2
}

// Area returns the area of the bounding box
func (d Detection) Area() float64 {
	return d.W * d.H
}

// Expand grows the box by margin (a fraction of its size) on every side and
// clamps it to the frame.
func (d Detection) Expand(margin float64) Detection {
	mx, my := d.W*margin, d.H*margin
	x0, y0 := clamp01(d.X-mx), clamp01(d.Y-my)
	x1, y1 := clamp01(d.X+d.W+mx), clamp01(d.Y+d.H+my)
	return Detection{X: x0, Y: y0, W: x1 - x0, H: y1 - y0, Confidence: d.Confidence}
}

// Rect converts the detection to pixel coordinates within bounds.
func (d Detection) Rect(bounds image.Rectangle) image.Rectangle {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	r := image.Rect(
		bounds.Min.X+int(d.X*w),
		bounds.Min.Y+int(d.Y*h),
		bounds.Min.X+int((d.X+d.W)*w+0.5),
		bounds.Min.Y+int((d.Y+d.H)*h+0.5),
	)
	return r.Intersect(bounds)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Detector is the interface for face detection backends
type Detector interface {
	// Detect finds faces in the image and returns their positions
	Detect(img image.Image) ([]Detection, error)

	// Close releases resources
	Close() error
}

// Config holds detector configuration
type Config struct {
	ModelPath        string  // Path to ONNX model; empty disables face cropping
	ConfidenceThresh float64 // Minimum confidence (default 0.5)
	Margin           float64 // Crop margin as a fraction of the face box
}

// DefaultConfig returns production defaults. Face cropping is off until a
// model path is set.
func DefaultConfig() Config {
	return Config{
		ConfidenceThresh: 0.5,
		Margin:           0.2,
	}
}

// Enabled reports whether a detector should be loaded.
func (c Config) Enabled() bool {
	return c.ModelPath != ""
}

// SelectBest picks the best face from multiple detections.
// Priority: confidence * 0.7 + relative area * 0.3.
func SelectBest(dets []Detection) *Detection {
	if len(dets) == 0 {
		return nil
	}

	if len(dets) == 1 {
		return &dets[0]
	}

	maxArea := 0.0
	for _, d := range dets {
		if d.Area() > maxArea {
			maxArea = d.Area()
		}
	}
	if maxArea == 0 {
		maxArea = 1
	}

	bestScore := -1.0
	var best *Detection

	for i := range dets {
		score := dets[i].Confidence*0.7 + (dets[i].Area()/maxArea)*0.3
		if score > bestScore {
			bestScore = score
			best = &dets[i]
		}
	}

	return best
}

// Crop returns the region of img covered by d. An empty region returns img.
func Crop(img image.Image, d Detection) image.Image {
	r := d.Rect(img.Bounds())
	if r.Empty() {
		return img
	}

	if sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(r)
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}
