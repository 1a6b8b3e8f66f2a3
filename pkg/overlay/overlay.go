// Package overlay draws the display surface: the live frame at a fixed size
// with the age/gender readout in the top-left corner and, when known, the
// face region inference ran on.
package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/teslashibe/go-agecam/pkg/prediction"
)

// Config holds surface configuration.
type Config struct {
	Width    int     // Surface width in pixels
	Height   int     // Surface height in pixels
	FontSize float64 // Readout font size in points
	Quality  int     // JPEG quality 1-100
}

// DefaultConfig returns the 640x480 surface with a 24pt readout.
func DefaultConfig() Config {
	return Config{
		Width:    640,
		Height:   480,
		FontSize: 24,
		Quality:  80,
	}
}

// Readout box geometry, in surface pixels.
const (
	boxX       = 10
	boxY       = 10
	boxPadX    = 10
	boxPadY    = 5
	boxRadius  = 4
	boxOpacity = 0.6

	faceLineWidth = 2
)

// Surface renders frames. It holds no per-frame state and is safe for
// concurrent use.
type Surface struct {
	cfg  Config
	face font.Face
}

// New creates a surface and loads the readout font.
func New(cfg Config) (*Surface, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("overlay: invalid size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Quality < 1 || cfg.Quality > 100 {
		return nil, fmt.Errorf("overlay: quality must be between 1 and 100")
	}

	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("overlay: parse font: %w", err)
	}

	return &Surface{
		cfg:  cfg,
		face: truetype.NewFace(f, &truetype.Options{Size: cfg.FontSize}),
	}, nil
}

// Size returns the surface dimensions.
func (s *Surface) Size() (width, height int) {
	return s.cfg.Width, s.cfg.Height
}

// Render draws frame scaled to the surface size and overlays p's readout.
// A nil frame renders a black surface with the readout.
func (s *Surface) Render(frame image.Image, p prediction.Prediction) image.Image {
	dc := gg.NewContext(s.cfg.Width, s.cfg.Height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	if frame != nil && !frame.Bounds().Empty() {
		dc.DrawImage(s.fit(frame), 0, 0)
	}

	if f := p.Face; f != nil {
		w, h := float64(s.cfg.Width), float64(s.cfg.Height)
		dc.SetRGB(0, 1, 0)
		dc.SetLineWidth(faceLineWidth)
		dc.DrawRectangle(f.X*w, f.Y*h, f.W*w, f.H*h)
		dc.Stroke()
	}

	text := p.Text()
	dc.SetFontFace(s.face)
	tw, th := dc.MeasureString(text)

	dc.SetRGBA(0, 0, 0, boxOpacity)
	dc.DrawRoundedRectangle(boxX, boxY, tw+2*boxPadX, th+2*boxPadY, boxRadius)
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(text, boxX+boxPadX, boxY+boxPadY+th/2, 0, 0.5)

	return dc.Image()
}

// fit scales frame to exactly the surface size.
func (s *Surface) fit(frame image.Image) image.Image {
	b := frame.Bounds()
	if b.Dx() == s.cfg.Width && b.Dy() == s.cfg.Height {
		return frame
	}
	dst := image.NewRGBA(image.Rect(0, 0, s.cfg.Width, s.cfg.Height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), frame, b, draw.Src, nil)
	return dst
}

// Encode compresses a rendered surface to JPEG.
func (s *Surface) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.cfg.Quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderJPEG renders and encodes in one step.
func (s *Surface) RenderJPEG(frame image.Image, p prediction.Prediction) ([]byte, error) {
	return s.Encode(s.Render(frame, p))
}
