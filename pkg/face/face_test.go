package face

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDetection_Center(t *testing.T) {
	tests := []struct {
		name    string
		det     Detection
		expectX float64
		expectY float64
	}{
		{"center of image", Detection{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}, 0.5, 0.5},
		{"top left corner", Detection{X: 0, Y: 0, W: 0.2, H: 0.2}, 0.1, 0.1},
		{"bottom right corner", Detection{X: 0.8, Y: 0.8, W: 0.2, H: 0.2}, 0.9, 0.9},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			x, y := tc.det.Center()
			if !near(x, tc.expectX) || !near(y, tc.expectY) {
				t.Errorf("Center = (%.2f, %.2f), want (%.2f, %.2f)", x, y, tc.expectX, tc.expectY)
			}
		})
	}
}

func TestDetection_Expand(t *testing.T) {
	tests := []struct {
		name   string
		det    Detection
		margin float64
		want   Detection
	}{
		{
			name:   "grows evenly",
			det:    Detection{X: 0.4, Y: 0.4, W: 0.2, H: 0.2},
			margin: 0.5,
			want:   Detection{X: 0.3, Y: 0.3, W: 0.4, H: 0.4},
		},
		{
			name:   "clamped at edges",
			det:    Detection{X: 0, Y: 0.9, W: 0.2, H: 0.1},
			margin: 0.5,
			want:   Detection{X: 0, Y: 0.85, W: 0.3, H: 0.15},
		},
		{
			name:   "no margin",
			det:    Detection{X: 0.1, Y: 0.2, W: 0.3, H: 0.4},
			margin: 0,
			want:   Detection{X: 0.1, Y: 0.2, W: 0.3, H: 0.4},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.det.Expand(tc.margin)
			if !near(got.X, tc.want.X) || !near(got.Y, tc.want.Y) || !near(got.W, tc.want.W) || !near(got.H, tc.want.H) {
				t.Errorf("Expand = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestDetection_Rect(t *testing.T) {
	bounds := image.Rect(0, 0, 200, 100)

	got := Detection{X: 0.25, Y: 0.5, W: 0.5, H: 0.25}.Rect(bounds)
	if want := image.Rect(50, 50, 150, 75); got != want {
		t.Errorf("Rect = %v, want %v", got, want)
	}

	// Out-of-frame boxes are clipped.
	got = Detection{X: 0.9, Y: 0.9, W: 0.5, H: 0.5}.Rect(bounds)
	if !got.In(bounds) {
		t.Errorf("Rect %v escapes bounds %v", got, bounds)
	}
}

func TestSelectBest(t *testing.T) {
	if SelectBest(nil) != nil {
		t.Error("SelectBest(nil) should return nil")
	}

	single := []Detection{{X: 0.1, Confidence: 0.4}}
	if best := SelectBest(single); best == nil || best.X != 0.1 {
		t.Errorf("SelectBest(single) = %+v", best)
	}

	dets := []Detection{
		{X: 0.0, W: 0.1, H: 0.1, Confidence: 0.95},
		{X: 0.5, W: 0.4, H: 0.4, Confidence: 0.9},
		{X: 0.8, W: 0.05, H: 0.05, Confidence: 0.6},
	}
	best := SelectBest(dets)
	if best == nil || best.X != 0.5 {
		t.Errorf("SelectBest should prefer the large confident face, got %+v", best)
	}
}

func TestCrop(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	img.SetRGBA(60, 60, color.RGBA{255, 0, 0, 255})

	crop := Crop(img, Detection{X: 0.5, Y: 0.5, W: 0.2, H: 0.2})
	b := crop.Bounds()
	if b.Dx() != 20 || b.Dy() != 20 {
		t.Fatalf("crop size = %dx%d, want 20x20", b.Dx(), b.Dy())
	}
	r, _, _, _ := crop.At(60, 60).RGBA()
	if r>>8 != 255 {
		t.Error("crop should keep source pixels")
	}

	if Crop(img, Detection{}) != image.Image(img) {
		t.Error("empty detection should return the whole frame")
	}
}

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Enabled() {
		t.Error("face cropping should be off by default")
	}
	cfg.ModelPath = "models/face_detection_yunet.onnx"
	if !cfg.Enabled() {
		t.Error("config with a model path should be enabled")
	}
}

func TestNewYuNet_InvalidPath(t *testing.T) {
	tests := []string{"", "/nonexistent/path/model.onnx"}

	for _, path := range tests {
		cfg := DefaultConfig()
		cfg.ModelPath = path
		if _, err := NewYuNet(cfg); err == nil {
			t.Errorf("expected error for model path %q", path)
		}
	}
}

func TestYuNet_SolidImage(t *testing.T) {
	modelPath := findModelPath()
	if modelPath == "" {
		t.Skip("YuNet model not found, skipping test")
	}

	cfg := DefaultConfig()
	cfg.ModelPath = modelPath
	detector, err := NewYuNet(cfg)
	if err != nil {
		t.Fatalf("NewYuNet failed: %v", err)
	}
	defer detector.Close()

	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.SetRGBA(x, y, color.RGBA{0, 0, 255, 255})
		}
	}

	detections, err := detector.Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(detections) > 0 {
		t.Errorf("Expected no detections in solid color image, got %d", len(detections))
	}

	if _, err := detector.Detect(image.NewRGBA(image.Rect(0, 0, 0, 0))); err == nil {
		t.Error("Expected error for empty image")
	}

	detector.Close()
	if _, err := detector.Detect(img); err == nil {
		t.Error("Expected error after Close")
	}
}

func findModelPath() string {
	if p := os.Getenv("AGECAM_TEST_FACE_MODEL"); p != "" {
		return p
	}
	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; dir != "/"; dir = filepath.Dir(dir) {
			modelPath := filepath.Join(dir, "models", "face_detection_yunet.onnx")
			if _, err := os.Stat(modelPath); err == nil {
				return modelPath
			}
		}
	}
	return ""
}
