package tensor

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestFromImage_Shape(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"vga frame", 640, 480},
		{"already model size", 224, 224},
		{"tiny upscale", 8, 6},
		{"portrait", 360, 640},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensor, err := FromImage(solid(tt.w, tt.h, color.RGBA{10, 20, 30, 255}))
			if err != nil {
				t.Fatalf("FromImage failed: %v", err)
			}

			want := []int64{1, 3, 224, 224}
			if len(tensor.Shape) != len(want) {
				t.Fatalf("Shape = %v, want %v", tensor.Shape, want)
			}
			for i := range want {
				if tensor.Shape[i] != want[i] {
					t.Fatalf("Shape = %v, want %v", tensor.Shape, want)
				}
			}
			if tensor.Len() != 3*224*224 {
				t.Errorf("Len = %d, want %d", tensor.Len(), 3*224*224)
			}
		})
	}
}

func TestFromImage_ScalesToUnitRange(t *testing.T) {
	tensor, err := FromImage(solid(640, 480, color.RGBA{255, 51, 0, 255}))
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}

	want := [3]float32{1.0, 51.0 / 255.0, 0}
	for c := 0; c < 3; c++ {
		for _, p := range [][2]int{{0, 0}, {111, 57}, {223, 223}} {
			got := tensor.At(c, p[0], p[1])
			if math.Abs(float64(got-want[c])) > 1e-6 {
				t.Errorf("channel %d at %v = %f, want %f", c, p, got, want[c])
			}
		}
	}

	for i, v := range tensor.Data {
		if v < 0 || v > 1 {
			t.Fatalf("Data[%d] = %f out of [0,1]", i, v)
		}
	}
}

func TestFromImage_PlanarLayout(t *testing.T) {
	// Left half red, right half blue.
	img := image.NewRGBA(image.Rect(0, 0, 448, 448))
	for y := 0; y < 448; y++ {
		for x := 0; x < 448; x++ {
			if x < 224 {
				img.SetRGBA(x, y, color.RGBA{255, 0, 0, 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{0, 0, 255, 255})
			}
		}
	}

	tensor, err := FromImage(img)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}

	// Sample well away from the seam so interpolation does not matter.
	const left, right, row = 20, 200, 100
	if got := tensor.At(0, row, left); got != 1 {
		t.Errorf("red plane left = %f, want 1", got)
	}
	if got := tensor.At(2, row, left); got != 0 {
		t.Errorf("blue plane left = %f, want 0", got)
	}
	if got := tensor.At(0, row, right); got != 0 {
		t.Errorf("red plane right = %f, want 0", got)
	}
	if got := tensor.At(2, row, right); got != 1 {
		t.Errorf("blue plane right = %f, want 1", got)
	}

	// Planar: the first plane is entirely red values.
	plane := 224 * 224
	if tensor.Data[row*224+left] != 1 || tensor.Data[2*plane+row*224+right] != 1 {
		t.Error("data is not laid out channel-first")
	}
}

func TestFromImage_Deterministic(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), uint8(x ^ y), 255})
		}
	}
	before := make([]byte, len(img.Pix))
	copy(before, img.Pix)

	a, err := FromImage(img)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	b, err := FromImage(img)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}

	if !a.Equal(b) {
		t.Error("repeated derivation from the same frame produced different tensors")
	}
	for i := range before {
		if before[i] != img.Pix[i] {
			t.Fatal("FromImage modified the source frame")
		}
	}
}

func TestFromImage_Empty(t *testing.T) {
	if _, err := FromImage(nil); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("nil image: expected ErrEmptyImage, got %v", err)
	}
	if _, err := FromImage(image.NewRGBA(image.Rect(0, 0, 0, 0))); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("empty image: expected ErrEmptyImage, got %v", err)
	}
}

func TestTensor_Bytes(t *testing.T) {
	tensor := New(1, 2)
	tensor.Data[0] = 0.5
	tensor.Data[1] = 1

	b := tensor.Bytes()
	if len(b) != 8 {
		t.Fatalf("len(Bytes) = %d, want 8", len(b))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(b[4:])); got != 1 {
		t.Errorf("second element = %f, want 1", got)
	}
}

func TestTensor_Dims(t *testing.T) {
	dims := New(1, 3, 224, 224).Dims()
	if len(dims) != 4 || dims[1] != 3 || dims[3] != 224 {
		t.Errorf("Dims = %v", dims)
	}
}
