// Package tensor converts camera frames into model input tensors.
//
// Frames arrive interleaved (HWC, one RGBA pixel after another). Models expect
// planar NCHW float32 data in [0,1]: all red values, then all green, then all blue.
package tensor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Model input geometry.
const (
	Channels = 3
	Height   = 224
	Width    = 224
)

// ErrEmptyImage is returned when the source image has no pixels.
var ErrEmptyImage = errors.New("tensor: empty image")

// Tensor is a dense float32 tensor in row-major order.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// New allocates a zeroed tensor with the given shape.
func New(shape ...int64) *Tensor {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	s := make([]int64, len(shape))
	copy(s, shape)
	return &Tensor{Shape: s, Data: make([]float32, n)}
}

// Len returns the number of elements.
func (t *Tensor) Len() int {
	return len(t.Data)
}

// Dims returns the shape as ints (what gocv expects).
func (t *Tensor) Dims() []int {
	dims := make([]int, len(t.Shape))
	for i, d := range t.Shape {
		dims[i] = int(d)
	}
	return dims
}

// At returns the element at channel c, row y, column x of a (1,C,H,W) tensor.
func (t *Tensor) At(c, y, x int) float32 {
	h, w := int(t.Shape[2]), int(t.Shape[3])
	return t.Data[c*h*w+y*w+x]
}

// Bytes returns the data as little-endian float32 bytes.
func (t *Tensor) Bytes() []byte {
	buf := make([]byte, 4*len(t.Data))
	for i, v := range t.Data {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// Equal reports whether two tensors have identical shape and data.
func (t *Tensor) Equal(o *Tensor) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.Shape) != len(o.Shape) || len(t.Data) != len(o.Data) {
		return false
	}
	for i := range t.Shape {
		if t.Shape[i] != o.Shape[i] {
			return false
		}
	}
	for i := range t.Data {
		if t.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}

// String summarizes the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("tensor%v[%d]", t.Shape, len(t.Data))
}

// FromImage derives the (1,3,224,224) input tensor from a frame.
// The frame is resized bilinearly to 224x224, pixel values are scaled from
// [0,255] to [0,1], and channels are laid out planar in R, G, B order.
// The source image is never modified.
func FromImage(img image.Image) (*Tensor, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	resized := Resize(img, Width, Height)

	t := New(1, Channels, Height, Width)
	plane := Height * Width
	for y := 0; y < Height; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < Width; x++ {
			px := row[4*x : 4*x+3]
			i := y*Width + x
			t.Data[i] = float32(px[0]) / 255.0
			t.Data[plane+i] = float32(px[1]) / 255.0
			t.Data[2*plane+i] = float32(px[2]) / 255.0
		}
	}
	return t, nil
}

// Resize scales img into a new w x h RGBA image using bilinear interpolation.
func Resize(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
