package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/teslashibe/go-agecam/pkg/tensor"
	"gocv.io/x/gocv"
)

// OpenCVSession runs the model with OpenCV's DNN module.
type OpenCVSession struct {
	net    gocv.Net
	mu     sync.Mutex // Protects inference
	closed bool
}

// NewOpenCV parses ONNX model bytes into an OpenCV network.
func NewOpenCV(data []byte) (*OpenCVSession, error) {
	net, err := gocv.ReadNetFromONNXBytes(data)
	if err != nil {
		return nil, fmt.Errorf("read onnx: %w", err)
	}
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("read onnx: network is empty")
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &OpenCVSession{net: net}, nil
}

// Run feeds the input tensor and collects both named outputs.
// The OpenCV forward pass cannot be interrupted, so ctx is only checked
// before it starts.
func (s *OpenCVSession) Run(ctx context.Context, inputs Inputs) (Outputs, error) {
	in, ok := inputs[InputName]
	if !ok || in == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, InputName)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	blob, err := gocv.NewMatWithSizesFromBytes(in.Dims(), gocv.MatTypeCV32F, in.Bytes())
	if err != nil {
		return nil, fmt.Errorf("input blob: %w", err)
	}
	defer blob.Close()

	s.net.SetInput(blob, InputName)

	mats := s.net.ForwardLayers(OutputNames)
	defer func() {
		for i := range mats {
			mats[i].Close()
		}
	}()

	if len(mats) != len(OutputNames) {
		return nil, fmt.Errorf("forward: got %d outputs, want %d", len(mats), len(OutputNames))
	}

	out := make(Outputs, len(mats))
	for i, name := range OutputNames {
		t, err := matToTensor(mats[i])
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// Close releases the network.
func (s *OpenCVSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.net.Close()
	return nil
}

// matToTensor copies a float32 Mat out of OpenCV-owned memory.
func matToTensor(m gocv.Mat) (*tensor.Tensor, error) {
	if m.Empty() {
		return nil, fmt.Errorf("empty output")
	}
	data, err := m.DataPtrFloat32()
	if err != nil {
		return nil, err
	}

	size := m.Size()
	shape := make([]int64, len(size))
	for i, d := range size {
		shape[i] = int64(d)
	}

	t := &tensor.Tensor{Shape: shape, Data: make([]float32, len(data))}
	copy(t.Data, data)
	return t, nil
}

// Verify OpenCVSession implements Session at compile time.
var _ Session = (*OpenCVSession)(nil)
