package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/teslashibe/go-agecam/pkg/tensor"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortOnce sync.Once
	ortErr  error
)

// initRuntime initializes the process-wide ONNX Runtime environment once.
// An empty library path uses the loader's default search.
func initRuntime(library string) error {
	ortOnce.Do(func() {
		if library != "" {
			ort.SetSharedLibraryPath(library)
		}
		ortErr = ort.InitializeEnvironment()
	})
	return ortErr
}

// ONNXRuntimeSession runs the model with ONNX Runtime.
type ONNXRuntimeSession struct {
	session *ort.DynamicAdvancedSession
	mu      sync.Mutex
	closed  bool
}

// NewONNXRuntime creates an ONNX Runtime session from model bytes.
func NewONNXRuntime(data []byte, library string) (*ONNXRuntimeSession, error) {
	if err := initRuntime(library); err != nil {
		return nil, fmt.Errorf("onnxruntime init: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSessionWithONNXData(data,
		[]string{InputName}, OutputNames, nil)
	if err != nil {
		return nil, fmt.Errorf("onnxruntime session: %w", err)
	}

	return &ONNXRuntimeSession{session: session}, nil
}

// Run executes one forward pass. Output tensors are allocated by the runtime
// and copied out before being destroyed.
func (s *ONNXRuntimeSession) Run(ctx context.Context, inputs Inputs) (Outputs, error) {
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

	input, err := ort.NewTensor(ort.NewShape(in.Shape...), in.Data)
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	defer input.Destroy()

	results := make([]ort.Value, len(OutputNames))
	defer func() {
		for _, v := range results {
			if v != nil {
				v.Destroy()
			}
		}
	}()

	if err := s.session.Run([]ort.Value{input}, results); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	out := make(Outputs, len(results))
	for i, name := range OutputNames {
		ft, ok := results[i].(*ort.Tensor[float32])
		if !ok {
			return nil, fmt.Errorf("output %s: not a float32 tensor", name)
		}
		data := ft.GetData()
		t := &tensor.Tensor{
			Shape: append([]int64(nil), ft.GetShape()...),
			Data:  make([]float32, len(data)),
		}
		copy(t.Data, data)
		out[name] = t
	}
	return out, nil
}

// Close destroys the session. The shared runtime environment stays
// initialized for the life of the process.
func (s *ONNXRuntimeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.session.Destroy()
}

// Verify ONNXRuntimeSession implements Session at compile time.
var _ Session = (*ONNXRuntimeSession)(nil)
