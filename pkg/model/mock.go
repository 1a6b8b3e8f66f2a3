package model

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/go-agecam/pkg/tensor"
)

// Mock implements Session for testing.
type Mock struct {
	// RunFunc is called when Run is invoked.
	RunFunc func(ctx context.Context, inputs Inputs) (Outputs, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation.
type MockCall struct {
	Method string
	Time   time.Time
}

// NewMock creates a mock session that always predicts the given age and logits.
func NewMock(age float32, l0, l1 float32) *Mock {
	return &Mock{
		RunFunc: func(ctx context.Context, inputs Inputs) (Outputs, error) {
			return MockOutputs(age, l0, l1), nil
		},
	}
}

// WithError returns a mock whose Run always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		RunFunc: func(ctx context.Context, inputs Inputs) (Outputs, error) {
			return nil, err
		},
	}
}

// MockOutputs builds a well-formed output map.
func MockOutputs(age float32, l0, l1 float32) Outputs {
	return Outputs{
		AgeOutput:    &tensor.Tensor{Shape: []int64{1, 1}, Data: []float32{age}},
		GenderOutput: &tensor.Tensor{Shape: []int64{1, 2}, Data: []float32{l0, l1}},
	}
}

// Run calls RunFunc and records the call.
func (m *Mock) Run(ctx context.Context, inputs Inputs) (Outputs, error) {
	m.record("Run")
	if in, ok := inputs[InputName]; !ok || in == nil {
		return nil, ErrMissingInput
	}
	if m.RunFunc != nil {
		return m.RunFunc(ctx, inputs)
	}
	return MockOutputs(30, 0, 1), nil
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.record("Close")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// record adds a call to the tracking list.
func (m *Mock) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method: method,
		Time:   time.Now(),
	})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Verify Mock implements Session at compile time.
var _ Session = (*Mock)(nil)
