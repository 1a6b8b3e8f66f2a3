// Package model loads the age/gender ONNX model and runs it on input tensors.
//
// Two backends are available behind the same Session interface: OpenCV's DNN
// module (via gocv) and ONNX Runtime. Both take the model as raw bytes, so the
// model can come from a URL or a local file.
//
// Example usage:
//
//	sess, err := model.Load(ctx, model.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	out, err := sess.Run(ctx, model.Inputs{model.InputName: t})
package model

import (
	"context"
	"fmt"
	"time"

	"github.com/teslashibe/go-agecam/pkg/prediction"
	"github.com/teslashibe/go-agecam/pkg/tensor"
)

// DefaultModelURL is where the pretrained age/gender model is published.
const DefaultModelURL = "https://huggingface.co/hammad140/age-gender-browser-model/resolve/main/model.onnx"

// Tensor names in the model's invocation contract.
const (
	InputName    = "input_image"
	AgeOutput    = prediction.AgeOutput
	GenderOutput = prediction.GenderOutput
)

// OutputNames lists the outputs every session must produce.
var OutputNames = []string{AgeOutput, GenderOutput}

// Inputs maps input names to tensors.
type Inputs map[string]*tensor.Tensor

// Outputs maps output names to tensors.
type Outputs map[string]*tensor.Tensor

// Session is a loaded model able to run forward passes.
// Implementations are safe for concurrent use.
type Session interface {
	// Run executes one forward pass. It blocks until the pass completes.
	Run(ctx context.Context, inputs Inputs) (Outputs, error)

	// Close releases the model. Run must not be called afterwards.
	Close() error
}

// Backend selects the inference runtime.
type Backend string

const (
	// BackendOpenCV runs the model with OpenCV's DNN module.
	BackendOpenCV Backend = "opencv"
	// BackendONNXRuntime runs the model with ONNX Runtime.
	BackendONNXRuntime Backend = "onnxruntime"
)

// Backends lists the supported backends.
var Backends = []Backend{BackendOpenCV, BackendONNXRuntime}

// Config holds model loading configuration.
type Config struct {
	URL            string        // http(s) URL, file:// URL or local path
	Backend        Backend       // Inference runtime
	RuntimeLibrary string        // ONNX Runtime shared library (onnxruntime backend only)
	Timeout        time.Duration // Fetch timeout
	MaxBytes       int64         // Largest accepted model file
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		URL:      DefaultModelURL,
		Backend:  BackendOpenCV,
		Timeout:  2 * time.Minute,
		MaxBytes: 512 << 20,
	}
}

// Validate checks that the configuration can be used.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("model: URL required")
	}
	if !c.Backend.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if c.MaxBytes < 0 {
		return fmt.Errorf("model: MaxBytes must not be negative")
	}
	return nil
}

// Valid reports whether b names a supported backend.
func (b Backend) Valid() bool {
	for _, known := range Backends {
		if b == known {
			return true
		}
	}
	return false
}
