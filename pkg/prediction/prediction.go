// Package prediction decodes age/gender model outputs and holds the latest result.
package prediction

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/teslashibe/go-agecam/pkg/tensor"
)

// Output names produced by the age/gender model.
const (
	AgeOutput    = "predicted_age"
	GenderOutput = "predicted_gender_logits"
)

// Gender labels.
const (
	Male   = "Male"
	Female = "Female"
)

// Placeholder is shown for a field that has no value yet.
const Placeholder = "--"

var (
	// ErrMissingOutput is returned when a required output is absent.
	ErrMissingOutput = errors.New("prediction: missing model output")

	// ErrShortOutput is returned when an output has too few elements.
	ErrShortOutput = errors.New("prediction: model output too short")
)

// Prediction is one age/gender estimate. The zero value is the placeholder
// state shown before the first successful inference.
type Prediction struct {
	Age    string     `json:"age"`
	Gender string     `json:"gender"`
	RawAge float32    `json:"raw_age"`
	Logits [2]float32 `json:"logits"`
	At     time.Time  `json:"at"`

	// Face is the region inference ran on, when a face detector is in use.
	Face *Box `json:"face,omitempty"`
}

// Box is a rectangle normalized to the frame: X, Y is the top-left corner.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// IsZero reports whether p is the placeholder state.
func (p Prediction) IsZero() bool {
	return p.Age == "" && p.Gender == ""
}

// Text renders the display readout, e.g. "Age: 23.5 | Gender: Male".
func (p Prediction) Text() string {
	return fmt.Sprintf("Age: %s | Gender: %s", orPlaceholder(p.Age), orPlaceholder(p.Gender))
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// GenderLabel picks the label from the two logits. Ties go to Female.
func GenderLabel(l0, l1 float32) string {
	if l0 > l1 {
		return Male
	}
	return Female
}

// FormatAge formats the raw age estimate with exactly one decimal digit.
func FormatAge(age float32) string {
	return strconv.FormatFloat(float64(age), 'f', 1, 64)
}

// Decode builds a Prediction from named model outputs.
// Both outputs must be present and well formed; on error no partial
// Prediction is returned.
func Decode(outputs map[string]*tensor.Tensor) (Prediction, error) {
	age, err := lookup(outputs, AgeOutput, 1)
	if err != nil {
		return Prediction{}, err
	}
	logits, err := lookup(outputs, GenderOutput, 2)
	if err != nil {
		return Prediction{}, err
	}

	raw := age.Data[0]
	return Prediction{
		Age:    FormatAge(raw),
		Gender: GenderLabel(logits.Data[0], logits.Data[1]),
		RawAge: raw,
		Logits: [2]float32{logits.Data[0], logits.Data[1]},
		At:     time.Now(),
	}, nil
}

func lookup(outputs map[string]*tensor.Tensor, name string, min int) (*tensor.Tensor, error) {
	t, ok := outputs[name]
	if !ok || t == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingOutput, name)
	}
	if len(t.Data) < min {
		return nil, fmt.Errorf("%w: %s has %d elements, need %d", ErrShortOutput, name, len(t.Data), min)
	}
	return t, nil
}
