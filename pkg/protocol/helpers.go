package protocol

import (
	"time"

	"github.com/teslashibe/go-agecam/pkg/prediction"
)

// PredictionFrom converts a prediction to its wire form.
func PredictionFrom(p prediction.Prediction, version uint64) PredictionData {
	d := PredictionData{
		Age:     p.Age,
		Gender:  p.Gender,
		Text:    p.Text(),
		RawAge:  p.RawAge,
		Logits:  p.Logits,
		Version: version,
		Face:    p.Face,
	}
	if !p.At.IsZero() {
		d.At = p.At.UnixMilli()
	}
	return d
}

// NewPredictionMessage creates a prediction message
func NewPredictionMessage(p prediction.Prediction, version uint64) (*Message, error) {
	return NewMessage(TypePrediction, PredictionFrom(p, version))
}

// NewStatsMessage creates a stats message from any JSON-encodable snapshot
func NewStatsMessage(stats interface{}) (*Message, error) {
	return NewMessage(TypeStats, stats)
}

// NewErrorMessage creates an error reply.
func NewErrorMessage(code, message string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Code: code, Message: message})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// Pong builds the reply to a ping message. A ping without data is answered
// using the envelope timestamp.
func Pong(ping *Message) (*Message, error) {
	var data PingData
	if err := ping.ParseData(&data); err != nil {
		return nil, err
	}
	pingTS := data.Timestamp
	if pingTS == 0 {
		pingTS = ping.Timestamp
	}
	return NewPongMessage(data.ID, pingTS, time.Now().UnixMilli())
}

// GetPredictionData extracts prediction data from a message
func (m *Message) GetPredictionData() (*PredictionData, error) {
	var data PredictionData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts error data from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
