// Package protocol defines the WebSocket messages exchanged with dashboard clients.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslashibe/go-agecam/pkg/prediction"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Server → client messages
	TypePrediction MessageType = "prediction" // Latest age/gender estimate
	TypeStats      MessageType = "stats"      // Loop statistics
	TypeError      MessageType = "error"      // Rejected client request

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// PredictionData is the latest estimate as shown on the overlay.
// Age and Gender are empty until the first successful inference.
type PredictionData struct {
	Age     string     `json:"age"`
	Gender  string     `json:"gender"`
	Text    string     `json:"text"`
	RawAge  float32    `json:"raw_age"`
	Logits  [2]float32 `json:"logits"`
	At      int64      `json:"at,omitempty"` // Unix milliseconds
	Version uint64     `json:"version"`

	Face *prediction.Box `json:"face,omitempty"`
}

// ErrorData explains why a client request was rejected.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes carried by ErrorData.
const (
	CodeMalformed   = "malformed"
	CodeUnsupported = "unsupported"
)

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
