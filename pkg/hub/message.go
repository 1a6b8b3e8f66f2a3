// Package hub fans out websocket messages to connected dashboard clients.
// One goroutine owns the client set; each client has its own writer.
package hub

import "github.com/gofiber/contrib/websocket"

// Kind selects the websocket frame a Message is written as.
type Kind int

const (
	KindJSON  Kind = iota // readouts, stats and pong replies
	KindFrame             // encoded display frames
)

func (k Kind) opcode() int {
	if k == KindFrame {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// Message is one queued websocket write. Data is shared between clients
// on broadcast and must not be modified after queueing.
type Message struct {
	Kind Kind
	Data []byte
}

// JSON wraps pre-encoded JSON.
func JSON(data []byte) Message {
	return Message{Kind: KindJSON, Data: data}
}

// Frame wraps an encoded JPEG frame.
func Frame(jpeg []byte) Message {
	return Message{Kind: KindFrame, Data: jpeg}
}
