package hub

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
)

func startHub(t *testing.T, name string) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New(name)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	time.Sleep(10 * time.Millisecond)
	return h, cancel
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNew(t *testing.T) {
	h := New("test")

	if h.ClientCount() != 0 {
		t.Error("ClientCount should be 0 initially")
	}
	if h.IsRunning() {
		t.Error("hub should not be running before Run")
	}
	if h.Name() != "test" {
		t.Errorf("Name = %q", h.Name())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h, cancel := startHub(t, "stop")

	waitFor(t, "hub running", h.IsRunning)
	cancel()
	waitFor(t, "hub stopped", func() bool { return !h.IsRunning() })
}

func TestBroadcastWithoutClients(t *testing.T) {
	h, cancel := startHub(t, "empty")
	defer cancel()

	// Should not block or panic.
	for i := 0; i < 10; i++ {
		h.BroadcastFrame([]byte{0xFF, 0xD8})
	}
	h.Broadcast(JSON([]byte(`{"type":"ping"}`)))
}

func TestBroadcastDropsWhenQueueFull(t *testing.T) {
	h := New("full")

	// Nothing drains the queue while Run is not started.
	for i := 0; i < cap(h.broadcast)+5; i++ {
		h.BroadcastFrame([]byte{1})
	}
	if h.Dropped() != 5 {
		t.Errorf("Dropped = %d, want 5", h.Dropped())
	}
}

func TestClientSendAfterClose(t *testing.T) {
	c := newClient(New("closed"), nil, nil)
	c.close()
	c.close()

	if err := c.Send(JSON([]byte("{}"))); err != ErrClientClosed {
		t.Errorf("Send after close = %v, want ErrClientClosed", err)
	}
}

func TestClientSendBusy(t *testing.T) {
	c := newClient(New("busy"), nil, nil)

	for i := 0; i < sendBuffer; i++ {
		if err := c.Send(Frame(nil)); err != nil {
			t.Fatalf("Send %d failed: %v", i, err)
		}
	}
	if err := c.Send(Frame(nil)); err != ErrClientBusy {
		t.Errorf("Send on full queue = %v, want ErrClientBusy", err)
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	h, cancel := startHub(t, "ws")
	defer cancel()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", h.Handler(nil, nil))

	go app.Listen(":18090")
	defer app.Shutdown()
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18090/ws", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()

	waitFor(t, "client registered", func() bool { return h.ClientCount() == 1 })

	frame := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	h.BroadcastFrame(frame)

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if msgType != websocket.BinaryMessage {
		t.Errorf("message type = %d, want binary", msgType)
	}
	if string(data) != string(frame) {
		t.Errorf("data = %x, want %x", data, frame)
	}

	ws.Close()
	waitFor(t, "client unregistered", func() bool { return h.ClientCount() == 0 })
}

func TestWebSocketConnectAndEcho(t *testing.T) {
	h, cancel := startHub(t, "echo")
	defer cancel()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", h.Handler(
		func(c *Client) { c.Send(JSON([]byte(`{"hello":true}`))) },
		func(c *Client, data []byte) { c.Send(JSON(data)) },
	))

	go app.Listen(":18091")
	defer app.Shutdown()
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18091/ws", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, greeting, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read greeting error: %v", err)
	}
	if string(greeting) != `{"hello":true}` {
		t.Errorf("greeting = %s", greeting)
	}

	ws.WriteMessage(websocket.TextMessage, []byte(`{"n":1}`))
	_, echo, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read echo error: %v", err)
	}
	if string(echo) != `{"n":1}` {
		t.Errorf("echo = %s", echo)
	}
}

func TestStopDisconnectsClients(t *testing.T) {
	h, cancel := startHub(t, "teardown")

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", h.Handler(nil, nil))

	go app.Listen(":18092")
	defer app.Shutdown()
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18092/ws", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()

	waitFor(t, "client registered", func() bool { return h.ClientCount() == 1 })
	cancel()

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Error("expected connection to close after hub stop")
	}
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount = %d after stop", h.ClientCount())
	}
}
