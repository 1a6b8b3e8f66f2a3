// Package web serves the live display: the rendered camera surface and the
// current prediction over websockets, plus a small JSON API.
package web

import (
	"context"
	"embed"
	"log/slog"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/teslashibe/go-agecam/internal/log"
	"github.com/teslashibe/go-agecam/pkg/hub"
	"github.com/teslashibe/go-agecam/pkg/loop"
	"github.com/teslashibe/go-agecam/pkg/prediction"
	"github.com/teslashibe/go-agecam/pkg/protocol"
)

//go:embed static/index.html
var static embed.FS

// Backend supplies the state the server exposes.
type Backend interface {
	Snapshot() (prediction.Prediction, uint64)
	Stats() loop.Stats
	Health() Health
}

// Health reports whether the model and camera were acquired.
type Health struct {
	Status string          `json:"status"` // ok, degraded or starting
	RunID  string          `json:"run_id"`
	Uptime string          `json:"uptime"`
	Model  ComponentHealth `json:"model"`
	Camera ComponentHealth `json:"camera"`

	// Face is set only when face cropping is configured.
	Face *ComponentHealth `json:"face,omitempty"`
}

// ComponentHealth is the acquisition state of one component.
type ComponentHealth struct {
	Ready   bool   `json:"ready"`
	Pending bool   `json:"pending"`
	Source  string `json:"source,omitempty"`
	Error   string `json:"error,omitempty"`

	// Misses counts failed camera reads since the device opened.
	Misses uint64 `json:"misses,omitempty"`
}

// Server is the display server
type Server struct {
	app     *fiber.App
	port    string
	backend Backend
	logger  *slog.Logger

	cameraHub     *hub.Hub
	predictionHub *hub.Hub

	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
}

// NewServer creates a new display server
func NewServer(port string, backend Backend) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		port:          port,
		backend:       backend,
		logger:        log.Component("web"),
		cameraHub:     hub.New("camera"),
		predictionHub: hub.New("prediction"),
		ctx:           ctx,
		cancel:        cancel,
	}

	app := fiber.New(fiber.Config{
		AppName:               "agecam",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	app.Get("/", s.handleIndex)

	api := app.Group("/api")
	api.Get("/prediction", s.handlePrediction)
	api.Get("/stats", s.handleStats)
	api.Get("/health", s.handleHealth)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/camera", s.cameraHub.Handler(nil, nil))
	app.Get("/ws/prediction", s.predictionHub.Handler(s.onPredictionConnect, s.onPredictionMessage))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// startHubs launches the broadcast hubs once.
func (s *Server) startHubs() {
	s.startOnce.Do(func() {
		go s.cameraHub.Run(s.ctx)
		go s.predictionHub.Run(s.ctx)
	})
}

// Start starts the hubs and blocks serving HTTP.
func (s *Server) Start() error {
	s.startHubs()
	s.logger.Info("display server listening", "url", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine. The returned channel
// receives the listen error, if any.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("web server error", "error", err)
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// PublishFrame sends a rendered JPEG surface to all camera clients.
func (s *Server) PublishFrame(jpeg []byte) {
	s.cameraHub.BroadcastFrame(jpeg)
}

// PublishPrediction sends a new prediction to all prediction clients.
func (s *Server) PublishPrediction(p prediction.Prediction, version uint64) {
	msg, err := protocol.NewPredictionMessage(p, version)
	if err != nil {
		s.logger.Warn("encode prediction", "error", err)
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		s.logger.Warn("encode prediction", "error", err)
		return
	}
	s.predictionHub.Broadcast(hub.JSON(data))
}

// CameraClients returns the number of connected camera viewers.
func (s *Server) CameraClients() int {
	return s.cameraHub.ClientCount()
}

// PredictionClients returns the number of connected prediction listeners.
func (s *Server) PredictionClients() int {
	return s.predictionHub.ClientCount()
}

// Shutdown disconnects clients and stops the HTTP server.
func (s *Server) Shutdown() error {
	s.cancel()
	return s.app.Shutdown()
}

// Verify Server implements loop.Sink at compile time.
var _ loop.Sink = (*Server)(nil)
