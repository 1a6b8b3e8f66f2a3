package web

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-agecam/pkg/hub"
	"github.com/teslashibe/go-agecam/pkg/protocol"
)

// handleIndex serves the viewer page
func (s *Server) handleIndex(c *fiber.Ctx) error {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		return err
	}
	c.Type("html")
	return c.Send(page)
}

// handlePrediction returns the latest prediction
func (s *Server) handlePrediction(c *fiber.Ctx) error {
	p, version := s.backend.Snapshot()
	return c.JSON(protocol.PredictionFrom(p, version))
}

// handleStats returns loop statistics
func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"loop":               s.backend.Stats(),
		"camera_clients":     s.CameraClients(),
		"prediction_clients": s.PredictionClients(),
		"dropped_frames":     s.cameraHub.Dropped(),
	})
}

// handleHealth returns model and camera status
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(s.backend.Health())
}

// onPredictionConnect sends the current prediction to a new client.
func (s *Server) onPredictionConnect(client *hub.Client) {
	p, version := s.backend.Snapshot()
	msg, err := protocol.NewPredictionMessage(p, version)
	if err != nil {
		return
	}
	s.send(client, msg)
}

// onPredictionMessage answers client requests on the prediction socket.
func (s *Server) onPredictionMessage(client *hub.Client, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		s.logger.Debug("malformed client message", "client", client.ID, "error", err)
		s.reject(client, protocol.CodeMalformed, err.Error())
		return
	}

	var reply *protocol.Message
	switch msg.Type {
	case protocol.TypePing:
		reply, err = protocol.Pong(msg)
	case protocol.TypeStats:
		reply, err = protocol.NewStatsMessage(s.backend.Stats())
	case protocol.TypePrediction:
		p, version := s.backend.Snapshot()
		reply, err = protocol.NewPredictionMessage(p, version)
	default:
		s.logger.Debug("unsupported client message", "client", client.ID, "type", msg.Type)
		s.reject(client, protocol.CodeUnsupported, fmt.Sprintf("unsupported message type %q", msg.Type))
		return
	}
	if err != nil {
		s.logger.Warn("build reply", "type", msg.Type, "error", err)
		return
	}
	s.send(client, reply)
}

func (s *Server) reject(client *hub.Client, code, message string) {
	if msg, err := protocol.NewErrorMessage(code, message); err == nil {
		s.send(client, msg)
	}
}

func (s *Server) send(client *hub.Client, msg *protocol.Message) {
	data, err := msg.Bytes()
	if err != nil {
		return
	}
	if err := client.Send(hub.JSON(data)); err != nil {
		s.logger.Debug("send to client failed", "client", client.ID, "error", err)
	}
}
