package web

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-repcount/pkg/detector"
	"github.com/teslashibe/go-repcount/pkg/engine"
	"github.com/teslashibe/go-repcount/pkg/hub"
	"github.com/teslashibe/go-repcount/pkg/protocol"
	"github.com/teslashibe/go-repcount/pkg/session"
)

// maxBatch bounds frames accepted by one POST /api/frames
const maxBatch = 10_000

// defaultListLimit applies when /api/sessions has no limit
const defaultListLimit = 50

// errorStatus maps domain errors to HTTP status codes
func errorStatus(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, session.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, session.ErrInvalidState), errors.Is(err, session.ErrNoActiveSession):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func sendError(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// handleStatus returns engine and session state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

// handleListSessions returns stored sessions, newest first
func (s *Server) handleListSessions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultListLimit)
	sessions, err := s.sessions.List(c.UserContext(), limit)
	if err != nil {
		return sendError(c, errorStatus(err), err)
	}
	if sessions == nil {
		sessions = []*session.Session{}
	}
	return c.JSON(sessions)
}

// handleGetSession returns one session with its repetitions
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return sendError(c, errorStatus(err), err)
	}
	return c.JSON(sess)
}

// SessionRequest is the request body for starting a session
type SessionRequest struct {
	Exercise string `json:"exercise"`
}

// handleSessionAction starts, pauses, resumes or ends the session
func (s *Server) handleSessionAction(c *fiber.Ctx) error {
	var req SessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return sendError(c, fiber.StatusBadRequest, err)
		}
	}

	sess, err := s.control(c.UserContext(), c.Params("action"), req.Exercise)
	if err != nil {
		return sendError(c, errorStatus(err), err)
	}
	return c.JSON(fiber.Map{
		"state":   s.sessions.State().String(),
		"session": sess,
	})
}

// control applies a session action. Starting a session resets the
// engine so counts and timestamps begin fresh.
func (s *Server) control(ctx context.Context, action, exercise string) (*session.Session, error) {
	switch action {
	case protocol.ActionStart:
		if exercise == "" {
			exercise = s.DefaultExercise
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		sess, err := s.sessions.Start(ctx, exercise)
		if err != nil {
			return nil, err
		}
		s.engine.Reset()
		return sess, nil
	case protocol.ActionPause:
		if err := s.sessions.Pause(); err != nil {
			return nil, err
		}
		return s.sessions.Current(), nil
	case protocol.ActionResume:
		if err := s.sessions.Resume(); err != nil {
			return nil, err
		}
		return s.sessions.Current(), nil
	case protocol.ActionEnd:
		return s.sessions.End(ctx)
	default:
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown session action %q", action))
	}
}

// FramesRequest is a batch of pose frames and/or scalar samples. Poses
// are processed before samples.
type FramesRequest struct {
	Poses   []protocol.PoseData   `json:"poses"`
	Samples []protocol.SampleData `json:"samples"`
}

// FramesResponse summarizes a processed batch
type FramesResponse struct {
	Processed int                  `json:"processed"`
	Skipped   int                  `json:"skipped"`
	Count     int                  `json:"count"`
	Events    []protocol.EventData `json:"events"`
}

// handleFrames runs a batch through the engine and returns every
// non-monitoring event
func (s *Server) handleFrames(c *fiber.Ctx) error {
	var req FramesRequest
	if err := c.BodyParser(&req); err != nil {
		return sendError(c, fiber.StatusBadRequest, err)
	}
	if n := len(req.Poses) + len(req.Samples); n > maxBatch {
		return sendError(c, fiber.StatusRequestEntityTooLarge, fmt.Errorf("batch of %d exceeds %d frames", n, maxBatch))
	}

	ctx := c.UserContext()
	resp := FramesResponse{Events: []protocol.EventData{}}

	s.mu.Lock()
	record := func(u engine.Update) {
		if u.Skipped {
			resp.Skipped++
		} else {
			resp.Processed++
		}
		if u.Kind() != detector.KindMonitoring {
			resp.Events = append(resp.Events, protocol.EventFromUpdate(u))
		}
		resp.Count = u.Count
	}
	for i := range req.Poses {
		record(s.engine.ProcessFrame(ctx, req.Poses[i].Frame()))
	}
	for i := range req.Samples {
		record(s.engine.ProcessSample(ctx, req.Samples[i].Sample()))
	}
	resp.Count = s.engine.Count()
	s.mu.Unlock()

	return c.JSON(resp)
}

// handleMessage processes one inbound WebSocket message. Only errors and
// pongs are replied to the sender; detector events go out on /ws/events.
func (s *Server) handleMessage(data []byte) *hub.Message {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		return s.errorReply("", err)
	}

	ctx := context.Background()
	switch msg.Type {
	case protocol.TypePose:
		p, err := msg.GetPoseData()
		if err != nil {
			return s.errorReply(msg.Type, err)
		}
		s.process(func(e *engine.Engine) engine.Update { return e.ProcessFrame(ctx, p.Frame()) })

	case protocol.TypeSample:
		sample, err := msg.GetSampleData()
		if err != nil {
			return s.errorReply(msg.Type, err)
		}
		s.process(func(e *engine.Engine) engine.Update { return e.ProcessSample(ctx, sample.Sample()) })

	case protocol.TypeControl:
		ctl, err := msg.GetControlData()
		if err != nil {
			return s.errorReply(msg.Type, err)
		}
		if _, err := s.control(ctx, ctl.Action, ctl.Exercise); err != nil {
			return s.errorReply(msg.Type, err)
		}
		return s.statusReply()

	case protocol.TypePing:
		ping, err := msg.GetPingData()
		if err != nil {
			return s.errorReply(msg.Type, err)
		}
		pong, err := protocol.NewPongMessage(ping.ID, msg.Timestamp, time.Now().UnixMilli())
		if err != nil {
			return s.errorReply(msg.Type, err)
		}
		return s.encode(pong)

	default:
		return s.errorReply(msg.Type, fmt.Errorf("unsupported message type %q", msg.Type))
	}
	return nil
}

func (s *Server) statusReply() *hub.Message {
	msg, err := protocol.NewStatusMessage(s.status())
	if err != nil {
		return s.errorReply(protocol.TypeStatus, err)
	}
	return s.encode(msg)
}

func (s *Server) errorReply(msgType protocol.MessageType, err error) *hub.Message {
	s.logger.Debug("rejected message", "type", msgType, "error", err)
	msg, encErr := protocol.NewErrorMessage(msgType, err)
	if encErr != nil {
		s.logger.Error("failed to encode error", "error", encErr)
		return nil
	}
	return s.encode(msg)
}

func (s *Server) encode(msg *protocol.Message) *hub.Message {
	m, err := hub.FromProtocol(msg)
	if err != nil {
		s.logger.Error("failed to encode message", "error", err)
		return nil
	}
	return &m
}

// handlePoseWS ingests pose, sample and control messages
func (s *Server) handlePoseWS(c *websocket.Conn) {
	hub.NewClient(s.ingestHub, c, s.handleMessage).Run()
}

// handleEventsWS streams detector events; the current status is sent
// first
func (s *Server) handleEventsWS(c *websocket.Conn) {
	client := hub.NewClient(s.eventHub, c, s.handleMessage)
	if status := s.statusReply(); status != nil {
		if err := c.WriteMessage(websocket.TextMessage, status.Data); err != nil {
			s.logger.Debug("failed to send initial status", "error", err)
		}
	}
	client.Run()
}
