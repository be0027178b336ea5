package api

import (
	"encoding/json"
	"errors"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tello-teleop/gateway/pkg/config"
	"github.com/tello-teleop/gateway/pkg/drone"
	customlog "github.com/tello-teleop/gateway/pkg/log"
)

// socketSession maps websocket command envelopes onto dispatcher calls for
// one session. Separated from the connection loop so the event routing is
// testable without a live socket.
type socketSession struct {
	id         string
	dispatcher *drone.Dispatcher
	defaults   config.CommandDefaults
	logger     customlog.Logger
}

// handle executes one command envelope. The returned emit flag is false
// when the event is unknown and nothing should be written back; closed is
// true once the session ran its close sequence.
func (s *socketSession) handle(env CommandEnvelope) (msg EventMessage, emit bool, closed bool) {
	switch env.Event {
	case EventMove:
		distance := env.Distance
		if distance == 0 {
			distance = s.defaults.MoveDistanceCm
		}
		out := s.dispatcher.Move(s.id, env.Direction, distance)
		return EventMessage{Event: EventMoveStatus, Data: out}, true, false

	case EventRotate:
		angle := env.Angle
		if angle == 0 {
			angle = s.defaults.RotateAngleDeg
		}
		out := s.dispatcher.Rotate(s.id, env.Direction, angle)
		return EventMessage{Event: EventMoveStatus, Data: out}, true, false

	case EventFlip:
		out := s.dispatcher.Flip(s.id, env.Direction)
		return EventMessage{Event: EventMoveStatus, Data: out}, true, false

	case EventState:
		out := s.dispatcher.QueryState(s.id)
		return EventMessage{Event: EventStateUpdate, Data: out}, true, false

	case EventDisconnect:
		out := s.dispatcher.CloseSession(s.id)
		return EventMessage{Event: EventConnectionStatus, Data: out}, true, true

	default:
		s.logger.Warnf("Session %s: ignoring unknown event %q", s.id, env.Event)
		return EventMessage{}, false, false
	}
}

// TelloWebSocketHandler drives one control session over a websocket
// connection. Opening the socket connects (and takes off) the drone;
// closing it, however that happens, stops and lands it.
func TelloWebSocketHandler(conn *websocket.Conn, dispatcher *drone.Dispatcher, defaults config.CommandDefaults, logger customlog.Logger) {
	sess := &socketSession{
		id:         uuid.NewString(),
		dispatcher: dispatcher,
		defaults:   defaults,
		logger:     logger,
	}
	logger.Infof("Tello control client connected: %s (session %s)", conn.RemoteAddr(), sess.id)

	// The cleanup path must run for abnormal drops too. CloseSession is
	// idempotent, so an explicit disconnect beating this defer is fine.
	defer dispatcher.CloseSession(sess.id)

	out := dispatcher.OpenSession(sess.id)
	writeEvent(conn, EventMessage{Event: EventConnectionStatus, Data: out}, logger)

	var (
		mt  int
		msg []byte
		err error
	)
	for {
		if mt, msg, err = conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("Session %s: websocket read error: %v", sess.id, err)
			} else if err != websocket.ErrCloseSent && !errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
				logger.Infof("Session %s: websocket closed: %v", sess.id, err)
			} else {
				logger.Infof("Session %s: websocket closed normally", sess.id)
			}
			break
		}

		if mt != websocket.TextMessage {
			logger.Infof("Session %s: ignoring non-text message type %d", sess.id, mt)
			continue
		}

		var env CommandEnvelope
		if err := json.Unmarshal(msg, &env); err != nil {
			logger.Warnf("Session %s: failed to unmarshal command: %v. Message: %s", sess.id, err, string(msg))
			continue
		}

		response, emit, closed := sess.handle(env)
		if emit {
			writeEvent(conn, response, logger)
		}
		if closed {
			break
		}
	}

	logger.Infof("Tello control client disconnected: %s (session %s)", conn.RemoteAddr(), sess.id)
}

func writeEvent(conn *websocket.Conn, msg EventMessage, logger customlog.Logger) {
	if err := conn.WriteJSON(msg); err != nil {
		logger.Errorf("Failed to write %s event: %v", msg.Event, err)
	}
}

// RegisterTelloWebSocket registers the websocket control endpoint at
// /ws/tello with the upgrade guard Fiber requires.
func RegisterTelloWebSocket(app *fiber.App, dispatcher *drone.Dispatcher, defaults config.CommandDefaults, logger customlog.Logger) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/tello", websocket.New(func(conn *websocket.Conn) {
		TelloWebSocketHandler(conn, dispatcher, defaults, logger)
	}))

	logger.Infof("Registered Tello control websocket endpoint at /ws/tello")
}
