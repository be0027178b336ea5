package api

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tello-teleop/gateway/pkg/config"
	"github.com/tello-teleop/gateway/pkg/drone"
	customlog "github.com/tello-teleop/gateway/pkg/log"
)

// httpSessionID is the session identifier shared by the HTTP surface. The
// dispatcher serializes per session, so concurrent requests against the
// single drone queue up instead of interleaving.
const httpSessionID = "http"

// TelloHandler holds dependencies for the HTTP command endpoints.
type TelloHandler struct {
	dispatcher *drone.Dispatcher
	defaults   config.CommandDefaults
	logger     customlog.Logger
	sessionID  string
}

// NewTelloHandler creates a new handler for the HTTP command endpoints.
func NewTelloHandler(dispatcher *drone.Dispatcher, defaults config.CommandDefaults, logger customlog.Logger) *TelloHandler {
	if dispatcher == nil {
		panic("Dispatcher cannot be nil in NewTelloHandler")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewTelloHandler")
	}
	return &TelloHandler{
		dispatcher: dispatcher,
		defaults:   defaults,
		logger:     logger,
		sessionID:  httpSessionID,
	}
}

// RegisterTelloRoutes registers the HTTP command endpoints under /tello.
func RegisterTelloRoutes(app *fiber.App, dispatcher *drone.Dispatcher, defaults config.CommandDefaults, logger customlog.Logger) {
	h := NewTelloHandler(dispatcher, defaults, logger)

	group := app.Group("/tello")
	group.Post("/connect", h.handleConnect)
	group.Post("/disconnect", h.handleDisconnect)
	group.Post("/takeoff", h.handleTakeoff)
	group.Post("/land", h.handleLand)
	group.Post("/move", h.handleMove)
	group.Post("/rotate", h.handleRotate)
	group.Post("/flip", h.handleFlip)
	group.Get("/state", h.handleState)

	logger.Infof("Registered Tello command endpoints under /tello")
}

// respond renders an outcome as the {"message": ...} body with the status
// code the outcome maps to. A state payload replaces the message text.
func respond(c *fiber.Ctx, out drone.Outcome) error {
	if out.State != nil {
		return c.Status(out.HTTPStatus()).JSON(fiber.Map{"message": out.State})
	}
	return c.Status(out.HTTPStatus()).JSON(fiber.Map{"message": out.Message})
}

func (h *TelloHandler) handleConnect(c *fiber.Ctx) error {
	h.logger.Infof("Client is connecting to Tello")
	return respond(c, h.dispatcher.OpenSession(h.sessionID))
}

func (h *TelloHandler) handleDisconnect(c *fiber.Ctx) error {
	h.logger.Infof("Client is disconnecting from Tello")
	return respond(c, h.dispatcher.CloseSession(h.sessionID))
}

func (h *TelloHandler) handleTakeoff(c *fiber.Ctx) error {
	h.logger.Infof("Client is taking off Tello")
	return respond(c, h.dispatcher.Takeoff(h.sessionID))
}

func (h *TelloHandler) handleLand(c *fiber.Ctx) error {
	h.logger.Infof("Client is landing Tello")
	return respond(c, h.dispatcher.Land(h.sessionID))
}

func (h *TelloHandler) handleMove(c *fiber.Ctx) error {
	h.logger.Infof("Client is moving Tello")

	var req MoveRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnf("Failed to parse move request: %v", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	distance := req.Distance
	if distance == 0 {
		distance = h.defaults.MoveDistanceCm
	}
	return respond(c, h.dispatcher.Move(h.sessionID, req.Direction, distance))
}

func (h *TelloHandler) handleRotate(c *fiber.Ctx) error {
	h.logger.Infof("Client is rotating Tello")

	var req RotateRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnf("Failed to parse rotate request: %v", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	angle := req.Angle
	if angle == 0 {
		angle = h.defaults.RotateAngleDeg
	}
	return respond(c, h.dispatcher.Rotate(h.sessionID, req.Direction, angle))
}

func (h *TelloHandler) handleFlip(c *fiber.Ctx) error {
	h.logger.Infof("Client is flipping Tello")

	var req FlipRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnf("Failed to parse flip request: %v", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	return respond(c, h.dispatcher.Flip(h.sessionID, req.Direction))
}

func (h *TelloHandler) handleState(c *fiber.Ctx) error {
	h.logger.Infof("Client is getting Tello state")
	return respond(c, h.dispatcher.QueryState(h.sessionID))
}
