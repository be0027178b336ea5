package api

import "github.com/tello-teleop/gateway/pkg/drone"

// Inbound websocket event names.
const (
	EventMove       = "move"
	EventRotate     = "rotate"
	EventFlip       = "flip"
	EventState      = "state"
	EventDisconnect = "disconnect"
)

// Outbound websocket event names.
const (
	EventConnectionStatus = "connection_status"
	EventMoveStatus       = "move_status"
	EventStateUpdate      = "state_update"
)

// CommandEnvelope is one inbound websocket command. Distance and angle are
// optional; zero means the configured surface default.
type CommandEnvelope struct {
	Event     string `json:"event"`
	Direction string `json:"direction,omitempty"`
	Distance  int    `json:"distance,omitempty"`
	Angle     int    `json:"angle,omitempty"`
}

// EventMessage is one outbound websocket event carrying a command outcome.
type EventMessage struct {
	Event string        `json:"event"`
	Data  drone.Outcome `json:"data"`
}

// MoveRequest is the HTTP body for POST /tello/move.
type MoveRequest struct {
	Direction string `json:"direction"`
	Distance  int    `json:"distance,omitempty"`
}

// RotateRequest is the HTTP body for POST /tello/rotate.
type RotateRequest struct {
	Direction string `json:"direction"`
	Angle     int    `json:"angle,omitempty"`
}

// FlipRequest is the HTTP body for POST /tello/flip.
type FlipRequest struct {
	Direction string `json:"direction"`
}
