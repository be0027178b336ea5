package drone

import "errors"

// ErrTimeout is wrapped by Link implementations when the native transport's
// own command timeout expires. The dispatcher adds no timeout layer of its
// own; expiry is handled like any other transport fault, but the HTTP
// surface maps it to 504.
var ErrTimeout = errors.New("command response timed out")

// State is a telemetry snapshot read from the drone (battery, flight time,
// height, attitude and so on).
type State map[string]interface{}

// Link is the command channel to the physical drone. Every method is a
// blocking round trip; (true, nil) means accepted, (false, nil) means the
// device refused the command, a non-nil error means a transport fault.
type Link interface {
	Connect() (bool, error)
	Takeoff() (bool, error)
	Land() (bool, error)
	Stop() (bool, error)
	Move(direction string, distanceCm int) (bool, error)
	RotateClockwise(angleDeg int) (bool, error)
	RotateCounterClockwise(angleDeg int) (bool, error)
	Flip(code byte) (bool, error)

	// CurrentState returns the latest telemetry snapshot, or nil when no
	// fresh state is available.
	CurrentState() (State, error)
}

// LinkFactory constructs a new Link for a session.
type LinkFactory func() Link
