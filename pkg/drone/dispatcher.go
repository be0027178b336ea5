package drone

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	customlog "github.com/tello-teleop/gateway/pkg/log"
)

// Valid direction values per command kind. The enumerations also appear in
// client-facing error messages, comma-joined, so order matters.
var (
	validMoves     = []string{"up", "down", "left", "right", "forward", "back"}
	validRotations = []string{"cw", "ccw"}
	validFlips     = []string{"left", "right", "forward", "backward"}
)

// session tracks per-session dispatch state. The mutex serializes every
// Link invocation for the session, close sequence included; closed marks
// the session terminal so late-arriving commands cannot resurrect a
// discarded link.
type session struct {
	mu     sync.Mutex
	closed bool
}

// Dispatcher validates and routes commands to a session's Link and turns
// every result, including transport faults, into an Outcome. All Link
// calls for one session are serialized; a command never runs concurrently
// with another command or with the session's close sequence.
type Dispatcher struct {
	registry *Registry
	logger   customlog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry, logger customlog.Logger) *Dispatcher {
	if registry == nil {
		panic("Registry cannot be nil in NewDispatcher")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewDispatcher")
	}
	return &Dispatcher{
		registry: registry,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// session returns the session's dispatch state, creating it on first use.
func (d *Dispatcher) session(sessionID string) *session {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions[sessionID]
	if !ok {
		s = &session{}
		d.sessions[sessionID] = s
	}
	return s
}

// withLink runs fn against the session's Link under the session's lock.
// Commands for a closed session are rejected without touching the registry.
func (d *Dispatcher) withLink(sessionID string, fn func(Link) Outcome) Outcome {
	s := d.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		d.logger.Warnf("Session %s: command rejected, session is closed", sessionID)
		return failure(kindLogical, "Session is closed")
	}
	return fn(d.registry.Acquire(sessionID))
}

// fault converts a transport error into an error Outcome. Timeouts keep
// their kind so the HTTP surface can answer 504.
func (d *Dispatcher) fault(sessionID, format string, err error) Outcome {
	d.logger.Errorf("Session %s: %s", sessionID, fmt.Sprintf(format, err))
	kind := kindTransport
	if errors.Is(err, ErrTimeout) {
		kind = kindTimeout
	}
	return failure(kind, fmt.Sprintf(format, err))
}

// OpenSession establishes the drone connection for a session. A successful
// connect also takes the drone off before the outcome is reported; clients
// expect an airborne drone right after session open. If connect fails,
// takeoff is never attempted. Opening an identifier that was closed starts
// a new logical session with a fresh link.
func (d *Dispatcher) OpenSession(sessionID string) Outcome {
	d.logger.Infof("Session %s: connecting to Tello drone", sessionID)

	s := d.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = false
	link := d.registry.Acquire(sessionID)

	ok, err := link.Connect()
	if err != nil {
		return d.fault(sessionID, "Unexpected connection error: %v", err)
	}
	if !ok {
		d.logger.Errorf("Session %s: drone refused connection", sessionID)
		return failure(kindLogical, "Failed to connect to Tello drone")
	}

	tookOff, err := link.Takeoff()
	if err != nil {
		return d.fault(sessionID, "Unexpected takeoff error: %v", err)
	}
	if !tookOff {
		d.logger.Warnf("Session %s: drone connected but refused takeoff", sessionID)
	} else {
		d.logger.Infof("Session %s: Tello drone connected and took off", sessionID)
	}

	return success("Successfully connected to Tello drone")
}

// CloseSession stops and lands the drone, then releases the session's
// resources. Both stop and land are always attempted; the first error is
// reported but teardown never aborts early. This is the cleanup path for
// abnormal disconnects as much as for explicit ones, and it runs at most
// once per session no matter how often it is triggered.
func (d *Dispatcher) CloseSession(sessionID string) Outcome {
	s := d.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		d.logger.Debugf("Session %s: already closed", sessionID)
		return success("Successfully disconnected from Tello drone")
	}
	s.closed = true

	d.logger.Infof("Session %s: closing, stopping and landing drone", sessionID)
	link := d.registry.Acquire(sessionID)

	var firstErr error

	if stopped, err := link.Stop(); err != nil {
		d.logger.Errorf("Session %s: error stopping drone: %v", sessionID, err)
		firstErr = err
	} else if !stopped {
		d.logger.Warnf("Session %s: drone refused stop command", sessionID)
	}

	if landed, err := link.Land(); err != nil {
		d.logger.Errorf("Session %s: error landing drone: %v", sessionID, err)
		if firstErr == nil {
			firstErr = err
		}
	} else if !landed {
		d.logger.Warnf("Session %s: drone refused land command", sessionID)
	}

	d.registry.Discard(sessionID)

	if firstErr != nil {
		return d.fault(sessionID, "Error during disconnection: %v", firstErr)
	}

	d.logger.Infof("Session %s: Tello drone stopped and landed", sessionID)
	return success("Successfully disconnected from Tello drone")
}

// Move moves the drone in the given direction by distanceCm.
func (d *Dispatcher) Move(sessionID, direction string, distanceCm int) Outcome {
	d.logger.Infof("Session %s: received move command: %s", sessionID, direction)

	if !contains(validMoves, direction) {
		d.logger.Errorf("Session %s: invalid move command: %s", sessionID, direction)
		return failure(kindValidation,
			fmt.Sprintf("Invalid move. Must be one of: %s", strings.Join(validMoves, ", ")))
	}

	return d.withLink(sessionID, func(link Link) Outcome {
		moved, err := link.Move(direction, distanceCm)
		if err != nil {
			return d.fault(sessionID, "Unexpected error during movement: %v", err)
		}
		if !moved {
			return failure(kindLogical, fmt.Sprintf("Failed to move %s", direction))
		}
		return success(fmt.Sprintf("Successfully moved %s", direction))
	})
}

// Rotate rotates the drone clockwise or counter-clockwise by angleDeg.
func (d *Dispatcher) Rotate(sessionID, direction string, angleDeg int) Outcome {
	d.logger.Infof("Session %s: received rotate command: %s", sessionID, direction)

	if !contains(validRotations, direction) {
		d.logger.Errorf("Session %s: invalid rotation command: %s", sessionID, direction)
		return failure(kindValidation,
			fmt.Sprintf("Invalid rotation command. Must be one of: %s", strings.Join(validRotations, ", ")))
	}

	return d.withLink(sessionID, func(link Link) Outcome {
		var rotated bool
		var err error
		switch direction {
		case "cw":
			rotated, err = link.RotateClockwise(angleDeg)
		case "ccw":
			rotated, err = link.RotateCounterClockwise(angleDeg)
		}
		if err != nil {
			return d.fault(sessionID, "Unexpected error during movement: %v", err)
		}
		if !rotated {
			return failure(kindLogical, fmt.Sprintf("Failed to rotate %s", direction))
		}
		return success(fmt.Sprintf("Successfully rotated %s", direction))
	})
}

// Flip flips the drone in the given direction. The Tello interprets the
// first letter of the direction word.
func (d *Dispatcher) Flip(sessionID, direction string) Outcome {
	d.logger.Infof("Session %s: received flip command: %s", sessionID, direction)

	if !contains(validFlips, direction) {
		d.logger.Errorf("Session %s: invalid flip command: %s", sessionID, direction)
		return failure(kindValidation,
			fmt.Sprintf("Invalid flip command. Must be one of: %s", strings.Join(validFlips, ", ")))
	}

	return d.withLink(sessionID, func(link Link) Outcome {
		flipped, err := link.Flip(direction[0])
		if err != nil {
			return d.fault(sessionID, "Unexpected error during movement: %v", err)
		}
		if !flipped {
			return failure(kindLogical, fmt.Sprintf("Failed to flip %s", direction))
		}
		return success(fmt.Sprintf("Successfully flip %s", direction))
	})
}

// Takeoff takes the drone off without the rest of the session-open policy.
func (d *Dispatcher) Takeoff(sessionID string) Outcome {
	d.logger.Infof("Session %s: received takeoff command", sessionID)

	return d.withLink(sessionID, func(link Link) Outcome {
		tookOff, err := link.Takeoff()
		if err != nil {
			return d.fault(sessionID, "Unexpected takeoff error: %v", err)
		}
		if !tookOff {
			return failure(kindLogical, "Failed to take off Tello drone")
		}
		return success("Successfully took off Tello drone")
	})
}

// Land lands the drone without closing the session.
func (d *Dispatcher) Land(sessionID string) Outcome {
	d.logger.Infof("Session %s: received land command", sessionID)

	return d.withLink(sessionID, func(link Link) Outcome {
		landed, err := link.Land()
		if err != nil {
			return d.fault(sessionID, "Unexpected landing error: %v", err)
		}
		if !landed {
			return failure(kindLogical, "Failed to land Tello drone")
		}
		return success("Successfully landed Tello drone")
	})
}

// QueryState reads the drone's current telemetry snapshot.
func (d *Dispatcher) QueryState(sessionID string) Outcome {
	d.logger.Infof("Session %s: retrieving Tello state", sessionID)

	return d.withLink(sessionID, func(link Link) Outcome {
		state, err := link.CurrentState()
		if err != nil {
			return d.fault(sessionID, "Unexpected error retrieving state: %v", err)
		}
		if len(state) == 0 {
			d.logger.Warnf("Session %s: could not retrieve Tello state", sessionID)
			return failure(kindLogical, "Could not retrieve Tello state")
		}
		return successState(state)
	})
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
