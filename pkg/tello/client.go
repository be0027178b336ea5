package tello

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/tello-teleop/gateway/pkg/config"
	"github.com/tello-teleop/gateway/pkg/drone"
	customlog "github.com/tello-teleop/gateway/pkg/log"
)

// Tello SDK legal range for move distances, in centimeters. Out-of-range
// values fail instead of clamping; silent clamping would surprise the
// pilot with unexpected physical motion.
const (
	minDistanceCm = 20
	maxDistanceCm = 500
)

var _ drone.Link = (*Client)(nil)

// Client speaks the Tello's native UDP text protocol: commands go to the
// drone's command port and are answered with "ok"/"error", telemetry
// arrives as key:value datagrams on a separate state port. One Client
// serves one session; command round trips are serialized.
type Client struct {
	cfg    config.TelloConfig
	logger customlog.Logger

	mu   sync.Mutex
	conn net.Conn

	stateMu   sync.Mutex
	stateConn net.PacketConn
	state     drone.State
	stateAt   time.Time

	wg sync.WaitGroup
}

// NewClient creates a client for the drone at cfg.Address. No sockets are
// opened until Connect.
func NewClient(cfg config.TelloConfig, logger customlog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		logger: logger,
	}
}

// Factory returns a drone.LinkFactory producing one Client per session.
func Factory(cfg config.TelloConfig, logger customlog.Logger) drone.LinkFactory {
	return func() drone.Link {
		return NewClient(cfg, logger)
	}
}

// Connect opens the command socket and the state listener and switches the
// drone into SDK mode.
func (c *Client) Connect() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return true, nil
	}

	conn, err := net.Dial("udp", c.cfg.Address)
	if err != nil {
		return false, fmt.Errorf("failed to open command socket to %s: %w", c.cfg.Address, err)
	}

	stateConn, err := net.ListenPacket("udp", c.cfg.StateBindAddress)
	if err != nil {
		conn.Close()
		return false, fmt.Errorf("failed to bind state listener on %s: %w", c.cfg.StateBindAddress, err)
	}

	c.conn = conn
	c.stateMu.Lock()
	c.stateConn = stateConn
	c.stateMu.Unlock()

	c.wg.Add(1)
	go c.readStateLoop(stateConn)

	c.logger.Infof("Tello command socket open to %s, state listener on %s",
		c.cfg.Address, c.cfg.StateBindAddress)

	// "command" switches the drone into SDK mode
	resp, err := c.sendLocked("command")
	if err != nil {
		c.closeLocked()
		return false, err
	}
	if resp != "ok" {
		c.logger.Errorf("Drone refused SDK mode: %q", resp)
		c.closeLocked()
		return false, nil
	}
	return true, nil
}

// Takeoff commands an automatic takeoff.
func (c *Client) Takeoff() (bool, error) {
	return c.boolCommand("takeoff")
}

// Land commands an automatic landing.
func (c *Client) Land() (bool, error) {
	return c.boolCommand("land")
}

// Stop halts the drone in place without landing.
func (c *Client) Stop() (bool, error) {
	return c.boolCommand("stop")
}

// Move translates the drone in the given direction. The direction word is
// the SDK primitive itself (up, down, left, right, forward, back).
func (c *Client) Move(direction string, distanceCm int) (bool, error) {
	if distanceCm < minDistanceCm || distanceCm > maxDistanceCm {
		return false, fmt.Errorf("move distance %dcm outside legal range %d-%dcm",
			distanceCm, minDistanceCm, maxDistanceCm)
	}
	return c.boolCommand(fmt.Sprintf("%s %d", direction, distanceCm))
}

// RotateClockwise rotates the drone clockwise by angleDeg.
func (c *Client) RotateClockwise(angleDeg int) (bool, error) {
	return c.boolCommand(fmt.Sprintf("cw %d", angleDeg))
}

// RotateCounterClockwise rotates the drone counter-clockwise by angleDeg.
func (c *Client) RotateCounterClockwise(angleDeg int) (bool, error) {
	return c.boolCommand(fmt.Sprintf("ccw %d", angleDeg))
}

// Flip performs a flip; code is the single-letter direction the SDK
// expects (l, r, f, b).
func (c *Client) Flip(code byte) (bool, error) {
	return c.boolCommand(fmt.Sprintf("flip %c", code))
}

// CurrentState returns the most recent telemetry snapshot, or nil when no
// datagram arrived within the configured staleness window.
func (c *Client) CurrentState() (drone.State, error) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.state == nil {
		return nil, nil
	}
	staleness := time.Duration(c.cfg.StateStalenessMs) * time.Millisecond
	if time.Since(c.stateAt) > staleness {
		return nil, nil
	}

	snapshot := make(drone.State, len(c.state))
	for k, v := range c.state {
		snapshot[k] = v
	}
	return snapshot, nil
}

// Close releases both sockets and waits for the state listener to exit.
// It does not land the drone; callers sequence that first.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	c.wg.Wait()
	return nil
}

func (c *Client) closeLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.stateMu.Lock()
	if c.stateConn != nil {
		c.stateConn.Close()
		c.stateConn = nil
	}
	c.stateMu.Unlock()
}

// boolCommand sends a command whose only legal answers are "ok" and
// "error"; "error" is a refusal, not a fault.
func (c *Client) boolCommand(cmd string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.sendLocked(cmd)
	if err != nil {
		return false, err
	}
	if resp != "ok" {
		c.logger.Warnf("Drone refused command %q: %q", cmd, resp)
		return false, nil
	}
	return true, nil
}

// sendLocked performs one command round trip. The caller holds c.mu.
func (c *Client) sendLocked(cmd string) (string, error) {
	if c.conn == nil {
		return "", fmt.Errorf("command socket not connected")
	}

	timeout := time.Duration(c.cfg.ResponseTimeoutMs) * time.Millisecond
	if err := c.conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return "", fmt.Errorf("failed to set socket deadline: %w", err)
	}

	c.logger.Debugf("Sending command: %q", cmd)
	if _, err := c.conn.Write([]byte(cmd)); err != nil {
		return "", fmt.Errorf("failed to send command %q: %w", cmd, err)
	}

	buf := make([]byte, 1024)
	n, err := c.conn.Read(buf)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return "", fmt.Errorf("command %q: %w", cmd, drone.ErrTimeout)
		}
		return "", fmt.Errorf("failed to read response for %q: %w", cmd, err)
	}

	resp := strings.TrimSpace(string(buf[:n]))
	c.logger.Debugf("Command %q answered: %q", cmd, resp)
	return resp, nil
}

// readStateLoop consumes telemetry datagrams until the state socket closes.
func (c *Client) readStateLoop(conn net.PacketConn) {
	defer c.wg.Done()

	buf := make([]byte, 2048)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			// Closed socket is the normal exit path
			return
		}

		state := ParseState(string(buf[:n]))
		if len(state) == 0 {
			c.logger.Debugf("Ignoring unparseable state datagram: %q", string(buf[:n]))
			continue
		}

		c.stateMu.Lock()
		c.state = state
		c.stateAt = time.Now()
		c.stateMu.Unlock()
	}
}
