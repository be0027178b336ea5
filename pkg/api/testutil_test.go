package api

import (
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/tello-teleop/gateway/pkg/config"
	"github.com/tello-teleop/gateway/pkg/drone"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Fatalf(string, ...interface{}) {}

// fakeLink records calls so handler tests can assert what reached the
// drone side.
type fakeLink struct {
	mu    sync.Mutex
	calls []string

	connectOK bool
	takeoffOK bool
	landOK    bool
	stopOK    bool
	moveOK    bool
	rotateOK  bool
	flipOK    bool

	state    drone.State
	errs     map[string]error
	stateErr error
}

func newFakeLink() *fakeLink {
	return &fakeLink{
		connectOK: true,
		takeoffOK: true,
		landOK:    true,
		stopOK:    true,
		moveOK:    true,
		rotateOK:  true,
		flipOK:    true,
		state:     drone.State{"bat": 90, "h": 100},
		errs:      make(map[string]error),
	}
}

func (f *fakeLink) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeLink) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeLink) Connect() (bool, error) { f.record("connect"); return f.connectOK, f.errs["connect"] }
func (f *fakeLink) Takeoff() (bool, error) { f.record("takeoff"); return f.takeoffOK, f.errs["takeoff"] }
func (f *fakeLink) Land() (bool, error)    { f.record("land"); return f.landOK, f.errs["land"] }
func (f *fakeLink) Stop() (bool, error)    { f.record("stop"); return f.stopOK, f.errs["stop"] }

func (f *fakeLink) Move(direction string, distanceCm int) (bool, error) {
	f.record(fmt.Sprintf("move(%s,%d)", direction, distanceCm))
	return f.moveOK, f.errs["move"]
}

func (f *fakeLink) RotateClockwise(angleDeg int) (bool, error) {
	f.record(fmt.Sprintf("cw(%d)", angleDeg))
	return f.rotateOK, f.errs["cw"]
}

func (f *fakeLink) RotateCounterClockwise(angleDeg int) (bool, error) {
	f.record(fmt.Sprintf("ccw(%d)", angleDeg))
	return f.rotateOK, f.errs["ccw"]
}

func (f *fakeLink) Flip(code byte) (bool, error) {
	f.record(fmt.Sprintf("flip(%c)", code))
	return f.flipOK, f.errs["flip"]
}

func (f *fakeLink) CurrentState() (drone.State, error) {
	f.record("state")
	return f.state, f.stateErr
}

func newTestDispatcher(link drone.Link) *drone.Dispatcher {
	registry := drone.NewRegistry(func() drone.Link { return link }, nopLogger{})
	return drone.NewDispatcher(registry, nopLogger{})
}

func newTestApp(link drone.Link) *fiber.App {
	app := fiber.New()
	defaults := config.CommandDefaults{MoveDistanceCm: 20, RotateAngleDeg: 90}
	RegisterTelloRoutes(app, newTestDispatcher(link), defaults, nopLogger{})
	return app
}
