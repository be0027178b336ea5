package drone

import (
	"io"
	"sync"

	customlog "github.com/tello-teleop/gateway/pkg/log"
)

// Registry binds one Link to one client session. The first Acquire for a
// session constructs the Link via the injected factory; later calls return
// the same instance. Get-or-create is a critical section so two commands
// racing into a brand-new session never construct two links.
type Registry struct {
	factory LinkFactory
	logger  customlog.Logger

	mu    sync.Mutex
	links map[string]Link
}

// NewRegistry creates a registry using factory to build per-session links.
func NewRegistry(factory LinkFactory, logger customlog.Logger) *Registry {
	if factory == nil {
		panic("LinkFactory cannot be nil in NewRegistry")
	}
	return &Registry{
		factory: factory,
		logger:  logger,
		links:   make(map[string]Link),
	}
}

// Acquire returns the session's Link, constructing it on first use.
func (r *Registry) Acquire(sessionID string) Link {
	r.mu.Lock()
	defer r.mu.Unlock()

	if link, ok := r.links[sessionID]; ok {
		return link
	}

	link := r.factory()
	r.links[sessionID] = link
	r.logger.Infof("Created drone link for session %s", sessionID)
	return link
}

// Discard drops the session's Link reference and releases its transport
// resources when the link exposes them. It does not land or disconnect the
// drone; the dispatcher's close path owns that.
func (r *Registry) Discard(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[sessionID]
	if !ok {
		return
	}
	delete(r.links, sessionID)

	if closer, ok := link.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			r.logger.Warnf("Error releasing drone link for session %s: %v", sessionID, err)
		}
	}
	r.logger.Infof("Discarded drone link for session %s", sessionID)
}

// Len returns the number of live sessions. Used by tests and diagnostics.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.links)
}
