package jobs

import (
	"context"
	"sync"
)

// HandlerFunc executes one job. A returned error is treated as a crash
// of the handler and is retryable; a JobResult means the handler ran to
// completion, whether or not it reports success.
type HandlerFunc func(ctx context.Context, payload JobPayload) (JobResult, error)

// Registry maps job types to handler functions. One handler per type;
// re-registering a type overwrites the previous handler. It is populated
// explicitly at process startup and injected into the executor - there
// is no package-level instance and no implicit discovery.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register stores the handler for jobType, replacing any prior one.
func (r *Registry) Register(jobType string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = h
}

// Get returns the handler for jobType, or false if none is registered.
func (r *Registry) Get(jobType string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[jobType]
	return h, ok
}

// Clear removes every registration.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = make(map[string]HandlerFunc)
}

// Types returns the registered job types, for bootstrap logging.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	return types
}
