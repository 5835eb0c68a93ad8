// Package nav models page routes and the two kinds of navigation: a full navigation
// that reloads session state from scratch, and an in-app push.
package nav

import "sync"

// Route is a page path.
type Route string

const (
	Home         Route = "/"
	Login        Route = "/login"
	Dashboard    Route = "/dashboard"
	EmailPreview Route = "/email-preview"
	History      Route = "/history"
)

// Navigator changes the current page.
type Navigator interface {
	Current() Route
	// Replace performs a full navigation.
	Replace(to Route)
	// Push performs an in-app route change.
	Push(to Route)
}

// Visit records one navigation.
type Visit struct {
	To   Route
	Full bool
}

// Router is an in-process Navigator that records every navigation.
type Router struct {
	mu      sync.Mutex
	current Route
	visits  []Visit
	pending []Visit
}

// NewRouter starts at route start.
func NewRouter(start Route) *Router {
	return &Router{current: start}
}

func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Router) Replace(to Route) { r.navigate(Visit{To: to, Full: true}) }

func (r *Router) Push(to Route) { r.navigate(Visit{To: to}) }

func (r *Router) navigate(v Visit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = v.To
	r.visits = append(r.visits, v)
	r.pending = append(r.pending, v)
}

// Visits returns every navigation so far.
func (r *Router) Visits() []Visit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Visit(nil), r.visits...)
}

// Count returns how many navigations targeted route to.
func (r *Router) Count(to Route) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, v := range r.visits {
		if v.To == to {
			n++
		}
	}
	return n
}

// Take returns the latest navigation since the previous Take and resets the queue.
func (r *Router) Take() (Visit, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return Visit{}, false
	}
	last := r.pending[len(r.pending)-1]
	r.pending = nil
	return last, true
}
