package roster

import "sync"

// Views keeps one mounted list view per browser session.
type Views struct {
	mu    sync.Mutex
	views map[string]*View
}

func NewViews() *Views {
	return &Views{views: make(map[string]*View)}
}

// Mount installs a fresh view for the session, discarding any previous one.
func (vs *Views) Mount(sessionID string, view *View) *View {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	vs.views[sessionID] = view
	return view
}

// Get returns the mounted view of the session.
func (vs *Views) Get(sessionID string) (*View, bool) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	view, ok := vs.views[sessionID]
	return view, ok
}

// Unmount drops the session's view. Requests still holding it may finish
// against it; their results are simply never rendered.
func (vs *Views) Unmount(sessionID string) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	delete(vs.views, sessionID)
}

// Len returns the number of mounted views.
func (vs *Views) Len() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	return len(vs.views)
}
