package view

import "sync"

// Router holds the active view and the navigation drawer flag. It keeps no
// history. The zero value is not usable; call NewRouter.
type Router struct {
	mu         sync.RWMutex
	current    View
	drawerOpen bool
}

// NewRouter returns a router showing the default view with the drawer closed.
func NewRouter() *Router {
	return &Router{current: Default}
}

// SetView selects v and closes the drawer. Out-of-range values select the
// default view.
func (r *Router) SetView(v View) {
	if !v.Valid() {
		v = Default
	}
	r.mu.Lock()
	r.current = v
	r.drawerOpen = false
	r.mu.Unlock()
}

// Current returns the active view.
func (r *Router) Current() View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Reset returns to the default view and closes the drawer.
func (r *Router) Reset() {
	r.SetView(Default)
}

// ToggleDrawer flips the drawer and returns its new state.
func (r *Router) ToggleDrawer() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drawerOpen = !r.drawerOpen
	return r.drawerOpen
}

// DrawerOpen reports whether the navigation drawer is open.
func (r *Router) DrawerOpen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.drawerOpen
}
