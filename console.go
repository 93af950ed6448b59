package goConsole

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goConsole/identity"
	"github.com/MrEthical07/goConsole/internal/audit"
	"github.com/MrEthical07/goConsole/view"
)

// Console owns the named state slots of the application: the session
// controller, the authorization gate, the view router, and the dark-mode flag.
// Build one with [Builder] and pass it to the presentation layer.
type Console struct {
	controller *Controller
	gate       *Gate
	router     *view.Router
	metrics    *Metrics
	audit      *audit.Dispatcher
	logger     *slog.Logger

	mu           sync.Mutex
	darkMode     bool
	lastState    State
	lastSession  string
	lastDecision Decision

	updateTimeout time.Duration
	cancelWatch   func()
	closeOnce     sync.Once
}

func newConsole(controller *Controller, gate *Gate, cfg Config, metrics *Metrics, dispatcher *audit.Dispatcher, logger *slog.Logger) *Console {
	c := &Console{
		controller: controller,
		gate:       gate,
		router:     view.NewRouter(),
		metrics:    metrics,
		audit:      dispatcher,
		logger:     logger,
		darkMode:   cfg.UI.DarkMode,

		updateTimeout: cfg.Session.LoginTimeout,
	}
	c.cancelWatch = controller.Observe(c.onSnapshot)
	return c
}

// onSnapshot runs before any observer registered through Console.Observe.
// The view goes back to the dashboard on every sign-in, including one that
// replaces an active session; refreshes and profile updates leave it alone.
func (c *Console) onSnapshot(s Snapshot) {
	c.mu.Lock()
	signedIn := s.State == StateAuthenticated &&
		(c.lastState != StateAuthenticated || s.Cause == CauseLogin ||
			(s.Cause == CauseEvent && s.Event == identity.EventSignedIn && s.Session.ID != c.lastSession))
	c.lastState = s.State
	c.lastSession = ""
	if s.Session != nil {
		c.lastSession = s.Session.ID
	}
	decision := c.gate.Decide(s)
	prev := c.lastDecision
	c.lastDecision = decision
	c.mu.Unlock()

	if signedIn {
		c.router.Reset()
	}
	if decision == prev {
		return
	}
	switch decision {
	case DecisionGranted:
		c.metrics.Inc(MetricAccessGranted)
	case DecisionDenied:
		c.metrics.Inc(MetricAccessDenied)
		c.logger.Warn("access denied", "email", s.Email(), "policy", c.gate.Policy())
		event := AuditEvent{Type: AuditAccessDenied, Email: s.Email()}
		if s.Session != nil {
			event.UserID, event.SessionID = s.Session.User.ID, s.Session.ID
		}
		c.controller.emit(context.Background(), event)
	}
}

// Start subscribes to the identity provider and restores the persisted
// session.
func (c *Console) Start(ctx context.Context) (Snapshot, error) {
	return c.controller.Start(ctx)
}

// Close stops the controller and flushes pending audit events.
func (c *Console) Close() {
	c.closeOnce.Do(func() {
		c.cancelWatch()
		c.controller.Close()
		c.audit.Close()
	})
}

// Snapshot returns the current session state.
func (c *Console) Snapshot() Snapshot {
	return c.controller.Snapshot()
}

// Decision evaluates the gate against the current snapshot.
func (c *Console) Decision() Decision {
	return c.gate.Decide(c.controller.Snapshot())
}

// Login signs in with email and password.
func (c *Console) Login(ctx context.Context, creds identity.Credentials) error {
	return c.controller.Login(ctx, creds)
}

// Logout signs out; the local session is cleared even if the provider fails.
func (c *Console) Logout(ctx context.Context) error {
	return c.controller.Logout(ctx)
}

// LoginError returns the failure of the most recent login, if any.
func (c *Console) LoginError() error {
	return c.controller.LoginError()
}

// UpdateProfile sets the signed-in user's display name. The new name reaches
// the snapshot through the provider's USER_UPDATED event.
func (c *Console) UpdateProfile(ctx context.Context, fullName string) error {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return fmt.Errorf("%w: name is empty", identity.ErrInvalidRequest)
	}
	return c.updateUser(ctx, identity.UserUpdate{Metadata: map[string]string{"full_name": fullName}}, "profile")
}

// ChangePassword replaces the signed-in user's password after checking the
// confirmation.
func (c *Console) ChangePassword(ctx context.Context, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if password == "" {
		return fmt.Errorf("%w: password is empty", identity.ErrInvalidRequest)
	}
	return c.updateUser(ctx, identity.UserUpdate{Password: password}, "password")
}

func (c *Console) updateUser(ctx context.Context, update identity.UserUpdate, field string) error {
	updater, ok := c.controller.provider.(identity.Updater)
	if !ok {
		return ErrUpdateUnsupported
	}
	snap := c.controller.Snapshot()
	if snap.State != StateAuthenticated || snap.Session == nil {
		return identity.ErrNotSignedIn
	}

	callCtx, cancel := withTimeout(ctx, c.updateTimeout)
	defer cancel()
	_, err := updater.UpdateUser(callCtx, update)

	event := AuditEvent{
		Type:      AuditProfileUpdated,
		Success:   err == nil,
		UserID:    snap.Session.User.ID,
		Email:     snap.Session.User.Email,
		SessionID: snap.Session.ID,
		Metadata:  map[string]string{"field": field},
	}
	if err != nil {
		event.Error = err.Error()
		c.logger.Info("profile update failed", "field", field, "error", err)
	}
	c.controller.emit(ctx, event)
	return err
}

// SetView selects v and closes the navigation drawer.
func (c *Console) SetView(v view.View) {
	if c.router.Current() != v {
		c.metrics.Inc(MetricViewChanged)
	}
	c.router.SetView(v)
}

// CurrentView returns the visible panel.
func (c *Console) CurrentView() view.View {
	return c.router.Current()
}

// ToggleDrawer opens or closes the navigation drawer.
func (c *Console) ToggleDrawer() bool {
	return c.router.ToggleDrawer()
}

// DrawerOpen reports whether the navigation drawer is open.
func (c *Console) DrawerOpen() bool {
	return c.router.DrawerOpen()
}

// ToggleDarkMode flips the theme and returns the new value.
func (c *Console) ToggleDarkMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.darkMode = !c.darkMode
	return c.darkMode
}

// DarkMode reports whether the dark theme is active.
func (c *Console) DarkMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.darkMode
}

// Observe registers fn for every session change; see Controller.Observe.
// The view router has already been reset when fn sees a sign-in.
func (c *Console) Observe(fn func(Snapshot)) (cancel func()) {
	return c.controller.Observe(fn)
}

// Controller exposes the session controller.
func (c *Console) Controller() *Controller { return c.controller }

// Gate exposes the authorization gate.
func (c *Console) Gate() *Gate { return c.gate }

// Metrics exposes the console counters.
func (c *Console) Metrics() *Metrics { return c.metrics }

// AuditDropped returns how many audit events were dropped on a full buffer.
func (c *Console) AuditDropped() uint64 { return c.audit.Dropped() }

// MetricsSnapshot copies the current counters for exporters.
func (c *Console) MetricsSnapshot() MetricsSnapshot { return c.metrics.Snapshot() }
