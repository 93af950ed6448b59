package goConsole

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/MrEthical07/goConsole/identity"
	"github.com/MrEthical07/goConsole/internal/audit"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Controller is the single writer of the authentication session. It is fed by
// an identity.Provider through direct calls (Restore, Login, Logout) and pushed
// change events, and publishes a [Snapshot] after every applied change.
type Controller struct {
	provider identity.Provider
	cfg      SessionConfig
	logger   *slog.Logger
	audit    *audit.Dispatcher
	metrics  *Metrics
	tracer   trace.Tracer
	now      func() time.Time

	mu           sync.Mutex
	snap         Snapshot
	epoch        uint64
	discarded    []string
	started      bool
	closed       bool
	unsubscribe  func()
	observers    map[uint64]func(Snapshot)
	nextObserver uint64

	// notifyMu serializes observer dispatch so snapshots are delivered in
	// version order.
	notifyMu sync.Mutex
}

type controllerDeps struct {
	provider identity.Provider
	cfg      SessionConfig
	logger   *slog.Logger
	audit    *audit.Dispatcher
	metrics  *Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

func newController(d controllerDeps) *Controller {
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.tracer == nil {
		d.tracer = noop.NewTracerProvider().Tracer(tracerName)
	}
	if d.cfg.DiscardMemory < 1 {
		d.cfg.DiscardMemory = 1
	}
	return &Controller{
		provider:  d.provider,
		cfg:       d.cfg,
		logger:    d.logger,
		audit:     d.audit,
		metrics:   d.metrics,
		tracer:    d.tracer,
		now:       d.now,
		snap:      Snapshot{State: StateUnknown, Cause: CauseInit},
		observers: make(map[uint64]func(Snapshot)),
	}
}

// Start subscribes to provider change events and restores the persisted
// session. It may be called once.
func (c *Controller) Start(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return Snapshot{}, ErrControllerClosed
	case c.started:
		c.mu.Unlock()
		return Snapshot{}, ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	unsubscribe := c.provider.OnAuthStateChange(c.handleEvent)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		unsubscribe()
		return Snapshot{}, ErrControllerClosed
	}
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	return c.Restore(ctx), nil
}

// Close unsubscribes from the provider and drops all observers. Events and
// call results arriving afterwards are ignored. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.observers = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Restore asks the provider for a persisted session. A present, unexpired
// session yields StateAuthenticated; anything else, including a provider
// error, yields StateUnauthenticated without a login error. A result is
// dropped if another change was applied while the lookup was in flight.
func (c *Controller) Restore(ctx context.Context) Snapshot {
	ctx, span := c.tracer.Start(ctx, "goconsole.restore")
	defer span.End()

	c.mu.Lock()
	startVersion := c.snap.Version
	c.mu.Unlock()

	callCtx, cancel := withTimeout(ctx, c.cfg.RestoreTimeout)
	sess, err := c.provider.GetSession(callCtx)
	cancel()

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "restore failed")
		c.logger.Warn("session restore failed", "error", err)
		c.metrics.Inc(MetricRestoreFailure)
		c.emit(ctx, AuditEvent{Type: AuditSessionRestoreFailed, Error: err.Error()})
		sess = nil
	case sess != nil && sess.Expired(c.now()):
		c.logger.Info("restored session already expired", "session_id", sess.ID, "expires_at", sess.ExpiresAt)
		sess = nil
	}

	snap, changed, uerr := c.update(func(cur Snapshot) (Snapshot, bool) {
		if cur.Version != startVersion {
			return cur, false
		}
		if sess == nil {
			return Snapshot{State: StateUnauthenticated, Cause: CauseRestore}, true
		}
		return Snapshot{State: StateAuthenticated, Session: sess.Clone(), Cause: CauseRestore}, true
	})
	if uerr != nil {
		return snap
	}
	if !changed {
		c.logger.Debug("restore result superseded", "version", snap.Version)
	}

	if err == nil {
		if sess != nil {
			c.metrics.Inc(MetricRestoreSession)
			c.emit(ctx, AuditEvent{Type: AuditSessionRestored, Success: true, UserID: sess.User.ID, Email: sess.User.Email, SessionID: sess.ID})
		} else {
			c.metrics.Inc(MetricRestoreEmpty)
		}
	}
	span.SetAttributes(attribute.String("goconsole.state", snap.State.String()))
	return snap
}

// Login signs in through the provider. On success the session becomes
// authenticated; on failure the error is stored as the snapshot's LoginError
// and the session is left as it was. A login overtaken by Logout returns
// ErrLoginSuperseded; its session is discarded and, when the provider is an
// identity.Revoker, revoked.
func (c *Controller) Login(ctx context.Context, creds identity.Credentials) error {
	ctx, span := c.tracer.Start(ctx, "goconsole.login")
	defer span.End()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}
	epoch := c.epoch
	c.mu.Unlock()

	var (
		sess *identity.Session
		err  error
	)
	if creds.Email == "" || creds.Password == "" {
		err = ErrMissingCredentials
	} else {
		callCtx, cancel := withTimeout(ctx, c.cfg.LoginTimeout)
		start := c.now()
		sess, err = c.provider.SignInWithPassword(callCtx, creds)
		cancel()
		c.metrics.Observe(MetricLoginLatency, c.now().Sub(start))
		if err == nil && sess == nil {
			err = fmt.Errorf("%w: provider returned no session", identity.ErrUnavailable)
		}
	}

	superseded := false
	_, _, uerr := c.update(func(cur Snapshot) (Snapshot, bool) {
		if c.epoch != epoch {
			superseded = true
			if err != nil {
				return cur, false
			}
			c.discardLocked(sess.ID)
			if cur.Session != nil && cur.Session.ID == sess.ID {
				// The sign-in event for this login landed after the logout.
				return Snapshot{State: StateUnauthenticated, Cause: CauseLogout}, true
			}
			return cur, false
		}
		if err != nil {
			return Snapshot{State: cur.State, Session: cur.Session, LoginError: err, Cause: CauseLoginFailed}, true
		}
		return Snapshot{State: StateAuthenticated, Session: sess.Clone(), Cause: CauseLogin}, true
	})
	if uerr != nil {
		return uerr
	}

	switch {
	case superseded:
		span.SetAttributes(attribute.String("goconsole.outcome", "superseded"))
		c.metrics.Inc(MetricLoginSuperseded)
		if err != nil {
			c.logger.Debug("superseded login failed", "error", err)
			return err
		}
		c.logger.Info("login completed after logout, session discarded", "session_id", sess.ID)
		c.revoke(ctx, sess)
		c.emit(ctx, AuditEvent{Type: AuditLoginSuperseded, UserID: sess.User.ID, Email: sess.User.Email, SessionID: sess.ID})
		return ErrLoginSuperseded
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		span.SetAttributes(attribute.String("goconsole.outcome", "failure"))
		if errors.Is(err, identity.ErrRateLimited) {
			c.metrics.Inc(MetricLoginRateLimited)
		}
		c.metrics.Inc(MetricLoginFailure)
		c.logger.Info("login failed", "error", err)
		c.emit(ctx, AuditEvent{Type: AuditLoginFailure, Email: creds.Email, Error: err.Error()})
		return err
	default:
		span.SetAttributes(attribute.String("goconsole.outcome", "success"))
		c.metrics.Inc(MetricLoginSuccess)
		c.logger.Info("login succeeded", "user_id", sess.User.ID, "session_id", sess.ID)
		c.emit(ctx, AuditEvent{Type: AuditLoginSuccess, Success: true, UserID: sess.User.ID, Email: sess.User.Email, SessionID: sess.ID})
		return nil
	}
}

// revoke ends a discarded session on the provider side so a later restore
// does not bring it back.
func (c *Controller) revoke(ctx context.Context, sess *identity.Session) {
	revoker, ok := c.provider.(identity.Revoker)
	if !ok {
		return
	}
	callCtx, cancel := withTimeout(ctx, c.cfg.LogoutTimeout)
	defer cancel()
	if err := revoker.RevokeSession(callCtx, sess); err != nil {
		c.logger.Warn("discarded session revoke failed", "session_id", sess.ID, "error", err)
	}
}

// Logout signs out through the provider and then clears the local session
// whatever the outcome. Any login in flight when Logout starts is discarded.
// A provider failure is logged and returned for information only.
func (c *Controller) Logout(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "goconsole.logout")
	defer span.End()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}
	c.epoch++
	prev := c.snap.Session
	c.mu.Unlock()

	callCtx, cancel := withTimeout(ctx, c.cfg.LogoutTimeout)
	err := c.provider.SignOut(callCtx)
	cancel()

	_, _, _ = c.update(func(Snapshot) (Snapshot, bool) {
		return Snapshot{State: StateUnauthenticated, Cause: CauseLogout}, true
	})

	event := AuditEvent{Type: AuditLogout, Success: err == nil}
	if prev != nil {
		event.UserID, event.Email, event.SessionID = prev.User.ID, prev.User.Email, prev.ID
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sign-out failed")
		c.metrics.Inc(MetricLogoutFailure)
		c.logger.Warn("sign-out failed, local session cleared anyway", "error", err)
		event.Type = AuditLogoutFailure
		event.Error = err.Error()
		c.emit(ctx, event)
		return err
	}
	c.metrics.Inc(MetricLogout)
	c.emit(ctx, event)
	return nil
}

// Observe registers fn to receive every applied change. Calls are
// synchronous, in registration order, and never concurrent with each other.
// fn may read the controller but must not call Restore, Login or Logout
// synchronously. After cancel returns fn is not called again, except by a
// dispatch already running on another goroutine.
func (c *Controller) Observe(fn func(Snapshot)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || fn == nil {
		return func() {}
	}
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, id)
			c.mu.Unlock()
		})
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.clone()
}

// State returns the current authentication state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.State
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (c *Controller) CurrentUser() *identity.User {
	return c.Snapshot().User()
}

// LoginError returns the failure of the most recent login, if it has not been
// cleared since.
func (c *Controller) LoginError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.LoginError
}

func (c *Controller) handleEvent(e identity.Event) {
	c.metrics.Inc(MetricSessionEvent)

	ignored := ""
	snap, changed, err := c.update(func(cur Snapshot) (Snapshot, bool) {
		if e.Kind == identity.EventSignedOut || e.Session == nil {
			if cur.State == StateUnauthenticated {
				return cur, false
			}
			return Snapshot{State: StateUnauthenticated, LoginError: cur.LoginError, Cause: CauseEvent, Event: e.Kind}, true
		}
		if slices.Contains(c.discarded, e.Session.ID) {
			ignored = "session superseded by logout"
			return cur, false
		}
		return Snapshot{State: StateAuthenticated, Session: e.Session.Clone(), Cause: CauseEvent, Event: e.Kind}, true
	})
	switch {
	case err != nil:
		c.logger.Debug("session event after close ignored", "event", e.Kind.String())
		return
	case ignored != "":
		c.metrics.Inc(MetricSessionEventIgnored)
		c.logger.Info("session event ignored", "event", e.Kind.String(), "session_id", e.Session.ID, "reason", ignored)
		return
	case !changed:
		return
	}

	event := AuditEvent{Type: AuditSessionChanged, Success: true, Metadata: map[string]string{
		"event": e.Kind.String(),
		"state": snap.State.String(),
	}}
	if snap.Session != nil {
		event.UserID, event.Email, event.SessionID = snap.Session.User.ID, snap.Session.User.Email, snap.Session.ID
	}
	c.emit(context.Background(), event)
}

// update applies the change computed by fn under c.mu and notifies observers.
// fn returns false to leave the state untouched. A change equal to the current
// state (same state, same session, no login error on either side) is dropped
// without notification.
func (c *Controller) update(fn func(cur Snapshot) (Snapshot, bool)) (Snapshot, bool, error) {
	c.mu.Lock()
	if c.closed {
		snap := c.snap.clone()
		c.mu.Unlock()
		return snap, false, ErrControllerClosed
	}

	cur := c.snap
	next, ok := fn(cur)
	if !ok || redundant(cur, next) {
		c.mu.Unlock()
		return cur.clone(), false, nil
	}

	next.Version = cur.Version + 1
	c.snap = next
	ids := make([]uint64, 0, len(c.observers))
	for id := range c.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	c.metrics.Inc(MetricSessionChanged)
	c.logger.Debug("session state changed",
		"state", next.State.String(),
		"cause", next.Cause.String(),
		"version", next.Version,
	)

	for _, id := range ids {
		c.mu.Lock()
		observer, live := c.observers[id]
		c.mu.Unlock()
		if live {
			observer(next.clone())
		}
	}
	return next.clone(), true, nil
}

func redundant(cur, next Snapshot) bool {
	return cur.State == next.State &&
		identity.Same(cur.Session, next.Session) &&
		cur.LoginError == nil && next.LoginError == nil
}

func (c *Controller) discardLocked(sessionID string) {
	if sessionID == "" || slices.Contains(c.discarded, sessionID) {
		return
	}
	c.discarded = append(c.discarded, sessionID)
	if over := len(c.discarded) - c.cfg.DiscardMemory; over > 0 {
		c.discarded = slices.Delete(c.discarded, 0, over)
	}
}

func (c *Controller) emit(ctx context.Context, event AuditEvent) {
	if c.audit == nil {
		return
	}
	event.ID = uuid.NewString()
	c.audit.Emit(ctx, event)
}
