package gotrue

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goConsole/identity"
	"github.com/MrEthical07/goConsole/jwt"
	"github.com/MrEthical07/goConsole/session"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Config configures a [Provider].
type Config struct {
	// URL is the auth API base, e.g. https://<project>.supabase.co/auth/v1.
	URL string
	// APIKey is the public (anon) key sent with every request.
	APIKey string
	// Profile names the persisted session. Default "default".
	Profile string
	// RefreshMargin is how long before expiry the session is refreshed.
	// Default one minute.
	RefreshMargin time.Duration
	// RetryInterval spaces refresh attempts after a transport failure.
	// Default ten seconds.
	RetryInterval time.Duration
	// Timeout bounds each HTTP request. Default ten seconds.
	Timeout time.Duration
	// HTTPClient overrides the default otelhttp-instrumented client.
	HTTPClient *http.Client
}

// Provider is a client for a GoTrue-compatible auth API.
type Provider struct {
	identity.Hub

	config Config
	http   *http.Client
	store  *session.Store
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	current *identity.Session
	loaded  bool
	timer   *time.Timer
	closed  bool
}

var (
	_ identity.Provider  = (*Provider)(nil)
	_ identity.Registrar = (*Provider)(nil)
	_ identity.Updater   = (*Provider)(nil)
)

// New returns a provider. store may be nil, in which case the session lives
// only in memory. A nil logger discards.
func New(cfg Config, store *session.Store, logger *slog.Logger) (*Provider, error) {
	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if cfg.URL == "" {
		return nil, errors.New("gotrue: URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gotrue: APIKey is required")
	}
	if cfg.Profile == "" {
		cfg.Profile = "default"
	}
	if cfg.RefreshMargin <= 0 {
		cfg.RefreshMargin = time.Minute
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 10 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		}
	}

	return &Provider{
		config: cfg,
		http:   client,
		store:  store,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Close stops automatic refresh. The persisted session is kept.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// GetSession returns the current session, loading it from the store on first
// use. A session inside the refresh margin is refreshed first; one the
// service no longer accepts is removed and reported as absent.
func (p *Provider) GetSession(ctx context.Context) (*identity.Session, error) {
	p.mu.Lock()
	sess, loaded := p.current.Clone(), p.loaded
	p.mu.Unlock()

	if !loaded && p.store != nil {
		stored, err := p.store.Load(ctx, p.config.Profile)
		switch {
		case err == nil:
			sess = stored
		case errors.Is(err, session.ErrNotFound):
		case errors.Is(err, session.ErrCorrupt):
			p.logger.Warn("persisted session corrupt, removing", "error", err)
			_ = p.store.Delete(ctx, p.config.Profile)
		default:
			return nil, fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
		}
	}
	if sess == nil {
		p.setCurrent(nil)
		return nil, nil
	}

	if p.now().Add(p.config.RefreshMargin).Before(sess.ExpiresAt) {
		p.setCurrent(sess)
		p.schedule(sess)
		return sess.Clone(), nil
	}

	refreshed, err := p.refresh(ctx, sess.RefreshToken)
	switch {
	case err == nil:
		p.adopt(ctx, refreshed)
		return refreshed.Clone(), nil
	case errors.Is(err, identity.ErrSessionExpired) || errors.Is(err, identity.ErrInvalidCredentials):
		p.logger.Info("persisted session rejected by service", "session_id", sess.ID, "error", err)
		p.forget(ctx)
		return nil, nil
	default:
		return nil, err
	}
}

// SignInWithPassword exchanges email and password for a session.
func (p *Provider) SignInWithPassword(ctx context.Context, creds identity.Credentials) (*identity.Session, error) {
	var resp tokenResponse
	err := p.do(ctx, http.MethodPost, "/token?grant_type=password", "", map[string]string{
		"email":    creds.Email,
		"password": creds.Password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	sess, err := p.sessionFrom(resp)
	if err != nil {
		return nil, err
	}
	p.adopt(ctx, sess)
	p.Publish(identity.Event{Kind: identity.EventSignedIn, Session: sess})
	return sess.Clone(), nil
}

// SignOut revokes the session at the service and forgets it locally. The
// local session is cleared even when the request fails.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	sess := p.current.Clone()
	p.mu.Unlock()

	var err error
	if sess != nil {
		err = p.do(ctx, http.MethodPost, "/logout", sess.AccessToken, nil, nil)
		if errors.Is(err, identity.ErrSessionExpired) {
			// Already gone server-side.
			err = nil
		}
	}

	p.forget(ctx)
	p.Publish(identity.Event{Kind: identity.EventSignedOut})
	return err
}

// RevokeSession logs sess out on the service. Local state is cleared only
// while sess is still the current session.
func (p *Provider) RevokeSession(ctx context.Context, sess *identity.Session) error {
	if sess == nil {
		return nil
	}
	err := p.do(ctx, http.MethodPost, "/logout", sess.AccessToken, nil, nil)
	if errors.Is(err, identity.ErrSessionExpired) {
		err = nil
	}

	p.mu.Lock()
	current := p.current != nil && p.current.ID == sess.ID
	p.mu.Unlock()
	if current {
		p.forget(ctx)
	} else if p.store != nil {
		if _, derr := p.store.DeleteIf(ctx, p.config.Profile, sess.ID); derr != nil {
			p.logger.Warn("persisted session removal failed", "session_id", sess.ID, "error", derr)
		}
	}
	return err
}

// OnAuthStateChange registers fn for sign-in, sign-out, refresh and profile
// events.
func (p *Provider) OnAuthStateChange(fn func(identity.Event)) func() {
	return p.Subscribe(fn)
}

// SignUp registers an account. When the service requires email confirmation
// no session is created.
func (p *Provider) SignUp(ctx context.Context, creds identity.Credentials) (*identity.User, error) {
	body := map[string]any{
		"email":    creds.Email,
		"password": creds.Password,
	}
	if len(creds.Metadata) > 0 {
		body["data"] = creds.Metadata
	}

	var resp signupResponse
	if err := p.do(ctx, http.MethodPost, "/signup", "", body, &resp); err != nil {
		return nil, err
	}
	user := resp.userResponse.user()
	if resp.AccessToken != "" {
		user = resp.tokenResponse.User.user()
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: signup response without user", identity.ErrUnavailable)
	}
	return &user, nil
}

// UpdateUser changes the signed-in user's metadata or password.
func (p *Provider) UpdateUser(ctx context.Context, update identity.UserUpdate) (*identity.User, error) {
	p.mu.Lock()
	sess := p.current.Clone()
	p.mu.Unlock()
	if sess == nil {
		return nil, identity.ErrNotSignedIn
	}

	body := map[string]any{}
	if len(update.Metadata) > 0 {
		body["data"] = update.Metadata
	}
	if update.Password != "" {
		body["password"] = update.Password
	}
	if len(body) == 0 {
		return &sess.User, nil
	}

	var resp userResponse
	if err := p.do(ctx, http.MethodPut, "/user", sess.AccessToken, body, &resp); err != nil {
		return nil, err
	}
	user := resp.user()

	p.mu.Lock()
	if p.current == nil || p.current.ID != sess.ID {
		p.mu.Unlock()
		return &user, nil
	}
	p.current.User = user
	updated := p.current.Clone()
	p.mu.Unlock()

	p.persist(ctx, updated)
	p.Publish(identity.Event{Kind: identity.EventUserUpdated, Session: updated})
	return &user, nil
}

func (p *Provider) refresh(ctx context.Context, refreshToken string) (*identity.Session, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", identity.ErrSessionExpired)
	}
	var resp tokenResponse
	err := p.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", map[string]string{
		"refresh_token": refreshToken,
	}, &resp)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return nil, fmt.Errorf("%w: %v", identity.ErrSessionExpired, err)
	}
	if err != nil {
		return nil, err
	}
	return p.sessionFrom(resp)
}

func (p *Provider) sessionFrom(resp tokenResponse) (*identity.Session, error) {
	if resp.AccessToken == "" || resp.User.ID == "" {
		return nil, fmt.Errorf("%w: token response incomplete", identity.ErrUnavailable)
	}

	var exp time.Time
	switch {
	case resp.ExpiresAt > 0:
		exp = time.Unix(resp.ExpiresAt, 0).UTC()
	case resp.ExpiresIn > 0:
		exp = p.now().Add(time.Duration(resp.ExpiresIn) * time.Second).UTC().Truncate(time.Second)
	default:
		peeked, err := jwt.Peek(resp.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("%w: token expiry unknown: %v", identity.ErrUnavailable, err)
		}
		exp = peeked
	}

	id := jwt.PeekSessionID(resp.AccessToken)
	if id == "" {
		sum := sha256.Sum256([]byte(resp.RefreshToken))
		id = hex.EncodeToString(sum[:8])
	}

	return &identity.Session{
		ID:           id,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    exp,
		User:         resp.User.user(),
	}, nil
}

// adopt makes sess current, persists it and schedules its refresh.
func (p *Provider) adopt(ctx context.Context, sess *identity.Session) {
	p.setCurrent(sess)
	p.persist(ctx, sess)
	p.schedule(sess)
}

func (p *Provider) persist(ctx context.Context, sess *identity.Session) {
	if p.store == nil {
		return
	}
	// The refresh token outlives the access token; keep the record for a
	// day so a restart can still refresh.
	ttl := sess.ExpiresAt.Sub(p.now()) + 24*time.Hour
	if err := p.store.Save(ctx, p.config.Profile, sess, ttl); err != nil {
		p.logger.Warn("session persist failed", "session_id", sess.ID, "error", err)
	}
}

func (p *Provider) forget(ctx context.Context) {
	p.mu.Lock()
	p.current = nil
	p.loaded = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()

	if p.store != nil {
		if err := p.store.Delete(ctx, p.config.Profile); err != nil {
			p.logger.Warn("persisted session removal failed", "error", err)
		}
	}
}

func (p *Provider) setCurrent(sess *identity.Session) {
	p.mu.Lock()
	p.current = sess.Clone()
	p.loaded = true
	p.mu.Unlock()
}

// schedule arms the automatic refresh of sess.
func (p *Provider) schedule(sess *identity.Session) {
	p.scheduleIn(sess.ExpiresAt.Sub(p.now())-p.config.RefreshMargin, sess.ID)
}

func (p *Provider) scheduleIn(d time.Duration, sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	if d < 0 {
		d = 0
	}
	p.timer = time.AfterFunc(d, func() { p.autoRefresh(sessionID) })
}

// autoRefresh renews the current session if it is still sessionID. A
// rejected refresh signs out; a transport failure retries until expiry.
func (p *Provider) autoRefresh(sessionID string) {
	p.mu.Lock()
	sess := p.current.Clone()
	closed := p.closed
	p.mu.Unlock()
	if closed || sess == nil || sess.ID != sessionID {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.config.Timeout)
	defer cancel()

	refreshed, err := p.refresh(ctx, sess.RefreshToken)
	if err == nil {
		p.mu.Lock()
		stale := p.current == nil || p.current.ID != sessionID
		p.mu.Unlock()
		if stale {
			return
		}
		p.adopt(ctx, refreshed)
		p.logger.Debug("session refreshed", "session_id", refreshed.ID, "expires_at", refreshed.ExpiresAt)
		p.Publish(identity.Event{Kind: identity.EventTokenRefreshed, Session: refreshed})
		return
	}

	if errors.Is(err, identity.ErrUnavailable) || errors.Is(err, identity.ErrRateLimited) {
		if p.now().Before(sess.ExpiresAt) {
			p.logger.Warn("session refresh failed, retrying", "session_id", sessionID, "error", err)
			p.scheduleIn(p.config.RetryInterval, sessionID)
			return
		}
	}

	p.logger.Info("session could not be refreshed, signing out", "session_id", sessionID, "error", err)
	p.forget(ctx)
	p.Publish(identity.Event{Kind: identity.EventSignedOut})
}
