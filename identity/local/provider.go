package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goConsole/identity"
	"github.com/MrEthical07/goConsole/internal/rate"
	"github.com/MrEthical07/goConsole/jwt"
	"github.com/MrEthical07/goConsole/password"
	"github.com/MrEthical07/goConsole/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Config configures a [Provider].
type Config struct {
	// Prefix namespaces every redis key. Default "gc".
	Prefix string
	// Profile names the persisted session restored at startup. Default "default".
	Profile string
	// Tokens configures access-token signing. HS256 with a secret of at
	// least 32 bytes is the usual choice.
	Tokens jwt.Config
	// Password holds the argon2id parameters. Zero value means
	// password.DefaultConfig.
	Password password.Config
	// MaxAttempts failed sign-ins per Window lock an email out. Zero disables
	// throttling.
	MaxAttempts int
	Window      time.Duration
}

// Provider is an embedded identity service backed by redis. It is safe for
// concurrent use. Call Start before use and Close when done.
type Provider struct {
	identity.Hub

	redis   redis.UniversalClient
	config  Config
	tokens  *jwt.Manager
	hasher  *password.Hasher
	limiter *rate.Limiter
	store   *session.Store
	logger  *slog.Logger
	origin  string
	now     func() time.Time

	mu      sync.Mutex
	timer   *time.Timer
	armedID string
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

var (
	_ identity.Provider  = (*Provider)(nil)
	_ identity.Registrar = (*Provider)(nil)
	_ identity.Updater   = (*Provider)(nil)
)

// New validates cfg and returns a provider. A nil logger discards.
func New(rdb redis.UniversalClient, cfg Config, logger *slog.Logger) (*Provider, error) {
	if rdb == nil {
		return nil, errors.New("local provider requires a redis client")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "gc"
	}
	if cfg.Profile == "" {
		cfg.Profile = "default"
	}
	if cfg.Password == (password.Config{}) {
		cfg.Password = password.DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tokens, err := jwt.NewManager(cfg.Tokens)
	if err != nil {
		return nil, fmt.Errorf("tokens: %w", err)
	}
	hasher, err := password.New(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("password: %w", err)
	}

	return &Provider{
		redis:   rdb,
		config:  cfg,
		tokens:  tokens,
		hasher:  hasher,
		limiter: rate.New(rdb, rate.Config{MaxAttempts: cfg.MaxAttempts, Window: cfg.Window, Prefix: cfg.Prefix}),
		store:   session.NewStore(rdb, cfg.Prefix),
		logger:  logger,
		origin:  uuid.NewString(),
		now:     time.Now,
	}, nil
}

// Start subscribes to the cross-instance change channel.
func (p *Provider) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return errors.New("local provider already started")
	}
	p.started = true
	listenCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.mu.Unlock()

	if err := p.listen(ctx, listenCtx); err != nil {
		cancel()
		return fmt.Errorf("%w: subscribe: %v", identity.ErrUnavailable, err)
	}
	return nil
}

// Close stops the change listener and the expiry timer. Subscribers are not
// notified.
func (p *Provider) Close() error {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
		p.armedID = ""
	}
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	return nil
}

// GetSession returns the persisted session. Records that are corrupt, signed
// out elsewhere, or carry an invalid token are removed and reported as
// absent. An expired session is returned as is.
func (p *Provider) GetSession(ctx context.Context) (*identity.Session, error) {
	sess, err := p.store.Load(ctx, p.config.Profile)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return nil, nil
	case errors.Is(err, session.ErrCorrupt):
		p.logger.Warn("persisted session corrupt, removing", "error", err)
		p.dropProfile(ctx)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}

	live, err := p.store.Exists(ctx, sidName(sess.ID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}
	if !live {
		p.logger.Info("persisted session was revoked", "session_id", sess.ID)
		p.dropProfile(ctx)
		return nil, nil
	}

	claims, err := p.tokens.Parse(sess.AccessToken)
	switch {
	case errors.Is(err, jwt.ErrExpired):
		return sess, nil
	case err != nil:
		p.logger.Warn("persisted session token invalid, removing", "session_id", sess.ID, "error", err)
		p.dropProfile(ctx)
		return nil, nil
	case claims.SID != sess.ID || claims.Subject != sess.User.ID:
		p.logger.Warn("persisted session token mismatch, removing", "session_id", sess.ID)
		p.dropProfile(ctx)
		return nil, nil
	}

	p.arm(sess)
	return sess, nil
}

// SignInWithPassword verifies creds against the stored account and persists a
// new session.
func (p *Provider) SignInWithPassword(ctx context.Context, creds identity.Credentials) (*identity.Session, error) {
	email := normalizeEmail(creds.Email)
	if email == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: email and password required", identity.ErrInvalidRequest)
	}

	if err := p.limiter.Check(ctx, email); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			return nil, fmt.Errorf("%w: %v", identity.ErrRateLimited, err)
		}
		return nil, fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}

	acct, err := p.loadAccount(ctx, email)
	if err != nil {
		if !errors.Is(err, errAccountNotFound) {
			return nil, err
		}
		p.hasher.VerifyDummy(creds.Password)
		return nil, p.failAttempt(ctx, email)
	}

	ok, err := p.hasher.Verify(creds.Password, acct.hash)
	if err != nil {
		p.logger.Error("stored password hash unreadable", "user_id", acct.user.ID, "error", err)
		return nil, fmt.Errorf("%w: account record damaged", identity.ErrUnavailable)
	}
	if !ok {
		return nil, p.failAttempt(ctx, email)
	}

	if err := p.limiter.Reset(ctx, email); err != nil {
		p.logger.Warn("rate limit reset failed", "error", err)
	}
	if stale, err := p.hasher.NeedsRehash(acct.hash); err == nil && stale {
		if hash, err := p.hasher.Hash(creds.Password); err == nil {
			if err := p.updateHash(ctx, email, hash); err != nil {
				p.logger.Warn("password rehash failed", "user_id", acct.user.ID, "error", err)
			}
		}
	}

	sess, err := p.issue(acct.user)
	if err != nil {
		return nil, err
	}
	if err := p.persist(ctx, sess); err != nil {
		return nil, err
	}

	p.arm(sess)
	p.Publish(identity.Event{Kind: identity.EventSignedIn, Session: sess})
	p.broadcast(ctx, identity.EventSignedIn, sess.ID)
	return sess.Clone(), nil
}

// SignOut revokes the persisted session. Signing out with no session is not
// an error.
func (p *Provider) SignOut(ctx context.Context) error {
	sess, err := p.store.Load(ctx, p.config.Profile)
	switch {
	case err == nil:
		if err := p.store.Delete(ctx, sidName(sess.ID)); err != nil {
			return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
		}
		if _, err := p.store.DeleteIf(ctx, p.config.Profile, sess.ID); err != nil {
			return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
		}
	case errors.Is(err, session.ErrNotFound):
	case errors.Is(err, session.ErrCorrupt):
		p.dropProfile(ctx)
	default:
		return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}

	p.disarm("")
	p.Publish(identity.Event{Kind: identity.EventSignedOut})
	p.broadcast(ctx, identity.EventSignedOut, "")
	return nil
}

// RevokeSession removes sess from the store. The persisted profile is only
// cleared while it still holds sess, so a newer sign-in survives.
func (p *Provider) RevokeSession(ctx context.Context, sess *identity.Session) error {
	if sess == nil || sess.ID == "" {
		return nil
	}
	if err := p.store.Delete(ctx, sidName(sess.ID)); err != nil {
		return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}
	if _, err := p.store.DeleteIf(ctx, p.config.Profile, sess.ID); err != nil {
		return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}
	p.disarm(sess.ID)
	p.logger.Info("session revoked", "session_id", sess.ID)
	return nil
}

// OnAuthStateChange registers fn for session changes made by this instance,
// by other instances sharing the store, and by token expiry.
func (p *Provider) OnAuthStateChange(fn func(identity.Event)) func() {
	return p.Subscribe(fn)
}

// SignUp creates an account. The password must satisfy the hasher's minimum
// length.
func (p *Provider) SignUp(ctx context.Context, creds identity.Credentials) (*identity.User, error) {
	email := normalizeEmail(creds.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", identity.ErrInvalidRequest)
	}
	hash, err := p.hasher.Hash(creds.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return nil, fmt.Errorf("%w: %v", identity.ErrInvalidRequest, err)
		}
		return nil, err
	}
	return p.createAccount(ctx, email, hash, creds.Metadata)
}

func (p *Provider) failAttempt(ctx context.Context, email string) error {
	if _, err := p.limiter.Fail(ctx, email); err != nil {
		p.logger.Warn("rate limit record failed", "error", err)
	}
	return fmt.Errorf("%w: invalid login credentials", identity.ErrInvalidCredentials)
}

func (p *Provider) issue(user identity.User) (*identity.Session, error) {
	sid := uuid.NewString()
	token, exp, err := p.tokens.Issue(jwt.Grant{
		UserID:    user.ID,
		SessionID: sid,
		Email:     user.Email,
		Name:      user.Metadata["full_name"],
	})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &identity.Session{
		ID:           sid,
		AccessToken:  token,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    exp,
		User:         user,
	}, nil
}

func (p *Provider) persist(ctx context.Context, sess *identity.Session) error {
	ttl := sess.ExpiresAt.Sub(p.now())
	if err := p.store.Save(ctx, sidName(sess.ID), sess, ttl); err != nil {
		return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}
	if err := p.store.Save(ctx, p.config.Profile, sess, ttl); err != nil {
		return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}
	return nil
}

func (p *Provider) dropProfile(ctx context.Context) {
	if err := p.store.Delete(ctx, p.config.Profile); err != nil {
		p.logger.Warn("persisted session removal failed", "error", err)
	}
}

// arm schedules a SIGNED_OUT event for when sess expires, replacing any
// earlier schedule.
func (p *Provider) arm(sess *identity.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
	}
	id := sess.ID
	p.armedID = id
	p.timer = time.AfterFunc(sess.ExpiresAt.Sub(p.now()), func() { p.expire(id) })
}

// disarm cancels the expiry timer. A non-empty id only cancels that
// session's timer.
func (p *Provider) disarm(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer == nil || (id != "" && p.armedID != id) {
		return false
	}
	p.timer.Stop()
	p.timer = nil
	p.armedID = ""
	return true
}

func (p *Provider) expire(id string) {
	if !p.disarm(id) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := p.store.DeleteIf(ctx, p.config.Profile, id); err != nil {
		p.logger.Warn("expired session removal failed", "session_id", id, "error", err)
	}
	p.logger.Info("session expired", "session_id", id)
	p.Publish(identity.Event{Kind: identity.EventSignedOut})
}

func sidName(id string) string {
	return "sid:" + id
}

// UpdateUser merges metadata into the signed-in account and optionally
// replaces its password. The persisted session is rewritten so restores see
// the new profile.
func (p *Provider) UpdateUser(ctx context.Context, update identity.UserUpdate) (*identity.User, error) {
	sess, err := p.store.Load(ctx, p.config.Profile)
	switch {
	case errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrCorrupt):
		return nil, identity.ErrNotSignedIn
	case err != nil:
		return nil, fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}

	fields := map[string]any{}
	for k, v := range update.Metadata {
		fields[metaFieldPrefix+k] = v
	}
	if update.Password != "" {
		hash, err := p.hasher.Hash(update.Password)
		if err != nil {
			if errors.Is(err, password.ErrTooShort) {
				return nil, fmt.Errorf("%w: %v", identity.ErrInvalidRequest, err)
			}
			return nil, err
		}
		fields["hash"] = hash
	}
	if len(fields) == 0 {
		return &sess.User, nil
	}
	if err := p.redis.HSet(ctx, p.accountKey(sess.User.Email), fields).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}

	acct, err := p.loadAccount(ctx, sess.User.Email)
	if err != nil {
		if errors.Is(err, errAccountNotFound) {
			return nil, identity.ErrNotSignedIn
		}
		return nil, err
	}
	sess.User = acct.user
	if err := p.persist(ctx, sess); err != nil {
		return nil, err
	}

	p.Publish(identity.Event{Kind: identity.EventUserUpdated, Session: sess})
	p.broadcast(ctx, identity.EventUserUpdated, sess.ID)
	user := acct.user
	return &user, nil
}
