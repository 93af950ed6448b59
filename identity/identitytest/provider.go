// Package identitytest provides an in-memory identity.Provider for tests.
package identitytest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MrEthical07/goConsole/identity"
)

// Provider is a scriptable in-memory identity service. Accounts are plain
// email/password pairs. Errors can be injected per operation, and a Gate
// channel can hold SignInWithPassword or SignOut open until the test releases it.
type Provider struct {
	identity.Hub

	mu       sync.Mutex
	accounts map[string]account
	current  *identity.Session
	seq      int

	GetSessionErr error
	SignInErr     error
	SignOutErr    error
	UpdateErr     error

	// SignInGate, when non-nil, is received from before SignInWithPassword returns.
	SignInGate chan struct{}
	// SignOutGate, when non-nil, is received from before SignOut returns.
	SignOutGate chan struct{}
	// SilentEvents disables the change events SignIn/SignOut would publish.
	SilentEvents bool

	signInCalls  int
	signOutCalls int
	revoked      []string
}

type account struct {
	password string
	user     identity.User
}

var (
	_ identity.Provider  = (*Provider)(nil)
	_ identity.Registrar = (*Provider)(nil)
	_ identity.Updater   = (*Provider)(nil)
)

// New returns an empty provider.
func New() *Provider {
	return &Provider{accounts: make(map[string]account)}
}

// AddUser registers an account and returns its user.
func (p *Provider) AddUser(email, password string, metadata map[string]string) identity.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	u := identity.User{
		ID:        fmt.Sprintf("user-%d", p.seq),
		Email:     email,
		Metadata:  metadata,
		CreatedAt: time.Unix(1700000000, 0).UTC(),
	}
	p.accounts[email] = account{password: password, user: u}
	return u
}

// SetCurrent replaces the persisted session without publishing an event.
func (p *Provider) SetCurrent(s *identity.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = s.Clone()
}

// Current returns the persisted session.
func (p *Provider) Current() *identity.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current.Clone()
}

// NewSession mints a session for user without touching the persisted one.
func (p *Provider) NewSession(u identity.User) *identity.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.newSessionLocked(u)
}

func (p *Provider) newSessionLocked(u identity.User) *identity.Session {
	p.seq++
	return &identity.Session{
		ID:           fmt.Sprintf("sess-%d", p.seq),
		AccessToken:  fmt.Sprintf("access-%d", p.seq),
		RefreshToken: fmt.Sprintf("refresh-%d", p.seq),
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         u,
	}
}

// SignInCalls returns how many times SignInWithPassword was entered.
func (p *Provider) SignInCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signInCalls
}

// SignOutCalls returns how many times SignOut was entered.
func (p *Provider) SignOutCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signOutCalls
}

// Revoked returns the ids passed to RevokeSession, oldest first.
func (p *Provider) Revoked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.revoked)
}

// RevokeSession records sess and clears the persisted session if it is sess.
func (p *Provider) RevokeSession(_ context.Context, sess *identity.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = append(p.revoked, sess.ID)
	if p.current != nil && p.current.ID == sess.ID {
		p.current = nil
	}
	return nil
}

// Push publishes an event as if the service had sent it, updating the
// persisted session accordingly.
func (p *Provider) Push(kind identity.EventKind, s *identity.Session) {
	p.mu.Lock()
	p.current = s.Clone()
	p.mu.Unlock()
	p.Publish(identity.Event{Kind: kind, Session: s})
}

func (p *Provider) GetSession(ctx context.Context) (*identity.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.GetSessionErr != nil {
		return nil, p.GetSessionErr
	}
	return p.current.Clone(), nil
}

func (p *Provider) SignInWithPassword(ctx context.Context, creds identity.Credentials) (*identity.Session, error) {
	p.mu.Lock()
	p.signInCalls++
	gate := p.SignInGate
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.mu.Lock()
	if p.SignInErr != nil {
		err := p.SignInErr
		p.mu.Unlock()
		return nil, err
	}
	acct, ok := p.accounts[creds.Email]
	if !ok || acct.password != creds.Password {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: invalid login credentials", identity.ErrInvalidCredentials)
	}
	sess := p.newSessionLocked(acct.user)
	p.current = sess.Clone()
	silent := p.SilentEvents
	p.mu.Unlock()

	if !silent {
		p.Publish(identity.Event{Kind: identity.EventSignedIn, Session: sess})
	}
	return sess.Clone(), nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.signOutCalls++
	gate := p.SignOutGate
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.mu.Lock()
	if p.SignOutErr != nil {
		err := p.SignOutErr
		p.mu.Unlock()
		return err
	}
	p.current = nil
	silent := p.SilentEvents
	p.mu.Unlock()

	if !silent {
		p.Publish(identity.Event{Kind: identity.EventSignedOut})
	}
	return nil
}

func (p *Provider) OnAuthStateChange(fn func(identity.Event)) func() {
	return p.Subscribe(fn)
}

func (p *Provider) SignUp(_ context.Context, creds identity.Credentials) (*identity.User, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, identity.ErrInvalidRequest
	}
	p.mu.Lock()
	_, exists := p.accounts[creds.Email]
	p.mu.Unlock()
	if exists {
		return nil, identity.ErrAccountExists
	}
	u := p.AddUser(creds.Email, creds.Password, creds.Metadata)
	return &u, nil
}

func (p *Provider) UpdateUser(_ context.Context, update identity.UserUpdate) (*identity.User, error) {
	p.mu.Lock()
	if p.UpdateErr != nil {
		err := p.UpdateErr
		p.mu.Unlock()
		return nil, err
	}
	if p.current == nil {
		p.mu.Unlock()
		return nil, identity.ErrNotSignedIn
	}
	acct := p.accounts[p.current.User.Email]
	user := p.current.User
	meta := make(map[string]string, len(user.Metadata)+len(update.Metadata))
	for k, v := range user.Metadata {
		meta[k] = v
	}
	for k, v := range update.Metadata {
		meta[k] = v
	}
	user.Metadata = meta
	acct.user = user
	if update.Password != "" {
		acct.password = update.Password
	}
	p.accounts[user.Email] = acct
	p.current.User = user
	sess := p.current.Clone()
	silent := p.SilentEvents
	p.mu.Unlock()

	if !silent {
		p.Publish(identity.Event{Kind: identity.EventUserUpdated, Session: sess})
	}
	return &user, nil
}
