package identity

import (
	"context"
	"maps"
	"time"
)

// User is the identity attached to a session. Email may be empty when the
// identity service does not report one.
type User struct {
	ID        string
	Email     string
	Metadata  map[string]string
	CreatedAt time.Time
}

// DisplayName returns the "full_name" metadata entry, falling back to the email.
func (u User) DisplayName() string {
	if name := u.Metadata["full_name"]; name != "" {
		return name
	}
	return u.Email
}

// Session is the proof that a user is currently authenticated, as issued by
// the identity service.
type Session struct {
	ID           string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

// Expired reports whether the access token expiry has passed at now.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Clone returns a deep copy so readers never share the writer's maps.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.User.Metadata != nil {
		out.User.Metadata = make(map[string]string, len(s.User.Metadata))
		for k, v := range s.User.Metadata {
			out.User.Metadata[k] = v
		}
	}
	return &out
}

// Same reports whether a and b describe the same session state. Used to drop
// redundant change notifications.
func Same(a, b *Session) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.AccessToken == b.AccessToken &&
		a.User.Email == b.User.Email && maps.Equal(a.User.Metadata, b.User.Metadata)
}

// Credentials carries a password sign-in (or sign-up) request. Metadata is
// optional profile data such as "full_name".
type Credentials struct {
	Email    string
	Password string
	Metadata map[string]string
}

// EventKind names a session change pushed by the identity service.
type EventKind uint8

const (
	EventInitialSession EventKind = iota
	EventSignedIn
	EventSignedOut
	EventTokenRefreshed
	EventUserUpdated
)

func (k EventKind) String() string {
	switch k {
	case EventInitialSession:
		return "INITIAL_SESSION"
	case EventSignedIn:
		return "SIGNED_IN"
	case EventSignedOut:
		return "SIGNED_OUT"
	case EventTokenRefreshed:
		return "TOKEN_REFRESHED"
	case EventUserUpdated:
		return "USER_UPDATED"
	default:
		return "UNKNOWN"
	}
}

// Event is a session change notification. Session is nil when the change
// leaves no session behind.
type Event struct {
	Kind    EventKind
	Session *Session
}

// Provider is the boundary to the external identity service.
//
// Implementations must be safe for concurrent use. Callbacks registered with
// OnAuthStateChange may run on any goroutine and must not be invoked after the
// returned unsubscribe function has returned.
type Provider interface {
	// GetSession returns the persisted session, or nil when there is none.
	GetSession(ctx context.Context) (*Session, error)
	SignInWithPassword(ctx context.Context, creds Credentials) (*Session, error)
	SignOut(ctx context.Context) error
	OnAuthStateChange(fn func(Event)) (unsubscribe func())
}

// Registrar is implemented by providers that can create accounts.
type Registrar interface {
	SignUp(ctx context.Context, creds Credentials) (*User, error)
}

// UserUpdate changes the signed-in user's profile. Empty fields are left
// untouched; Metadata entries are merged into the existing ones.
type UserUpdate struct {
	Metadata map[string]string
	Password string
}

// Updater is implemented by providers that let the signed-in user edit their
// profile. A successful update publishes EventUserUpdated.
type Updater interface {
	UpdateUser(ctx context.Context, update UserUpdate) (*User, error)
}

// Revoker is implemented by providers that can end one specific session
// without touching a newer one. No event is published.
type Revoker interface {
	RevokeSession(ctx context.Context, sess *Session) error
}
