package goConsole

import "github.com/MrEthical07/goConsole/identity"

// State is the authentication state of the console.
type State uint8

const (
	// StateUnknown is the initial state, before the persisted session has been
	// looked up.
	StateUnknown State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "invalid"
	}
}

// Cause records what produced a snapshot.
type Cause uint8

const (
	CauseInit Cause = iota
	CauseRestore
	CauseLogin
	CauseLoginFailed
	CauseLogout
	CauseEvent
)

func (c Cause) String() string {
	switch c {
	case CauseInit:
		return "init"
	case CauseRestore:
		return "restore"
	case CauseLogin:
		return "login"
	case CauseLoginFailed:
		return "login_failed"
	case CauseLogout:
		return "logout"
	case CauseEvent:
		return "event"
	default:
		return "invalid"
	}
}

// Snapshot is an immutable copy of the controller's state. Version grows by
// one with every applied change, so observers can drop stale copies.
type Snapshot struct {
	State   State
	Session *identity.Session
	// LoginError is the failure of the most recent login, cleared by the next
	// successful sign-in or logout.
	LoginError error
	Cause      Cause
	// Event is set when Cause is CauseEvent.
	Event   identity.EventKind
	Version uint64
}

// User returns the signed-in user, or nil.
func (s Snapshot) User() *identity.User {
	if s.Session == nil {
		return nil
	}
	u := s.Session.User
	return &u
}

// Email returns the signed-in user's email, or "".
func (s Snapshot) Email() string {
	if s.Session == nil {
		return ""
	}
	return s.Session.User.Email
}

func (s Snapshot) clone() Snapshot {
	s.Session = s.Session.Clone()
	return s
}
