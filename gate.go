package goConsole

// Decision is the outcome of the authorization gate for one snapshot.
type Decision uint8

const (
	// DecisionPending: the session has not been looked up yet.
	DecisionPending Decision = iota
	// DecisionSignIn: nobody is signed in; show the login form.
	DecisionSignIn
	// DecisionDenied: signed in, but not as the allowed identity. Only logout
	// is offered.
	DecisionDenied
	// DecisionGranted: the functional views may be shown.
	DecisionGranted
)

func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionSignIn:
		return "sign_in"
	case DecisionDenied:
		return "denied"
	case DecisionGranted:
		return "granted"
	default:
		return "invalid"
	}
}

// Gate derives a Decision from a Snapshot. It holds no state besides its
// policy.
type Gate struct {
	allowedEmail string
	allowAny     bool
}

// NewGate returns a gate enforcing cfg.
func NewGate(cfg AccessConfig) *Gate {
	return &Gate{allowedEmail: cfg.AllowedEmail, allowAny: cfg.AllowAnyAuthenticated}
}

// Decide evaluates s. Under the single-identity policy the session email must
// equal the allowed email byte for byte; a missing email never matches.
func (g *Gate) Decide(s Snapshot) Decision {
	switch s.State {
	case StateUnknown:
		return DecisionPending
	case StateAuthenticated:
	default:
		return DecisionSignIn
	}
	if s.Session == nil {
		return DecisionSignIn
	}
	if g.allowAny {
		return DecisionGranted
	}
	email := s.Session.User.Email
	if email == "" || g.allowedEmail == "" || email != g.allowedEmail {
		return DecisionDenied
	}
	return DecisionGranted
}

// Policy describes the active policy for status output.
func (g *Gate) Policy() string {
	if g.allowAny {
		return "any authenticated user"
	}
	return "only " + g.allowedEmail
}
