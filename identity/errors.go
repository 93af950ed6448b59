package identity

import "errors"

var (
	// ErrInvalidCredentials is returned when the service rejects an email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRequest is returned for malformed requests (missing email, weak password).
	ErrInvalidRequest = errors.New("invalid request")
	// ErrAccountExists is returned by SignUp for an email that is already registered.
	ErrAccountExists = errors.New("account already exists")
	// ErrRateLimited is returned when the service throttles the caller.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnavailable wraps transport failures and unexpected service responses.
	ErrUnavailable = errors.New("identity service unavailable")
	// ErrSessionExpired is returned when a session can no longer be refreshed.
	ErrSessionExpired = errors.New("session expired")
	// ErrNotSignedIn is returned by operations that need a current session.
	ErrNotSignedIn = errors.New("not signed in")
)
