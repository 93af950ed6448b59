// Package gotrue is an identity.Provider for GoTrue-compatible auth APIs, the
// service behind Supabase Auth.
//
// It signs in with the password grant, keeps the session fresh with the
// refresh grant shortly before the access token expires, and persists the
// session with session.Store so a restarted console can restore it. Requests
// carry the project's public API key in the apikey header and go through an
// otelhttp transport.
//
// Error responses are mapped onto the identity sentinels: rejected
// credentials become identity.ErrInvalidCredentials, throttling
// identity.ErrRateLimited, and transport failures or unexpected statuses
// identity.ErrUnavailable.
package gotrue
