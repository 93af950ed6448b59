// Package local is an embedded identity provider backed by redis.
//
// Accounts live in redis hashes with argon2id password hashes. Sign-in mints
// an HS256 access token and persists the session with session.Store under
// the configured profile, plus a per-session record that a sign-out removes.
// Instances sharing the same redis and prefix see each other's sign-ins and
// sign-outs through a pub/sub channel. A timer signs the session out when its
// token expires.
//
// It is meant for development, demos and tests; the hosted service is reached
// through identity/gotrue.
package local
