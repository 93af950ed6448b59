// Package session persists identity sessions in Redis using a compact,
// versioned binary encoding.
//
// A stored session is addressed by a name: the console uses a profile name
// ("default") for the session it restores at startup, and identity/local
// additionally keeps a server-side record per session id so that a sign-out
// from one console instance invalidates the session everywhere.
//
// # What this package must NOT do
//
//   - Interpret or verify tokens.
//   - Make authorization decisions.
package session
