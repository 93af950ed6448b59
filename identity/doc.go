// Package identity defines the boundary between the console and the external
// identity service: session and user value types, the change-event model,
// and the [Provider] interface that concrete clients implement.
//
// Two providers ship with the module. identity/gotrue talks to a hosted,
// GoTrue-compatible auth API. identity/local is an embedded, redis-backed
// provider intended for development and tests. identity/identitytest holds an
// in-memory fake for unit tests.
package identity
