// Package audit relays console audit events (sign-in, sign-out, session
// changes, access denials) to a sink on a background goroutine.
//
// The [Dispatcher] either blocks or drops when its buffer is full; dropped
// events are counted. Sinks: no-op, channel, JSON lines, and slog.
package audit
