// Package goConsole is the session and access core of an operator console.
//
// A [Console] owns three named state slots and is passed explicitly to the
// presentation layer:
//
//   - the [Controller], single writer of the authentication session, fed by an
//     identity.Provider;
//   - the [Gate], which derives a [Decision] from every [Snapshot];
//   - the view.Router, which tracks the visible panel.
//
// Consoles are assembled with [Builder]. All methods are safe for concurrent
// use; observers are called synchronously, in registration order, and never
// concurrently with each other.
//
// # Ordering
//
// The most recent change to complete wins. A logout discards any login that
// was in flight when it started, including the sign-in event that login may
// push afterwards.
package goConsole
