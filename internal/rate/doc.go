// Package rate throttles failed sign-in attempts per account with fixed-window
// Redis counters (INCR, then EXPIRE on the first hit).
//
// Keys are <prefix>:rl:login:<email>.
package rate
