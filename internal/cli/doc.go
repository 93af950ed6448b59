// Package cli is the goconsole command tree. The root command opens the
// terminal console; subcommands manage accounts and inspect the persisted
// session without the UI.
package cli
