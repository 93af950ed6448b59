package tui

import goConsole "github.com/MrEthical07/goConsole"

// startedMsg carries the result of the initial restore.
type startedMsg struct {
	snap goConsole.Snapshot
	err  error
}

// snapshotMsg is sent whenever the controller publishes a change.
type snapshotMsg struct {
	snap goConsole.Snapshot
}

type loginDoneMsg struct{ err error }

type logoutDoneMsg struct{ err error }

type profileDoneMsg struct {
	field string
	err   error
}
