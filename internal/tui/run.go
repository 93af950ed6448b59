// Package tui is the terminal front end of the console: a loading screen, the
// login form, the access-denied screen and the navigation shell with its
// panels.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	goConsole "github.com/MrEthical07/goConsole"
)

// Run starts the console and shows it until the user quits or ctx ends.
func Run(ctx context.Context, console *goConsole.Console, opts Options, programOpts ...tea.ProgramOption) error {
	m := New(ctx, console, opts)
	defer m.Close()

	all := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, programOpts...)
	_, err := tea.NewProgram(m, all...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
