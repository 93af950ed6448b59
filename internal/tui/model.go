package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/identity"
)

const defaultNarrowWidth = 90

// Options tunes the UI.
type Options struct {
	// Version is shown in the status line.
	Version string
	// NarrowWidth is the terminal width below which the sidebar becomes a
	// drawer. Zero means 90 columns.
	NarrowWidth int
	// Now is the clock used for greetings and dates.
	Now func() time.Time
}

// Model is the bubbletea model for the console. It renders whatever the
// console's gate decides and forwards every action to the console.
type Model struct {
	ctx       context.Context
	console   *goConsole.Console
	opts      Options
	changes   chan struct{}
	stopWatch func()

	snap    goConsole.Snapshot
	started bool
	width   int
	height  int
	styles  Styles
	dark    bool
	spinner spinner.Model
	help    help.Model

	login      loginForm
	settings   settingsForm
	period     period
	method     int
	loggingOut bool
	notice     string
	quitting   bool
}

// New builds the model and subscribes it to console changes. Call Close when
// the program exits.
func New(ctx context.Context, console *goConsole.Console, opts Options) Model {
	if opts.NarrowWidth <= 0 {
		opts.NarrowWidth = defaultNarrowWidth
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	changes := make(chan struct{}, 1)
	stop := console.Observe(func(goConsole.Snapshot) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	dark := console.DarkMode()
	styles := NewStyles(dark)
	sp.Style = styles.Accent

	return Model{
		ctx:       ctx,
		console:   console,
		opts:      opts,
		changes:   changes,
		stopWatch: stop,
		snap:      console.Snapshot(),
		styles:    styles,
		dark:      dark,
		spinner:   sp,
		help:      help.New(),
		login:     newLoginForm(),
		settings:  newSettingsForm(),
	}
}

// Close unsubscribes from the console.
func (m Model) Close() {
	if m.stopWatch != nil {
		m.stopWatch()
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.startCmd(), m.waitForChange(), m.spinner.Tick)
}

func (m Model) startCmd() tea.Cmd {
	ctx, console := m.ctx, m.console
	return func() tea.Msg {
		snap, err := console.Start(ctx)
		if errors.Is(err, goConsole.ErrAlreadyStarted) {
			return startedMsg{snap: console.Snapshot()}
		}
		return startedMsg{snap: snap, err: err}
	}
}

func (m Model) waitForChange() tea.Cmd {
	ctx, console, changes := m.ctx, m.console, m.changes
	return func() tea.Msg {
		select {
		case <-changes:
			return snapshotMsg{snap: console.Snapshot()}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m Model) loginCmd(creds identity.Credentials) tea.Cmd {
	ctx, console := m.ctx, m.console
	return func() tea.Msg {
		return loginDoneMsg{err: console.Login(ctx, creds)}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	ctx, console := m.ctx, m.console
	return func() tea.Msg {
		return logoutDoneMsg{err: console.Logout(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case startedMsg:
		m.started = true
		if msg.err != nil {
			m.notice = goConsole.UserMessage(msg.err)
		}
		m = m.apply(msg.snap)
		return m, nil

	case snapshotMsg:
		m = m.apply(msg.snap)
		return m, m.waitForChange()

	case loginDoneMsg:
		m.login.busy = false
		m.login.err = msg.err
		if msg.err == nil {
			m.login.reset()
		}
		return m, nil

	case logoutDoneMsg:
		m.loggingOut = false
		return m, nil

	case profileDoneMsg:
		m.settings.finish(msg.field, msg.err)
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.decision() {
		case goConsole.DecisionSignIn:
			return m.updateLogin(msg)
		case goConsole.DecisionDenied:
			return m.updateDenied(msg)
		case goConsole.DecisionGranted:
			return m.updateShell(msg)
		}
		return m, nil
	}

	// Cursor blinks and the like belong to whichever form has focus.
	var cmd tea.Cmd
	switch m.decision() {
	case goConsole.DecisionSignIn:
		cmd = m.login.update(msg)
	case goConsole.DecisionGranted:
		if m.settings.editing {
			cmd = m.settings.update(msg)
		}
	}
	return m, cmd
}

// apply adopts snap unless a newer one is already shown.
func (m Model) apply(snap goConsole.Snapshot) Model {
	if snap.Version < m.snap.Version {
		return m
	}
	prev := m.snap
	m.snap = snap

	signedIn := prev.State != goConsole.StateAuthenticated && snap.State == goConsole.StateAuthenticated
	if signedIn || snap.State != goConsole.StateAuthenticated {
		m.settings = newSettingsForm()
	}
	if snap.State == goConsole.StateAuthenticated && !m.settings.editing {
		m.settings.load(snap.User())
	}
	if signedIn {
		m.login.reset()
		m.period = periodToday
	}
	return m
}

func (m Model) decision() goConsole.Decision {
	return m.console.Gate().Decide(m.snap)
}

func (m Model) busy() bool {
	return m.decision() == goConsole.DecisionPending || m.login.busy || m.loggingOut || m.settings.saving
}

func (m Model) startLogout() (Model, tea.Cmd) {
	if m.loggingOut {
		return m, nil
	}
	m.loggingOut = true
	return m, tea.Batch(m.logoutCmd(), m.spinner.Tick)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	switch m.decision() {
	case goConsole.DecisionPending:
		return m.viewLoading()
	case goConsole.DecisionSignIn:
		return m.viewLogin()
	case goConsole.DecisionDenied:
		return m.viewDenied()
	default:
		return m.viewShell()
	}
}
