package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/identity"
)

const (
	fieldEmail = iota
	fieldPassword
)

type loginForm struct {
	email    textinput.Model
	password textinput.Model
	focus    int
	reveal   bool
	busy     bool
	err      error
}

func newLoginForm() loginForm {
	email := textinput.New()
	email.Placeholder = "admin@exemplo.com"
	email.Prompt = ""
	email.CharLimit = 254
	email.Focus()

	pw := textinput.New()
	pw.Placeholder = "••••••••"
	pw.Prompt = ""
	pw.CharLimit = 128
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'

	return loginForm{email: email, password: pw}
}

// reset clears the password and error and puts the cursor back on email.
func (f *loginForm) reset() {
	f.password.SetValue("")
	f.err = nil
	f.busy = false
	f.setFocus(fieldEmail)
}

func (f *loginForm) setFocus(i int) {
	f.focus = i
	if i == fieldEmail {
		f.email.Focus()
		f.password.Blur()
		return
	}
	f.password.Focus()
	f.email.Blur()
}

func (f *loginForm) toggleReveal() {
	f.reveal = !f.reveal
	if f.reveal {
		f.password.EchoMode = textinput.EchoNormal
	} else {
		f.password.EchoMode = textinput.EchoPassword
	}
}

func (f *loginForm) credentials() identity.Credentials {
	return identity.Credentials{
		Email:    strings.TrimSpace(f.email.Value()),
		Password: f.password.Value(),
	}
}

func (f *loginForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focus == fieldEmail {
		f.email, cmd = f.email.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return cmd
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.NextField), key.Matches(msg, keys.PrevField):
		m.login.setFocus(1 - m.login.focus)
		return m, nil
	case key.Matches(msg, keys.Reveal):
		m.login.toggleReveal()
		return m, nil
	case key.Matches(msg, keys.Submit):
		if m.login.focus == fieldEmail {
			m.login.setFocus(fieldPassword)
			return m, nil
		}
		m.login.busy = true
		m.login.err = nil
		return m, tea.Batch(m.loginCmd(m.login.credentials()), m.spinner.Tick)
	}

	m.login.err = nil
	return m, m.login.update(msg)
}

// loginError is the message slot: the last submit's error, or the one the
// controller recorded.
func (m Model) loginError() error {
	if m.login.err != nil {
		return m.login.err
	}
	return m.snap.LoginError
}

func (m Model) viewLogin() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.Accent.Render("goConsole"))
	b.WriteString("\n\n")
	b.WriteString(s.Title.Render("Bem-vindo de volta"))
	b.WriteString("\n")
	b.WriteString(s.Subtitle.Render("Entre na sua conta para continuar"))
	b.WriteString("\n\n")

	b.WriteString(s.Muted.Render("Email"))
	b.WriteString("\n")
	b.WriteString(m.field(m.login.email.View(), m.login.focus == fieldEmail))
	b.WriteString("\n")

	reveal := "mostrar"
	if m.login.reveal {
		reveal = "ocultar"
	}
	b.WriteString(s.Muted.Render("Senha") + "  " + s.Muted.Render("[ctrl+r "+reveal+"]"))
	b.WriteString("\n")
	b.WriteString(m.field(m.login.password.View(), m.login.focus == fieldPassword))
	b.WriteString("\n\n")

	if m.login.busy {
		b.WriteString(s.Button.Render(m.spinner.View() + " A entrar..."))
	} else {
		b.WriteString(s.Button.Render("Entrar"))
	}
	b.WriteString("\n")

	if err := m.loginError(); err != nil {
		b.WriteString("\n")
		b.WriteString(s.Error.Render(goConsole.UserMessage(err)))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(s.Warning.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(s.Muted.Render("tab trocar campo • enter entrar • ctrl+c sair"))

	return m.center(s.Dialog.Width(48).Render(b.String()))
}

func (m Model) field(content string, focused bool) string {
	style := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Width(40).Padding(0, 1)
	if focused {
		style = style.BorderForeground(colorViolet)
	} else {
		style = style.BorderForeground(lipgloss.Color("#94a3b8"))
	}
	return style.Render(content)
}

func (m Model) center(s string) string {
	if m.width == 0 || m.height == 0 {
		return s
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, s)
}

func (m Model) viewLoading() string {
	return m.center(m.spinner.View() + " " + m.styles.Muted.Render("A carregar sessão..."))
}

func (m Model) updateDenied(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Submit), key.Matches(msg, keys.Logout):
		return m.startLogout()
	case key.Matches(msg, keys.Close):
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) viewDenied() string {
	s := m.styles
	var b strings.Builder
	b.WriteString(s.Error.Render("Acesso Negado"))
	b.WriteString("\n\n")
	b.WriteString(s.Text.Render("A conta " + s.Accent.Render(m.snap.Email()) + " não tem permissão"))
	b.WriteString("\n")
	b.WriteString(s.Text.Render("para aceder a este painel."))
	b.WriteString("\n\n")
	if m.loggingOut {
		b.WriteString(s.Button.Render(m.spinner.View() + " A sair..."))
	} else {
		b.WriteString(s.Button.Render("Terminar sessão"))
	}
	b.WriteString("\n\n")
	b.WriteString(s.Muted.Render("enter terminar sessão • q fechar"))
	return m.center(s.Dialog.Render(b.String()))
}
