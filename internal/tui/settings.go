package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/identity"
)

const (
	settingsName = iota
	settingsPassword
	settingsConfirm
	settingsFieldCount
)

const (
	fieldFullName = "full_name"
	fieldSecret   = "password"
)

type settingsForm struct {
	inputs  [settingsFieldCount]textinput.Model
	focus   int
	editing bool
	saving  bool
	message string
	failed  bool
	email   string
}

func newSettingsForm() settingsForm {
	var f settingsForm
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 128
		f.inputs[i] = in
	}
	f.inputs[settingsName].Placeholder = "Nome completo"
	f.inputs[settingsPassword].Placeholder = "Nova senha"
	f.inputs[settingsConfirm].Placeholder = "Confirmar senha"
	for _, i := range []int{settingsPassword, settingsConfirm} {
		f.inputs[i].EchoMode = textinput.EchoPassword
		f.inputs[i].EchoCharacter = '•'
	}
	return f
}

// load fills the profile fields from u.
func (f *settingsForm) load(u *identity.User) {
	if u == nil {
		return
	}
	f.email = u.Email
	f.inputs[settingsName].SetValue(u.Metadata["full_name"])
}

func (f *settingsForm) startEditing() tea.Cmd {
	f.editing = true
	f.message = ""
	return f.setFocus(settingsName)
}

func (f *settingsForm) stopEditing() {
	f.editing = false
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

func (f *settingsForm) setFocus(i int) tea.Cmd {
	f.focus = i
	var cmd tea.Cmd
	for j := range f.inputs {
		if j == i {
			cmd = f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	return cmd
}

func (f *settingsForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// finish records the outcome of a save.
func (f *settingsForm) finish(field string, err error) {
	f.saving = false
	if err != nil {
		f.failed = true
		f.message = goConsole.UserMessage(err)
		return
	}
	f.failed = false
	switch field {
	case fieldSecret:
		f.message = "Senha atualizada com sucesso!"
		f.inputs[settingsPassword].SetValue("")
		f.inputs[settingsConfirm].SetValue("")
	default:
		f.message = "Perfil atualizado com sucesso!"
	}
}

func (m Model) profileCmd(fullName string) tea.Cmd {
	ctx, console := m.ctx, m.console
	return func() tea.Msg {
		return profileDoneMsg{field: fieldFullName, err: console.UpdateProfile(ctx, fullName)}
	}
}

func (m Model) passwordCmd(pw, confirm string) tea.Cmd {
	ctx, console := m.ctx, m.console
	return func() tea.Msg {
		return profileDoneMsg{field: fieldSecret, err: console.ChangePassword(ctx, pw, confirm)}
	}
}

func (m Model) updateSettingsForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.settings
	if f.saving {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Back):
		f.stopEditing()
		return m, nil
	case key.Matches(msg, keys.NextField):
		return m, f.setFocus((f.focus + 1) % settingsFieldCount)
	case key.Matches(msg, keys.PrevField):
		return m, f.setFocus((f.focus + settingsFieldCount - 1) % settingsFieldCount)
	case key.Matches(msg, keys.Submit):
		f.saving = true
		f.message = ""
		var save tea.Cmd
		if f.focus == settingsName {
			save = m.profileCmd(f.inputs[settingsName].Value())
		} else {
			save = m.passwordCmd(f.inputs[settingsPassword].Value(), f.inputs[settingsConfirm].Value())
		}
		return m, tea.Batch(save, m.spinner.Tick)
	}
	return m, f.update(msg)
}

func (m Model) viewSettings(width int) string {
	s := m.styles
	f := m.settings
	var b strings.Builder

	b.WriteString(s.Title.Render("Configurações"))
	b.WriteString("\n")
	b.WriteString(s.Subtitle.Render("Gira as preferências da tua conta e segurança."))
	b.WriteString("\n\n")

	if f.message != "" {
		if f.failed {
			b.WriteString(s.Error.Render(f.message))
		} else {
			b.WriteString(s.Success.Render(f.message))
		}
		b.WriteString("\n\n")
	}

	row := func(label string, i int) {
		marker := "  "
		if f.editing && f.focus == i {
			marker = s.Accent.Render("> ")
		}
		b.WriteString(marker + s.Muted.Render(label) + "\n")
		b.WriteString("  " + f.inputs[i].View() + "\n")
	}

	b.WriteString(s.Accent.Render("Perfil"))
	b.WriteString("\n")
	b.WriteString("  " + s.Muted.Render("Email") + "\n")
	b.WriteString("  " + s.Text.Render(f.email) + "\n")
	row("Nome completo", settingsName)

	b.WriteString("\n")
	b.WriteString(s.Accent.Render("Segurança"))
	b.WriteString("\n")
	row("Nova senha", settingsPassword)
	row("Confirmar senha", settingsConfirm)

	b.WriteString("\n")
	theme := "claro"
	if m.dark {
		theme = "escuro"
	}
	b.WriteString(s.Accent.Render("Aparência"))
	b.WriteString("\n  " + s.Text.Render("Tema "+theme) + s.Muted.Render("  (t para alternar)") + "\n\n")

	switch {
	case f.saving:
		b.WriteString(s.Button.Render(m.spinner.View() + " A guardar..."))
	case f.editing:
		b.WriteString(s.Muted.Render("enter guardar campo • tab próximo campo • esc terminar"))
	default:
		b.WriteString(s.Muted.Render("e editar perfil e senha"))
	}

	return s.Panel.Width(width).Render(b.String())
}
