package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrEthical07/goConsole/view"
)

const sidebarWidth = 28

func (m Model) updateShell(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.settings.editing && m.console.CurrentView() == view.Settings {
		return m.updateSettingsForm(msg)
	}

	current := m.console.CurrentView()
	switch {
	case key.Matches(msg, keys.Close):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.Logout):
		return m.startLogout()
	case key.Matches(msg, keys.NextView):
		m.console.SetView(view.Next(current))
	case key.Matches(msg, keys.PrevView):
		m.console.SetView(view.Prev(current))
	case key.Matches(msg, keys.Jump):
		if v, ok := jumpTarget(msg.String()); ok {
			m.console.SetView(v)
		}
	case key.Matches(msg, keys.Drawer):
		m.console.ToggleDrawer()
	case key.Matches(msg, keys.DarkMode):
		m.dark = m.console.ToggleDarkMode()
		m.styles = NewStyles(m.dark)
		m.spinner.Style = m.styles.Accent
	case key.Matches(msg, keys.NextPeriod) && current == view.Dashboard:
		m.period = m.period.next()
	case key.Matches(msg, keys.PrevPeriod) && current == view.Dashboard:
		m.period = m.period.prev()
	case key.Matches(msg, keys.Method) && current == view.Payments:
		m.method = (m.method + 1) % len(paymentSplit)
	case key.Matches(msg, keys.Edit) && current == view.Settings:
		return m, m.settings.startEditing()
	}
	return m, nil
}

// jumpTarget maps "1".."9" and "0" onto menu order.
func jumpTarget(k string) (view.View, bool) {
	if len(k) != 1 || k[0] < '0' || k[0] > '9' {
		return 0, false
	}
	i := int(k[0] - '1')
	if k[0] == '0' {
		i = 9
	}
	order := view.MenuOrder()
	if i >= len(order) {
		return 0, false
	}
	return order[i], true
}

func (m Model) narrow() bool {
	return m.width > 0 && m.width < m.opts.NarrowWidth
}

func (m Model) viewShell() string {
	width := m.width
	if width == 0 {
		width = 120
	}

	header := m.viewHeader(width)
	status := m.viewStatus(width)

	var body string
	switch {
	case m.narrow() && m.console.DrawerOpen():
		body = m.viewSidebar()
	case m.narrow():
		body = m.viewPanel(width - 2)
	default:
		sidebar := m.viewSidebar()
		content := m.viewPanel(width - lipgloss.Width(sidebar) - 2)
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, content)
	}

	if m.height > 0 {
		avail := m.height - lipgloss.Height(header) - lipgloss.Height(status)
		if avail > 0 {
			body = lipgloss.NewStyle().Height(avail).MaxHeight(avail).Render(body)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, status)
}

func (m Model) viewHeader(width int) string {
	s := m.styles
	left := s.Accent.Render("goConsole") + s.Muted.Render("  /  ") + s.Title.Render(m.console.CurrentView().Label())
	if m.narrow() {
		left = s.Muted.Render("[m] ") + left
	}
	right := s.Muted.Render(shortDate(m.opts.Now()))
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right + "\n"
}

func (m Model) viewSidebar() string {
	s := m.styles
	current := m.console.CurrentView()
	var b strings.Builder

	n := 0
	for _, g := range view.Menu() {
		b.WriteString(s.MenuGroup.Render(strings.ToUpper(g.Label)))
		b.WriteString("\n")
		for _, it := range g.Items {
			n++
			label := shortcutLabel(n) + " " + it.View.Label()
			if it.Badge != "" {
				label += " " + s.Badge.Render(it.Badge)
			}
			if it.View == current {
				b.WriteString(s.MenuActive.Width(sidebarWidth - 2).Render(label))
			} else {
				b.WriteString(s.MenuItem.Render(label))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.viewUserCard())
	return s.Sidebar.Width(sidebarWidth).Render(b.String())
}

func shortcutLabel(n int) string {
	switch {
	case n == 10:
		return "0"
	case n < 10:
		return string(rune('0' + n))
	default:
		return " "
	}
}

func (m Model) viewUserCard() string {
	s := m.styles
	u := m.snap.User()
	if u == nil {
		return ""
	}
	name := u.DisplayName()
	return s.Card.Width(sidebarWidth - 4).Render(
		s.Title.Render(truncate(name, sidebarWidth-8)) + "\n" + s.Muted.Render(truncate(u.Email, sidebarWidth-8)),
	)
}

func (m Model) viewStatus(width int) string {
	s := m.styles
	state := s.Success.Render("●") + s.Muted.Render(" Sistemas operacionais")
	if m.loggingOut {
		state = m.spinner.View() + s.Muted.Render(" A sair...")
	}
	if m.opts.Version != "" {
		state += s.Muted.Render("  v" + strings.TrimPrefix(m.opts.Version, "v"))
	}
	return s.Status.Width(width).Render(state + "   " + m.help.View(keys))
}

func (m Model) viewPanel(width int) string {
	switch v := m.console.CurrentView(); v {
	case view.Dashboard:
		return m.viewDashboard(width)
	case view.Payments:
		return m.viewPayments(width)
	case view.Awards:
		return m.viewAwards(width)
	case view.Settings:
		return m.viewSettings(width)
	default:
		return m.viewPlaceholder(v, width)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
