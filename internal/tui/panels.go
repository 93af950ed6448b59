package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/MrEthical07/goConsole/view"
)

func (m Model) firstName() string {
	u := m.snap.User()
	if u == nil {
		return ""
	}
	if full := u.Metadata["full_name"]; full != "" {
		return strings.Fields(full)[0]
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

func (m Model) viewDashboard(width int) string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.Title.Render(greeting(m.opts.Now()) + ", " + s.Accent.Render(m.firstName())))
	b.WriteString("\n")
	b.WriteString(s.Subtitle.Render("Acompanhe as suas vendas e receitas de hoje."))
	b.WriteString("\n\n")

	tabs := make([]string, 0, periodCount)
	for p := period(0); p < periodCount; p++ {
		if p == m.period {
			tabs = append(tabs, s.TabActive.Render(strings.ToUpper(p.String())))
		} else {
			tabs = append(tabs, s.Tab.Render(strings.ToUpper(p.String())))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	inner := width - 4
	cardWidth := max(16, inner/4-2)
	cards := make([]string, 0, 4)
	for _, st := range dashboardStats(m.period) {
		trend := s.Success.Render(st.Trend)
		if strings.HasPrefix(st.Trend, "-") {
			trend = s.Error.Render(st.Trend)
		}
		cards = append(cards, s.Card.Width(cardWidth).Render(
			s.Muted.Render(strings.ToUpper(st.Label))+"\n"+s.Title.Render(st.Value)+"  "+trend,
		))
	}
	if inner >= 4*(cardWidth+2) {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	} else {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1]))
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards[2], cards[3]))
	}
	b.WriteString("\n\n")

	b.WriteString(s.Accent.Render("Receita") + s.Muted.Render(" · "+m.period.String()))
	b.WriteString("\n")
	b.WriteString(m.barChart(revenue[m.period], width-4))
	b.WriteString("\n\n")

	b.WriteString(s.Accent.Render("Métodos de pagamento"))
	b.WriteString("\n")
	for _, ps := range paymentSplit {
		b.WriteString(m.shareBar(ps, width-4))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(s.Accent.Render("Vendas recentes"))
	b.WriteString("\n")
	b.WriteString(m.salesTable())
	b.WriteString("\n")
	b.WriteString(s.Muted.Render("←/→ mudar período"))

	return s.Panel.Width(width).Render(b.String())
}

// barChart draws one horizontal bar per point, scaled to the largest value.
func (m Model) barChart(points []point, width int) string {
	if len(points) == 0 {
		return m.styles.Muted.Render("(sem dados)")
	}
	peak := 0
	for _, p := range points {
		peak = max(peak, p.Value)
	}
	if peak == 0 {
		peak = 1
	}

	const labelWidth, valueWidth = 5, 12
	barWidth := max(4, width-labelWidth-valueWidth-2)
	lines := make([]string, 0, len(points))
	for _, p := range points {
		n := p.Value * barWidth / peak
		bar := m.styles.Bar.Render(strings.Repeat("█", n)) + strings.Repeat(" ", barWidth-n)
		lines = append(lines, fmt.Sprintf("%-*s %s %*s", labelWidth, p.Label, bar, valueWidth, formatMT(p.Value)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) shareBar(ps paymentShare, width int) string {
	color := colorRed
	if ps.Name != "M-Pesa" {
		color = colorOrange
	}
	barWidth := max(10, min(40, width-20))
	n := ps.Percent * barWidth / 100
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", n)) +
		m.styles.Muted.Render(strings.Repeat("░", barWidth-n))
	return fmt.Sprintf("%-7s %s %3d%%", ps.Name, bar, ps.Percent)
}

func (m Model) salesTable() string {
	s := m.styles
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.Muted).
		Headers("CLIENTE", "ESTADO", "MÉTODO", "VALOR").
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return base.Inherit(s.Muted).Bold(true)
			}
			if col == 1 && row >= 0 && row < len(recentSales) {
				switch recentSales[row].Status {
				case "Aprovado":
					return base.Inherit(s.Success)
				case "Pendente":
					return base.Inherit(s.Warning)
				default:
					return base.Inherit(s.Error)
				}
			}
			return base.Inherit(s.Text)
		})
	for _, sl := range recentSales {
		t.Row(sl.Customer, sl.Status, sl.Method, sl.Amount)
	}
	return t.Render()
}

func (m Model) viewPayments(width int) string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("Pagamentos"))
	b.WriteString("\n")
	b.WriteString(s.Subtitle.Render("Receba pagamentos dos clientes via M-Pesa ou e-Mola"))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		s.Card.Width(24).Render(s.Muted.Render("TOTAL RECEBIDO")+"\n"+s.Title.Render("0 MZN")),
		s.Card.Width(24).Render(s.Muted.Render("PAGAMENTOS RECEBIDOS")+"\n"+s.Title.Render("0")),
	))
	b.WriteString("\n\n")

	b.WriteString(s.Accent.Render("Iniciar Pagamento"))
	b.WriteString("\n")
	b.WriteString(s.Muted.Render("O cliente receberá uma notificação para confirmar com o PIN."))
	b.WriteString("\n\n")
	b.WriteString(s.Muted.Render("Valor (MZN)          ") + s.Text.Render("0.00") + "\n")
	b.WriteString(s.Muted.Render("Número do Cliente    ") + s.Text.Render("+258 84 123 4567") + "\n")
	b.WriteString(s.Muted.Render("Método de Pagamento  "))
	for i, ps := range paymentSplit {
		mark := "( )"
		style := s.Text
		if i == m.method {
			mark = "(•)"
			style = s.Accent
		}
		b.WriteString(style.Render(mark+" "+ps.Name) + "  ")
	}
	b.WriteString("\n\n")
	b.WriteString(s.Muted.Render("p alternar método"))

	return s.Panel.Width(width).Render(b.String())
}

func (m Model) viewAwards(width int) string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("Premiações"))
	b.WriteString("\n")
	b.WriteString(s.Subtitle.Render("Evolua de nível à medida que fatura e desbloqueie recompensas."))
	b.WriteString("\n\n")

	b.WriteString(s.Accent.Render("Níveis"))
	b.WriteString("\n")
	for _, lv := range levels {
		name := s.Text.Render(fmt.Sprintf("%-9s", lv.Name))
		if lv.Current {
			name = s.Accent.Render(fmt.Sprintf("%-9s", lv.Name)) + " " + s.Badge.Render("Atual")
		}
		b.WriteString(name + "  " + s.Muted.Render(lv.Range) + "\n")
		b.WriteString("           " + s.Muted.Render(strings.Join(lv.Benefits, " · ")) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(s.Accent.Render("Recompensas"))
	b.WriteString("\n")
	cards := make([]string, 0, len(rewards))
	for _, r := range rewards {
		cards = append(cards, s.Card.Width(20).Render(
			s.Title.Render(r.Target)+" "+s.Muted.Render("FATURADOS")+"\n"+
				s.Text.Render(r.Title)+"\n"+
				s.Muted.Render("Faltam "+r.Remain),
		))
	}
	if width >= len(cards)*22 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	} else {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, cards...))
	}
	b.WriteString("\n\n")

	b.WriteString(s.Accent.Render("Conquistas"))
	b.WriteString("\n")
	for _, a := range achievements {
		mark := s.Muted.Render("🔒")
		if a.Unlocked {
			mark = s.Success.Render("✓")
		}
		b.WriteString(mark + " " + s.Text.Render(a.Title) + s.Muted.Render("  "+a.Desc) + "\n")
	}

	return s.Panel.Width(width).Render(b.String())
}

func (m Model) viewPlaceholder(v view.View, width int) string {
	s := m.styles
	body := s.Title.Render(v.Label()) + "\n\n" +
		s.Subtitle.Render(placeholders[v]) + "\n\n" +
		s.Badge.Render("Em breve")
	return s.Panel.Width(width).Render(s.Card.Width(min(60, max(20, width-6))).Render(body))
}
