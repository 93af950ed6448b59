package tui

import (
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/goConsole/view"
)

// Everything below is static display data; the console has no sales backend.

type period int

const (
	periodToday period = iota
	periodYesterday
	period7Days
	period30Days
	periodCount
)

var periodLabels = [periodCount]string{
	periodToday:     "Hoje",
	periodYesterday: "Ontem",
	period7Days:     "7 dias",
	period30Days:    "30 dias",
}

func (p period) String() string { return periodLabels[p] }

func (p period) next() period { return (p + 1) % periodCount }
func (p period) prev() period { return (p + periodCount - 1) % periodCount }

type point struct {
	Label string
	Value int
}

var revenue = [periodCount][]point{
	periodToday: {
		{"08h", 0}, {"10h", 1200}, {"12h", 3400}, {"14h", 2800},
		{"16h", 5200}, {"18h", 7800}, {"20h", 6500}, {"22h", 9100},
	},
	periodYesterday: {
		{"08h", 800}, {"10h", 2200}, {"12h", 4100}, {"14h", 3600},
		{"16h", 6000}, {"18h", 8300}, {"20h", 7200}, {"22h", 5900},
	},
	period7Days: {
		{"Seg", 12000}, {"Ter", 18000}, {"Qua", 15000}, {"Qui", 24000},
		{"Sex", 31000}, {"Sáb", 28000}, {"Dom", 22000},
	},
	period30Days: {
		{"S1", 42000}, {"S2", 67000}, {"S3", 55000}, {"S4", 88000},
	},
}

func totalRevenue(p period) int {
	total := 0
	for _, pt := range revenue[p] {
		total += pt.Value
	}
	return total
}

type stat struct {
	Label string
	Value string
	Trend string
}

func dashboardStats(p period) []stat {
	return []stat{
		{Label: "Receita Total", Value: formatMT(totalRevenue(p)), Trend: "+12%"},
		{Label: "Vendas", Value: "245", Trend: "+8%"},
		{Label: "Canceladas", Value: "12", Trend: "-2%"},
		{Label: "Reembolsadas", Value: "3", Trend: "0%"},
	}
}

type paymentShare struct {
	Name    string
	Percent int
}

var paymentSplit = []paymentShare{
	{Name: "M-Pesa", Percent: 65},
	{Name: "e-Mola", Percent: 35},
}

type sale struct {
	Customer string
	Status   string
	Method   string
	Amount   string
}

var recentSales = []sale{
	{"Ana Machava", "Aprovado", "M-Pesa", "4.500 MT"},
	{"Carlos Mondlane", "Aprovado", "e-Mola", "750 MT"},
	{"Fátima Cossa", "Pendente", "M-Pesa", "15.000 MT"},
	{"Pedro Tembe", "Cancelado", "e-Mola", "1.200 MT"},
	{"Marta Bila", "Aprovado", "M-Pesa", "2.850 MT"},
}

type level struct {
	Name     string
	Range    string
	Benefits []string
	Current  bool
}

var levels = []level{
	{Name: "Bronze", Range: "0 - 10.000 MZN", Benefits: []string{"Suporte prioritário", "Badge exclusivo no perfil"}, Current: true},
	{Name: "Prata", Range: "10.000 - 50.000 MZN", Benefits: []string{"Todos benefícios Bronze", "Taxa reduzida de 8%", "Destaque no marketplace"}},
	{Name: "Ouro", Range: "50.000 - 200.000 MZN", Benefits: []string{"Todos benefícios Prata", "Taxa reduzida de 6%", "Acesso antecipado a recursos"}},
	{Name: "Platina", Range: "200.000 - 500.000 MZN", Benefits: []string{"Todos benefícios Ouro", "Taxa reduzida de 4%", "Gestor de conta dedicado"}},
	{Name: "Diamante", Range: "+500.000 MZN", Benefits: []string{"Todos benefícios Platina", "Taxa reduzida de 2%", "Convites para eventos VIP"}},
}

type reward struct {
	Target string
	Title  string
	Remain string
}

var rewards = []reward{
	{Target: "50K", Title: "Pulseira Evolux", Remain: "50.000 MZN"},
	{Target: "100K", Title: "Placa de Prata", Remain: "100.000 MZN"},
	{Target: "500K", Title: "Placa de Ouro", Remain: "500.000 MZN"},
	{Target: "1M", Title: "Placa de Diamante", Remain: "1.000.000 MZN"},
}

type achievement struct {
	Title    string
	Desc     string
	Unlocked bool
}

var achievements = []achievement{
	{Title: "Primeira Venda", Desc: "Realize sua primeira venda na plataforma"},
	{Title: "10 Vendas", Desc: "Alcance 10 vendas totais"},
	{Title: "50 Vendas", Desc: "Alcance 50 vendas totais"},
	{Title: "100 Vendas", Desc: "Alcance 100 vendas totais"},
	{Title: "500 Vendas", Desc: "Alcance 500 vendas totais"},
	{Title: "Mestre das Vendas", Desc: "Alcance 1000 vendas totais"},
}

// placeholders describes the views that have no content yet.
var placeholders = map[view.View]string{
	view.Sales:      "Gira todas as suas vendas, emita facturas e acompanhe o estado de cada transacção.",
	view.Products:   "Crie e gira os seus produtos digitais ou físicos. Defina preços, variantes e stock.",
	view.Affiliates: "Recrute afiliados para venderem os seus produtos e gerir comissões de forma automática.",
	view.Market:     "Explore produtos de outros criadores, torne-se afiliado e expanda os seus rendimentos.",
	view.Marketing:  "Crie campanhas, e-mails e funnels de venda para aumentar a sua conversão.",
	view.Analytics:  "Dados avançados sobre o comportamento dos seus clientes, conversão e ROI.",
}

// greeting picks the salutation for the hour of t.
func greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "Bom dia"
	case h < 18:
		return "Boa tarde"
	default:
		return "Boa noite"
	}
}

var months = [12]string{"JAN", "FEV", "MAR", "ABR", "MAI", "JUN", "JUL", "AGO", "SET", "OUT", "NOV", "DEZ"}

func shortDate(t time.Time) string {
	return strconv.Itoa(t.Day()) + " " + months[t.Month()-1]
}

// formatMT renders n with dot thousands separators and the metical suffix.
func formatMT(n int) string {
	return groupThousands(n) + " MT"
}

func groupThousands(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.Itoa(n)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
