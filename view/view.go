// Package view tracks which single panel of the console is visible.
package view

import (
	"fmt"
	"strings"
)

// View is one panel of the console. The set is closed.
type View int

const (
	Dashboard View = iota
	Sales
	Products
	Affiliates
	Market
	Payments
	Awards
	Marketing
	Analytics
	Settings
	viewCount
)

// Default is the view selected at startup and after every sign-in.
const Default = Dashboard

var names = [viewCount]string{
	Dashboard:  "Dashboard",
	Sales:      "Sales",
	Products:   "Products",
	Affiliates: "Affiliates",
	Market:     "Market",
	Payments:   "Payments",
	Awards:     "Awards",
	Marketing:  "Marketing",
	Analytics:  "Analytics",
	Settings:   "Settings",
}

// Portuguese display labels.
var localNames = [viewCount]string{
	Dashboard:  "Dashboard",
	Sales:      "Vendas",
	Products:   "Produtos",
	Affiliates: "Afiliados",
	Market:     "Mercado",
	Payments:   "Pagamentos",
	Awards:     "Premiações",
	Marketing:  "Marketing",
	Analytics:  "Analytics",
	Settings:   "Configurações",
}

// All returns every view in declaration order.
func All() []View {
	out := make([]View, viewCount)
	for i := range out {
		out[i] = View(i)
	}
	return out
}

// Valid reports whether v is one of the declared views.
func (v View) Valid() bool {
	return v >= 0 && v < viewCount
}

func (v View) String() string {
	if !v.Valid() {
		return fmt.Sprintf("View(%d)", int(v))
	}
	return names[v]
}

// Label is the Portuguese display name.
func (v View) Label() string {
	if !v.Valid() {
		return v.String()
	}
	return localNames[v]
}

// Parse resolves an English or Portuguese view name, case-insensitively.
// "Premiacoes" and "Configuracoes" are accepted without diacritics.
func Parse(name string) (View, error) {
	key := fold(name)
	if key == "" {
		return Dashboard, fmt.Errorf("empty view name")
	}
	for i := View(0); i < viewCount; i++ {
		if key == fold(names[i]) || key == fold(localNames[i]) {
			return i, nil
		}
	}
	return Dashboard, fmt.Errorf("unknown view %q", name)
}

var diacritics = strings.NewReplacer("ç", "c", "õ", "o", "ã", "a", "á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u")

func fold(s string) string {
	return diacritics.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// Next returns the view after v in menu order, wrapping around.
func Next(v View) View {
	order := MenuOrder()
	return order[(indexOf(order, v)+1)%len(order)]
}

// Prev returns the view before v in menu order, wrapping around.
func Prev(v View) View {
	order := MenuOrder()
	return order[(indexOf(order, v)+len(order)-1)%len(order)]
}

func indexOf(order []View, v View) int {
	for i, o := range order {
		if o == v {
			return i
		}
	}
	return 0
}
