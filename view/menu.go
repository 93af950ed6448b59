package view

// Item is one entry of the navigation menu.
type Item struct {
	View  View
	Badge string
}

// Group is a labeled section of the navigation menu.
type Group struct {
	Label string
	Items []Item
}

const badgeNew = "Novo"

var menu = []Group{
	{Label: "Principal", Items: []Item{{View: Dashboard}, {View: Sales}, {View: Products}, {View: Payments}}},
	{Label: "Crescimento", Items: []Item{{View: Affiliates, Badge: badgeNew}, {View: Market, Badge: badgeNew}, {View: Marketing}, {View: Awards}}},
	{Label: "Finanças", Items: []Item{{View: Analytics}}},
	{Label: "Sistema", Items: []Item{{View: Settings}}},
}

// Menu returns the navigation groups. The result is a copy.
func Menu() []Group {
	out := make([]Group, len(menu))
	for i, g := range menu {
		out[i] = Group{Label: g.Label, Items: append([]Item(nil), g.Items...)}
	}
	return out
}

// MenuOrder flattens the menu into the order a user walks it.
func MenuOrder() []View {
	var out []View
	for _, g := range menu {
		for _, it := range g.Items {
			out = append(out, it.View)
		}
	}
	return out
}
