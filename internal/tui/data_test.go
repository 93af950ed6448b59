package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MrEthical07/goConsole/view"
)

func TestFormatMT(t *testing.T) {
	tests := map[int]string{
		0:       "0 MT",
		750:     "750 MT",
		4500:    "4.500 MT",
		36000:   "36.000 MT",
		1000000: "1.000.000 MT",
		-1200:   "-1.200 MT",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatMT(in), in)
	}
}

func TestGreeting(t *testing.T) {
	day := func(h int) time.Time { return time.Date(2026, 2, 21, h, 0, 0, 0, time.UTC) }
	assert.Equal(t, "Bom dia", greeting(day(0)))
	assert.Equal(t, "Bom dia", greeting(day(11)))
	assert.Equal(t, "Boa tarde", greeting(day(12)))
	assert.Equal(t, "Boa noite", greeting(day(18)))
}

func TestShortDate(t *testing.T) {
	assert.Equal(t, "21 FEV", shortDate(time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC)))
}

func TestPeriodCycle(t *testing.T) {
	assert.Equal(t, periodYesterday, periodToday.next())
	assert.Equal(t, period30Days, periodToday.prev())
	assert.Equal(t, periodToday, period30Days.next())
	assert.Equal(t, 36000, totalRevenue(periodToday))
}

func TestJumpTarget(t *testing.T) {
	order := view.MenuOrder()
	v, ok := jumpTarget("1")
	assert.True(t, ok)
	assert.Equal(t, order[0], v)

	v, ok = jumpTarget("0")
	assert.True(t, ok)
	assert.Equal(t, order[9], v)

	_, ok = jumpTarget("x")
	assert.False(t, ok)
	_, ok = jumpTarget("12")
	assert.False(t, ok)
}

func TestPlaceholdersCoverEmptyViews(t *testing.T) {
	for _, v := range view.All() {
		switch v {
		case view.Dashboard, view.Payments, view.Awards, view.Settings:
			continue
		}
		assert.NotEmpty(t, placeholders[v], v.String())
	}
}
