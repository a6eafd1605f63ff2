package label

import (
	"testing"

	"github.com/raykavin/markfactory/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggle_Table(t *testing.T) {
	point := core.HoverPoint{TimeKey: "d1", Price: 10}
	buy := &core.MarkedTrade{TimeKey: "d1", Price: 10, Side: core.SideTypeBuy}
	sell := &core.MarkedTrade{TimeKey: "d1", Price: 10, Side: core.SideTypeSell}

	tt := []struct {
		name     string
		existing *core.MarkedTrade
		forced   *core.SideType
		want     *core.MarkedTrade
	}{
		{"none click", nil, nil, buy},
		{"buy click", buy, nil, sell},
		{"sell click", sell, nil, nil},
		{"none forced buy", nil, core.Side(core.SideTypeBuy), buy},
		{"none forced sell", nil, core.Side(core.SideTypeSell), sell},
		{"buy forced buy", buy, core.Side(core.SideTypeBuy), nil},
		{"buy forced sell", buy, core.Side(core.SideTypeSell), nil},
		{"sell forced buy", sell, core.Side(core.SideTypeBuy), nil},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Toggle(tc.existing, point, tc.forced))
		})
	}
}

func TestToggle_KeepsOriginalPriceOnSideChange(t *testing.T) {
	existing := &core.MarkedTrade{TimeKey: "d1", Price: 10, Side: core.SideTypeBuy}

	next := Toggle(existing, core.HoverPoint{TimeKey: "d1", Price: 99}, nil)
	require.NotNil(t, next)
	assert.Equal(t, core.SideTypeSell, next.Side)
	assert.Equal(t, 10.0, next.Price)

	// the input is left untouched
	assert.Equal(t, core.SideTypeBuy, existing.Side)
}
