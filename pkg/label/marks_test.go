package label

import (
	"testing"

	"github.com/raykavin/markfactory/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sideOf(m *MarkSet, key string) string {
	trade := m.Get(key)
	if trade == nil {
		return "none"
	}
	return string(trade.Side)
}

func TestMarkSet_ClickCycle(t *testing.T) {
	marks := NewMarkSet()
	point := core.HoverPoint{TimeKey: "d5", Price: 42}
	cycle := []string{"BUY", "SELL", "none"}

	for n := 0; n < 9; n++ {
		marks.Apply(point, nil)
		require.Equal(t, cycle[n%3], sideOf(marks, "d5"), "click %d", n+1)
	}
}

func TestMarkSet_ThreeClicksLeaveSetEmpty(t *testing.T) {
	marks := NewMarkSet()
	point := core.HoverPoint{TimeKey: "d5", Price: 42}

	marks.Apply(point, nil)
	marks.Apply(point, nil)
	marks.Apply(point, nil)

	assert.Zero(t, marks.Len())
	assert.Empty(t, marks.Trades())
}

func TestMarkSet_ForcedCycle(t *testing.T) {
	point := core.HoverPoint{TimeKey: "d2", Price: 7}

	for _, second := range []core.SideType{core.SideTypeBuy, core.SideTypeSell} {
		marks := NewMarkSet()
		for n := 0; n < 6; n++ {
			side := core.SideTypeBuy
			if n%2 == 1 {
				side = second
			}
			marks.Apply(point, &side)

			if n%2 == 0 {
				require.Equal(t, "BUY", sideOf(marks, "d2"))
			} else {
				require.Equal(t, "none", sideOf(marks, "d2"))
			}
		}
	}
}

func TestMarkSet_MixedInputsShareState(t *testing.T) {
	marks := NewMarkSet()
	point := core.HoverPoint{TimeKey: "d1", Price: 1}

	marks.Apply(point, nil)
	require.Equal(t, "BUY", sideOf(marks, "d1"))

	// a forced press on an existing mark removes it
	marks.Apply(point, core.Side(core.SideTypeSell))
	require.Equal(t, "none", sideOf(marks, "d1"))

	marks.Apply(point, core.Side(core.SideTypeSell))
	require.Equal(t, "SELL", sideOf(marks, "d1"))

	// a click on SELL removes it
	marks.Apply(point, nil)
	require.Equal(t, "none", sideOf(marks, "d1"))
}

func TestMarkSet_TradesKeepInsertionOrder(t *testing.T) {
	marks := NewMarkSet()
	marks.Apply(core.HoverPoint{TimeKey: "d3", Price: 3}, nil)
	marks.Apply(core.HoverPoint{TimeKey: "d1", Price: 1}, nil)
	marks.Apply(core.HoverPoint{TimeKey: "d2", Price: 2}, core.Side(core.SideTypeSell))
	marks.Apply(core.HoverPoint{TimeKey: "d3", Price: 3}, nil)

	trades := marks.Trades()
	require.Len(t, trades, 3)
	assert.Equal(t, []string{"d3", "d1", "d2"}, []string{trades[0].TimeKey, trades[1].TimeKey, trades[2].TimeKey})
	assert.Equal(t, core.SideTypeSell, trades[0].Side)

	marks.Clear()
	assert.Zero(t, marks.Len())
}

func TestMarkSet_GetReturnsCopy(t *testing.T) {
	marks := NewMarkSet()
	marks.Apply(core.HoverPoint{TimeKey: "d1", Price: 1}, nil)

	trade := marks.Get("d1")
	trade.Side = core.SideTypeSell

	assert.Equal(t, core.SideTypeBuy, marks.Get("d1").Side)
}
