package label

import (
	"testing"

	"github.com/raykavin/markfactory/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDispatcher_NoHoverIsNoop(t *testing.T) {
	marks := NewMarkSet()
	dispatcher := NewKeyDispatcher(NewHoverTracker(nil), marks)

	assert.False(t, dispatcher.Dispatch("b"))
	assert.Zero(t, marks.Len())
}

func TestKeyDispatcher_IgnoresOtherKeys(t *testing.T) {
	marks := NewMarkSet()
	hover := NewHoverTracker(nil)
	hover.OnHover(&core.HoverPoint{TimeKey: "d3", Price: 30})
	dispatcher := NewKeyDispatcher(hover, marks)

	for _, key := range []string{"x", "", "enter", "bs"} {
		assert.False(t, dispatcher.Dispatch(key))
	}
	assert.Zero(t, marks.Len())
}

func TestKeyDispatcher_BuyThenSellRemoves(t *testing.T) {
	marks := NewMarkSet()
	hover := NewHoverTracker(nil)
	hover.OnHover(&core.HoverPoint{TimeKey: "d3", Price: 30})
	dispatcher := NewKeyDispatcher(hover, marks)

	require.True(t, dispatcher.Dispatch("B"))
	trade := marks.Get("d3")
	require.NotNil(t, trade)
	assert.Equal(t, core.MarkedTrade{TimeKey: "d3", Price: 30, Side: core.SideTypeBuy}, *trade)

	require.True(t, dispatcher.Dispatch("s"))
	assert.Nil(t, marks.Get("d3"))
	assert.Zero(t, marks.Len())
}

func TestKeyDispatcher_UsesLatestHover(t *testing.T) {
	marks := NewMarkSet()
	hover := NewHoverTracker(nil)
	dispatcher := NewKeyDispatcher(hover, marks)

	hover.OnHover(&core.HoverPoint{TimeKey: "d1", Price: 1})
	hover.OnHover(&core.HoverPoint{TimeKey: "d2", Price: 2})
	dispatcher.Dispatch("s")

	assert.Nil(t, marks.Get("d1"))
	require.NotNil(t, marks.Get("d2"))
	assert.Equal(t, core.SideTypeSell, marks.Get("d2").Side)
}

func TestKeyDispatcher_CustomBinding(t *testing.T) {
	marks := NewMarkSet()
	hover := NewHoverTracker(nil)
	hover.OnHover(&core.HoverPoint{TimeKey: "d1", Price: 1})
	dispatcher := NewKeyDispatcher(hover, marks, WithBinding("J", core.SideTypeBuy))

	assert.False(t, dispatcher.Dispatch("b"))
	assert.True(t, dispatcher.Dispatch("j"))
	assert.Equal(t, core.SideTypeBuy, marks.Get("d1").Side)
}

func TestKeyDispatcher_BlankBindingIgnored(t *testing.T) {
	marks := NewMarkSet()
	hover := NewHoverTracker(nil)
	hover.OnHover(&core.HoverPoint{TimeKey: "d1", Price: 1})
	dispatcher := NewKeyDispatcher(hover, marks, WithBinding("  ", core.SideTypeBuy))

	assert.False(t, dispatcher.Dispatch(""))
	assert.False(t, dispatcher.Dispatch(" "))
	assert.Zero(t, marks.Len())

	require.True(t, dispatcher.Dispatch("b"))
	assert.Equal(t, core.SideTypeBuy, marks.Get("d1").Side)
}
