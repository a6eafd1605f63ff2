package label

import (
	"github.com/StudioSol/set"
	"github.com/raykavin/markfactory/pkg/core"
)

// MarkSet stores at most one MarkedTrade per time key, in insertion order.
// It is not safe for concurrent use; callers serialize access.
type MarkSet struct {
	keys  *set.LinkedHashSetString
	byKey map[string]core.MarkedTrade
}

// NewMarkSet creates an empty mark set
func NewMarkSet() *MarkSet {
	return &MarkSet{
		keys:  set.NewLinkedHashSetString(),
		byKey: make(map[string]core.MarkedTrade),
	}
}

// Get returns a copy of the mark stored at key, or nil
func (m *MarkSet) Get(key string) *core.MarkedTrade {
	trade, ok := m.byKey[key]
	if !ok {
		return nil
	}
	return &trade
}

// Apply runs Toggle for the point and stores the result.
// Click and keyboard handlers both go through here.
func (m *MarkSet) Apply(point core.HoverPoint, forced *core.SideType) *core.MarkedTrade {
	next := Toggle(m.Get(point.TimeKey), point, forced)
	if next == nil {
		m.remove(point.TimeKey)
		return nil
	}

	if _, ok := m.byKey[point.TimeKey]; !ok {
		m.keys.Add(point.TimeKey)
	}
	m.byKey[point.TimeKey] = *next

	return next
}

func (m *MarkSet) remove(key string) {
	if _, ok := m.byKey[key]; !ok {
		return
	}
	m.keys.Remove(key)
	delete(m.byKey, key)
}

// Trades returns the marks in the order their keys were first labeled
func (m *MarkSet) Trades() []core.MarkedTrade {
	trades := make([]core.MarkedTrade, 0, len(m.byKey))
	for key := range m.keys.Iter() {
		trades = append(trades, m.byKey[key])
	}
	return trades
}

// Len returns the number of marks
func (m *MarkSet) Len() int {
	return len(m.byKey)
}

// Clear removes every mark
func (m *MarkSet) Clear() {
	m.keys = set.NewLinkedHashSetString()
	m.byKey = make(map[string]core.MarkedTrade)
}
