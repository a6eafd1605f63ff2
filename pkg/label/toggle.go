package label

import "github.com/raykavin/markfactory/pkg/core"

// Toggle computes the next state of the mark at point.TimeKey.
//
// Without a forced side the state cycles none -> BUY -> SELL -> none.
// With a forced side an empty slot takes that side and any existing mark
// is removed, whichever side is requested. A nil result means no mark.
// existing is never modified.
func Toggle(existing *core.MarkedTrade, point core.HoverPoint, forced *core.SideType) *core.MarkedTrade {
	if forced != nil {
		if existing != nil {
			return nil
		}
		return &core.MarkedTrade{TimeKey: point.TimeKey, Price: point.Price, Side: *forced}
	}

	if existing == nil {
		return &core.MarkedTrade{TimeKey: point.TimeKey, Price: point.Price, Side: core.SideTypeBuy}
	}

	if existing.Side == core.SideTypeBuy {
		next := *existing
		next.Side = core.SideTypeSell
		return &next
	}

	return nil
}
