package label

import (
	"sync/atomic"

	"github.com/raykavin/markfactory/pkg/core"
)

// HoverTracker keeps the last hovered point.
//
// The point is kept in two places: a latest-value cell written before
// OnHover returns, and observers notified for visual feedback. Discrete
// input handlers must read Current, never the observer copies, so that a
// click or key press always sees the point of the most recent pointer event.
type HoverTracker struct {
	latest   atomic.Pointer[core.HoverPoint]
	onChange func(*core.HoverPoint)
}

// NewHoverTracker creates a tracker. onChange may be nil.
func NewHoverTracker(onChange func(*core.HoverPoint)) *HoverTracker {
	return &HoverTracker{onChange: onChange}
}

// OnHover records point as the current hover. A nil point clears it.
func (h *HoverTracker) OnHover(point *core.HoverPoint) {
	var stored *core.HoverPoint
	if point != nil {
		p := *point
		stored = &p
	}

	h.latest.Store(stored)

	if h.onChange != nil {
		h.onChange(stored)
	}
}

// Current returns the point of the most recent pointer event, or nil
func (h *HoverTracker) Current() *core.HoverPoint {
	p := h.latest.Load()
	if p == nil {
		return nil
	}
	point := *p
	return &point
}
