package label

import (
	"strings"

	"github.com/raykavin/markfactory/pkg/core"
)

// KeyDispatcher maps key presses to forced-side toggles on the hovered point
type KeyDispatcher struct {
	hover    *HoverTracker
	marks    *MarkSet
	bindings map[string]core.SideType
}

// KeyOption configures a KeyDispatcher
type KeyOption func(*KeyDispatcher)

// WithBinding binds key to side, replacing the previous key of that side.
// A blank key is ignored.
func WithBinding(key string, side core.SideType) KeyOption {
	return func(d *KeyDispatcher) {
		key = normalizeKey(key)
		if key == "" {
			return
		}

		for k, s := range d.bindings {
			if s == side {
				delete(d.bindings, k)
			}
		}
		d.bindings[key] = side
	}
}

// NewKeyDispatcher creates a dispatcher bound to "b" for BUY and "s" for SELL
func NewKeyDispatcher(hover *HoverTracker, marks *MarkSet, options ...KeyOption) *KeyDispatcher {
	d := &KeyDispatcher{
		hover: hover,
		marks: marks,
		bindings: map[string]core.SideType{
			"b": core.SideTypeBuy,
			"s": core.SideTypeSell,
		},
	}

	for _, option := range options {
		option(d)
	}

	return d
}

// Dispatch handles a key press. It reports whether the mark set was touched.
func (d *KeyDispatcher) Dispatch(key string) bool {
	side, ok := d.bindings[normalizeKey(key)]
	if !ok {
		return false
	}

	point := d.hover.Current()
	if point == nil {
		return false
	}

	d.marks.Apply(*point, &side)
	return true
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
