package plot

import (
	"sync"
	"sync/atomic"

	"github.com/raykavin/markfactory/pkg/core"
	"github.com/raykavin/markfactory/pkg/label"
	"github.com/raykavin/markfactory/pkg/logger"
	"github.com/raykavin/markfactory/pkg/merge"
)

// Controller owns the labeling state of one chart.
//
// Events are handled one at a time, in arrival order. Pointer motion writes
// the hover cell before PointerMove returns, so a click or key press that
// follows always sees it.
type Controller struct {
	mu      sync.Mutex
	enabled atomic.Bool

	series merge.Series
	hover  *label.HoverTracker
	marks  *label.MarkSet
	keys   *label.KeyDispatcher

	keyOptions []label.KeyOption
	onHover    func(*core.HoverPoint)
	onRecords  func([]core.DisplayRecord)
	log        logger.Logger
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// WithHoverListener is called with every hover change, nil when cleared
func WithHoverListener(fn func(*core.HoverPoint)) ControllerOption {
	return func(c *Controller) {
		c.onHover = fn
	}
}

// WithRecordsListener is called with the merged records after every mutation
func WithRecordsListener(fn func([]core.DisplayRecord)) ControllerOption {
	return func(c *Controller) {
		c.onRecords = fn
	}
}

// WithKeyOptions configures the keyboard bindings
func WithKeyOptions(options ...label.KeyOption) ControllerOption {
	return func(c *Controller) {
		c.keyOptions = append(c.keyOptions, options...)
	}
}

// NewController creates a controller with labeling disabled
func NewController(log logger.Logger, options ...ControllerOption) *Controller {
	c := &Controller{
		marks: label.NewMarkSet(),
		log:   log,
	}

	for _, option := range options {
		option(c)
	}

	c.hover = label.NewHoverTracker(c.onHover)
	c.keys = label.NewKeyDispatcher(c.hover, c.marks, c.keyOptions...)

	return c
}

// SetEnabled switches labeling mode. Leaving it drops the hover point.
func (c *Controller) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled.Store(enabled)
	if !enabled && c.hover.Current() != nil {
		c.hover.OnHover(nil)
	}

	c.log.WithField("enabled", enabled).Debug("labeling mode changed")
}

// Enabled reports whether labeling mode is on
func (c *Controller) Enabled() bool {
	return c.enabled.Load()
}

// Hover returns the current hover point, or nil
func (c *Controller) Hover() *core.HoverPoint {
	return c.hover.Current()
}

// PointerMove updates the hover point from a pointer event.
// Events without a label or without any usable value are ignored.
func (c *Controller) PointerMove(ev PointerEvent) bool {
	point, ok := ev.point()
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled.Load() {
		return false
	}

	c.hover.OnHover(&point)
	return true
}

// PointerLeave clears the hover point
func (c *Controller) PointerLeave() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hover.Current() != nil {
		c.hover.OnHover(nil)
	}
}

// Click toggles the mark at the clicked point. The click position wins;
// without one the current hover point is used.
func (c *Controller) Click(ev ClickEvent) bool {
	c.mu.Lock()
	if !c.enabled.Load() {
		c.mu.Unlock()
		return false
	}

	point, ok := c.clickPoint(ev)
	if !ok {
		c.mu.Unlock()
		return false
	}

	mark := c.marks.Apply(point, nil)
	records := c.records()
	c.mu.Unlock()

	c.log.WithFields(map[string]any{
		"date":   point.TimeKey,
		"marked": mark != nil,
	}).Debug("click")

	c.notify(records)
	return true
}

func (c *Controller) clickPoint(ev ClickEvent) (core.HoverPoint, bool) {
	if ev.Position != nil {
		if point, ok := ev.Position.point(); ok {
			return point, true
		}
	}

	if hover := c.hover.Current(); hover != nil {
		return *hover, true
	}

	return core.HoverPoint{}, false
}

// Key applies a directed mark for key at the hover point
func (c *Controller) Key(key string) bool {
	c.mu.Lock()
	if !c.enabled.Load() || !c.keys.Dispatch(key) {
		c.mu.Unlock()
		return false
	}
	records := c.records()
	c.mu.Unlock()

	c.notify(records)
	return true
}

// Load replaces the base series. Marks are kept.
func (c *Controller) Load(benchmark, strategy []core.TimePoint, trades []core.MarkedTrade) {
	c.LoadSeries(merge.Series{Benchmark: benchmark, Strategy: strategy, Trades: trades}, false)
}

// LoadSeries replaces the base series with already converted ones,
// dropping the marks in the same step when clearMarks is set
func (c *Controller) LoadSeries(series merge.Series, clearMarks bool) {
	c.mu.Lock()
	c.series = series
	if clearMarks {
		c.marks.Clear()
	}
	records := c.records()
	c.mu.Unlock()

	c.notify(records)
}

// Records returns the base series merged with the provider trades and the
// user marks. Marks are applied last.
func (c *Controller) Records() []core.DisplayRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.records()
}

func (c *Controller) records() []core.DisplayRecord {
	return c.series.Records(c.marks.Trades()...)
}

// Marks returns the user marks in labeling order
func (c *Controller) Marks() []core.MarkedTrade {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.marks.Trades()
}

// ClearMarks removes every user mark
func (c *Controller) ClearMarks() {
	c.mu.Lock()
	c.marks.Clear()
	records := c.records()
	c.mu.Unlock()

	c.notify(records)
}

func (c *Controller) notify(records []core.DisplayRecord) {
	if c.onRecords != nil {
		c.onRecords(records)
	}
}

// point resolves the event to a hover point using the first present
// value among price, strategy and benchmark
func (ev PointerEvent) point() (core.HoverPoint, bool) {
	if ev.Label == "" {
		return core.HoverPoint{}, false
	}

	price, ok := core.BestValue(ev.Payload.Price, ev.Payload.Strategy, ev.Payload.Benchmark)
	if !ok {
		return core.HoverPoint{}, false
	}

	return core.HoverPoint{TimeKey: ev.Label, Price: price}, true
}
