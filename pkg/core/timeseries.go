package core

// TimePoint is a single entry of a source series, joined across series by TimeKey.
// Optional values are nil when the source did not carry them.
type TimePoint struct {
	TimeKey         string
	Price           *float64
	BenchmarkEquity *float64
	StrategyEquity  *float64
}

// MarkedTrade is a user labeled point. A mark set holds at most one per TimeKey.
type MarkedTrade struct {
	TimeKey string   `json:"date"`
	Price   float64  `json:"price"`
	Side    SideType `json:"side"`
}

// HoverPoint is the last pointer position inside the chart data space
type HoverPoint struct {
	TimeKey string  `json:"date"`
	Price   float64 `json:"price"`
}

// DisplayRecord is a TimePoint ready to be rendered, with optional marker overlays
type DisplayRecord struct {
	Date        string   `json:"date"`
	Price       *float64 `json:"price,omitempty"`
	Benchmark   *float64 `json:"benchmark,omitempty"`
	Strategy    *float64 `json:"strategy,omitempty"`
	BuyOverlay  *float64 `json:"buyPoint,omitempty"`
	SellOverlay *float64 `json:"sellPoint,omitempty"`
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// BestValue picks the first available value in priority order:
// raw price, then strategy equity, then benchmark equity.
func BestValue(price, strategy, benchmark *float64) (float64, bool) {
	for _, v := range []*float64{price, strategy, benchmark} {
		if v != nil {
			return *v, true
		}
	}
	return 0, false
}

// Value returns the overlay value of the record, if any
func (r DisplayRecord) Value() (float64, bool) {
	return BestValue(r.Price, r.Strategy, r.Benchmark)
}

// Value returns the best available value of the point, if any
func (p TimePoint) Value() (float64, bool) {
	return BestValue(p.Price, p.StrategyEquity, p.BenchmarkEquity)
}
