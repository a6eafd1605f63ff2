package merge

import (
	"github.com/raykavin/markfactory/pkg/core"
	"github.com/samber/lo"
)

// Series is a provider response converted to merge inputs
type Series struct {
	Benchmark []core.TimePoint
	Strategy  []core.TimePoint
	Trades    []core.MarkedTrade
}

// FromComparison validates a comparison payload and converts it.
// Entries without a date are dropped, as are trades with an unknown side.
// A nil comparison yields empty series.
func FromComparison(c *core.Comparison) Series {
	var series Series
	if c == nil {
		return series
	}

	series.Benchmark = lo.FilterMap(c.Benchmark, func(b core.BenchmarkPoint, _ int) (core.TimePoint, bool) {
		if b.Date == nil || *b.Date == "" {
			return core.TimePoint{}, false
		}
		return core.TimePoint{
			TimeKey:         *b.Date,
			Price:           b.Price,
			BenchmarkEquity: b.Equity,
		}, true
	})

	if c.Strategy == nil {
		return series
	}

	series.Strategy = lo.FilterMap(c.Strategy.EquityCurve, func(s core.EquityPoint, _ int) (core.TimePoint, bool) {
		if s.Date == nil || *s.Date == "" {
			return core.TimePoint{}, false
		}
		return core.TimePoint{
			TimeKey:        *s.Date,
			StrategyEquity: s.Equity,
		}, true
	})

	series.Trades = lo.FilterMap(c.Strategy.Trades, func(t core.TradeEvent, _ int) (core.MarkedTrade, bool) {
		if t.Date == nil || *t.Date == "" || t.Side == nil {
			return core.MarkedTrade{}, false
		}

		side, err := core.ParseSide(*t.Side)
		if err != nil {
			return core.MarkedTrade{}, false
		}

		trade := core.MarkedTrade{TimeKey: *t.Date, Side: side}
		if t.Price != nil {
			trade.Price = *t.Price
		}
		return trade, true
	})

	return series
}

// Records merges the series, adding extra trades after the provider ones
func (s Series) Records(extra ...core.MarkedTrade) []core.DisplayRecord {
	trades := make([]core.MarkedTrade, 0, len(s.Trades)+len(extra))
	trades = append(trades, s.Trades...)
	trades = append(trades, extra...)

	return Merge(s.Benchmark, s.Strategy, trades)
}
