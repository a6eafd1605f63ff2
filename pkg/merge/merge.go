// Package merge joins benchmark, strategy equity and trade series into
// display records keyed by time.
package merge

import "github.com/raykavin/markfactory/pkg/core"

// Merge builds one display record per benchmark key, in benchmark order.
//
// The benchmark defines the time range: strategy points and trades whose
// key is not in the benchmark are dropped. Duplicate keys inside one source
// resolve to the last entry. Inputs are never modified and each call
// starts from a fresh index.
func Merge(benchmark, strategy []core.TimePoint, trades []core.MarkedTrade) []core.DisplayRecord {
	records := make([]core.DisplayRecord, 0, len(benchmark))
	index := make(map[string]int, len(benchmark))

	for _, b := range benchmark {
		record := core.DisplayRecord{
			Date:      b.TimeKey,
			Price:     copyValue(b.Price),
			Benchmark: copyValue(b.BenchmarkEquity),
		}

		if i, ok := index[b.TimeKey]; ok {
			records[i] = record
			continue
		}

		index[b.TimeKey] = len(records)
		records = append(records, record)
	}

	for _, s := range strategy {
		i, ok := index[s.TimeKey]
		if !ok || s.StrategyEquity == nil {
			continue
		}
		records[i].Strategy = copyValue(s.StrategyEquity)
	}

	applyTrades(records, index, trades)

	return records
}

// Overlay returns a copy of records with the marker fields of trades applied.
// Existing overlays are kept unless a trade of the same side replaces them.
func Overlay(records []core.DisplayRecord, trades []core.MarkedTrade) []core.DisplayRecord {
	out := make([]core.DisplayRecord, len(records))
	index := make(map[string]int, len(records))

	for i, r := range records {
		out[i] = r
		index[r.Date] = i
	}

	applyTrades(out, index, trades)

	return out
}

func applyTrades(records []core.DisplayRecord, index map[string]int, trades []core.MarkedTrade) {
	for _, t := range trades {
		i, ok := index[t.TimeKey]
		if !ok {
			continue
		}

		value, ok := records[i].Value()
		if !ok {
			continue
		}

		switch t.Side {
		case core.SideTypeBuy:
			records[i].BuyOverlay = core.Float(value)
		case core.SideTypeSell:
			records[i].SellOverlay = core.Float(value)
		}
	}
}

func copyValue(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return core.Float(*v)
}
