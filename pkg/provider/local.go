package provider

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/raykavin/markfactory/pkg/core"
	"github.com/raykavin/markfactory/pkg/infer"
	"github.com/raykavin/markfactory/pkg/logger"
	"github.com/samber/lo"
)

// InitialCapital is the Buy & Hold starting equity
const InitialCapital = 10000.0

var defaultHeaderMap = map[string]int{
	"time": 0, "open": 1, "close": 2, "low": 3, "high": 4, "volume": 5,
}

// Local answers provider requests from candle files named <MARKET>-<timeframe>.csv.
// It only knows the Buy & Hold strategy and mark inference.
type Local struct {
	dir     string
	markets []string
	log     logger.Logger
}

// NewLocal creates a provider reading candles from dir.
// markets is the universe used by Scan.
func NewLocal(dir string, markets []string, log logger.Logger) *Local {
	return &Local{dir: dir, markets: markets, log: log}
}

// Candles loads the candles of market in timeframe, sorted by time
func (l *Local) Candles(market, timeframe string) ([]core.Candle, error) {
	if err := ValidateTimeframe(timeframe); err != nil {
		return nil, err
	}

	path := filepath.Join(l.dir, fmt.Sprintf("%s-%s.csv", strings.ToUpper(market), timeframe))
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open candles for %s: %w", market, err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrEmptySeries, path)
	}

	headers, hasHeader := parseHeaders(rows[0])
	if hasHeader {
		rows = rows[1:]
	}

	candles := make([]core.Candle, 0, len(rows))
	for i, row := range rows {
		candle, err := parseCandle(row, headers)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+1, err)
		}
		candle.Market = strings.ToUpper(market)
		candles = append(candles, candle)
	}

	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrEmptySeries, path)
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})

	return candles, nil
}

// parseHeaders returns the column index by name and whether the first row was a header
func parseHeaders(first []string) (map[string]int, bool) {
	if _, err := strconv.ParseInt(first[0], 10, 64); err == nil {
		return defaultHeaderMap, false
	}
	if _, err := parseTime(first[0]); err == nil {
		return defaultHeaderMap, false
	}

	headers := make(map[string]int, len(first))
	for i, name := range first {
		headers[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return headers, true
}

func parseCandle(row []string, headers map[string]int) (core.Candle, error) {
	field := func(name string) (string, error) {
		i, ok := headers[name]
		if !ok || i >= len(row) {
			return "", fmt.Errorf("missing column %q", name)
		}
		return row[i], nil
	}

	var candle core.Candle

	raw, err := field("time")
	if err != nil {
		return candle, err
	}
	if candle.Time, err = parseTime(raw); err != nil {
		return candle, err
	}

	for name, target := range map[string]*float64{
		"open": &candle.Open, "close": &candle.Close, "low": &candle.Low,
		"high": &candle.High, "volume": &candle.Volume,
	} {
		raw, err := field(name)
		if err != nil {
			return candle, err
		}
		if *target, err = strconv.ParseFloat(raw, 64); err != nil {
			return candle, fmt.Errorf("invalid %s %q: %w", name, raw, err)
		}
	}

	return candle, nil
}

func parseTime(raw string) (time.Time, error) {
	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(seconds, 0).UTC(), nil
	}

	for _, layout := range []string{time.RFC3339, core.TimeKeyLayout, time.DateTime, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid time %q", raw)
}

// Compare answers with the Buy & Hold benchmark. The HOLD strategy, also the
// default, mirrors the benchmark without trades.
func (l *Local) Compare(_ context.Context, req core.Request) (*core.Comparison, error) {
	if t := strings.ToUpper(req.LogicType()); t != "" && t != "HOLD" {
		return nil, fmt.Errorf("%w: logic %q", core.ErrNotSupported, t)
	}

	candles, err := l.Candles(req.Market, req.Timeframe)
	if err != nil {
		return nil, err
	}

	benchmark := BuyAndHold(candles)
	curve := lo.Map(benchmark, func(b core.BenchmarkPoint, _ int) core.EquityPoint {
		return core.EquityPoint{Date: b.Date, Equity: b.Equity, Price: b.Price}
	})

	final := *benchmark[len(benchmark)-1].Equity
	trades := 0

	return &core.Comparison{
		Benchmark: benchmark,
		Strategy: &core.StrategyResult{
			EquityCurve: curve,
			Trades:      []core.TradeEvent{},
			Metrics: &core.Metrics{
				TotalReturnPct: core.Float(round((final/InitialCapital-1)*100, 2)),
				TotalTrades:    &trades,
				FinalEquity:    core.Float(final),
			},
		},
	}, nil
}

// BuyAndHold computes the equity of holding from the first candle on
func BuyAndHold(candles []core.Candle) []core.BenchmarkPoint {
	if len(candles) == 0 {
		return nil
	}

	initial := candles[0].Close
	return lo.Map(candles, func(c core.Candle, _ int) core.BenchmarkPoint {
		date := c.TimeKey()
		equity := 0.0
		if initial != 0 {
			equity = round(InitialCapital*(c.Close/initial), 2)
		}
		return core.BenchmarkPoint{Date: &date, Equity: core.Float(equity), Price: core.Float(c.Close)}
	})
}

// Scan compares every configured market and ranks them by return.
// Markets without data are skipped.
func (l *Local) Scan(ctx context.Context, req core.Request) (*core.ScanResult, error) {
	results := make([]core.MarketScore, 0, len(l.markets))

	for _, market := range l.markets {
		r := req
		r.Market = market

		comparison, err := l.Compare(ctx, r)
		if err != nil {
			if errors.Is(err, core.ErrNotSupported) {
				return nil, err
			}
			l.log.WithField("market", market).WithError(err).Warn("skipping market")
			continue
		}

		metrics := comparison.Strategy.Metrics
		results = append(results, core.MarketScore{
			Market:      market,
			ReturnPct:   metrics.TotalReturnPct,
			Trades:      metrics.TotalTrades,
			FinalEquity: metrics.FinalEquity,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return *results[i].ReturnPct > *results[j].ReturnPct
	})

	scan := &core.ScanResult{AllResults: results}
	if len(results) > 0 {
		best := results[0]
		scan.BestAsset = &best
	}

	return scan, nil
}

// Infer reads marked_trades from the request logic and infers a strategy
func (l *Local) Infer(_ context.Context, req core.Request) (*core.InferResult, error) {
	marks, err := MarkedTrades(req.Logic)
	if err != nil {
		return nil, err
	}
	if len(marks) == 0 {
		return nil, fmt.Errorf("%w: no trades marked", core.ErrProvider)
	}

	candles, err := l.Candles(req.Market, req.Timeframe)
	if err != nil {
		return nil, err
	}

	return infer.FromMarks(candles, marks)
}

// Run is not available locally
func (l *Local) Run(context.Context, core.Request) (*core.StrategyResult, error) {
	return nil, fmt.Errorf("%w: run", core.ErrNotSupported)
}

// Optimize is not available locally
func (l *Local) Optimize(context.Context, core.Request) (*core.OptimizeResult, error) {
	return nil, fmt.Errorf("%w: optimize", core.ErrNotSupported)
}

// Train is not available locally
func (l *Local) Train(context.Context, core.Request) (*core.TrainResult, error) {
	return nil, fmt.Errorf("%w: train", core.ErrNotSupported)
}

// MarkedTrades extracts the "marked_trades" entry of a request logic.
// It accepts both decoded JSON and in-process []core.MarkedTrade values.
func MarkedTrades(logic map[string]any) ([]core.MarkedTrade, error) {
	raw, ok := logic["marked_trades"]
	if !ok || raw == nil {
		return nil, nil
	}

	if marks, ok := raw.([]core.MarkedTrade); ok {
		return marks, nil
	}

	content, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid marked_trades: %w", err)
	}

	var marks []core.MarkedTrade
	if err := json.Unmarshal(content, &marks); err != nil {
		return nil, fmt.Errorf("invalid marked_trades: %w", err)
	}

	return lo.FilterMap(marks, func(m core.MarkedTrade, _ int) (core.MarkedTrade, bool) {
		side, err := core.ParseSide(string(m.Side))
		if err != nil || m.TimeKey == "" {
			return m, false
		}
		m.Side = side
		return m, true
	}), nil
}

func round(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
