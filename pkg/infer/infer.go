// Package infer derives simple entry rules from user marked trades by
// looking at indicator values under each mark.
package infer

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/raykavin/markfactory/pkg/core"
	"gonum.org/v1/gonum/stat"
)

// ErrNotEnoughMarks is returned when fewer than MinMarks marks fall on usable candles
var ErrNotEnoughMarks = errors.New("not enough matched trades to infer a pattern, mark more points exactly on candles")

const (
	// MinMarks is the number of matched marks needed to infer anything
	MinMarks = 2

	// rows before the 20 period Bollinger window has a value
	warmup = 19

	lowRSI          = 40.0
	trendDistance   = 0.005
	defaultRSIBuy   = 30
	disabledRSIBuy  = 100
	trendAboveEMA   = "ABOVE_EMA200"
	learnedStrategy = "LEARNED"
)

// features are the indicator readings under one candle
type features struct {
	rsi        float64
	ema200Dist float64
	macd       float64
	bbPosition float64
}

// FromMarks analyses BUY marks against RSI, EMA200, MACD and Bollinger bands
func FromMarks(candles []core.Candle, marks []core.MarkedTrade) (*core.InferResult, error) {
	table := indicatorTable(candles)

	var buys []features
	matched := 0

	for _, mark := range marks {
		f, ok := table[normalizeKey(mark.TimeKey)]
		if !ok {
			continue
		}

		matched++
		if mark.Side == core.SideTypeBuy {
			buys = append(buys, f)
		}
	}

	if matched < MinMarks {
		return nil, fmt.Errorf("%w (matched %d)", ErrNotEnoughMarks, matched)
	}

	result := &core.InferResult{
		Type:   learnedStrategy,
		Params: make(map[string]any),
	}

	if len(buys) > 0 {
		rsiMean, rsiStd := meanStd(pick(buys, func(f features) float64 { return f.rsi }))
		if rsiMean < lowRSI {
			result.Params["rsi_buy"] = int(rsiMean + rsiStd + 2)
			result.Explanation = append(result.Explanation,
				fmt.Sprintf("You tend to buy when RSI is low (avg %.1f).", rsiMean))
		} else {
			result.Params["rsi_buy"] = disabledRSIBuy
		}

		distMean, _ := meanStd(pick(buys, func(f features) float64 { return f.ema200Dist }))
		if distMean > trendDistance {
			result.Params["trend_filter"] = trendAboveEMA
			result.Explanation = append(result.Explanation,
				"Your entries mostly occur in an Uptrend (Above EMA200).")
		}

		macdMean, _ := meanStd(pick(buys, func(f features) float64 { return f.macd }))
		result.Params["macd_buy"] = math.Round(macdMean*10000) / 10000

		bbMean, _ := meanStd(pick(buys, func(f features) float64 { return f.bbPosition }))
		result.Params["bb_position"] = math.Round(bbMean*100) / 100
	}

	if _, ok := result.Params["rsi_buy"]; !ok {
		result.Params["rsi_buy"] = defaultRSIBuy
		result.Explanation = append(result.Explanation, "No strong RSI pattern found, defaulting to RSI < 30.")
	}

	result.Description = strings.Join(result.Explanation, " ")

	return result, nil
}

// indicatorTable computes features for every candle past the warmup, by time key
func indicatorTable(candles []core.Candle) map[string]features {
	table := make(map[string]features)
	if len(candles) <= warmup {
		return table
	}

	closes := core.Closes(candles)
	rsi := talib.Rsi(closes, 14)
	ema200 := ema(closes, 200)
	macd := talib.Sub(ema(closes, 12), ema(closes, 26))
	upper, _, lower := talib.BBands(closes, 20, 2.0, 2.0, talib.SMA)

	for i := warmup; i < len(candles); i++ {
		f := features{rsi: rsi[i], macd: macd[i], bbPosition: 0.5}

		if ema200[i] != 0 {
			f.ema200Dist = (closes[i] - ema200[i]) / ema200[i]
		}

		if width := upper[i] - lower[i]; width > 0 {
			f.bbPosition = (closes[i] - lower[i]) / width
		}

		table[candles[i].TimeKey()] = f
	}

	return table
}

// ema is an exponential average seeded with the first value, so it has a
// value from the first row on. talib.Ema seeds with an SMA and stays empty
// for a whole period.
func ema(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	alpha := 2 / (float64(span) + 1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// normalizeKey brings a mark date to the candle key layout when it parses
func normalizeKey(key string) string {
	for _, layout := range []string{core.TimeKeyLayout, time.RFC3339, "2006-01-02T15:04", time.DateTime} {
		if t, err := time.Parse(layout, key); err == nil {
			return t.Format(core.TimeKeyLayout)
		}
	}
	return key
}

func pick(items []features, value func(features) float64) []float64 {
	out := make([]float64, len(items))
	for i, item := range items {
		out[i] = value(item)
	}
	return out
}

// meanStd returns the mean and the population standard deviation
func meanStd(values []float64) (float64, float64) {
	if len(values) < 2 {
		return stat.Mean(values, nil), 0
	}

	mean, variance := stat.MeanVariance(values, nil)
	n := float64(len(values))
	return mean, math.Sqrt(variance * (n - 1) / n)
}
