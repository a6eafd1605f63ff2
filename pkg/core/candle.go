package core

import (
	"fmt"
	"time"
)

// TimeKeyLayout is the layout used to render candle times as join keys
const TimeKeyLayout = "2006-01-02 15:04"

// Candle represents OHLCV data for one period of a market
type Candle struct {
	Market string
	Time   time.Time
	Open   float64
	Close  float64
	Low    float64
	High   float64
	Volume float64
}

// TimeKey returns the join key of the candle
func (c Candle) TimeKey() string {
	return c.Time.Format(TimeKeyLayout)
}

func (c Candle) String() string {
	return fmt.Sprintf("[%s] %s | O: %f, H: %f, L: %f, C: %f, V: %f",
		c.Market, c.Time.Format(TimeKeyLayout), c.Open, c.High, c.Low, c.Close, c.Volume)
}

// Closes returns the close prices of the candles, in order
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
