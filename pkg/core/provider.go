package core

import "context"

// Request is the shape shared by every provider operation
type Request struct {
	Market    string         `json:"market"`
	Timeframe string         `json:"timeframe"`
	Logic     map[string]any `json:"logic,omitempty"`
}

// LogicType returns the "type" entry of the request logic, if any
func (r Request) LogicType() string {
	if r.Logic == nil {
		return ""
	}
	t, _ := r.Logic["type"].(string)
	return t
}

// Provider is the external backtest collaborator. Every response field is optional.
type Provider interface {
	Compare(ctx context.Context, req Request) (*Comparison, error)
	Run(ctx context.Context, req Request) (*StrategyResult, error)
	Scan(ctx context.Context, req Request) (*ScanResult, error)
	Optimize(ctx context.Context, req Request) (*OptimizeResult, error)
	Train(ctx context.Context, req Request) (*TrainResult, error)
	Infer(ctx context.Context, req Request) (*InferResult, error)
}

// BenchmarkPoint is one entry of the Buy & Hold curve
type BenchmarkPoint struct {
	Date   *string  `json:"date,omitempty"`
	Equity *float64 `json:"equity,omitempty"`
	Price  *float64 `json:"price,omitempty"`
}

// EquityPoint is one entry of a strategy equity curve
type EquityPoint struct {
	Date   *string  `json:"date,omitempty"`
	Equity *float64 `json:"equity,omitempty"`
	Price  *float64 `json:"price,omitempty"`
}

// TradeEvent is a trade reported by the provider
type TradeEvent struct {
	Date  *string  `json:"date,omitempty"`
	Side  *string  `json:"side,omitempty"`
	Price *float64 `json:"price,omitempty"`
	Type  *string  `json:"type,omitempty"`
}

// Metrics summarizes a strategy run
type Metrics struct {
	TotalReturnPct *float64 `json:"total_return_pct,omitempty"`
	TotalTrades    *int     `json:"total_trades,omitempty"`
	FinalEquity    *float64 `json:"final_equity,omitempty"`
}

// StrategyResult is the output of a single strategy run
type StrategyResult struct {
	EquityCurve []EquityPoint `json:"equity_curve,omitempty"`
	Trades      []TradeEvent  `json:"trades,omitempty"`
	Metrics     *Metrics      `json:"metrics,omitempty"`
}

// Comparison is a strategy run side by side with a Buy & Hold benchmark
type Comparison struct {
	Benchmark []BenchmarkPoint `json:"benchmark,omitempty"`
	Strategy  *StrategyResult  `json:"strategy,omitempty"`
}

// MarketScore is a scan entry for one market
type MarketScore struct {
	Market      string   `json:"market"`
	ReturnPct   *float64 `json:"return_pct,omitempty"`
	Trades      *int     `json:"trades,omitempty"`
	FinalEquity *float64 `json:"final_equity,omitempty"`
}

// ScanResult ranks markets by strategy return
type ScanResult struct {
	BestAsset  *MarketScore  `json:"best_asset,omitempty"`
	AllResults []MarketScore `json:"all_results,omitempty"`
}

// OptimizeResult reports parameter improvements
type OptimizeResult struct {
	OriginalReturn *float64       `json:"original_return,omitempty"`
	BestReturn     *float64       `json:"best_return,omitempty"`
	ImprovedParams map[string]any `json:"improved_params,omitempty"`
	ImprovementLog []string       `json:"improvement_log,omitempty"`
}

// TrainResult holds learned parameters
type TrainResult struct {
	LearnedParams map[string]any `json:"learned_params,omitempty"`
	Message       string         `json:"message,omitempty"`
}

// InferResult is the strategy inferred from marked trades
type InferResult struct {
	Type        string         `json:"type,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
	Explanation []string       `json:"explanation,omitempty"`
	Description string         `json:"description,omitempty"`
}
