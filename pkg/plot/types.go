package plot

import (
	"encoding/json"

	"github.com/raykavin/markfactory/pkg/core"
)

// PointerPayload carries the series values under the pointer
type PointerPayload struct {
	Price     *float64 `json:"price,omitempty"`
	Benchmark *float64 `json:"benchmark,omitempty"`
	Strategy  *float64 `json:"strategy,omitempty"`
}

// PointerEvent is what the chart reports while the pointer moves over it.
// Label is the time key of the nearest category.
type PointerEvent struct {
	Label   string         `json:"label"`
	Payload PointerPayload `json:"payload"`
}

// ClickEvent is a click on the chart. Position is nil when the chart
// could not resolve the click to a category.
type ClickEvent struct {
	Position *PointerEvent `json:"position,omitempty"`
}

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// inboundMessage is a chart event received over WebSocket
type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type keyPayload struct {
	Key string `json:"key"`
}

type modePayload struct {
	Enabled *bool `json:"enabled"`
}

// State is the renderable chart state
type State struct {
	Market      string               `json:"market"`
	Timeframe   string               `json:"timeframe"`
	FactoryMode bool                 `json:"factoryMode"`
	Records     []core.DisplayRecord `json:"records"`
	Marks       []core.MarkedTrade   `json:"marks"`
}

type loadRequest struct {
	Market    string         `json:"market"`
	Timeframe string         `json:"timeframe"`
	Logic     map[string]any `json:"logic"`
}
