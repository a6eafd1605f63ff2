package plot

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/raykavin/markfactory/pkg/core"
	"github.com/raykavin/markfactory/pkg/merge"
	"github.com/samber/lo"
)

// handleHealth handles health check requests
func (c *Chart) handleHealth(w http.ResponseWriter, _ *http.Request) {
	c.Lock()
	lastUpdate := c.lastUpdate
	c.Unlock()

	c.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"factoryMode": c.controller.Enabled(),
		"marks":       len(c.controller.Marks()),
		"clients":     c.sockets.ClientCount(),
		"lastUpdate":  lastUpdate,
	})
}

// handleIndex handles the main page request
func (c *Chart) handleIndex(w http.ResponseWriter, _ *http.Request) {
	request := c.Request()

	w.Header().Set("Content-Type", "text/html")
	err := c.indexHTML.Execute(w, map[string]any{
		"market":      request.Market,
		"timeframe":   request.Timeframe,
		"factoryMode": c.controller.Enabled(),
		"buyKey":      c.buyKey,
		"sellKey":     c.sellKey,
	})
	if err != nil {
		c.log.Error("Template execution failed: ", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// handleData handles chart data requests
func (c *Chart) handleData(w http.ResponseWriter, _ *http.Request) {
	c.writeJSON(w, http.StatusOK, c.State())
}

// handleMarksExport handles CSV export of the user marks
func (c *Chart) handleMarksExport(w http.ResponseWriter, _ *http.Request) {
	market := c.Request().Market
	if market == "" {
		market = "chart"
	}

	rows := lo.Map(c.controller.Marks(), func(m core.MarkedTrade, _ int) []string {
		return []string{m.TimeKey, m.Side.String(), strconv.FormatFloat(m.Price, 'f', -1, 64)}
	})

	buffer := bytes.NewBuffer(nil)
	csvWriter := csv.NewWriter(buffer)

	if err := csvWriter.Write([]string{"date", "side", "price"}); err != nil {
		c.log.Error("Failed writing CSV header: ", err)
		http.Error(w, "Failed to generate CSV", http.StatusInternalServerError)
		return
	}

	if err := csvWriter.WriteAll(rows); err != nil {
		c.log.Error("Failed writing CSV data: ", err)
		http.Error(w, "Failed to generate CSV", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment;filename=marks_"+strings.ToLower(market)+".csv")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buffer.Bytes()); err != nil {
		c.log.Error("Failed writing CSV response: ", err)
	}
}

// handleClearMarks removes every user mark
func (c *Chart) handleClearMarks(w http.ResponseWriter, _ *http.Request) {
	c.controller.ClearMarks()
	c.writeJSON(w, http.StatusOK, c.State())
}

// handleLoad fetches a comparison and replaces the chart series
func (c *Chart) handleLoad(w http.ResponseWriter, r *http.Request) {
	if c.provider == nil {
		http.Error(w, "no provider configured", http.StatusServiceUnavailable)
		return
	}

	var body loadRequest
	if err := decodeBody(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	current := c.Request()
	request := core.Request{
		Market:    lo.CoalesceOrEmpty(body.Market, current.Market),
		Timeframe: lo.CoalesceOrEmpty(body.Timeframe, current.Timeframe),
		Logic:     body.Logic,
	}
	if request.Logic == nil {
		request.Logic = current.Logic
	}

	if request.Market == "" || request.Timeframe == "" {
		http.Error(w, "market and timeframe are required", http.StatusBadRequest)
		return
	}

	if err := c.Load(r.Context(), request); err != nil {
		http.Error(w, err.Error(), providerStatus(err))
		return
	}

	c.writeJSON(w, http.StatusOK, c.State())
}

// Load fetches the comparison for request and replaces the chart series.
// The series are only swapped after a successful fetch. Switching market
// or timeframe drops the marks.
func (c *Chart) Load(ctx context.Context, request core.Request) error {
	if c.provider == nil {
		return fmt.Errorf("%w: no provider configured", core.ErrNotSupported)
	}

	log := c.log.WithFields(map[string]any{"market": request.Market, "timeframe": request.Timeframe})

	comparison, err := c.provider.Compare(ctx, request)
	if err != nil {
		log.WithError(err).Error("failed to load comparison")
		return err
	}

	series := merge.FromComparison(comparison)

	c.Lock()
	current := c.request
	changed := !strings.EqualFold(current.Market, request.Market) || current.Timeframe != request.Timeframe
	c.request = request
	c.lastUpdate = time.Now()
	c.Unlock()

	c.controller.LoadSeries(series, changed)

	log.Infof("loaded %d benchmark points", len(series.Benchmark))
	return nil
}

// handleInfer sends the current marks to the provider for strategy inference
func (c *Chart) handleInfer(w http.ResponseWriter, r *http.Request) {
	if c.provider == nil {
		http.Error(w, "no provider configured", http.StatusServiceUnavailable)
		return
	}

	marks := c.controller.Marks()
	if len(marks) < 2 {
		http.Error(w, "mark at least 2 trades to infer a strategy", http.StatusBadRequest)
		return
	}

	current := c.Request()
	request := core.Request{
		Market:    current.Market,
		Timeframe: current.Timeframe,
		Logic:     map[string]any{"marked_trades": marks},
	}

	result, err := c.provider.Infer(r.Context(), request)
	if err != nil {
		c.log.WithError(err).Error("inference failed")
		http.Error(w, err.Error(), providerStatus(err))
		return
	}

	c.writeJSON(w, http.StatusOK, result)
}

// handleMode switches labeling mode. Without a body it toggles.
func (c *Chart) handleMode(w http.ResponseWriter, r *http.Request) {
	var body modePayload
	if err := decodeBody(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c.setMode(body)
	c.writeJSON(w, http.StatusOK, map[string]bool{"factoryMode": c.controller.Enabled()})
}

func (c *Chart) setMode(mode modePayload) {
	enabled := !c.controller.Enabled()
	if mode.Enabled != nil {
		enabled = *mode.Enabled
	}

	c.controller.SetEnabled(enabled)
	c.sockets.BroadcastState(c.State())
}

func (c *Chart) writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		c.log.Error("JSON encoding failed: ", err)
	}
}

// decodeBody decodes a JSON body, accepting an empty one
func decodeBody(r *http.Request, target any) error {
	err := json.NewDecoder(r.Body).Decode(target)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func providerStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrNotSupported):
		return http.StatusNotImplemented
	case errors.Is(err, core.ErrInvalidTimeframe):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
