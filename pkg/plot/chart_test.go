package plot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/raykavin/markfactory/pkg/core"
	"github.com/raykavin/markfactory/pkg/logger/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	comparison *core.Comparison
	inferred   *core.InferResult
	err        error
	requests   []core.Request
}

func (s *stubProvider) Compare(_ context.Context, req core.Request) (*core.Comparison, error) {
	s.requests = append(s.requests, req)
	return s.comparison, s.err
}

func (s *stubProvider) Infer(_ context.Context, req core.Request) (*core.InferResult, error) {
	s.requests = append(s.requests, req)
	return s.inferred, s.err
}

func (s *stubProvider) Run(context.Context, core.Request) (*core.StrategyResult, error) {
	return nil, core.ErrNotSupported
}

func (s *stubProvider) Scan(context.Context, core.Request) (*core.ScanResult, error) {
	return nil, core.ErrNotSupported
}

func (s *stubProvider) Optimize(context.Context, core.Request) (*core.OptimizeResult, error) {
	return nil, core.ErrNotSupported
}

func (s *stubProvider) Train(context.Context, core.Request) (*core.TrainResult, error) {
	return nil, core.ErrNotSupported
}

func date(s string) *string { return &s }

func testComparison() *core.Comparison {
	return &core.Comparison{
		Benchmark: []core.BenchmarkPoint{
			{Date: date("d1"), Equity: price(100), Price: price(10)},
			{Date: date("d2"), Equity: price(110), Price: price(11)},
		},
		Strategy: &core.StrategyResult{
			EquityCurve: []core.EquityPoint{{Date: date("d2"), Equity: price(105)}},
			Trades:      []core.TradeEvent{{Date: date("d1"), Side: date("BUY"), Price: price(10)}},
		},
	}
}

func newTestChart(t *testing.T, provider core.Provider) *Chart {
	t.Helper()

	options := []Option{
		WithFactoryMode(true),
		WithRequest(core.Request{Market: "BTC", Timeframe: "1h"}),
	}
	if provider != nil {
		options = append(options, WithProvider(provider))
	}

	chart, err := NewChart(zerolog.Nop(), options...)
	require.NoError(t, err)
	t.Cleanup(chart.sockets.Close)

	return chart
}

func serve(chart *Chart, method, target, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	chart.Handler().ServeHTTP(recorder, httptest.NewRequest(method, target, strings.NewReader(body)))
	return recorder
}

func decodeState(t *testing.T, recorder *httptest.ResponseRecorder) State {
	t.Helper()

	var state State
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &state))
	return state
}

func TestChart_Assets(t *testing.T) {
	chart := newTestChart(t, nil)

	index := serve(chart, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, index.Code)
	assert.Contains(t, index.Body.String(), `data-market="BTC"`)
	assert.Contains(t, index.Body.String(), "/assets/chart.js")

	script := serve(chart, http.MethodGet, "/assets/chart.js", "")
	require.Equal(t, http.StatusOK, script.Code)
	assert.Equal(t, "application/javascript", script.Header().Get("Content-Type"))
	assert.NotEmpty(t, script.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(chart, http.MethodGet, "/unknown", "").Code)
	assert.Equal(t, http.StatusOK, serve(chart, http.MethodGet, "/health", "").Code)
}

func TestChart_Load(t *testing.T) {
	provider := &stubProvider{comparison: testComparison()}
	chart := newTestChart(t, provider)

	recorder := serve(chart, http.MethodPost, "/load", `{"timeframe":"4h"}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	require.Len(t, provider.requests, 1)
	assert.Equal(t, "BTC", provider.requests[0].Market)
	assert.Equal(t, "4h", provider.requests[0].Timeframe)

	state := decodeState(t, recorder)
	assert.Equal(t, "4h", state.Timeframe)
	require.Len(t, state.Records, 2)
	assert.Equal(t, 10.0, *state.Records[0].BuyOverlay)
	assert.Equal(t, 105.0, *state.Records[1].Strategy)
	assert.True(t, state.FactoryMode)
}

func TestChart_LoadFailureKeepsSeries(t *testing.T) {
	provider := &stubProvider{comparison: testComparison()}
	chart := newTestChart(t, provider)

	require.Equal(t, http.StatusOK, serve(chart, http.MethodPost, "/load", "").Code)

	provider.err = errors.New("boom")
	recorder := serve(chart, http.MethodPost, "/load", `{"market":"ETH"}`)
	assert.Equal(t, http.StatusBadGateway, recorder.Code)

	state := decodeState(t, serve(chart, http.MethodGet, "/data", ""))
	assert.Equal(t, "BTC", state.Market)
	assert.Len(t, state.Records, 2)
}

func TestChart_LoadWithoutProvider(t *testing.T) {
	chart := newTestChart(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, serve(chart, http.MethodPost, "/load", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(chart, http.MethodPost, "/infer", "").Code)
}

func TestChart_LoadOtherMarketClearsMarks(t *testing.T) {
	provider := &stubProvider{comparison: testComparison()}
	chart := newTestChart(t, provider)
	require.Equal(t, http.StatusOK, serve(chart, http.MethodPost, "/load", "").Code)

	require.True(t, chart.Controller().Click(ClickEvent{Position: ptr(move("d2", 11))}))

	require.Equal(t, http.StatusOK, serve(chart, http.MethodPost, "/load", "").Code)
	assert.Len(t, chart.Controller().Marks(), 1)

	state := decodeState(t, serve(chart, http.MethodPost, "/load", `{"market":"ETH"}`))
	assert.Equal(t, "ETH", state.Market)
	assert.Empty(t, state.Marks)
}

func TestChart_MarksExportAndClear(t *testing.T) {
	chart := newTestChart(t, &stubProvider{comparison: testComparison()})
	require.Equal(t, http.StatusOK, serve(chart, http.MethodPost, "/load", "").Code)

	controller := chart.Controller()
	require.True(t, controller.Click(ClickEvent{Position: ptr(move("d1", 10))}))
	require.True(t, controller.Click(ClickEvent{Position: ptr(move("d2", 11.5))}))
	require.True(t, controller.Click(ClickEvent{Position: ptr(move("d2", 11.5))}))

	recorder := serve(chart, http.MethodGet, "/marks", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "text/csv", recorder.Header().Get("Content-Type"))
	assert.Contains(t, recorder.Header().Get("Content-Disposition"), "marks_btc.csv")
	assert.Equal(t, "date,side,price\nd1,BUY,10\nd2,SELL,11.5\n", recorder.Body.String())

	state := decodeState(t, serve(chart, http.MethodDelete, "/marks", ""))
	assert.Empty(t, state.Marks)
	assert.Empty(t, controller.Marks())
}

func TestChart_Infer(t *testing.T) {
	provider := &stubProvider{inferred: &core.InferResult{Type: "LEARNED", Description: "learned"}}
	chart := newTestChart(t, provider)
	controller := chart.Controller()

	require.True(t, controller.Click(ClickEvent{Position: ptr(move("d1", 10))}))
	assert.Equal(t, http.StatusBadRequest, serve(chart, http.MethodPost, "/infer", "").Code)
	assert.Empty(t, provider.requests)

	require.True(t, controller.Click(ClickEvent{Position: ptr(move("d2", 11))}))
	recorder := serve(chart, http.MethodPost, "/infer", "")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var result core.InferResult
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	assert.Equal(t, "LEARNED", result.Type)

	require.Len(t, provider.requests, 1)
	marks, ok := provider.requests[0].Logic["marked_trades"].([]core.MarkedTrade)
	require.True(t, ok)
	assert.Len(t, marks, 2)
}

func TestChart_InferUnsupported(t *testing.T) {
	provider := &stubProvider{err: core.ErrNotSupported}
	chart := newTestChart(t, provider)

	require.True(t, chart.Controller().Click(ClickEvent{Position: ptr(move("d1", 10))}))
	require.True(t, chart.Controller().Click(ClickEvent{Position: ptr(move("d2", 11))}))

	assert.Equal(t, http.StatusNotImplemented, serve(chart, http.MethodPost, "/infer", "").Code)
}

func TestChart_Mode(t *testing.T) {
	chart := newTestChart(t, nil)

	recorder := serve(chart, http.MethodPost, "/mode", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"factoryMode":false}`, recorder.Body.String())
	assert.False(t, chart.Controller().Enabled())

	recorder = serve(chart, http.MethodPost, "/mode", "")
	assert.JSONEq(t, `{"factoryMode":true}`, recorder.Body.String())

	assert.Equal(t, http.StatusBadRequest, serve(chart, http.MethodPost, "/mode", "{").Code)
}
