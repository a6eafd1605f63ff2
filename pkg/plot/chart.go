package plot

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/raykavin/markfactory/pkg/core"
	"github.com/raykavin/markfactory/pkg/label"
	"github.com/raykavin/markfactory/pkg/logger"
)

// Static assets embedded in the binary
var (
	//go:embed assets
	staticFiles embed.FS
)

// Chart serves the labeling page and owns its controller
type Chart struct {
	sync.Mutex
	port          int
	debug         bool
	factoryMode   bool
	buyKey        string
	sellKey       string
	provider      core.Provider
	request       core.Request
	controller    *Controller
	sockets       *WebSocketManager
	scriptContent string
	indexHTML     *template.Template
	lastUpdate    time.Time
	log           logger.Logger
}

// Option defines a function type for configuring a Chart instance
type Option func(*Chart)

// WithPort sets the HTTP server port
func WithPort(port int) Option {
	return func(chart *Chart) {
		chart.port = port
	}
}

// WithDebug enables debug mode (disables minification)
func WithDebug() Option {
	return func(chart *Chart) {
		chart.debug = true
	}
}

// WithProvider sets the backtest provider used by /load and /infer
func WithProvider(provider core.Provider) Option {
	return func(chart *Chart) {
		chart.provider = provider
	}
}

// WithFactoryMode starts the chart with labeling enabled
func WithFactoryMode(enabled bool) Option {
	return func(chart *Chart) {
		chart.factoryMode = enabled
	}
}

// WithKeyBindings sets the keys for BUY and SELL marks
func WithKeyBindings(buy, sell string) Option {
	return func(chart *Chart) {
		chart.buyKey = buy
		chart.sellKey = sell
	}
}

// WithRequest sets the market and timeframe loaded by default
func WithRequest(request core.Request) Option {
	return func(chart *Chart) {
		chart.request = request
	}
}

// NewChart creates a new chart instance with the provided options
func NewChart(log logger.Logger, options ...Option) (*Chart, error) {
	chart := &Chart{
		port:    8080,
		buyKey:  "b",
		sellKey: "s",
		log:     log,
	}

	for _, option := range options {
		option(chart)
	}

	chart.controller = NewController(log,
		WithKeyOptions(
			label.WithBinding(chart.buyKey, core.SideTypeBuy),
			label.WithBinding(chart.sellKey, core.SideTypeSell),
		),
		WithHoverListener(func(point *core.HoverPoint) {
			chart.sockets.BroadcastHover(point)
		}),
		WithRecordsListener(func([]core.DisplayRecord) {
			chart.sockets.BroadcastState(chart.State())
		}),
	)
	chart.controller.SetEnabled(chart.factoryMode)
	chart.sockets = NewWebSocketManager(log, chart)

	var err error
	chart.indexHTML, err = template.ParseFS(staticFiles, "assets/chart.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse chart template: %w", err)
	}

	chartJS, err := staticFiles.ReadFile("assets/chart.js")
	if err != nil {
		return nil, fmt.Errorf("failed to read chart.js: %w", err)
	}

	transpileChartJS := api.Transform(string(chartJS), api.TransformOptions{
		Loader:            api.LoaderJS,
		Target:            api.ES2015,
		MinifySyntax:      !chart.debug,
		MinifyIdentifiers: !chart.debug,
		MinifyWhitespace:  !chart.debug,
	})

	if len(transpileChartJS.Errors) > 0 {
		return nil, fmt.Errorf("chart script failed with: %v", transpileChartJS.Errors)
	}

	chart.scriptContent = string(transpileChartJS.Code)

	return chart, nil
}

// Controller returns the labeling controller
func (c *Chart) Controller() *Controller {
	return c.controller
}

// Request returns the market and timeframe currently shown
func (c *Chart) Request() core.Request {
	c.Lock()
	defer c.Unlock()
	return c.request
}

// State returns the renderable chart state
func (c *Chart) State() State {
	request := c.Request()
	return State{
		Market:      request.Market,
		Timeframe:   request.Timeframe,
		FactoryMode: c.controller.Enabled(),
		Records:     c.controller.Records(),
		Marks:       c.controller.Marks(),
	}
}

// Handler returns the chart HTTP routes
func (c *Chart) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /assets/chart.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		fmt.Fprint(w, c.scriptContent)
	})

	mux.HandleFunc("GET /health", c.handleHealth)
	mux.HandleFunc("GET /data", c.handleData)
	mux.HandleFunc("GET /marks", c.handleMarksExport)
	mux.HandleFunc("DELETE /marks", c.handleClearMarks)
	mux.HandleFunc("POST /load", c.handleLoad)
	mux.HandleFunc("POST /infer", c.handleInfer)
	mux.HandleFunc("POST /mode", c.handleMode)
	mux.HandleFunc("GET /ws", c.sockets.HandleWebSocket)
	mux.HandleFunc("GET /{$}", c.handleIndex)

	return mux
}

// Start serves the chart until ctx is done
func (c *Chart) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.port),
		Handler:           c.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			c.log.WithError(err).Error("chart shutdown failed")
		}
		c.sockets.Close()
	}()

	c.log.Infof("Chart available at http://localhost:%d", c.port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
