package main

import (
	"os/signal"
	"syscall"

	"github.com/raykavin/markfactory/pkg/plot"
	"github.com/spf13/cobra"
)

var (
	port    int
	noLoad  bool
	debugJS bool
)

func buildServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the labeling chart",
		RunE:  runServe,
	}

	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (overrides config)")
	serveCmd.Flags().BoolVar(&noLoad, "no-load", false, "Do not load the configured market on start")
	serveCmd.Flags().BoolVar(&debugJS, "debug", false, "Serve the chart script unminified")

	return serveCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, release, err := buildProvider()
	if err != nil {
		return err
	}
	defer release()

	if port > 0 {
		cfg.Server.Port = port
	}

	options := []plot.Option{
		plot.WithPort(cfg.Server.Port),
		plot.WithProvider(source),
		plot.WithFactoryMode(cfg.Server.FactoryMode),
		plot.WithKeyBindings(cfg.Keys.Buy, cfg.Keys.Sell),
		plot.WithRequest(request()),
	}
	if debugJS || cfg.Server.Debug {
		options = append(options, plot.WithDebug())
	}

	chart, err := plot.NewChart(log, options...)
	if err != nil {
		return err
	}

	if !noLoad && cfg.Market != "" {
		if err := chart.Load(ctx, request()); err != nil {
			log.WithError(err).Warn("initial load failed")
		}
	}

	return chart.Start(ctx)
}

