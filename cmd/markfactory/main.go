package main

import (
	"fmt"
	"os"

	"github.com/raykavin/markfactory/internal/config"
	"github.com/raykavin/markfactory/pkg/logger"
	"github.com/raykavin/markfactory/pkg/logger/zerolog"
	"github.com/spf13/cobra"
)

// Command line flags
var (
	configFile string
	market     string
	timeframe  string
)

// Loaded in the root pre-run
var (
	cfg *config.Config
	log logger.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "markfactory",
		Short:             "Label buy and sell points on backtest charts",
		Version:           "1.0.0",
		PersistentPreRunE: setup,
		SilenceUsage:      true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (e.g. ./markfactory.yaml)")
	rootCmd.PersistentFlags().StringVarP(&market, "market", "m", "", "Market (e.g. BTC)")
	rootCmd.PersistentFlags().StringVarP(&timeframe, "timeframe", "t", "", "Timeframe (e.g. 1h)")

	rootCmd.AddCommand(
		buildServeCmd(),
		buildMergeCmd(),
		buildScanCmd(),
		buildWarmCmd(),
		buildInferCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(*cobra.Command, []string) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}

	if market != "" {
		cfg.Market = market
	}
	if timeframe != "" {
		cfg.Timeframe = timeframe
	}

	log, err = zerolog.New(zerolog.Options{
		Level:      cfg.Log.Level,
		TimeLayout: cfg.Log.TimeLayout,
		Colored:    cfg.Log.Colored,
		JSON:       cfg.Log.JSON,
	})
	return err
}
