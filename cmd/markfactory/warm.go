package main

import (
	"errors"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func buildWarmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "warm",
		Short: "Fetch comparisons for every configured market into the cache",
		RunE:  runWarm,
	}
}

func runWarm(cmd *cobra.Command, _ []string) error {
	if cfg.Cache.Path == "" || cfg.Cache.Path == ":memory:" {
		return errors.New("warm needs a cache file, set cache.path")
	}

	upstream, err := buildUpstream()
	if err != nil {
		return err
	}

	cache, err := openCache(upstream)
	if err != nil {
		return err
	}
	defer cache.Close()

	bar := progressbar.Default(int64(len(cfg.Markets)))
	failed := 0
	for _, market := range cfg.Markets {
		req := request()
		req.Market = market

		if _, err := cache.Compare(cmd.Context(), req); err != nil {
			log.WithField("market", market).WithError(err).Warn("failed to warm market")
			failed++
		}
		_ = bar.Add(1)
	}

	size, err := cache.Len()
	if err != nil {
		return err
	}

	log.WithFields(map[string]any{"cached": size, "failed": failed}).Info("cache warmed")
	return nil
}
