package main

import (
	"fmt"

	"github.com/raykavin/markfactory/internal/config"
	"github.com/raykavin/markfactory/pkg/core"
	"github.com/raykavin/markfactory/pkg/provider"
)

// buildUpstream creates the configured provider without cache
func buildUpstream() (core.Provider, error) {
	switch cfg.Provider.Kind {
	case config.ProviderLocal:
		return provider.NewLocal(cfg.Provider.DataDir, cfg.Markets, log), nil
	case config.ProviderHTTP:
		return provider.NewHTTPClient(cfg.Provider.BaseURL, log,
			provider.WithTimeout(cfg.Provider.Timeout),
			provider.WithAttempts(cfg.Provider.Attempts),
		), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Kind)
	}
}

// buildProvider creates the configured provider, wrapped in the cache when enabled.
// The returned function releases the cache.
func buildProvider() (core.Provider, func(), error) {
	upstream, err := buildUpstream()
	if err != nil {
		return nil, nil, err
	}

	if !cfg.Cache.Enabled {
		return upstream, func() {}, nil
	}

	cache, err := openCache(upstream)
	if err != nil {
		return nil, nil, err
	}

	return cache, func() {
		if err := cache.Close(); err != nil {
			log.WithError(err).Warn("failed to close cache")
		}
	}, nil
}

func openCache(upstream core.Provider) (*provider.Cache, error) {
	if cfg.Cache.Path == "" {
		return provider.NewMemoryCache(upstream, cfg.Cache.TTL, log)
	}
	return provider.NewCache(upstream, cfg.Cache.Path, cfg.Cache.TTL, log)
}

func request() core.Request {
	return core.Request{Market: cfg.Market, Timeframe: cfg.Timeframe}
}
