package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/raykavin/markfactory/pkg/core"
	"github.com/raykavin/markfactory/pkg/logger/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	Local
	calls int
	fail  error
}

func (p *countingProvider) Compare(_ context.Context, req core.Request) (*core.Comparison, error) {
	p.calls++
	if p.fail != nil {
		return nil, p.fail
	}
	date := req.Market + "-d1"
	return &core.Comparison{Benchmark: []core.BenchmarkPoint{{Date: &date, Equity: core.Float(100)}}}, nil
}

func TestCache_Compare(t *testing.T) {
	upstream := &countingProvider{}
	cache, err := NewMemoryCache(upstream, time.Minute, zerolog.Nop())
	require.NoError(t, err)
	defer cache.Close()

	first, err := cache.Compare(context.Background(), request)
	require.NoError(t, err)
	second, err := cache.Compare(context.Background(), request)
	require.NoError(t, err)

	assert.Equal(t, 1, upstream.calls)
	assert.Equal(t, *first.Benchmark[0].Date, *second.Benchmark[0].Date)

	other := request
	other.Market = "ETH"
	third, err := cache.Compare(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, "ETH-d1", *third.Benchmark[0].Date)
	assert.Equal(t, 2, upstream.calls)

	n, err := cache.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, cache.Purge())
	_, err = cache.Compare(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, 3, upstream.calls)
}

func TestCache_FailuresAreNotCached(t *testing.T) {
	upstream := &countingProvider{fail: errors.New("down")}
	cache, err := NewMemoryCache(upstream, 0, zerolog.Nop())
	require.NoError(t, err)
	defer cache.Close()

	_, err = cache.Compare(context.Background(), request)
	require.Error(t, err)

	upstream.fail = nil
	comparison, err := cache.Compare(context.Background(), request)
	require.NoError(t, err)
	assert.Len(t, comparison.Benchmark, 1)
	assert.Equal(t, 2, upstream.calls)
}

func TestCache_PassesThroughOtherOperations(t *testing.T) {
	cache, err := NewMemoryCache(&countingProvider{}, time.Minute, zerolog.Nop())
	require.NoError(t, err)
	defer cache.Close()

	_, err = cache.Train(context.Background(), request)
	require.ErrorIs(t, err, core.ErrNotSupported)
}
