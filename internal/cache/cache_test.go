package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphextract/graphextract/internal/geometry"
	"github.com/graphextract/graphextract/internal/graph"
)

func newTestCache(t *testing.T) *ContentCache {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	c := New(store)
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleResult() *graph.DetectionResult {
	return &graph.DetectionResult{
		Nodes: []graph.Node{{
			ID:         "n0",
			Shape:      geometry.NewCircle(geometry.Point{X: 50, Y: 50}, 20),
			Label:      "start",
			Confidence: 0.93,
		}},
		Edges: []graph.Edge{{
			ID: "e0", Source: "n0", Target: "n0", Style: graph.StyleSolid, Confidence: 0.8,
		}},
		Quality: graph.QualityReport{Level: graph.QualityMedium, Contrast: 51.2},
	}
}

func TestCacheMiss(t *testing.T) {
	c := newTestCache(t)

	res, hit, err := c.Get("absent")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, res)
}

func TestCacheSetGet(t *testing.T) {
	c := newTestCache(t)
	want := sampleResult()

	require.NoError(t, c.Set("k", want))

	got, hit, err := c.Get("k")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, want, got)
}

func TestCacheInvalidate(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Set("k", sampleResult()))
	require.NoError(t, c.Invalidate("k"))

	_, hit, err := c.Get("k")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheInvalidateAll(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	c := New(store)
	defer c.Close()

	require.NoError(t, c.Set("a", sampleResult()))
	require.NoError(t, c.Set("b", sampleResult()))
	require.NoError(t, c.InvalidateAll())

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestCacheCorruptEntryIsMiss(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	c := New(store)
	defer c.Close()

	require.NoError(t, store.Write("bad", []byte("{not json")))

	res, hit, err := c.Get("bad")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, res)

	// The corrupt entry is dropped, not left to fail again.
	_, err = store.Read("bad")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDoDeduplicatesConcurrentCallers(t *testing.T) {
	c := newTestCache(t)

	gate := make(chan struct{})
	var computations atomic.Int32
	compute := func() (*graph.DetectionResult, error) {
		computations.Add(1)
		<-gate
		return sampleResult(), nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*graph.DetectionResult, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.Do("same-key", compute)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}

	// Give every caller time to join the in-flight computation, then let
	// it finish.
	time.Sleep(100 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), computations.Load(), "expected a single computation")
	for i := 1; i < callers; i++ {
		assert.Same(t, results[0], results[i], "all callers should share one result")
	}
}

func TestDoDistinctKeysRunIndependently(t *testing.T) {
	c := newTestCache(t)

	var computations atomic.Int32
	compute := func() (*graph.DetectionResult, error) {
		computations.Add(1)
		return sampleResult(), nil
	}

	_, err := c.Do("k1", compute)
	require.NoError(t, err)
	_, err = c.Do("k2", compute)
	require.NoError(t, err)

	assert.Equal(t, int32(2), computations.Load())
}

func TestDoFailureIsRetried(t *testing.T) {
	c := newTestCache(t)

	var calls atomic.Int32
	compute := func() (*graph.DetectionResult, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("transient")
		}
		return sampleResult(), nil
	}

	_, err := c.Do("k", compute)
	require.Error(t, err)

	res, err := c.Do("k", compute)
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, int32(2), calls.Load())
}
