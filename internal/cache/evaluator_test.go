package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/observability"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/workflow"
)

type countingEvaluator struct {
	calls int
	err   error
}

func (c *countingEvaluator) Evaluate(_ context.Context, req workflow.Request) (*workflow.Evaluation, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &workflow.Evaluation{Key: req.Key(), City: req.City}, nil
}

func TestCachedEvaluator_HitAndMiss(t *testing.T) {
	inner := &countingEvaluator{}
	m := observability.NewMetricsForTesting()
	c := NewCachedEvaluator(inner, 10, m)

	first, err := c.Evaluate(context.Background(), workflow.Request{City: "Lisbon"})
	require.NoError(t, err)
	second, err := c.Evaluate(context.Background(), workflow.Request{City: "Lisbon"})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
}

func TestCachedEvaluator_ErrorsNotCached(t *testing.T) {
	inner := &countingEvaluator{err: errors.New("boom")}
	c := NewCachedEvaluator(inner, 10, nil)

	_, err := c.Evaluate(context.Background(), workflow.Request{City: "Lisbon"})
	require.Error(t, err)
	_, err = c.Evaluate(context.Background(), workflow.Request{City: "Lisbon"})
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, c.Len())
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)
	c.put("a", &workflow.Evaluation{City: "a"})
	c.put("b", &workflow.Evaluation{City: "b"})

	_, ok := c.get("a") // a is now most recent
	require.True(t, ok)

	c.put("c", &workflow.Evaluation{City: "c"})

	_, ok = c.get("b")
	assert.False(t, ok, "b should be evicted")
	_, ok = c.get("a")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)
	c.put("a", &workflow.Evaluation{City: "old"})
	c.put("a", &workflow.Evaluation{City: "new"})

	v, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, "new", v.City)
	assert.Len(t, c.entries, 1)
}
