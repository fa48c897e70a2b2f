package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

const historyTab = "question-history"

func TestObserveTriggersOnceOnEdge(t *testing.T) {
	calls := 0
	s := NewRefreshScheduler(historyTab, func(context.Context) error {
		calls++
		return nil
	}, nil)

	ctx := context.Background()

	assert.False(t, s.Observe(ctx, "code-selection"))
	assert.Equal(t, 0, calls)

	// Edge into the history tab triggers exactly one refresh
	assert.True(t, s.Observe(ctx, historyTab))
	assert.Equal(t, 1, calls)

	// Level, not edge: staying on the tab must not re-trigger
	assert.False(t, s.Observe(ctx, historyTab))
	assert.False(t, s.Observe(ctx, historyTab))
	assert.Equal(t, 1, calls)

	// Leaving and coming back is a new edge
	assert.False(t, s.Observe(ctx, "cs-questions"))
	assert.True(t, s.Observe(ctx, historyTab))
	assert.Equal(t, 2, calls)
}

func TestObserveInitialTabIsAnEdge(t *testing.T) {
	calls := 0
	s := NewRefreshScheduler(historyTab, func(context.Context) error {
		calls++
		return nil
	}, nil)

	// First observation landing directly on the history tab counts
	assert.True(t, s.Observe(context.Background(), historyTab))
	assert.Equal(t, 1, calls)
}

func TestObserveSwallowsRefreshFailure(t *testing.T) {
	s := NewRefreshScheduler(historyTab, func(context.Context) error {
		return errors.New("network down")
	}, nil)

	// The failure is logged, not propagated
	assert.True(t, s.Observe(context.Background(), historyTab))
	assert.Equal(t, historyTab, s.Current())
}

func TestObserveNilRefresh(t *testing.T) {
	s := NewRefreshScheduler(historyTab, nil, nil)
	assert.False(t, s.Observe(context.Background(), historyTab))
}
