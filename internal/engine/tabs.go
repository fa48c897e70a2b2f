package engine

import (
	"context"

	"csdash/internal/observability"
)

// RefreshFunc re-pulls the question history from its collaborator.
type RefreshFunc func(ctx context.Context) error

// RefreshScheduler watches the externally-owned active-tab value and triggers
// exactly one history refresh per transition into the history tab. It is
// edge-triggered: repeated observations of the same tab value do nothing.
// A rejected refresh is logged and swallowed so the view keeps showing the
// last successfully loaded history.
type RefreshScheduler struct {
	target  string
	last    string
	refresh RefreshFunc
	logger  *observability.Logger
}

// NewRefreshScheduler creates a scheduler for the given history-tab value
func NewRefreshScheduler(target string, refresh RefreshFunc, logger *observability.Logger) *RefreshScheduler {
	if logger == nil {
		logger = observability.NewLogger(nil)
	}
	return &RefreshScheduler{
		target:  target,
		refresh: refresh,
		logger:  logger,
	}
}

// Observe records the current tab value and reports whether a refresh was
// triggered. Only the edge into the target tab triggers; staying on it, or
// transitions between other tabs, do not.
func (s *RefreshScheduler) Observe(ctx context.Context, tab string) bool {
	prev := s.last
	s.last = tab

	if tab != s.target || prev == s.target {
		return false
	}

	if s.refresh == nil {
		return false
	}
	if err := s.refresh(ctx); err != nil {
		s.logger.Warn(ctx, "History refresh failed, keeping previous data", map[string]interface{}{
			"tab":   tab,
			"error": err.Error(),
		})
	}
	return true
}

// Current returns the last observed tab value
func (s *RefreshScheduler) Current() string {
	return s.last
}
