package engine

import (
	"context"
	"sync"

	"csdash/internal/models"
	"csdash/internal/observability"
	contextutils "csdash/internal/utils"
)

// BookmarkFunc is the bookmark-mutation collaborator. It returns whether the
// server confirmed the mutation.
type BookmarkFunc func(ctx context.Context, questionID int) (bool, error)

// BookmarkCoordinator toggles a question's bookmark flag and invalidates
// dependent cached collections once the server confirms. The bookmark set is
// never flipped optimistically: a rejected mutation leaves it unchanged, which
// matches the list view's disabled-once-bookmarked contract.
//
// A per-canonical-id in-flight guard makes a second toggle during a pending
// one a no-op, symmetric with the answer-submission guard.
type BookmarkCoordinator struct {
	mu       sync.Mutex
	mutate   BookmarkFunc
	cache    Invalidator
	set      models.BookmarkSet
	inflight map[int]struct{}
	logger   *observability.Logger
}

// NewBookmarkCoordinator creates a coordinator over the given collaborator,
// cache, and initial server-sourced bookmark set.
func NewBookmarkCoordinator(mutate BookmarkFunc, cache Invalidator, initial models.BookmarkSet, logger *observability.Logger) *BookmarkCoordinator {
	if initial == nil {
		initial = models.NewBookmarkSet()
	}
	if logger == nil {
		logger = observability.NewLogger(nil)
	}
	return &BookmarkCoordinator{
		mutate:   mutate,
		cache:    cache,
		set:      initial,
		inflight: make(map[int]struct{}),
		logger:   logger,
	}
}

// Bookmarked reports whether the given canonical id is bookmarked
func (b *BookmarkCoordinator) Bookmarked(id int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.set.Contains(id)
}

// Set returns a copy of the current bookmark set
func (b *BookmarkCoordinator) Set() models.BookmarkSet {
	b.mu.Lock()
	defer b.mu.Unlock()
	return models.NewBookmarkSet(b.set.IDs()...)
}

// ReplaceSet swaps in a freshly fetched server-sourced bookmark set
func (b *BookmarkCoordinator) ReplaceSet(set models.BookmarkSet) {
	if set == nil {
		set = models.NewBookmarkSet()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.set = set
}

// Toggle flips the bookmark flag for a question record. The collaborator is
// invoked with the id variant chosen from the record's populated fields; on
// confirmation the set is flipped and the dependent cache keys are dropped.
// Records without a canonical id are a safe no-op. Rejections are logged and
// returned as an advisory error with the set left unchanged.
func (b *BookmarkCoordinator) Toggle(ctx context.Context, q *models.CSQuestion, dependents ...string) error {
	canonicalID, ok := CanonicalID(q)
	if !ok {
		return nil
	}
	targetID, _ := BookmarkTargetID(q)

	b.mu.Lock()
	if _, pending := b.inflight[canonicalID]; pending {
		b.mu.Unlock()
		return nil
	}
	b.inflight[canonicalID] = struct{}{}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.inflight, canonicalID)
		b.mu.Unlock()
	}()

	confirmed, err := b.mutate(ctx, targetID)
	if err != nil {
		b.logger.Warn(ctx, "Bookmark mutation rejected", map[string]interface{}{
			"question_id": canonicalID,
			"target_id":   targetID,
			"error":       err.Error(),
		})
		return contextutils.WrapError(contextutils.ErrBookmarkFailed, "bookmark toggle rejected")
	}
	if !confirmed {
		b.logger.Warn(ctx, "Bookmark mutation not confirmed", map[string]interface{}{
			"question_id": canonicalID,
		})
		return contextutils.WrapError(contextutils.ErrBookmarkFailed, "bookmark toggle not confirmed")
	}

	b.mu.Lock()
	if b.set.Contains(canonicalID) {
		b.set.Remove(canonicalID)
	} else {
		b.set.Add(canonicalID)
	}
	b.mu.Unlock()

	if b.cache != nil && len(dependents) > 0 {
		b.cache.Invalidate(ctx, dependents...)
	}
	return nil
}
