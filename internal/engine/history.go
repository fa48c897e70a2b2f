package engine

import (
	"fmt"
	"sort"

	"csdash/internal/models"

	"github.com/samber/lo"
)

// EmptyHistoryMessage is shown instead of an empty list when no history exists.
const EmptyHistoryMessage = "아직 저장된 질문이 없습니다."

// HistoryView aggregates a HistoryByDate for display: sorted date keys,
// per-date counts, and per-date expand/collapse state. Collapse state is
// client-local, initialized expanded, and survives refreshes for dates that
// are still present.
type HistoryView struct {
	history   models.HistoryByDate
	sorted    []string
	collapsed map[string]bool
}

// NewHistoryView builds a view over the given history
func NewHistoryView(history models.HistoryByDate) *HistoryView {
	v := &HistoryView{collapsed: make(map[string]bool)}
	v.Replace(history)
	return v
}

// Replace swaps in a freshly fetched history, keeping collapse state for
// dates that still exist and dropping it for dates that disappeared.
func (v *HistoryView) Replace(history models.HistoryByDate) {
	if history == nil {
		history = models.HistoryByDate{}
	}
	v.history = history

	keys := lo.Keys(history)
	// ISO date keys sort correctly as strings; display order is newest first
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	v.sorted = keys

	v.collapsed = lo.PickByKeys(v.collapsed, keys)
}

// SortedDates returns the date keys in descending order
func (v *HistoryView) SortedDates() []string {
	return v.sorted
}

// History returns the underlying date-to-records map
func (v *HistoryView) History() models.HistoryByDate {
	return v.history
}

// Bucket returns the records for one date, preserving server order
func (v *HistoryView) Bucket(date string) []models.CSQuestion {
	return v.history[date]
}

// Count returns the number of questions recorded for one date
func (v *HistoryView) Count(date string) int {
	return len(v.history[date])
}

// CountLabel returns the display label for one date's question count
func (v *HistoryView) CountLabel(date string) string {
	return fmt.Sprintf("%d개 질문", v.Count(date))
}

// Expanded reports whether one date's bucket is expanded. Dates start expanded.
func (v *HistoryView) Expanded(date string) bool {
	return !v.collapsed[date]
}

// Toggle flips one date's expand/collapse state independently of other dates
func (v *HistoryView) Toggle(date string) {
	v.collapsed[date] = !v.collapsed[date]
}

// Empty reports whether there is no history at all; the view layer must render
// EmptyHistoryMessage rather than an empty list in that case.
func (v *HistoryView) Empty() bool {
	return len(v.sorted) == 0
}

// DayCount returns the number of distinct dates with history
func (v *HistoryView) DayCount() int {
	return len(v.sorted)
}

// Find locates a record by canonical id across all buckets
func (v *HistoryView) Find(canonicalID int) (*models.CSQuestion, bool) {
	for _, date := range v.sorted {
		bucket := v.history[date]
		for i := range bucket {
			if id, ok := CanonicalID(&bucket[i]); ok && id == canonicalID {
				return &bucket[i], true
			}
		}
	}
	return nil, false
}
