package engine

import (
	"csdash/internal/models"
)

// DateGroup is one rendered date bucket of the history view
type DateGroup struct {
	Date       string              `json:"date"`
	Count      int                 `json:"count"`
	CountLabel string              `json:"countLabel"`
	Expanded   bool                `json:"expanded"`
	Questions  []models.CSQuestion `json:"questions"`
}

// Snapshot is a point-in-time, render-ready projection of a session. It is
// a value copy; mutating it never affects the session.
type Snapshot struct {
	ProjectID int         `json:"projectId"`
	Groups    []DateGroup `json:"groups"`
	DayCount  int         `json:"dayCount"`
	Total     int         `json:"total"`

	Empty        bool   `json:"empty"`
	EmptyMessage string `json:"emptyMessage,omitempty"`
	Stale        bool   `json:"stale"`

	Bookmarked []int `json:"bookmarked"`
	ActiveIDs  []int `json:"activeIds"`

	Selected          *models.CSQuestion `json:"selected,omitempty"`
	AnswerState       AnswerState        `json:"answerState"`
	Draft             string             `json:"draft,omitempty"`
	Feedback          string             `json:"feedback,omitempty"`
	Advisory          string             `json:"advisory,omitempty"`
	AnswerFormVisible bool               `json:"answerFormVisible"`
	ActiveAdvisory    string             `json:"activeAdvisory,omitempty"`
}

// Snapshot builds a render-ready projection of the session's current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ProjectID: s.projectID,
		DayCount:  s.view.DayCount(),
		Empty:     s.view.Empty(),
		Stale:     s.stale,
	}
	if snap.Empty {
		snap.EmptyMessage = EmptyHistoryMessage
	}

	for _, date := range s.view.SortedDates() {
		bucket := s.view.Bucket(date)
		group := DateGroup{
			Date:       date,
			Count:      len(bucket),
			CountLabel: s.view.CountLabel(date),
			Expanded:   s.view.Expanded(date),
			Questions:  append([]models.CSQuestion(nil), bucket...),
		}
		snap.Groups = append(snap.Groups, group)
		snap.Total += group.Count
	}

	snap.Bookmarked = s.bookmarks.Set().IDs()
	snap.ActiveIDs = s.active.IDs()

	if s.hasSelected {
		q := *s.selected
		snap.Selected = &q
		snap.AnswerState = s.machine.State()
		snap.Draft = s.machine.Draft()
		snap.Feedback = s.machine.Feedback()
		snap.Advisory = s.machine.Advisory()
		active := s.active.IsActive(s.selectedID)
		snap.AnswerFormVisible = AnswerFormVisible(snap.AnswerState, active)
		if active {
			snap.ActiveAdvisory = ActiveQuestionAdvisory
		}
	}
	return snap
}

// bookmarkDependents lists the cache keys whose contents depend on one
// record's bookmark flag.
func bookmarkDependents(projectID int, q *models.CSQuestion) []string {
	keys := []string{
		ProjectBookmarksKey(projectID),
		ProjectFoldersKey(projectID),
	}
	if q.FolderName != "" {
		keys = append(keys, FolderQuestionsKey(q.FolderName))
	}
	return keys
}
