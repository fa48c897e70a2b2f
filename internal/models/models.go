// Package models defines data structures used throughout the dashboard backend.
package models

import (
	"strings"
	"time"
)

// QuestionStatus represents the explicit answer status carried by a question record.
// The generation, submission, and history collaborators do not populate it
// consistently, so callers must not rely on it alone (see AnswerState derivation
// in the engine package).
type QuestionStatus string

const (
	// QuestionStatusTodo marks a question that has not been answered yet
	QuestionStatusTodo QuestionStatus = "TODO"
	// QuestionStatusDone marks a question whose answer was accepted
	QuestionStatusDone QuestionStatus = "DONE"
)

// Project represents one imported code project
type Project struct {
	ID          int       `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Role        string    `json:"role,omitempty" yaml:"role,omitempty"`
	Files       []string  `json:"files,omitempty" yaml:"files,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// CSQuestion represents one generated CS-interview question.
//
// Identity is inconsistent across collaborators: generation returns ID,
// submission echoes QuestionID, and the history fetch may return CSQuestionID.
// Use engine.CanonicalID to resolve a single identifier; never branch on the
// raw fields at call sites.
type CSQuestion struct {
	ID           int            `json:"id"`
	QuestionID   *int           `json:"questionId,omitempty"`
	CSQuestionID *int           `json:"csQuestionId,omitempty"`
	Question     string         `json:"question"`
	RelatedCode  string         `json:"relatedCode,omitempty"`
	CodeSnippet  string         `json:"codeSnippet,omitempty"`
	FolderName   string         `json:"folderName,omitempty"`
	FileName     string         `json:"fileName,omitempty"`
	Answer       string         `json:"answer,omitempty"`
	Feedback     string         `json:"feedback,omitempty"`
	Status       QuestionStatus `json:"status,omitempty"`
	Answered     *bool          `json:"answered,omitempty"`
	CreatedAt    time.Time      `json:"created_at,omitempty"`
}

// HasAnswer reports whether the record carries a non-blank answer text
func (q *CSQuestion) HasAnswer() bool {
	return strings.TrimSpace(q.Answer) != ""
}

// HistoryByDate maps an ISO date key (YYYY-MM-DD) to the questions generated
// on that date. Bucket order is server-provided and preserved as loaded.
type HistoryByDate map[string][]CSQuestion

// TotalQuestions returns the number of question records across all dates
func (h HistoryByDate) TotalQuestions() int {
	total := 0
	for _, bucket := range h {
		total += len(bucket)
	}
	return total
}

// BookmarkSet holds the canonical ids of currently bookmarked questions
type BookmarkSet map[int]struct{}

// NewBookmarkSet creates a BookmarkSet from a list of canonical ids
func NewBookmarkSet(ids ...int) BookmarkSet {
	s := make(BookmarkSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether the given canonical id is bookmarked
func (s BookmarkSet) Contains(id int) bool {
	_, ok := s[id]
	return ok
}

// Add marks the given canonical id as bookmarked
func (s BookmarkSet) Add(id int) {
	s[id] = struct{}{}
}

// Remove clears the bookmark for the given canonical id
func (s BookmarkSet) Remove(id int) {
	delete(s, id)
}

// IDs returns the bookmarked canonical ids in unspecified order
func (s BookmarkSet) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}
