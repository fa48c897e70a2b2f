// Package serviceinterfaces defines the collaborator contracts consumed by the
// synchronization engine and the HTTP layer. Keeping them in a leaf package
// avoids import cycles and allows mocking in tests.
package serviceinterfaces

import (
	"context"

	"csdash/internal/models"
)

// ProjectServiceInterface defines operations for imported code projects.
type ProjectServiceInterface interface {
	GetProjectByID(ctx context.Context, id int) (*models.Project, error)
	DeleteProject(ctx context.Context, id int) error
}

// QuestionServiceInterface defines the question collaborators: history fetch,
// answer submission, question save, and bookmark mutation.
type QuestionServiceInterface interface {
	GetQuestionHistory(ctx context.Context, projectID int) (models.HistoryByDate, error)
	SubmitAnswer(ctx context.Context, questionID int, answer string) (string, error)
	SaveQuestion(ctx context.Context, questionID int) (bool, error)
	BookmarkQuestion(ctx context.Context, questionID int) (bool, error)
	GetBookmarkedIDs(ctx context.Context, projectID int) (models.BookmarkSet, error)
}
