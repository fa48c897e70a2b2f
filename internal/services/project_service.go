// Package services implements the persistence-backed collaborators consumed by
// the synchronization engine and the HTTP handlers.
package services

import (
	"context"
	"database/sql"

	"csdash/internal/models"
	"csdash/internal/observability"
	contextutils "csdash/internal/utils"

	"github.com/lib/pq"
)

// ProjectService implements ProjectServiceInterface on PostgreSQL.
type ProjectService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewProjectService creates a new ProjectService instance.
func NewProjectService(db *sql.DB, logger *observability.Logger) *ProjectService {
	if db == nil {
		panic("NewProjectService: db is nil")
	}
	if logger == nil {
		panic("NewProjectService: logger is nil")
	}
	return &ProjectService{db: db, logger: logger}
}

// GetProjectByID fetches a single imported project.
func (s *ProjectService) GetProjectByID(ctx context.Context, id int) (result0 *models.Project, err error) {
	ctx, span := observability.TraceProjectFunction(ctx, "get_project_by_id", observability.AttributeProjectID(id))
	defer observability.FinishSpan(span, &err)

	query := `SELECT id, title, description, role, files, created_at, updated_at FROM projects WHERE id = $1`
	var p models.Project
	err = s.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.Title, &p.Description, &p.Role, pq.Array(&p.Files), &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.ErrProjectNotFound
		}
		return nil, contextutils.WrapError(err, "failed to fetch project")
	}
	return &p, nil
}

// DeleteProject removes a project together with its questions and bookmarks.
func (s *ProjectService) DeleteProject(ctx context.Context, id int) (err error) {
	ctx, span := observability.TraceProjectFunction(ctx, "delete_project", observability.AttributeProjectID(id))
	defer observability.FinishSpan(span, &err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return contextutils.WrapError(err, "failed to begin delete transaction")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				s.logger.Warn(ctx, "Rollback failed", map[string]interface{}{"error": rbErr.Error()})
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		DELETE FROM bookmarks b
		USING cs_questions q
		WHERE b.question_id = COALESCE(q.cs_question_id, q.question_id, q.id)
		  AND q.project_id = $1`, id); err != nil {
		return contextutils.WrapError(err, "failed to delete project bookmarks")
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM cs_questions WHERE project_id = $1`, id); err != nil {
		return contextutils.WrapError(err, "failed to delete project questions")
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return contextutils.WrapError(err, "failed to delete project")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to read delete result")
	}
	if affected == 0 {
		err = contextutils.ErrProjectNotFound
		return err
	}

	if err = tx.Commit(); err != nil {
		return contextutils.WrapError(err, "failed to commit project delete")
	}

	s.logger.Info(ctx, "Project deleted", map[string]interface{}{"project_id": id})
	return nil
}
