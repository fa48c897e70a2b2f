package services

import (
	"context"
	"database/sql"
	"time"

	"csdash/internal/models"
	"csdash/internal/observability"
	contextutils "csdash/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// canonicalIDExpr resolves a row's canonical identifier the same way the
// engine does for in-memory records.
const canonicalIDExpr = "COALESCE(q.question_id, q.cs_question_id, q.id)"

// bookmarkTargetExpr resolves the id a bookmark row is stored under.
const bookmarkTargetExpr = "COALESCE(q.cs_question_id, q.question_id, q.id)"

// QuestionService implements QuestionServiceInterface on PostgreSQL.
type QuestionService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewQuestionService creates a new QuestionService instance.
func NewQuestionService(db *sql.DB, logger *observability.Logger) *QuestionService {
	if db == nil {
		panic("NewQuestionService: db is nil")
	}
	if logger == nil {
		panic("NewQuestionService: logger is nil")
	}
	return &QuestionService{db: db, logger: logger}
}

// GetQuestionHistory returns the project's saved questions bucketed by the
// ISO date of generation, newest row first within each bucket.
func (s *QuestionService) GetQuestionHistory(ctx context.Context, projectID int) (result0 models.HistoryByDate, err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "get_question_history", observability.AttributeProjectID(projectID))
	defer observability.FinishSpan(span, &err)

	query := `
		SELECT q.id, q.question_id, q.cs_question_id, q.question, q.related_code,
		       q.code_snippet, q.folder_name, q.file_name, q.answer, q.feedback,
		       q.status, q.answered, q.created_at,
		       to_char(q.created_at, 'YYYY-MM-DD') AS bucket_date
		FROM cs_questions q
		WHERE q.project_id = $1 AND q.saved = TRUE
		ORDER BY q.created_at DESC, q.id DESC`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrHistoryLoadFailed, "failed to query question history")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close history rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	history := make(models.HistoryByDate)
	for rows.Next() {
		var (
			q          models.CSQuestion
			bucketDate string
			answer     sql.NullString
			feedback   sql.NullString
			status     sql.NullString
			answered   sql.NullBool
		)
		if err = rows.Scan(&q.ID, &q.QuestionID, &q.CSQuestionID, &q.Question, &q.RelatedCode,
			&q.CodeSnippet, &q.FolderName, &q.FileName, &answer, &feedback,
			&status, &answered, &q.CreatedAt, &bucketDate); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan question row")
		}
		q.Answer = answer.String
		q.Feedback = feedback.String
		q.Status = models.QuestionStatus(status.String)
		if answered.Valid {
			v := answered.Bool
			q.Answered = &v
		}
		history[bucketDate] = append(history[bucketDate], q)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrHistoryLoadFailed, "failed to read question history")
	}

	span.SetAttributes(attribute.Int("history.dates", len(history)), attribute.Int("history.total", history.TotalQuestions()))
	return history, nil
}

// SubmitAnswer persists an answer for the question with the given canonical id
// and returns the stored feedback text, which may be empty.
func (s *QuestionService) SubmitAnswer(ctx context.Context, questionID int, answer string) (result0 string, err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "submit_answer", observability.AttributeQuestionID(questionID))
	defer observability.FinishSpan(span, &err)

	query := `
		UPDATE cs_questions q
		SET answer = $2, status = $3, answered = TRUE, updated_at = $4
		WHERE ` + canonicalIDExpr + ` = $1
		RETURNING COALESCE(q.feedback, '')`

	var feedback string
	err = s.db.QueryRowContext(ctx, query, questionID, answer, string(models.QuestionStatusDone), time.Now()).Scan(&feedback)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", contextutils.ErrQuestionNotFound
		}
		return "", contextutils.WrapError(contextutils.ErrSubmissionFailed, "failed to persist answer")
	}
	return feedback, nil
}

// SaveQuestion marks a generated question as saved so it appears in history.
// Returns whether a row was updated.
func (s *QuestionService) SaveQuestion(ctx context.Context, questionID int) (result0 bool, err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "save_question", observability.AttributeQuestionID(questionID))
	defer observability.FinishSpan(span, &err)

	query := `
		UPDATE cs_questions q
		SET saved = TRUE, updated_at = $2
		WHERE ` + canonicalIDExpr + ` = $1`

	res, err := s.db.ExecContext(ctx, query, questionID, time.Now())
	if err != nil {
		return false, contextutils.WrapError(err, "failed to save question")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, contextutils.WrapError(err, "failed to read save result")
	}
	return affected > 0, nil
}

// BookmarkQuestion toggles the persisted bookmark flag for the given target id
// and confirms the mutation. The in-memory flip happens in the engine only
// after this confirmation.
func (s *QuestionService) BookmarkQuestion(ctx context.Context, questionID int) (result0 bool, err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "bookmark_question", observability.AttributeQuestionID(questionID))
	defer observability.FinishSpan(span, &err)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO bookmarks (question_id, created_at) VALUES ($1, $2) ON CONFLICT (question_id) DO NOTHING`,
		questionID, time.Now())
	if err != nil {
		return false, contextutils.WrapError(contextutils.ErrBookmarkFailed, "failed to insert bookmark")
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, contextutils.WrapError(err, "failed to read bookmark result")
	}
	if inserted > 0 {
		return true, nil
	}

	// Already bookmarked: the toggle removes it
	if _, err = s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE question_id = $1`, questionID); err != nil {
		return false, contextutils.WrapError(contextutils.ErrBookmarkFailed, "failed to remove bookmark")
	}
	return true, nil
}

// GetBookmarkedIDs returns the canonical ids of a project's bookmarked
// questions. Bookmark rows are stored under the target id, so the join
// resolves each row back to the canonical id the engine keys its set by.
func (s *QuestionService) GetBookmarkedIDs(ctx context.Context, projectID int) (result0 models.BookmarkSet, err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "get_bookmarked_ids", observability.AttributeProjectID(projectID))
	defer observability.FinishSpan(span, &err)

	query := `
		SELECT DISTINCT ` + canonicalIDExpr + `
		FROM bookmarks b
		JOIN cs_questions q ON b.question_id = ` + bookmarkTargetExpr + `
		WHERE q.project_id = $1`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query bookmarks")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close bookmark rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	set := models.NewBookmarkSet()
	for rows.Next() {
		var id int
		if err = rows.Scan(&id); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan bookmark row")
		}
		set.Add(id)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to read bookmarks")
	}
	return set, nil
}
