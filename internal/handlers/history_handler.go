package handlers

import (
	"net/http"
	"strconv"

	"csdash/internal/config"
	"csdash/internal/engine"
	"csdash/internal/models"
	"csdash/internal/observability"
	"csdash/internal/serviceinterfaces"
	contextutils "csdash/internal/utils"

	"github.com/gin-gonic/gin"
)

// HistoryHandler serves the engine-backed question history surface: the
// view-model snapshot, refreshes, selection, answers, bookmarks, and the
// active-question report from the live workspace.
type HistoryHandler struct {
	engines   *engine.Manager
	questions serviceinterfaces.QuestionServiceInterface
	cache     *engine.MemoryCache
	cfg       *config.Config
	logger    *observability.Logger
}

// NewHistoryHandler creates a new HistoryHandler instance. The cache must be
// the same instance the engine sessions invalidate against.
func NewHistoryHandler(engines *engine.Manager, questions serviceinterfaces.QuestionServiceInterface, cache *engine.MemoryCache, cfg *config.Config, logger *observability.Logger) *HistoryHandler {
	return &HistoryHandler{engines: engines, questions: questions, cache: cache, cfg: cfg, logger: logger}
}

func (h *HistoryHandler) sessionFor(c *gin.Context, projectID int) *engine.Session {
	return h.engines.GetOrCreate(c.Request.Context(), sessionKey(c), projectID)
}

func parseQuestionID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("qid"))
	if err != nil || id <= 0 {
		HandleValidationError(c, "question id", c.Param("qid"), "must be a positive integer")
		return 0, false
	}
	return id, true
}

// GetHistory handles GET /v1/projects/:id/history. A failed load is not an
// HTTP error: the snapshot carries the previous data with the stale flag set.
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}
	session := h.sessionFor(c, projectID)
	c.JSON(http.StatusOK, session.Snapshot())
}

// RefreshHistory handles POST /v1/projects/:id/history/refresh
func (h *HistoryHandler) RefreshHistory(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}
	session := h.sessionFor(c, projectID)
	if err := session.RefreshHistory(c.Request.Context()); err != nil {
		// Stale data with an advisory, not a failure page
		h.logger.Warn(c.Request.Context(), "History refresh failed", map[string]interface{}{
			"project_id": projectID,
			"error":      err.Error(),
		})
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

type tabRequest struct {
	Tab string `json:"tab" binding:"required"`
}

// SetTab handles POST /v1/projects/:id/tab. Only the edge into the history
// tab triggers a refresh.
func (h *HistoryHandler) SetTab(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}
	var req tabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "tab", "", err.Error())
		return
	}

	session := h.sessionFor(c, projectID)
	refreshed := session.SetActiveTab(c.Request.Context(), req.Tab)
	c.JSON(http.StatusOK, gin.H{
		"tab":       req.Tab,
		"refreshed": refreshed,
		"snapshot":  session.Snapshot(),
	})
}

// ToggleDate handles POST /v1/projects/:id/history/dates/:date/toggle,
// flipping one date bucket's expand/collapse state.
func (h *HistoryHandler) ToggleDate(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}
	date := c.Param("date")
	if !contextutils.IsValidISODate(date) {
		HandleValidationError(c, "date", date, "must be an ISO date (YYYY-MM-DD)")
		return
	}

	session := h.sessionFor(c, projectID)
	session.ToggleDate(date)
	c.JSON(http.StatusOK, session.Snapshot())
}

type selectRequest struct {
	ID       int                `json:"id"`
	Question *models.CSQuestion `json:"question"`
}

// SelectQuestion handles POST /v1/projects/:id/questions/select. The caller
// sends either a canonical id of a record already in the loaded history, or a
// full record.
func (h *HistoryHandler) SelectQuestion(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "selection", "", err.Error())
		return
	}

	session := h.sessionFor(c, projectID)
	var err error
	switch {
	case req.Question != nil:
		err = session.SelectQuestion(req.Question)
	case req.ID > 0:
		err = session.SelectByID(req.ID)
	default:
		HandleValidationError(c, "selection", req, "requires a question record or a positive id")
		return
	}
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

type answerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// SubmitAnswer handles POST /v1/projects/:id/questions/:qid/answer
func (h *HistoryHandler) SubmitAnswer(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}
	questionID, ok := parseQuestionID(c)
	if !ok {
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "answer", "", err.Error())
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_answer",
		observability.AttributeProjectID(projectID), observability.AttributeQuestionID(questionID))
	defer span.End()

	session := h.sessionFor(c, projectID)
	if err := session.SelectByID(questionID); err != nil {
		HandleAppError(c, err)
		return
	}
	feedback, err := session.SubmitAnswer(ctx, req.Answer)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"feedback": feedback,
		"snapshot": session.Snapshot(),
	})
}

// BookmarkQuestion handles POST /v1/projects/:id/questions/:qid/bookmark
func (h *HistoryHandler) BookmarkQuestion(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}
	questionID, ok := parseQuestionID(c)
	if !ok {
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "bookmark_question",
		observability.AttributeProjectID(projectID), observability.AttributeQuestionID(questionID))
	defer span.End()

	session := h.sessionFor(c, projectID)
	if err := session.ToggleBookmark(ctx, questionID); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bookmarked": session.Bookmarks().Contains(questionID),
	})
}

// GetBookmarks handles GET /v1/projects/:id/bookmarks, serving the project's
// bookmarked question ids through the process cache. A confirmed bookmark
// toggle drops the cached entry, so the next read hits the database again.
func (h *HistoryHandler) GetBookmarks(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_bookmarks",
		observability.AttributeProjectID(projectID))
	defer span.End()

	key := engine.ProjectBookmarksKey(projectID)
	if cached, ok := h.cache.Get(key); ok {
		c.JSON(http.StatusOK, gin.H{"bookmarked": cached})
		return
	}

	set, err := h.questions.GetBookmarkedIDs(ctx, projectID)
	if err != nil {
		HandleAppError(c, contextutils.WrapError(err, "failed to load bookmarks"))
		return
	}
	ids := set.IDs()
	h.cache.Set(key, ids)
	c.JSON(http.StatusOK, gin.H{"bookmarked": ids})
}

// SaveQuestion handles POST /v1/projects/:id/questions/:qid/save, persisting a
// generated question into the browsable history.
func (h *HistoryHandler) SaveQuestion(c *gin.Context) {
	if _, ok := parseProjectID(c); !ok {
		return
	}
	questionID, ok := parseQuestionID(c)
	if !ok {
		return
	}

	saved, err := h.questions.SaveQuestion(c.Request.Context(), questionID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	if !saved {
		HandleAppError(c, contextutils.WrapError(contextutils.ErrQuestionNotFound, "no question matched the given id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true})
}

type activeQuestionsRequest struct {
	IDs []int `json:"ids"`
}

// SetActiveQuestions handles POST /v1/projects/:id/active-questions: the live
// workspace reports the canonical ids currently being drafted.
func (h *HistoryHandler) SetActiveQuestions(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}
	var req activeQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "active ids", "", err.Error())
		return
	}

	session := h.sessionFor(c, projectID)
	session.SetActiveIDs(req.IDs)
	c.JSON(http.StatusOK, gin.H{"active": req.IDs})
}
