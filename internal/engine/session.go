// Package engine implements the cross-view question synchronization engine:
// identity reconciliation, date-based history aggregation, the answer
// lifecycle state machine, the active-question guard, bookmark coordination,
// and tab-switch-triggered refresh scheduling.
//
// One Session tracks one user's view of one project. Cross-view consistency is
// eventual and pull-based: changes become visible through an explicit refresh,
// never through a push channel.
package engine

import (
	"context"
	"sync"
	"time"

	"csdash/internal/models"
	"csdash/internal/observability"
	"csdash/internal/serviceinterfaces"
	contextutils "csdash/internal/utils"

	"github.com/google/uuid"
)

// selectionSignature captures the fields whose identity-wise change forces a
// full reset of the transient answer state.
type selectionSignature struct {
	canonicalID int
	answer      string
	status      models.QuestionStatus
	answered    bool
	answeredSet bool
}

func signatureOf(q *models.CSQuestion, canonicalID int) selectionSignature {
	sig := selectionSignature{
		canonicalID: canonicalID,
		answer:      q.Answer,
		status:      q.Status,
	}
	if q.Answered != nil {
		sig.answered = *q.Answered
		sig.answeredSet = true
	}
	return sig
}

// Session is one user's synchronization engine instance for one project.
type Session struct {
	id        string
	projectID int

	mu      sync.Mutex
	closed  bool
	touched time.Time

	questions serviceinterfaces.QuestionServiceInterface
	logger    *observability.Logger

	view      *HistoryView
	stale     bool
	bookmarks *BookmarkCoordinator
	machine   *AnswerMachine

	tabMu     sync.Mutex
	scheduler *RefreshScheduler

	selected    *models.CSQuestion
	selectedID  int
	selectedSig selectionSignature
	hasSelected bool
	active      ActiveIDSet
	pinned      map[int]struct{}
}

// NewSession creates an engine session for one project. Call Init to load the
// initial history and bookmark set.
func NewSession(projectID int, questions serviceinterfaces.QuestionServiceInterface, cache Invalidator, historyTab string, logger *observability.Logger) *Session {
	if logger == nil {
		logger = observability.NewLogger(nil)
	}
	s := &Session{
		id:        uuid.NewString(),
		projectID: projectID,
		touched:   time.Now(),
		questions: questions,
		logger:    logger,
		view:      NewHistoryView(nil),
		machine:   NewAnswerMachine(),
		active:    NewActiveIDSet(),
		pinned:    make(map[int]struct{}),
	}
	s.bookmarks = NewBookmarkCoordinator(questions.BookmarkQuestion, cache, nil, logger)
	s.scheduler = NewRefreshScheduler(historyTab, s.RefreshHistory, logger)
	return s
}

// ID returns the session's unique identifier
func (s *Session) ID() string {
	return s.id
}

// ProjectID returns the project this session tracks
func (s *Session) ProjectID() int {
	return s.projectID
}

// Init loads the initial bookmark set and question history. A history load
// failure is non-fatal: the session starts with an empty, stale-flagged view.
func (s *Session) Init(ctx context.Context) error {
	set, err := s.questions.GetBookmarkedIDs(ctx, s.projectID)
	if err != nil {
		s.logger.Warn(ctx, "Failed to load bookmark set", map[string]interface{}{
			"project_id": s.projectID,
			"error":      err.Error(),
		})
	} else {
		s.bookmarks.ReplaceSet(set)
	}
	return s.RefreshHistory(ctx)
}

// Close marks the session torn down; results of in-flight collaborator calls
// that land afterwards are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Touch records activity for idle eviction
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = time.Now()
}

// IdleSince returns the time of last activity
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// RefreshHistory re-pulls the history from the collaborator. On failure the
// previous data is retained and the view is flagged stale; the error is
// returned as a non-fatal HistoryLoadFailed advisory.
func (s *Session) RefreshHistory(ctx context.Context) error {
	history, err := s.questions.GetQuestionHistory(ctx, s.projectID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if err != nil {
		s.stale = true
		s.logger.Warn(ctx, "History refresh failed, retaining previous data", map[string]interface{}{
			"project_id": s.projectID,
			"error":      err.Error(),
		})
		return contextutils.WrapError(contextutils.ErrHistoryLoadFailed, "history refresh failed")
	}
	s.view.Replace(history)
	s.stale = false
	return nil
}

// SetActiveTab reports the externally-owned active-tab value. The edge into
// the history tab triggers a refresh; everything else is a no-op. Returns
// whether a refresh was triggered.
func (s *Session) SetActiveTab(ctx context.Context, tab string) bool {
	s.tabMu.Lock()
	defer s.tabMu.Unlock()
	return s.scheduler.Observe(ctx, tab)
}

// SetActiveIDs replaces the live workspace's active-question set
func (s *Session) SetActiveIDs(ids []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = NewActiveIDSet(ids...)
}

// IsActive reports whether a canonical id is being drafted in the live workspace
func (s *Session) IsActive(canonicalID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active.IsActive(canonicalID)
}

// SelectQuestion makes a record the current selection. Records with no
// canonical id are rejected and nothing changes. When the selection's
// identity changes, all transient answer state is reset to the new record's
// derived classification; re-selecting the identical record keeps state.
func (s *Session) SelectQuestion(q *models.CSQuestion) error {
	canonicalID, ok := CanonicalID(q)
	if !ok {
		return contextutils.ErrQuestionNoIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sig := signatureOf(q, canonicalID)
	if s.hasSelected && sig == s.selectedSig {
		s.selected = q
		return nil
	}

	s.selected = q
	s.selectedID = canonicalID
	s.selectedSig = sig
	s.hasSelected = true
	s.machine.Reset(s.classificationLocked(q, canonicalID))
	return nil
}

// SelectByID selects a record from the loaded history by canonical id
func (s *Session) SelectByID(canonicalID int) error {
	s.mu.Lock()
	q, ok := s.view.Find(canonicalID)
	s.mu.Unlock()
	if !ok {
		return contextutils.WrapError(contextutils.ErrQuestionNotFound, "question not in loaded history")
	}
	return s.SelectQuestion(q)
}

// Selected returns the currently selected record, if any
func (s *Session) Selected() (*models.CSQuestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.hasSelected
}

// classificationLocked derives a record's state, honoring the session pin:
// once a submission succeeded, the record stays ANSWERED for the rest of the
// session even if the server has not reflected it yet.
func (s *Session) classificationLocked(q *models.CSQuestion, canonicalID int) AnswerState {
	if _, ok := s.pinned[canonicalID]; ok {
		return StateAnswered
	}
	return Classify(q)
}

// SetDraft stores in-progress answer text for the selected question
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.SetDraft(text)
}

// SubmitAnswer submits answer text for the selected question and returns the
// feedback. Guards, in order: a selection must exist; the question must not be
// active in the live workspace; the text must be non-blank; no submission may
// already be in flight. On rejection the state returns to TODO with the
// advisory attached and the draft preserved.
func (s *Session) SubmitAnswer(ctx context.Context, text string) (feedback string, err error) {
	ctx, span := observability.TraceEngineFunction(ctx, "submit_answer", observability.AttributeProjectID(s.projectID))
	defer observability.FinishSpan(span, &err)

	s.mu.Lock()
	if !s.hasSelected {
		s.mu.Unlock()
		return "", contextutils.WrapError(contextutils.ErrQuestionNotFound, "no question selected")
	}
	canonicalID := s.selectedID
	if s.active.IsActive(canonicalID) {
		s.mu.Unlock()
		return "", contextutils.WrapError(contextutils.ErrQuestionActive, ActiveQuestionAdvisory)
	}
	if !contextutils.IsNonBlank(text) {
		s.mu.Unlock()
		return "", contextutils.WrapError(contextutils.ErrInvalidInput, "answer text is blank")
	}
	if !s.machine.BeginSubmit(text) {
		state := s.machine.State()
		s.mu.Unlock()
		if state == StateAnswering {
			return "", contextutils.WrapError(contextutils.ErrSubmissionInFlight, "submission already in flight")
		}
		return "", contextutils.WrapError(contextutils.ErrConflict, "question already answered")
	}
	s.mu.Unlock()

	serverFeedback, submitErr := s.questions.SubmitAnswer(ctx, canonicalID, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		// Session torn down while the submission was in flight; discard
		return "", contextutils.WrapError(contextutils.ErrConflict, "session closed")
	}

	if submitErr != nil {
		if s.selectedID == canonicalID {
			s.machine.FailSubmit()
		}
		s.logger.Error(ctx, "Answer submission failed", submitErr, map[string]interface{}{
			"project_id":  s.projectID,
			"question_id": canonicalID,
		})
		return "", contextutils.WrapError(contextutils.ErrSubmissionFailed, SubmissionErrorAdvisory)
	}

	// The server accepted the answer: pin the record ANSWERED for this
	// session even if a later fetch has not caught up yet.
	s.pinned[canonicalID] = struct{}{}
	if s.selectedID == canonicalID {
		s.machine.CompleteSubmit(serverFeedback)
		return s.machine.Feedback(), nil
	}
	if serverFeedback == "" {
		serverFeedback = DefaultFeedback
	}
	return serverFeedback, nil
}

// ToggleBookmark toggles the bookmark flag for a record in the loaded history.
// Dependent cached collections for the record's folder are invalidated on
// confirmation.
func (s *Session) ToggleBookmark(ctx context.Context, canonicalID int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return contextutils.WrapError(contextutils.ErrConflict, "session closed")
	}
	q, ok := s.view.Find(canonicalID)
	if !ok && s.hasSelected && s.selectedID == canonicalID {
		q, ok = s.selected, true
	}
	s.mu.Unlock()
	if !ok {
		return contextutils.WrapError(contextutils.ErrQuestionNotFound, "question not in loaded history")
	}

	return s.bookmarks.Toggle(ctx, q, bookmarkDependents(s.projectID, q)...)
}

// ToggleDate flips one date bucket's expand/collapse state
func (s *Session) ToggleDate(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Toggle(date)
}

// Bookmarks returns a copy of the current bookmark set
func (s *Session) Bookmarks() models.BookmarkSet {
	return s.bookmarks.Set()
}
