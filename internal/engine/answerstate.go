package engine

import (
	"strings"

	"csdash/internal/models"
)

// AnswerState is the derived lifecycle classification of a question record.
type AnswerState string

const (
	// StateTodo marks a question with no accepted answer yet
	StateTodo AnswerState = "TODO"
	// StateAnswering marks a submission in flight
	StateAnswering AnswerState = "ANSWERING"
	// StateAnswered is terminal for a record within one session
	StateAnswered AnswerState = "ANSWERED"
)

// User-facing strings for the answer flow.
const (
	// DefaultFeedback is substituted when submission resolves with no feedback text
	DefaultFeedback = "답변이 제출되었습니다."
	// SubmissionErrorAdvisory is attached when a submission is rejected
	SubmissionErrorAdvisory = "답변 제출 중 오류가 발생했습니다."
)

// Classify derives the initial answer state from a record's raw fields.
// ANSWERED wins when any of three independently-sourced signals says so: a
// non-blank answer text, an explicit DONE status, or the answered flag. The
// collaborators that populate these fields do so inconsistently, so the OR
// must tolerate any of them being absent.
func Classify(q *models.CSQuestion) AnswerState {
	if q == nil {
		return StateTodo
	}
	if q.HasAnswer() || q.Status == models.QuestionStatusDone || (q.Answered != nil && *q.Answered) {
		return StateAnswered
	}
	return StateTodo
}

// AnswerMachine holds the transient answer-flow state for the currently
// selected question: draft text, in-flight flag, received feedback, and the
// error advisory. It is reset wholesale whenever the selection changes so no
// draft ever leaks onto another question. Not safe for concurrent use; the
// owning session serializes access.
type AnswerMachine struct {
	state    AnswerState
	draft    string
	feedback string
	advisory string
}

// NewAnswerMachine creates a machine in the TODO state
func NewAnswerMachine() *AnswerMachine {
	return &AnswerMachine{state: StateTodo}
}
// Reset clears all transient state back to the given initial classification
func (m *AnswerMachine) Reset(initial AnswerState) {
	m.state = initial
	m.draft = ""
	m.feedback = ""
	m.advisory = ""
}

// State returns the current lifecycle state
func (m *AnswerMachine) State() AnswerState {
	return m.state
}

// Draft returns the preserved draft answer text
func (m *AnswerMachine) Draft() string {
	return m.draft
}

// SetDraft stores in-progress answer text
func (m *AnswerMachine) SetDraft(text string) {
	m.draft = text
}

// Feedback returns the feedback text received on successful submission
func (m *AnswerMachine) Feedback() string {
	return m.feedback
}

// Advisory returns the attached error advisory, empty when none
func (m *AnswerMachine) Advisory() string {
	return m.advisory
}

// BeginSubmit attempts the TODO -> ANSWERING transition. It reports false
// without side effects when the text is blank after trimming, a submission is
// already in flight, or the question is already answered.
func (m *AnswerMachine) BeginSubmit(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	if m.state != StateTodo {
		return false
	}
	m.state = StateAnswering
	m.draft = text
	m.advisory = ""
	return true
}

// CompleteSubmit finishes the ANSWERING -> ANSWERED transition. A falsy
// feedback value is replaced with the fixed default acknowledgement.
func (m *AnswerMachine) CompleteSubmit(feedback string) {
	if m.state != StateAnswering {
		return
	}
	if feedback == "" {
		feedback = DefaultFeedback
	}
	m.state = StateAnswered
	m.feedback = feedback
	m.advisory = ""
}

// FailSubmit reverts ANSWERING -> TODO with the error advisory attached.
// The draft is preserved so the user can retry without retyping.
func (m *AnswerMachine) FailSubmit() {
	if m.state != StateAnswering {
		return
	}
	m.state = StateTodo
	m.advisory = SubmissionErrorAdvisory
}
