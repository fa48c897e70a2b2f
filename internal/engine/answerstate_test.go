package engine

import (
	"testing"

	"csdash/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		record *models.CSQuestion
		want   AnswerState
	}{
		{"answered flag", &models.CSQuestion{ID: 1, Answered: boolPtr(true)}, StateAnswered},
		{"done status", &models.CSQuestion{ID: 1, Status: models.QuestionStatusDone}, StateAnswered},
		{"non-blank answer", &models.CSQuestion{ID: 1, Answer: "x"}, StateAnswered},
		{"none of the signals", &models.CSQuestion{ID: 1}, StateTodo},
		{"blank answer does not count", &models.CSQuestion{ID: 1, Answer: "   "}, StateTodo},
		{"answered false", &models.CSQuestion{ID: 1, Answered: boolPtr(false)}, StateTodo},
		{"todo status", &models.CSQuestion{ID: 1, Status: models.QuestionStatusTodo}, StateTodo},
		{"nil record", nil, StateTodo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.record))
		})
	}
}

func TestBeginSubmitGuards(t *testing.T) {
	m := NewAnswerMachine()

	assert.False(t, m.BeginSubmit(""), "blank text must not start a submission")
	assert.False(t, m.BeginSubmit("  \t "), "whitespace-only text must not start a submission")
	assert.Equal(t, StateTodo, m.State())

	assert.True(t, m.BeginSubmit("my answer"))
	assert.Equal(t, StateAnswering, m.State())

	assert.False(t, m.BeginSubmit("another"), "no second submission while one is in flight")
}

func TestBeginSubmitOnAnsweredIsNoop(t *testing.T) {
	m := NewAnswerMachine()
	m.Reset(StateAnswered)
	assert.False(t, m.BeginSubmit("late answer"))
	assert.Equal(t, StateAnswered, m.State())
}

func TestCompleteSubmitStoresFeedback(t *testing.T) {
	m := NewAnswerMachine()
	m.BeginSubmit("answer")
	m.CompleteSubmit("Good answer!")

	assert.Equal(t, StateAnswered, m.State())
	assert.Equal(t, "Good answer!", m.Feedback())
	assert.Empty(t, m.Advisory())
}

func TestCompleteSubmitFalsyFeedbackUsesDefault(t *testing.T) {
	m := NewAnswerMachine()
	m.BeginSubmit("answer")
	m.CompleteSubmit("")

	assert.Equal(t, StateAnswered, m.State())
	assert.Equal(t, DefaultFeedback, m.Feedback())
}

func TestFailSubmitPreservesDraft(t *testing.T) {
	m := NewAnswerMachine()
	m.BeginSubmit("my careful draft")
	m.FailSubmit()

	assert.Equal(t, StateTodo, m.State())
	assert.Equal(t, "my careful draft", m.Draft())
	assert.Equal(t, SubmissionErrorAdvisory, m.Advisory())

	// Retry works after a failure
	assert.True(t, m.BeginSubmit(m.Draft()))
	assert.Empty(t, m.Advisory(), "starting a retry clears the advisory")
}

func TestResetClearsEverything(t *testing.T) {
	m := NewAnswerMachine()
	m.BeginSubmit("draft")
	m.FailSubmit()

	m.Reset(StateTodo)
	assert.Equal(t, StateTodo, m.State())
	assert.Empty(t, m.Draft())
	assert.Empty(t, m.Feedback())
	assert.Empty(t, m.Advisory())

	m.Reset(StateAnswered)
	assert.Equal(t, StateAnswered, m.State())
}

func TestCompleteAndFailOutsideAnsweringAreNoops(t *testing.T) {
	m := NewAnswerMachine()
	m.CompleteSubmit("feedback")
	assert.Equal(t, StateTodo, m.State())
	assert.Empty(t, m.Feedback())

	m.FailSubmit()
	assert.Empty(t, m.Advisory())
}
