package engine

import "sort"

// ActiveQuestionAdvisory is the banner shown instead of the answer form when
// the selected question is being drafted in the live workspace.
const ActiveQuestionAdvisory = "이 질문은 현재 CS 질문 탭에서 답변 중인 질문입니다. CS 질문 탭에서 답변해주세요."

// ActiveIDSet holds the canonical ids currently open for answering in the
// live workspace. It is supplied by that workspace, read-only here, and passed
// explicitly rather than shared through a global.
type ActiveIDSet map[int]struct{}

// NewActiveIDSet builds a set from a list of canonical ids
func NewActiveIDSet(ids ...int) ActiveIDSet {
	s := make(ActiveIDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// IsActive reports whether the given canonical id is being drafted live
func (s ActiveIDSet) IsActive(id int) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the member ids in ascending order
func (s ActiveIDSet) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// AnswerFormVisible decides whether the history detail view may offer its
// answer form. An active question suppresses the form regardless of the
// TODO/ANSWERED classification: two views must never both become the writer
// of one question's answer.
func AnswerFormVisible(state AnswerState, active bool) bool {
	return state == StateTodo && !active
}
