package engine

import "csdash/internal/models"

// CanonicalID resolves the single identifier for a question record.
//
// The three identity fields are populated inconsistently by the generation,
// submission, and history collaborators. Resolution precedence is fixed here
// and used everywhere identity is needed: QuestionID wins over CSQuestionID,
// which wins over the baseline ID. A record with none of the three has no
// canonical id and every keyed operation (selection, answering, bookmarking)
// is disabled for it.
func CanonicalID(q *models.CSQuestion) (int, bool) {
	if q == nil {
		return 0, false
	}
	if q.QuestionID != nil {
		return *q.QuestionID, true
	}
	if q.CSQuestionID != nil {
		return *q.CSQuestionID, true
	}
	if q.ID > 0 {
		return q.ID, true
	}
	return 0, false
}

// BookmarkTargetID selects the id variant to send to the bookmark collaborator.
// The collaborator keys bookmarks on the CS-question id when the record carries
// one, otherwise on the plain question id.
func BookmarkTargetID(q *models.CSQuestion) (int, bool) {
	if q == nil {
		return 0, false
	}
	if q.CSQuestionID != nil {
		return *q.CSQuestionID, true
	}
	return CanonicalID(q)
}
