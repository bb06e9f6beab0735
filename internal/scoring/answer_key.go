// Package scoring turns a quiz definition and a learner's answers into a
// scored result. Nothing here touches storage.
package scoring

import "quiz-scoring-service/internal/domain"

// NoCorrectOption marks a question without any option flagged correct.
const NoCorrectOption = -1

// KeyEntry is the answer key for a single question.
type KeyEntry struct {
	CorrectOption int
	Points        int
}

// AnswerKey holds one entry per question, in quiz order.
type AnswerKey []KeyEntry

// ExtractAnswerKey derives the correct option index and point value of every
// question. A question with no correct option gets NoCorrectOption; a
// non-positive point value counts as 1.
func ExtractAnswerKey(questions []domain.Question) AnswerKey {
	key := make(AnswerKey, len(questions))
	for i, q := range questions {
		key[i] = KeyEntry{
			CorrectOption: correctOptionIndex(q),
			Points:        pointValue(q),
		}
	}
	return key
}

// Total is the sum of all point values.
func (k AnswerKey) Total() int {
	total := 0
	for _, e := range k {
		total += e.Points
	}
	return total
}

func correctOptionIndex(q domain.Question) int {
	for i, opt := range q.Options {
		if opt.Correct {
			return i
		}
	}
	return NoCorrectOption
}

func pointValue(q domain.Question) int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}
