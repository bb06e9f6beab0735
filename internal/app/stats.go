package app

import (
	"time"

	"quiz-scoring-service/internal/domain"
)

// statsFor aggregates an attempt history.
func statsFor(quizID string, attempts []domain.Attempt, now time.Time) domain.QuizStats {
	best := 0
	for _, a := range attempts {
		if a.Percentage > best {
			best = a.Percentage
		}
	}
	history := domain.Quiz{ID: quizID, Attempts: attempts}
	return domain.QuizStats{
		QuizID:       quizID,
		AttemptCount: history.AttemptCount(),
		AverageScore: history.AverageScore(),
		BestScore:    best,
		UpdatedAt:    now,
	}
}
