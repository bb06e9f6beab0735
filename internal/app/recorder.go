package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"quiz-scoring-service/internal/domain"
	"quiz-scoring-service/internal/scoring"
)

// AttemptRecorder persists scored attempts. It is the only writer of a quiz's
// attempt history.
type AttemptRecorder struct {
	attempts AttemptLog
	users    UserHistory
	now      func() time.Time
	newID    func() string
}

// NewAttemptRecorder builds a recorder. users may be nil, in which case no
// per-user history is kept.
func NewAttemptRecorder(attempts AttemptLog, users UserHistory) *AttemptRecorder {
	return &AttemptRecorder{
		attempts: attempts,
		users:    users,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Record appends the attempt to the quiz history and then, for signed-in
// users, adds a reference to their own history. The user-history write is
// best effort: once the attempt is appended, a failure there is only logged.
func (r *AttemptRecorder) Record(ctx context.Context, quizID, userID string, outcome scoring.Outcome) (domain.Attempt, error) {
	attempt := domain.Attempt{
		ID:          r.newID(),
		UserID:      userID,
		Score:       outcome.Result.Score,
		Total:       outcome.Result.Total,
		Percentage:  outcome.Result.Percentage,
		Answers:     append([]domain.AnswerRecord(nil), outcome.Answers...),
		CompletedAt: r.now().UTC(),
	}

	if err := r.attempts.AppendAttempt(ctx, quizID, attempt); err != nil {
		return domain.Attempt{}, err
	}

	if userID != "" && r.users != nil {
		ref := domain.AttemptRef{
			QuizID:      quizID,
			Score:       attempt.Score,
			Total:       attempt.Total,
			CompletedAt: attempt.CompletedAt,
		}
		if err := r.users.AppendAttempt(ctx, userID, ref); err != nil {
			log.Printf("record attempt %s: user history for %s not updated: %v", attempt.ID, userID, err)
		}
	}
	return attempt, nil
}
