package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"quiz-scoring-service/internal/domain"
)

// UserHistory stores per-user attempt references in user_quiz_history.
type UserHistory struct {
	pool *pgxpool.Pool
}

func NewUserHistory(pool *pgxpool.Pool) *UserHistory {
	return &UserHistory{pool: pool}
}

func (h *UserHistory) AppendAttempt(ctx context.Context, userID string, ref domain.AttemptRef) error {
	_, err := h.pool.Exec(ctx, `
		INSERT INTO user_quiz_history (user_id, quiz_id, score, total, completed_at)
		VALUES ($1, $2, $3, $4, $5)`,
		userID, ref.QuizID, ref.Score, ref.Total, ref.CompletedAt)
	if err != nil {
		return persistence("append user history", err)
	}
	return nil
}

func (h *UserHistory) ListAttempts(ctx context.Context, userID string) ([]domain.AttemptRef, error) {
	rows, err := h.pool.Query(ctx, `
		SELECT quiz_id, score, total, completed_at
		FROM user_quiz_history WHERE user_id=$1 ORDER BY seq`, userID)
	if err != nil {
		return nil, persistence("list user history", err)
	}
	defer rows.Close()

	refs := make([]domain.AttemptRef, 0)
	for rows.Next() {
		var ref domain.AttemptRef
		if err := rows.Scan(&ref.QuizID, &ref.Score, &ref.Total, &ref.CompletedAt); err != nil {
			return nil, persistence("scan user history", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list user history", err)
	}
	return refs, nil
}
