package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"quiz-scoring-service/internal/domain"
)

// UserHistory keeps each user's attempt references in a Redis list:
//
//	RPUSH user:{userID}:attempts {json AttemptRef}
//
// RPUSH is atomic, so concurrent submissions by one user never drop entries.
type UserHistory struct {
	client *redis.Client
}

func NewUserHistory(client *redis.Client) *UserHistory {
	return &UserHistory{client: client}
}

func (h *UserHistory) AppendAttempt(ctx context.Context, userID string, ref domain.AttemptRef) error {
	data, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("marshal attempt ref: %w", err)
	}
	if err := h.client.RPush(ctx, historyKey(userID), data).Err(); err != nil {
		return fmt.Errorf("%w: append user history: %v", domain.ErrPersistence, err)
	}
	return nil
}

func (h *UserHistory) ListAttempts(ctx context.Context, userID string) ([]domain.AttemptRef, error) {
	raw, err := h.client.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read user history: %v", domain.ErrPersistence, err)
	}
	refs := make([]domain.AttemptRef, 0, len(raw))
	for _, item := range raw {
		var ref domain.AttemptRef
		if err := json.Unmarshal([]byte(item), &ref); err != nil {
			return nil, fmt.Errorf("unmarshal attempt ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func historyKey(userID string) string {
	return "user:" + userID + ":attempts"
}
