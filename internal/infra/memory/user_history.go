package memory

import (
	"context"
	"sync"

	"quiz-scoring-service/internal/domain"
)

// UserHistory is an in-memory implementation of app.UserHistory.
type UserHistory struct {
	mu      sync.RWMutex
	history map[string][]domain.AttemptRef
}

func NewUserHistory() *UserHistory {
	return &UserHistory{history: make(map[string][]domain.AttemptRef)}
}

func (h *UserHistory) AppendAttempt(_ context.Context, userID string, ref domain.AttemptRef) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history[userID] = append(h.history[userID], ref)
	return nil
}

func (h *UserHistory) ListAttempts(_ context.Context, userID string) ([]domain.AttemptRef, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]domain.AttemptRef{}, h.history[userID]...), nil
}
