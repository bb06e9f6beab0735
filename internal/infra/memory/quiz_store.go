package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"quiz-scoring-service/internal/domain"
)

// QuizStore is an in-memory quiz document store with an append-only attempt
// log per quiz. Every read and write deep-copies so callers never share
// slices with the stored documents.
type QuizStore struct {
	mu       sync.RWMutex
	quizzes  map[string]domain.Quiz
	attempts map[string][]domain.Attempt
}

// NewQuizStore returns a store seeded with quizzes (useful for tests/demos).
func NewQuizStore(seed ...domain.Quiz) *QuizStore {
	s := &QuizStore{
		quizzes:  make(map[string]domain.Quiz),
		attempts: make(map[string][]domain.Attempt),
	}
	for _, q := range seed {
		history := q.Attempts
		q.Attempts = nil
		s.quizzes[q.ID] = q.Clone()
		for _, a := range history {
			s.attempts[q.ID] = append(s.attempts[q.ID], a.Clone())
		}
	}
	return s
}

func (s *QuizStore) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz.Clone(), nil
}

func (s *QuizStore) ListQuizzes(_ context.Context, filter domain.QuizFilter) (domain.QuizPage, error) {
	s.mu.RLock()
	matched := make([]domain.Quiz, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		if matches(q, filter) {
			matched = append(matched, q.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < total {
		end = start + filter.Limit
	}
	return domain.QuizPage{Quizzes: matched[start:end], Total: total}, nil
}

func (s *QuizStore) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz.Attempts = nil
	s.quizzes[quiz.ID] = quiz.Clone()
	return nil
}

func (s *QuizStore) UpdateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; !ok {
		return domain.ErrQuizNotFound
	}
	quiz.Attempts = nil
	s.quizzes[quiz.ID] = quiz.Clone()
	return nil
}

func (s *QuizStore) DeleteQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	delete(s.attempts, quizID)
	return nil
}

// AppendAttempt appends under the store lock, so concurrent submissions to
// the same quiz never lose attempts.
func (s *QuizStore) AppendAttempt(_ context.Context, quizID string, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	s.attempts[quizID] = append(s.attempts[quizID], attempt.Clone())
	return nil
}

func (s *QuizStore) ListAttempts(_ context.Context, quizID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return nil, domain.ErrQuizNotFound
	}
	history := s.attempts[quizID]
	out := make([]domain.Attempt, len(history))
	for i, a := range history {
		out[i] = a.Clone()
	}
	return out, nil
}

func matches(q domain.Quiz, f domain.QuizFilter) bool {
	if f.CreatorID != "" && q.CreatorID != f.CreatorID {
		return false
	}
	if f.PublishedOnly && !q.Published {
		return false
	}
	if f.Category != "" && q.Category != f.Category {
		return false
	}
	if f.Difficulty != "" && q.Difficulty != f.Difficulty {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(q.Title), strings.ToLower(f.Search)) {
		return false
	}
	return true
}
