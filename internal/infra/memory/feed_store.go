package memory

import (
	"context"
	"sync"

	"quiz-scoring-service/internal/app"
	"quiz-scoring-service/internal/domain"
)

// FeedStore is a single-instance app.FeedRepository: feeds live in a map and
// broadcasts go straight to the local feed.
type FeedStore struct {
	mu    sync.RWMutex
	feeds map[string]*app.Feed
}

func NewFeedStore() *FeedStore {
	return &FeedStore{
		feeds: make(map[string]*app.Feed),
	}
}

func (s *FeedStore) GetOrCreate(quizID string) *app.Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	if feed, ok := s.feeds[quizID]; ok {
		return feed
	}
	feed := app.NewFeed(quizID)
	s.feeds[quizID] = feed
	return feed
}

func (s *FeedStore) Get(quizID string) (*app.Feed, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	feed, ok := s.feeds[quizID]
	return feed, ok
}

func (s *FeedStore) DeleteIfEmpty(quizID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[quizID]
	if !ok {
		return
	}
	if feed.IsEmpty() {
		delete(s.feeds, quizID)
	}
}

func (s *FeedStore) Watched(_ context.Context, quizID string) bool {
	feed, ok := s.Get(quizID)
	return ok && !feed.IsEmpty()
}

func (s *FeedStore) Broadcast(_ context.Context, stats domain.QuizStats) error {
	if feed, ok := s.Get(stats.QuizID); ok {
		feed.Publish(stats)
	}
	return nil
}
