package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"quiz-scoring-service/internal/app"
	"quiz-scoring-service/internal/domain"
)

const subscribeTimeout = 5 * time.Second

// FeedStore shares live stats between service instances over Redis pub/sub.
//
//	PUBLISH quiz:{quizID}:stats {json QuizStats}
//
// An instance subscribes to a quiz's channel while it has local watchers and
// relays every message into its local app.Feed. Broadcast publishes to the
// channel, so a submission handled by any instance reaches watchers on all of
// them, including its own.
type FeedStore struct {
	client *redis.Client
	mu     sync.RWMutex
	feeds  map[string]*feedEntry
}

type feedEntry struct {
	feed   *app.Feed
	pubsub *redis.PubSub
}

func NewFeedStore(client *redis.Client) *FeedStore {
	return &FeedStore{
		client: client,
		feeds:  make(map[string]*feedEntry),
	}
}

func (s *FeedStore) GetOrCreate(quizID string) *app.Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.feeds[quizID]; ok {
		return entry.feed
	}
	entry := &feedEntry{feed: app.NewFeed(quizID)}
	entry.pubsub = s.subscribe(quizID, entry.feed)
	s.feeds[quizID] = entry
	return entry.feed
}

func (s *FeedStore) Get(quizID string) (*app.Feed, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.feeds[quizID]
	if !ok {
		return nil, false
	}
	return entry.feed, true
}

func (s *FeedStore) DeleteIfEmpty(quizID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.feeds[quizID]
	if !ok || !entry.feed.IsEmpty() {
		return
	}
	delete(s.feeds, quizID)
	if entry.pubsub != nil {
		if err := entry.pubsub.Close(); err != nil {
			log.Printf("unsubscribe stats for %s: %v", quizID, err)
		}
	}
}

// Watched is true when this instance has watchers or any instance is
// subscribed to the quiz's stats channel.
func (s *FeedStore) Watched(ctx context.Context, quizID string) bool {
	if feed, ok := s.Get(quizID); ok && !feed.IsEmpty() {
		return true
	}
	counts, err := s.client.PubSubNumSub(ctx, statsChannel(quizID)).Result()
	if err != nil {
		log.Printf("count stats subscribers for %s: %v", quizID, err)
		return false
	}
	return counts[statsChannel(quizID)] > 0
}

// Broadcast publishes stats to every instance. A local feed whose
// subscription could not be set up, or that Redis cannot reach, is updated
// directly.
func (s *FeedStore) Broadcast(ctx context.Context, stats domain.QuizStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	s.mu.RLock()
	local, ok := s.feeds[stats.QuizID]
	s.mu.RUnlock()

	err = s.client.Publish(ctx, statsChannel(stats.QuizID), data).Err()
	if ok && (err != nil || local.pubsub == nil) {
		local.feed.Publish(stats)
	}
	if err != nil {
		return fmt.Errorf("%w: publish stats: %v", domain.ErrPersistence, err)
	}
	return nil
}

// subscribe waits for Redis to confirm the subscription so an update
// published right after GetOrCreate returns is not missed.
func (s *FeedStore) subscribe(quizID string, feed *app.Feed) *redis.PubSub {
	ctx, cancel := context.WithTimeout(context.Background(), subscribeTimeout)
	defer cancel()

	pubsub := s.client.Subscribe(ctx, statsChannel(quizID))
	if _, err := pubsub.Receive(ctx); err != nil {
		log.Printf("subscribe to stats for %s: %v", quizID, err)
		_ = pubsub.Close()
		return nil
	}
	go relay(feed, pubsub.Channel())
	return pubsub
}

// relay runs until the subscription is closed.
func relay(feed *app.Feed, messages <-chan *redis.Message) {
	for msg := range messages {
		var stats domain.QuizStats
		if err := json.Unmarshal([]byte(msg.Payload), &stats); err != nil {
			log.Printf("decode stats for %s: %v", feed.QuizID(), err)
			continue
		}
		feed.Publish(stats)
	}
}

func statsChannel(quizID string) string {
	return "quiz:" + quizID + ":stats"
}
