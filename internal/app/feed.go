package app

import (
	"sync"

	"quiz-scoring-service/internal/domain"
)

// Feed fans out stats updates for one quiz to live subscribers on this
// instance. Each subscriber remembers the attempt count it last received and
// never gets a snapshot older than that.
type Feed struct {
	quizID      string
	mu          sync.RWMutex
	subscribers map[chan domain.QuizStats]int
}

// NewFeed is exported for infrastructure layers that keep feed registries.
func NewFeed(quizID string) *Feed {
	return &Feed{
		quizID:      quizID,
		subscribers: make(map[chan domain.QuizStats]int),
	}
}

// QuizID returns the quiz this feed belongs to.
func (f *Feed) QuizID() string {
	return f.quizID
}

// IsEmpty reports whether the feed has no subscribers.
func (f *Feed) IsEmpty() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers) == 0
}

// subscribe registers a channel seeded with the initial stats snapshot.
func (f *Feed) subscribe(initial domain.QuizStats) (<-chan domain.QuizStats, func()) {
	ch := make(chan domain.QuizStats, 8)

	f.mu.Lock()
	f.subscribers[ch] = initial.AttemptCount
	ch <- initial
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers stats to every subscriber. Snapshots computed before one a
// subscriber already received (fewer attempts) are skipped, since concurrent
// submissions may finish publishing in any order.
func (f *Feed) Publish(stats domain.QuizStats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch, seen := range f.subscribers {
		if stats.AttemptCount < seen {
			continue
		}
		f.subscribers[ch] = stats.AttemptCount
		select {
		case ch <- stats:
		default:
			// Slow consumer: drop its oldest pending update so the newest one fits.
			select {
			case <-ch:
			default:
			}
			ch <- stats
		}
	}
}
