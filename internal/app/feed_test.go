package app

import (
	"testing"

	"quiz-scoring-service/internal/domain"
)

func TestFeedSkipsOlderSnapshots(t *testing.T) {
	feed := NewFeed("quiz-1")
	ch, cancel := feed.subscribe(domain.QuizStats{QuizID: "quiz-1", AttemptCount: 0})
	defer cancel()

	// Two submissions race: the one that saw two attempts publishes first.
	feed.Publish(domain.QuizStats{QuizID: "quiz-1", AttemptCount: 2, AverageScore: 75})
	feed.Publish(domain.QuizStats{QuizID: "quiz-1", AttemptCount: 1, AverageScore: 50})

	if got := (<-ch).AttemptCount; got != 0 {
		t.Fatalf("expected initial snapshot first, got %d attempts", got)
	}
	if got := <-ch; got.AttemptCount != 2 || got.AverageScore != 75 {
		t.Fatalf("expected the two-attempt snapshot, got %+v", got)
	}
	select {
	case stale := <-ch:
		t.Fatalf("older snapshot must not be delivered, got %+v", stale)
	default:
	}

	feed.Publish(domain.QuizStats{QuizID: "quiz-1", AttemptCount: 2, AverageScore: 75})
	if got := (<-ch).AttemptCount; got != 2 {
		t.Fatalf("a snapshot with the same count is still delivered, got %d", got)
	}
}

func TestFeedSkipsSnapshotsOlderThanInitial(t *testing.T) {
	feed := NewFeed("quiz-1")
	ch, cancel := feed.subscribe(domain.QuizStats{QuizID: "quiz-1", AttemptCount: 5})
	defer cancel()
	<-ch

	feed.Publish(domain.QuizStats{QuizID: "quiz-1", AttemptCount: 4})
	select {
	case stale := <-ch:
		t.Fatalf("snapshot older than the initial one was delivered: %+v", stale)
	default:
	}
}

func TestFeedDropsOldestForSlowSubscriber(t *testing.T) {
	feed := NewFeed("quiz-1")
	ch, cancel := feed.subscribe(domain.QuizStats{QuizID: "quiz-1"})
	defer cancel()

	for i := 1; i <= 20; i++ {
		feed.Publish(domain.QuizStats{QuizID: "quiz-1", AttemptCount: i})
	}

	last := -1
	for len(ch) > 0 {
		last = (<-ch).AttemptCount
	}
	if last != 20 {
		t.Fatalf("expected the newest snapshot to survive, got %d", last)
	}

	cancel()
	if !feed.IsEmpty() {
		t.Fatalf("expected feed empty after cancel")
	}
}
