package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"quiz-scoring-service/internal/app"
	"quiz-scoring-service/internal/domain"
	"quiz-scoring-service/internal/infra/memory"
)

func TestFeedStoreSubscribesWhileWatched(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := newClient(mr)
	defer client.Close()
	store := NewFeedStore(client)

	feed := store.GetOrCreate("quiz-1")
	if feed == nil || feed.QuizID() != "quiz-1" {
		t.Fatalf("expected feed for quiz-1")
	}
	if again := store.GetOrCreate("quiz-1"); again != feed {
		t.Fatalf("expected the registered feed to be reused")
	}
	if subscribers(t, client, "quiz-1") != 1 {
		t.Fatalf("expected one subscription to quiz:quiz-1:stats")
	}
	if !store.Watched(ctx, "quiz-1") {
		t.Fatalf("a subscribed channel counts as watched")
	}

	store.DeleteIfEmpty("quiz-1")
	if _, ok := store.Get("quiz-1"); ok {
		t.Fatalf("expected feed removed locally")
	}
	waitFor(t, "subscription closed", func() bool { return subscribers(t, client, "quiz-1") == 0 })
	if store.Watched(ctx, "quiz-1") {
		t.Fatalf("quiz without subscribers must not be watched")
	}
}

func TestStatsReachWatchersOnOtherInstances(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	quizzes := memory.NewQuizStore(sampleQuiz())
	clientA, clientB := newClient(mr), newClient(mr)
	defer clientA.Close()
	defer clientB.Close()
	instanceA := app.NewQuizService(quizzes, quizzes, nil, NewFeedStore(clientA))
	instanceB := app.NewQuizService(quizzes, quizzes, nil, NewFeedStore(clientB))

	updates, cancel, err := instanceA.SubscribeStats(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	if initial := next(t, updates); initial.AttemptCount != 0 {
		t.Fatalf("expected empty initial snapshot, got %+v", initial)
	}

	_, err = instanceB.Submit(ctx, "u1", domain.Submission{
		QuizID:  "quiz-1",
		Answers: []domain.Answer{{QuestionIndex: 0, SelectedOption: 1}},
	})
	if err != nil {
		t.Fatalf("submit on instance B: %v", err)
	}

	update := next(t, updates)
	if update.QuizID != "quiz-1" || update.AttemptCount != 1 || update.BestScore != 100 {
		t.Fatalf("expected stats for the attempt recorded on instance B, got %+v", update)
	}
}

func TestBroadcastFallsBackToLocalFeedWhenRedisIsDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	quizzes := memory.NewQuizStore(sampleQuiz())
	client := newClient(mr)
	defer client.Close()
	feeds := NewFeedStore(client)
	service := app.NewQuizService(quizzes, quizzes, nil, feeds)

	updates, cancel, err := service.SubscribeStats(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	next(t, updates)

	mr.Close()
	if err := feeds.Broadcast(context.Background(), domain.QuizStats{QuizID: "quiz-1", AttemptCount: 2}); err == nil {
		t.Fatalf("expected publish error with redis down")
	}
	if got := next(t, updates).AttemptCount; got != 2 {
		t.Fatalf("expected local delivery, got %d attempts", got)
	}
}

func next(t *testing.T, updates <-chan domain.QuizStats) domain.QuizStats {
	t.Helper()
	select {
	case stats := <-updates:
		return stats
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for stats")
		return domain.QuizStats{}
	}
}

func subscribers(t *testing.T, client *redis.Client, quizID string) int64 {
	t.Helper()
	counts, err := client.PubSubNumSub(context.Background(), statsChannel(quizID)).Result()
	if err != nil {
		t.Fatalf("pubsub numsub: %v", err)
	}
	return counts[statsChannel(quizID)]
}

func waitFor(t *testing.T, what string, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !done() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
