package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"quiz-scoring-service/internal/app"
	"quiz-scoring-service/internal/domain"
	"quiz-scoring-service/internal/infra/postgres"
	infraredis "quiz-scoring-service/internal/infra/redis"
)

func TestSubmitEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	if _, err := postgres.Migrate(ctx, pgURL); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	store := postgres.NewQuizStore(pool)
	quizzes := infraredis.NewQuizCache(redisClient, store, 5*time.Minute)
	feeds := infraredis.NewFeedStore(redisClient)
	service := app.NewQuizService(quizzes, store, postgres.NewUserHistory(pool), feeds)

	quiz, err := service.CreateQuiz(ctx, "author", sampleQuiz())
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	result, err := service.Submit(ctx, "u1", domain.Submission{
		QuizID: quiz.ID,
		Answers: []domain.Answer{
			{QuestionIndex: 0, SelectedOption: 1},
			{QuestionIndex: 1, SelectedOption: 1},
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 1 || result.Total != 2 || result.Percentage != 50 {
		t.Fatalf("expected 1/2 (50%%), got %d/%d (%d%%)", result.Score, result.Total, result.Percentage)
	}

	public, err := service.GetQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(public.Questions) != 2 || public.Questions[0].Options[1].Text != "4" {
		t.Fatalf("unexpected public quiz: %+v", public)
	}

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := service.Submit(ctx, fmt.Sprintf("user-%d", i), domain.Submission{
				QuizID:  quiz.ID,
				Answers: []domain.Answer{{QuestionIndex: 0, SelectedOption: 1}, {QuestionIndex: 1, SelectedOption: 0}},
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent submit: %v", err)
		}
	}

	stats, err := service.Stats(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.AttemptCount != n+1 {
		t.Fatalf("expected %d attempts, got %d", n+1, stats.AttemptCount)
	}
	if stats.BestScore != 100 {
		t.Fatalf("expected best score 100, got %d", stats.BestScore)
	}

	refs, err := service.UserHistory(ctx, "u1")
	if err != nil {
		t.Fatalf("user history: %v", err)
	}
	if len(refs) != 1 || refs[0].QuizID != quiz.ID || refs[0].Score != 1 {
		t.Fatalf("unexpected user history: %+v", refs)
	}

	managed, err := service.ManageQuiz(ctx, "author", quiz.ID)
	if err != nil {
		t.Fatalf("manage: %v", err)
	}
	if len(managed.Attempts) != n+1 || managed.Attempts[0].UserID != "u1" {
		t.Fatalf("expected attempts in append order, first by u1, got %d", len(managed.Attempts))
	}

	if err := service.DeleteQuiz(ctx, "author", quiz.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := service.Submit(ctx, "u1", domain.Submission{QuizID: quiz.ID}); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if _, err := store.ListAttempts(ctx, quiz.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected attempts removed with quiz, got %v", err)
	}
}

func TestListQuizzesFromPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	if _, err := postgres.Migrate(ctx, pgURL); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := postgres.NewQuizStore(pool)
	for i, title := range []string{"Rivers 100%", "Mountains", "Rivers again"} {
		q := sampleQuiz()
		q.ID = fmt.Sprintf("quiz-%d", i)
		q.Title = title
		q.CreatorID = "author"
		q.Published = i != 1
		q.Normalize()
		q.CreatedAt = time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)
		if err := store.CreateQuiz(ctx, q); err != nil {
			t.Fatalf("create %s: %v", q.ID, err)
		}
	}

	page, err := store.ListQuizzes(ctx, domain.QuizFilter{PublishedOnly: true, Search: "rivers", Page: 1, Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 || len(page.Quizzes) != 1 || page.Quizzes[0].ID != "quiz-2" {
		t.Fatalf("unexpected page: total=%d %+v", page.Total, page.Quizzes)
	}

	page, err = store.ListQuizzes(ctx, domain.QuizFilter{Search: "100%"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || page.Quizzes[0].ID != "quiz-0" {
		t.Fatalf("wildcards in search must be literal, got %+v", page.Quizzes)
	}

	page, err = store.ListQuizzes(ctx, domain.QuizFilter{CreatorID: "author"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 || len(page.Quizzes) != 3 {
		t.Fatalf("expected all own quizzes including drafts, got %d", len(page.Quizzes))
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		Title:     "Arithmetic",
		Category:  domain.CategoryMath,
		Published: true,
		Questions: []domain.Question{
			{
				Text: "What is 2 + 2?",
				Options: []domain.Option{
					{Text: "3", Correct: false},
					{Text: "4", Correct: true},
					{Text: "5", Correct: false},
				},
				Points: 1,
			},
			{
				Text: "What is 3 - 1?",
				Options: []domain.Option{
					{Text: "2", Correct: true},
					{Text: "1", Correct: false},
				},
				Points: 1,
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
