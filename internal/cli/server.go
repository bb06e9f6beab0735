package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"quiz-scoring-service/internal/app"
	"quiz-scoring-service/internal/auth"
	"quiz-scoring-service/internal/config"
	"quiz-scoring-service/internal/domain"
	"quiz-scoring-service/internal/infra/memory"
	"quiz-scoring-service/internal/infra/postgres"
	infraredis "quiz-scoring-service/internal/infra/redis"
	transport "quiz-scoring-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := listenPort(portFlag, cfg.Server.Port)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		quizzes  app.QuizStore
		attempts app.AttemptLog
		users    app.UserHistory
	)
	if pool != nil {
		store := postgres.NewQuizStore(pool)
		quizzes, attempts = store, store
		users = postgres.NewUserHistory(pool)
	} else {
		log.Printf("postgres not configured, using in-memory quiz store with demo data")
		store := memory.NewQuizStore(sampleQuizzes()...)
		quizzes, attempts = store, store
		users = memory.NewUserHistory()
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var feeds app.FeedRepository
	if redisClient != nil {
		quizzes = infraredis.NewQuizCache(redisClient, quizzes, quizTTL)
		if pool == nil {
			users = infraredis.NewUserHistory(redisClient)
		}
		feeds = infraredis.NewFeedStore(redisClient)
	} else {
		quizzes = memory.NewQuizCache(quizzes, quizTTL)
		feeds = memory.NewFeedStore()
	}

	service := app.NewQuizService(quizzes, attempts, users, feeds,
		app.WithRequirePublished(cfg.Quiz.RequirePublished))
	authSvc := auth.NewService(cfg.AuthSecret(), config.TTLDuration(cfg.Auth.TokenTTL, 0))
	router := transport.NewRouter(service, authSvc, transport.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: config.TTLDuration(cfg.Server.RequestTimeout, 30*time.Second),
	})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// listenPort prefers the --port flag (or PORT), then server.port from config,
// then 8080.
func listenPort(flag, configured string) string {
	if flag != "" {
		return flag
	}
	if configured != "" {
		return configured
	}
	return "8080"
}

// sampleQuizzes seeds the in-memory store so the service is usable without a database.
func sampleQuizzes() []domain.Quiz {
	now := time.Now().UTC()
	return []domain.Quiz{
		{
			ID:          "quiz-1",
			Title:       "Warm-up arithmetic",
			Description: "Two quick questions to try the scoring flow.",
			Category:    domain.CategoryMath,
			Difficulty:  domain.DifficultyEasy,
			CreatorID:   "demo",
			Published:   true,
			Tags:        []string{"demo"},
			Questions: []domain.Question{
				{
					Text: "What is 2 + 2?",
					Options: []domain.Option{
						{Text: "3"},
						{Text: "4", Correct: true},
						{Text: "5"},
					},
					Explanation: "2 + 2 = 4.",
					Points:      1,
				},
				{
					Text: "What is 3 x 3?",
					Options: []domain.Option{
						{Text: "9", Correct: true},
						{Text: "6"},
					},
					Points: 2,
				},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}
