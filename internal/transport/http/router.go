package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"quiz-scoring-service/internal/app"
	"quiz-scoring-service/internal/auth"
)

// RouterConfig carries the transport settings read from config.
type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter mounts the REST API, the live stats websocket and health checks.
func NewRouter(service *app.QuizService, authSvc *auth.Service, cfg RouterConfig) http.Handler {
	h := NewHandler(service)
	ws := NewWSHandler(service)

	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		// Public reads and anonymous-friendly submission.
		api.Group(func(pub chi.Router) {
			pub.Use(authSvc.OptionalAuth)
			pub.Get("/quizzes", h.ListQuizzes)
			pub.Get("/quizzes/{id}", h.GetQuiz)
			pub.Get("/quizzes/{id}/stats", h.QuizStats)
			pub.Post("/quizzes/{id}/submit", h.SubmitQuiz)
		})

		// Creator and account routes.
		api.Group(func(pr chi.Router) {
			pr.Use(authSvc.RequireAuth)
			pr.Get("/quizzes/my", h.MyQuizzes)
			pr.Post("/quizzes", h.CreateQuiz)
			pr.Get("/quizzes/{id}/manage", h.ManageQuiz)
			pr.Put("/quizzes/{id}", h.UpdateQuiz)
			pr.Delete("/quizzes/{id}", h.DeleteQuiz)
			pr.Get("/users/me/attempts", h.MyAttempts)
		})
	})

	r.Get("/ws/quizzes/{id}/stats", ws.ServeStats)
	return r
}
