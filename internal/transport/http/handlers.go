package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"quiz-scoring-service/internal/app"
	"quiz-scoring-service/internal/auth"
	"quiz-scoring-service/internal/domain"
)

const maxBodyBytes = 1 << 20

// Handler serves the REST surface of the quiz service.
type Handler struct {
	service *app.QuizService
}

func NewHandler(service *app.QuizService) *Handler {
	return &Handler{service: service}
}

type quizPayload struct {
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Category         domain.Category   `json:"category"`
	Difficulty       domain.Difficulty `json:"difficulty"`
	Questions        []domain.Question `json:"questions"`
	TimeLimitMinutes int               `json:"timeLimitMinutes"`
	Tags             []string          `json:"tags"`
	CoverImage       string            `json:"coverImage"`
	IsPublished      *bool             `json:"isPublished"`
}

func (p quizPayload) toQuiz() domain.Quiz {
	return domain.Quiz{
		Title:            p.Title,
		Description:      p.Description,
		Category:         p.Category,
		Difficulty:       p.Difficulty,
		Questions:        p.Questions,
		TimeLimitMinutes: p.TimeLimitMinutes,
		Tags:             p.Tags,
		CoverImage:       p.CoverImage,
		Published:        p.IsPublished == nil || *p.IsPublished,
	}
}

// ListQuizzes handles GET /api/quizzes.
func (h *Handler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	result, err := h.service.ListQuizzes(r.Context(), domain.QuizFilter{
		Category:   domain.Category(q.Get("category")),
		Difficulty: domain.Difficulty(q.Get("difficulty")),
		Search:     q.Get("search"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// MyQuizzes handles GET /api/quizzes/my.
func (h *Handler) MyQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.ListMyQuizzes(r.Context(), auth.UserFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quizzes": quizzes})
}

// GetQuiz handles GET /api/quizzes/{id}; the quiz is always redacted.
func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.GetQuiz(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quiz": quiz})
}

// ManageQuiz handles GET /api/quizzes/{id}/manage for the quiz creator.
func (h *Handler) ManageQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.ManageQuiz(r.Context(), auth.UserFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"quiz":         quiz,
		"attemptCount": quiz.AttemptCount(),
		"averageScore": quiz.AverageScore(),
	})
}

// CreateQuiz handles POST /api/quizzes.
func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var payload quizPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}
	quiz, err := h.service.CreateQuiz(r.Context(), auth.UserFromContext(r.Context()), payload.toQuiz())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Quiz created successfully", "quiz": quiz})
}

// UpdateQuiz handles PUT /api/quizzes/{id}.
func (h *Handler) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	var payload quizPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}
	quiz, err := h.service.UpdateQuiz(r.Context(), auth.UserFromContext(r.Context()), chi.URLParam(r, "id"), payload.toQuiz(), payload.IsPublished)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Quiz updated successfully", "quiz": quiz})
}

// DeleteQuiz handles DELETE /api/quizzes/{id}.
func (h *Handler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteQuiz(r.Context(), auth.UserFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Quiz deleted successfully"})
}

// SubmitQuiz handles POST /api/quizzes/{id}/submit. Anonymous submissions are allowed.
func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", domain.ErrMalformedSubmission, err))
		return
	}
	if err := validateSubmission(body); err != nil {
		writeError(w, err)
		return
	}
	var payload submissionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, fmt.Errorf("%w: %v", domain.ErrMalformedSubmission, err))
		return
	}

	result, err := h.service.Submit(r.Context(), auth.UserFromContext(r.Context()), domain.Submission{
		QuizID:  chi.URLParam(r, "id"),
		Answers: payload.toAnswers(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// QuizStats handles GET /api/quizzes/{id}/stats.
func (h *Handler) QuizStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// MyAttempts handles GET /api/users/me/attempts.
func (h *Handler) MyAttempts(w http.ResponseWriter, r *http.Request) {
	refs, err := h.service.UserHistory(r.Context(), auth.UserFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attempts": refs})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("%w: bad json: %v", domain.ErrInvalidQuiz, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Quiz not found"})
	case errors.Is(err, domain.ErrMalformedSubmission), errors.Is(err, domain.ErrInvalidQuiz):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Authentication required. Please login."})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "Not authorized to modify this quiz"})
	case errors.Is(err, domain.ErrPersistence):
		log.Printf("storage failure: %v", err)
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "Storage temporarily unavailable, please retry"})
	default:
		log.Printf("request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
	}
}
