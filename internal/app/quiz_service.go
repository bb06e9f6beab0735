package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"quiz-scoring-service/internal/domain"
	"quiz-scoring-service/internal/redaction"
	"quiz-scoring-service/internal/scoring"
)

// QuizStore holds quiz definitions. GetQuiz returns the full, unredacted
// definition without attempt history.
type QuizStore interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context, filter domain.QuizFilter) (domain.QuizPage, error)
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, quizID string) error
}

// AttemptLog is the append-only attempt history keyed by quiz. AppendAttempt
// must be atomic and return domain.ErrQuizNotFound when the quiz is gone.
type AttemptLog interface {
	AppendAttempt(ctx context.Context, quizID string, attempt domain.Attempt) error
	ListAttempts(ctx context.Context, quizID string) ([]domain.Attempt, error)
}

// UserHistory keeps lightweight attempt references per user.
type UserHistory interface {
	AppendAttempt(ctx context.Context, userID string, ref domain.AttemptRef) error
	ListAttempts(ctx context.Context, userID string) ([]domain.AttemptRef, error)
}

// FeedRepository abstracts where live stats feeds are registered and how
// updates reach them (in-process, or through Redis pub/sub across instances).
type FeedRepository interface {
	GetOrCreate(quizID string) *Feed
	Get(quizID string) (*Feed, bool)
	DeleteIfEmpty(quizID string)
	// Watched reports whether any instance has live subscribers for quizID.
	Watched(ctx context.Context, quizID string) bool
	// Broadcast delivers stats to every feed for stats.QuizID.
	Broadcast(ctx context.Context, stats domain.QuizStats) error
}

// QuizService contains the quiz use cases.
type QuizService struct {
	quizzes          QuizStore
	attempts         AttemptLog
	users            UserHistory
	feeds            FeedRepository
	recorder         *AttemptRecorder
	requirePublished bool
	now              func() time.Time
	newID            func() string
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithRequirePublished rejects submissions to unpublished quizzes as not found.
// Without it Submit scores drafts even though GetQuiz and ListQuizzes never
// show them, so anyone holding a draft's id can still submit to it.
func WithRequirePublished(require bool) Option {
	return func(s *QuizService) { s.requirePublished = require }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) {
		s.now = now
		s.recorder.now = now
	}
}

func NewQuizService(quizzes QuizStore, attempts AttemptLog, users UserHistory, feeds FeedRepository, opts ...Option) *QuizService {
	s := &QuizService{
		quizzes:  quizzes,
		attempts: attempts,
		users:    users,
		feeds:    feeds,
		recorder: NewAttemptRecorder(attempts, users),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit scores a submission against the full quiz and records the attempt.
// The result is only returned once the attempt has been persisted.
func (s *QuizService) Submit(ctx context.Context, userID string, submission domain.Submission) (domain.SubmissionResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, submission.QuizID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	if s.requirePublished && !quiz.Published {
		return domain.SubmissionResult{}, domain.ErrQuizNotFound
	}

	outcome := scoring.Score(quiz, submission.Answers)
	if _, err := s.recorder.Record(ctx, quiz.ID, userID, outcome); err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("record attempt: %w", err)
	}

	s.publishStats(ctx, quiz.ID)
	return outcome.Result, nil
}

// GetQuiz returns the redacted view of a published quiz.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (domain.PublicQuiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.PublicQuiz{}, err
	}
	if !quiz.Published {
		return domain.PublicQuiz{}, domain.ErrQuizNotFound
	}
	return redaction.Redact(quiz), nil
}

// ListQuizzes returns a redacted page of published quizzes, newest first.
func (s *QuizService) ListQuizzes(ctx context.Context, filter domain.QuizFilter) (domain.PublicPage, error) {
	filter.CreatorID = ""
	filter.PublishedOnly = true
	filter.Normalize()

	page, err := s.quizzes.ListQuizzes(ctx, filter)
	if err != nil {
		return domain.PublicPage{}, err
	}
	page.Page = filter.Page
	page.Pages = domain.PageCount(page.Total, filter.Limit)
	return redaction.RedactPage(page), nil
}

// ListMyQuizzes returns the creator's own quizzes, unredacted.
func (s *QuizService) ListMyQuizzes(ctx context.Context, creatorID string) ([]domain.Quiz, error) {
	if creatorID == "" {
		return nil, domain.ErrUnauthenticated
	}
	page, err := s.quizzes.ListQuizzes(ctx, domain.QuizFilter{CreatorID: creatorID})
	if err != nil {
		return nil, err
	}
	return page.Quizzes, nil
}

// ManageQuiz returns the full quiz with its attempt history to its creator.
func (s *QuizService) ManageQuiz(ctx context.Context, creatorID, quizID string) (domain.Quiz, error) {
	quiz, err := s.ownedQuiz(ctx, creatorID, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	attempts, err := s.attempts.ListAttempts(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz.Attempts = attempts
	return quiz, nil
}

// CreateQuiz validates and stores a new quiz owned by creatorID.
func (s *QuizService) CreateQuiz(ctx context.Context, creatorID string, quiz domain.Quiz) (domain.Quiz, error) {
	if creatorID == "" {
		return domain.Quiz{}, domain.ErrUnauthenticated
	}
	quiz.Normalize()
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, err
	}

	now := s.now().UTC()
	quiz.ID = s.newID()
	quiz.CreatorID = creatorID
	quiz.Attempts = nil
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	if err := s.quizzes.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// UpdateQuiz replaces the editable fields of a quiz. A nil publish keeps the
// current publication state. Attempt history is untouched.
func (s *QuizService) UpdateQuiz(ctx context.Context, creatorID, quizID string, update domain.Quiz, publish *bool) (domain.Quiz, error) {
	existing, err := s.ownedQuiz(ctx, creatorID, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	update.Published = existing.Published
	if publish != nil {
		update.Published = *publish
	}
	update.Normalize()
	if err := update.Validate(); err != nil {
		return domain.Quiz{}, err
	}

	update.ID = existing.ID
	update.CreatorID = existing.CreatorID
	update.CreatedAt = existing.CreatedAt
	update.UpdatedAt = s.now().UTC()
	update.Attempts = nil
	if err := s.quizzes.UpdateQuiz(ctx, update); err != nil {
		return domain.Quiz{}, err
	}
	return update, nil
}

// DeleteQuiz removes a quiz and, with it, its attempt history.
func (s *QuizService) DeleteQuiz(ctx context.Context, creatorID, quizID string) error {
	if _, err := s.ownedQuiz(ctx, creatorID, quizID); err != nil {
		return err
	}
	return s.quizzes.DeleteQuiz(ctx, quizID)
}

// Stats aggregates the attempt history of a quiz.
func (s *QuizService) Stats(ctx context.Context, quizID string) (domain.QuizStats, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return domain.QuizStats{}, err
	}
	attempts, err := s.attempts.ListAttempts(ctx, quizID)
	if err != nil {
		return domain.QuizStats{}, err
	}
	return statsFor(quizID, attempts, s.now().UTC()), nil
}

// UserHistory lists the attempts a signed-in user has made.
func (s *QuizService) UserHistory(ctx context.Context, userID string) ([]domain.AttemptRef, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if s.users == nil {
		return []domain.AttemptRef{}, nil
	}
	return s.users.ListAttempts(ctx, userID)
}

// SubscribeStats returns a channel that receives stats updates for a quiz,
// starting with the current snapshot. The caller must invoke the returned
// cancel function to avoid leaks.
func (s *QuizService) SubscribeStats(ctx context.Context, quizID string) (<-chan domain.QuizStats, func(), error) {
	stats, err := s.Stats(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	var (
		ch          <-chan domain.QuizStats
		unsubscribe func()
	)
	for {
		feed := s.feeds.GetOrCreate(quizID)
		ch, unsubscribe = feed.subscribe(stats)
		// A concurrent cancel may have dropped the feed before we joined it.
		if current, ok := s.feeds.Get(quizID); ok && current == feed {
			break
		}
		unsubscribe()
	}
	cancel := func() {
		unsubscribe()
		s.feeds.DeleteIfEmpty(quizID)
	}
	return ch, cancel, nil
}

func (s *QuizService) publishStats(ctx context.Context, quizID string) {
	if s.feeds == nil {
		return
	}
	if !s.feeds.Watched(ctx, quizID) {
		return
	}
	attempts, err := s.attempts.ListAttempts(ctx, quizID)
	if err != nil {
		log.Printf("publish stats for %s: %v", quizID, err)
		return
	}
	if err := s.feeds.Broadcast(ctx, statsFor(quizID, attempts, s.now().UTC())); err != nil {
		log.Printf("publish stats for %s: %v", quizID, err)
	}
}

func (s *QuizService) ownedQuiz(ctx context.Context, creatorID, quizID string) (domain.Quiz, error) {
	if creatorID == "" {
		return domain.Quiz{}, domain.ErrUnauthenticated
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.CreatorID != creatorID {
		return domain.Quiz{}, domain.ErrForbidden
	}
	return quiz, nil
}
