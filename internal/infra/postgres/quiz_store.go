package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"quiz-scoring-service/internal/domain"
)

// QuizStore keeps quiz documents as JSONB in Postgres. Listing columns are
// duplicated out of the document so filters can use indexes. Attempts live
// in their own append-only table and are removed by the foreign key cascade
// when their quiz is deleted.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, persistence("load quiz", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	quiz.Attempts = nil
	return quiz, nil
}

func (s *QuizStore) ListQuizzes(ctx context.Context, filter domain.QuizFilter) (domain.QuizPage, error) {
	where, args := listConditions(filter)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM quizzes`+where, args...).Scan(&total); err != nil {
		return domain.QuizPage{}, persistence("count quizzes", err)
	}

	query := `SELECT data FROM quizzes` + where + ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset())
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return domain.QuizPage{}, persistence("list quizzes", err)
	}
	defer rows.Close()

	quizzes := make([]domain.Quiz, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return domain.QuizPage{}, persistence("scan quiz", err)
		}
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err != nil {
			return domain.QuizPage{}, fmt.Errorf("unmarshal quiz: %w", err)
		}
		quiz.Attempts = nil
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return domain.QuizPage{}, persistence("list quizzes", err)
	}
	return domain.QuizPage{Quizzes: quizzes, Total: total}, nil
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	data, err := marshalDefinition(quiz)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quizzes (id, creator_id, title, category, difficulty, published, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9)`,
		quiz.ID, quiz.CreatorID, quiz.Title, string(quiz.Category), string(quiz.Difficulty),
		quiz.Published, data, quiz.CreatedAt, quiz.UpdatedAt)
	if err != nil {
		return persistence("insert quiz", err)
	}
	return nil
}

func (s *QuizStore) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	data, err := marshalDefinition(quiz)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE quizzes
		SET title=$2, category=$3, difficulty=$4, published=$5, data=$6::jsonb, updated_at=$7
		WHERE id=$1`,
		quiz.ID, quiz.Title, string(quiz.Category), string(quiz.Difficulty), quiz.Published, data, quiz.UpdatedAt)
	if err != nil {
		return persistence("update quiz", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *QuizStore) DeleteQuiz(ctx context.Context, quizID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id=$1`, quizID)
	if err != nil {
		return persistence("delete quiz", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

// AppendAttempt inserts one row; the insert is skipped when the quiz no
// longer exists, which is reported as domain.ErrQuizNotFound.
func (s *QuizStore) AppendAttempt(ctx context.Context, quizID string, attempt domain.Attempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO quiz_attempts (id, quiz_id, user_id, data, completed_at)
		SELECT $1::text, $2::text, $3::text, $4::jsonb, $5::timestamptz
		WHERE EXISTS (SELECT 1 FROM quizzes WHERE id=$2::text)`,
		attempt.ID, quizID, nullable(attempt.UserID), string(data), attempt.CompletedAt)
	if err != nil {
		return persistence("append attempt", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *QuizStore) ListAttempts(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quizzes WHERE id=$1)`, quizID).Scan(&exists); err != nil {
		return nil, persistence("check quiz", err)
	}
	if !exists {
		return nil, domain.ErrQuizNotFound
	}

	rows, err := s.pool.Query(ctx, `SELECT data FROM quiz_attempts WHERE quiz_id=$1 ORDER BY seq`, quizID)
	if err != nil {
		return nil, persistence("list attempts", err)
	}
	defer rows.Close()

	attempts := make([]domain.Attempt, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, persistence("scan attempt", err)
		}
		var attempt domain.Attempt
		if err := json.Unmarshal(raw, &attempt); err != nil {
			return nil, fmt.Errorf("unmarshal attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list attempts", err)
	}
	return attempts, nil
}

func listConditions(f domain.QuizFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.CreatorID != "" {
		add("creator_id = ?", f.CreatorID)
	}
	if f.PublishedOnly {
		conds = append(conds, "published")
	}
	if f.Category != "" {
		add("category = ?", string(f.Category))
	}
	if f.Difficulty != "" {
		add("difficulty = ?", string(f.Difficulty))
	}
	if f.Search != "" {
		add("title ILIKE ?", "%"+escapeLike(f.Search)+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func marshalDefinition(quiz domain.Quiz) (string, error) {
	quiz.Attempts = nil
	data, err := json.Marshal(quiz)
	if err != nil {
		return "", fmt.Errorf("marshal quiz: %w", err)
	}
	return string(data), nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, op, err)
}
