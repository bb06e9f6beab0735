package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
	MinOptions           = 2
	MaxOptions           = 6
)

// Normalize trims text fields and fills authoring defaults. It is applied
// before Validate on create and update.
func (q *Quiz) Normalize() {
	q.Title = strings.TrimSpace(q.Title)
	q.Description = strings.TrimSpace(q.Description)
	if q.Category == "" {
		q.Category = CategoryGeneral
	}
	if q.Difficulty == "" {
		q.Difficulty = DifficultyMedium
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}
	for i := range q.Questions {
		if q.Questions[i].Points == 0 {
			q.Questions[i].Points = 1
		}
	}
}

// Validate checks authoring rules. Scoring never calls this; it tolerates
// malformed quizzes on its own.
func (q Quiz) Validate() error {
	if q.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidQuiz)
	}
	if utf8.RuneCountInString(q.Title) > MaxTitleLength {
		return fmt.Errorf("%w: title cannot exceed %d characters", ErrInvalidQuiz, MaxTitleLength)
	}
	if utf8.RuneCountInString(q.Description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description cannot exceed %d characters", ErrInvalidQuiz, MaxDescriptionLength)
	}
	if !q.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidQuiz, q.Category)
	}
	if !q.Difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidQuiz, q.Difficulty)
	}
	if q.TimeLimitMinutes < 0 {
		return fmt.Errorf("%w: time limit cannot be negative", ErrInvalidQuiz)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: quiz must have at least 1 question", ErrInvalidQuiz)
	}
	for i, question := range q.Questions {
		if err := question.validate(); err != nil {
			return fmt.Errorf("%w: question %d %v", ErrInvalidQuiz, i+1, err)
		}
	}
	return nil
}

func (q Question) validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("must have text")
	}
	if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
		return fmt.Errorf("must have between %d and %d options", MinOptions, MaxOptions)
	}
	if q.Points < 0 {
		return errors.New("must have positive points")
	}
	correct := 0
	for _, opt := range q.Options {
		if strings.TrimSpace(opt.Text) == "" {
			return errors.New("has an option without text")
		}
		if opt.Correct {
			correct++
		}
	}
	if correct != 1 {
		return errors.New("must have exactly one correct answer")
	}
	return nil
}
