// Package redaction produces the quiz shape shown to people taking a quiz.
package redaction

import "quiz-scoring-service/internal/domain"

// Redact copies q into a PublicQuiz, dropping every option's correct flag and
// the attempt history. The result shares no slices with q.
func Redact(q domain.Quiz) domain.PublicQuiz {
	questions := make([]domain.PublicQuestion, len(q.Questions))
	for i, question := range q.Questions {
		options := make([]domain.PublicOption, len(question.Options))
		for j, opt := range question.Options {
			options[j] = domain.PublicOption{Text: opt.Text}
		}
		questions[i] = domain.PublicQuestion{
			Text:        question.Text,
			Options:     options,
			Explanation: question.Explanation,
			Points:      question.Points,
		}
	}
	tags := append([]string{}, q.Tags...)
	return domain.PublicQuiz{
		ID:               q.ID,
		Title:            q.Title,
		Description:      q.Description,
		Category:         q.Category,
		Difficulty:       q.Difficulty,
		Questions:        questions,
		CreatorID:        q.CreatorID,
		Published:        q.Published,
		TimeLimitMinutes: q.TimeLimitMinutes,
		Tags:             tags,
		CoverImage:       q.CoverImage,
		CreatedAt:        q.CreatedAt,
		UpdatedAt:        q.UpdatedAt,
	}
}

// RedactAll redacts every quiz in order.
func RedactAll(quizzes []domain.Quiz) []domain.PublicQuiz {
	out := make([]domain.PublicQuiz, len(quizzes))
	for i, q := range quizzes {
		out[i] = Redact(q)
	}
	return out
}

// RedactPage redacts a listing page.
func RedactPage(page domain.QuizPage) domain.PublicPage {
	return domain.PublicPage{
		Quizzes: RedactAll(page.Quizzes),
		Total:   page.Total,
		Page:    page.Page,
		Pages:   page.Pages,
	}
}
