package scoring

import (
	"math"

	"quiz-scoring-service/internal/domain"
)

// Unanswered is the selected option recorded for a question with no answer.
const Unanswered = -1

// Outcome is everything derived from scoring one submission: the result
// returned to the submitter and the answer records kept on the attempt.
type Outcome struct {
	Result  domain.SubmissionResult
	Answers []domain.AnswerRecord
}

// Score grades answers against the quiz. Questions are visited in quiz order;
// when answers repeat a question index only the first entry counts. Missing
// answers, out-of-range indexes and questions without a correct option are
// all scored as incorrect. Score never fails.
func Score(quiz domain.Quiz, answers []domain.Answer) Outcome {
	key := ExtractAnswerKey(quiz.Questions)
	selected := firstAnswers(answers)

	results := make([]domain.QuestionResult, len(quiz.Questions))
	records := make([]domain.AnswerRecord, len(quiz.Questions))
	score := 0
	for i, q := range quiz.Questions {
		choice, ok := selected[i]
		if !ok {
			choice = Unanswered
		}
		entry := key[i]
		correct := entry.CorrectOption != NoCorrectOption && choice == entry.CorrectOption
		if correct {
			score += entry.Points
		}

		results[i] = domain.QuestionResult{
			QuestionIndex:  i,
			QuestionText:   q.Text,
			SelectedOption: choice,
			CorrectOption:  entry.CorrectOption,
			IsCorrect:      correct,
			Explanation:    q.Explanation,
			Options:        optionTexts(q),
		}
		records[i] = domain.AnswerRecord{
			QuestionIndex:  i,
			SelectedOption: choice,
			IsCorrect:      correct,
		}
	}

	total := key.Total()
	return Outcome{
		Result: domain.SubmissionResult{
			Score:      score,
			Total:      total,
			Percentage: Percentage(score, total),
			Results:    results,
		},
		Answers: records,
	}
}

// Percentage is round(100*score/total), or 0 when total is 0.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) * 100 / float64(total)))
}

// firstAnswers maps question index to the first selected option seen for it.
func firstAnswers(answers []domain.Answer) map[int]int {
	selected := make(map[int]int, len(answers))
	for _, a := range answers {
		if _, seen := selected[a.QuestionIndex]; seen {
			continue
		}
		selected[a.QuestionIndex] = a.SelectedOption
	}
	return selected
}

func optionTexts(q domain.Question) []string {
	texts := make([]string, len(q.Options))
	for i, opt := range q.Options {
		texts[i] = opt.Text
	}
	return texts
}
