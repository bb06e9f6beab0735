package domain

import (
	"math"
	"time"
)

// Category is the closed set of quiz categories.
type Category string

const (
	CategoryGeneral       Category = "General"
	CategoryScience       Category = "Science"
	CategoryHistory       Category = "History"
	CategoryTechnology    Category = "Technology"
	CategorySports        Category = "Sports"
	CategoryEntertainment Category = "Entertainment"
	CategoryGeography     Category = "Geography"
	CategoryMath          Category = "Math"
	CategoryLanguage      Category = "Language"
	CategoryOther         Category = "Other"
)

var categories = map[Category]struct{}{
	CategoryGeneral: {}, CategoryScience: {}, CategoryHistory: {}, CategoryTechnology: {},
	CategorySports: {}, CategoryEntertainment: {}, CategoryGeography: {}, CategoryMath: {},
	CategoryLanguage: {}, CategoryOther: {},
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Difficulty is the closed set of quiz difficulty levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Option represents a possible answer for a question. Correct is only ever
// serialized for the quiz creator; general audiences get a PublicOption.
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"isCorrect"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	Text        string   `json:"text"`
	Options     []Option `json:"options"`
	Explanation string   `json:"explanation"`
	Points      int      `json:"points"` // defaults to 1 if zero
}

// Quiz is an ordered collection of questions plus metadata and attempt history.
type Quiz struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Category         Category   `json:"category"`
	Difficulty       Difficulty `json:"difficulty"`
	Questions        []Question `json:"questions"`
	CreatorID        string     `json:"creatorId"`
	Published        bool       `json:"isPublished"`
	TimeLimitMinutes int        `json:"timeLimitMinutes"` // 0 = unlimited
	Attempts         []Attempt  `json:"attempts,omitempty"`
	Tags             []string   `json:"tags"`
	CoverImage       string     `json:"coverImage,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// AttemptCount is the number of recorded attempts.
func (q Quiz) AttemptCount() int {
	return len(q.Attempts)
}

// AverageScore is the rounded mean percentage over all attempts, 0 when there are none.
func (q Quiz) AverageScore() int {
	if len(q.Attempts) == 0 {
		return 0
	}
	sum := 0
	for _, a := range q.Attempts {
		sum += a.Percentage
	}
	return int(math.Round(float64(sum) / float64(len(q.Attempts))))
}

// Clone returns a deep copy so callers never alias another holder's slices.
func (q Quiz) Clone() Quiz {
	out := q
	if q.Questions != nil {
		out.Questions = make([]Question, len(q.Questions))
		for i, question := range q.Questions {
			out.Questions[i] = question
			if question.Options != nil {
				out.Questions[i].Options = append([]Option(nil), question.Options...)
			}
		}
	}
	if q.Attempts != nil {
		out.Attempts = make([]Attempt, len(q.Attempts))
		for i, a := range q.Attempts {
			out.Attempts[i] = a.Clone()
		}
	}
	if q.Tags != nil {
		out.Tags = append([]string(nil), q.Tags...)
	}
	return out
}

// AnswerRecord is the stored outcome for one question of an attempt.
type AnswerRecord struct {
	QuestionIndex  int  `json:"questionIndex"`
	SelectedOption int  `json:"selectedOption"`
	IsCorrect      bool `json:"isCorrect"`
}

// Attempt is an immutable record of one scored submission. UserID is empty
// for anonymous submissions.
type Attempt struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId,omitempty"`
	Score       int            `json:"score"`
	Total       int            `json:"total"`
	Percentage  int            `json:"percentage"`
	Answers     []AnswerRecord `json:"answers"`
	CompletedAt time.Time      `json:"completedAt"`
}

func (a Attempt) Clone() Attempt {
	out := a
	if a.Answers != nil {
		out.Answers = append([]AnswerRecord(nil), a.Answers...)
	}
	return out
}

// Answer is one entry of a submission; SelectedOption -1 means no answer.
type Answer struct {
	QuestionIndex  int `json:"questionIndex"`
	SelectedOption int `json:"selectedOption"`
}

// Submission is a learner's answer set for a quiz. Answers may omit questions
// and may repeat a question index; the first entry for an index wins.
type Submission struct {
	QuizID  string   `json:"quizId"`
	Answers []Answer `json:"answers"`
}

// QuestionResult is the per-question outcome returned to the submitter.
type QuestionResult struct {
	QuestionIndex  int      `json:"questionIndex"`
	QuestionText   string   `json:"questionText"`
	SelectedOption int      `json:"selectedOption"`
	CorrectOption  int      `json:"correctOption"`
	IsCorrect      bool     `json:"isCorrect"`
	Explanation    string   `json:"explanation"`
	Options        []string `json:"options"`
}

// SubmissionResult is the scored response for a submission.
type SubmissionResult struct {
	Score      int              `json:"score"`
	Total      int              `json:"total"`
	Percentage int              `json:"percentage"`
	Results    []QuestionResult `json:"results"`
}

// AttemptRef is the lightweight attempt reference kept in a user's history.
type AttemptRef struct {
	QuizID      string    `json:"quizId"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	CompletedAt time.Time `json:"completedAt"`
}

// QuizStats aggregates attempt history for a quiz.
type QuizStats struct {
	QuizID       string    `json:"quizId"`
	AttemptCount int       `json:"attemptCount"`
	AverageScore int       `json:"averageScore"`
	BestScore    int       `json:"bestScore"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// QuizFilter selects quizzes for listing.
type QuizFilter struct {
	CreatorID     string
	PublishedOnly bool
	Category      Category
	Difficulty    Difficulty
	Search        string
	Page          int
	Limit         int
}

// QuizPage is one page of a quiz listing.
type QuizPage struct {
	Quizzes []Quiz
	Total   int
	Page    int
	Pages   int
}

// PublicOption is an option as seen by someone taking the quiz.
type PublicOption struct {
	Text string `json:"text"`
}

type PublicQuestion struct {
	Text        string         `json:"text"`
	Options     []PublicOption `json:"options"`
	Explanation string         `json:"explanation"`
	Points      int            `json:"points"`
}

// PublicQuiz is the redacted quiz shape: no correctness flags, no attempts.
type PublicQuiz struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Category         Category         `json:"category"`
	Difficulty       Difficulty       `json:"difficulty"`
	Questions        []PublicQuestion `json:"questions"`
	CreatorID        string           `json:"creatorId"`
	Published        bool             `json:"isPublished"`
	TimeLimitMinutes int              `json:"timeLimitMinutes"`
	Tags             []string         `json:"tags"`
	CoverImage       string           `json:"coverImage,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// PublicPage is a redacted listing page.
type PublicPage struct {
	Quizzes []PublicQuiz `json:"quizzes"`
	Total   int          `json:"total"`
	Page    int          `json:"page"`
	Pages   int          `json:"pages"`
}

const (
	DefaultPageLimit = 12
	MaxPageLimit     = 100
)

// Normalize clamps paging to sane values.
func (f *QuizFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if f.Category == "All" {
		f.Category = ""
	}
	if f.Difficulty == "All" {
		f.Difficulty = ""
	}
}

// Offset is the number of rows skipped before the current page.
func (f QuizFilter) Offset() int {
	if f.Page < 1 || f.Limit < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// PageCount is ceil(total/limit).
func PageCount(total, limit int) int {
	if limit < 1 {
		return 1
	}
	return (total + limit - 1) / limit
}
