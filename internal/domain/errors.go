package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz does not exist or is not visible to the caller.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrMalformedSubmission is returned when the submission envelope is not a list of index pairs.
	ErrMalformedSubmission = errors.New("malformed submission")
	// ErrInvalidQuiz wraps authoring validation failures.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrForbidden is returned when a non-creator tries to manage a quiz.
	ErrForbidden = errors.New("not authorized for this quiz")
	// ErrUnauthenticated is returned when an operation needs a user identity.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrPersistence wraps storage failures; callers may retry.
	ErrPersistence = errors.New("storage unavailable")
)
