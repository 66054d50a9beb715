package domain

import "errors"

var (
	// ErrSessionFinished is returned by any mutating operation on a session
	// that has already reached its terminal state.
	ErrSessionFinished = errors.New("quiz session already finished")
	// ErrEmptyQuestionSet indicates a session was started without questions.
	ErrEmptyQuestionSet = errors.New("question set is empty")
	// ErrQuestionLocked is returned when the lock-after-answer policy rejects
	// a second selection for the current question.
	ErrQuestionLocked = errors.New("question locked until session advances")
	// ErrQuestionAnswered is returned when skipping a question that already
	// has a recorded answer.
	ErrQuestionAnswered = errors.New("current question already answered")
	// ErrQuestionNotFound indicates an answer referenced an unknown question.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrResultNotFound indicates a stored result id is unknown.
	ErrResultNotFound = errors.New("result not found")
	// ErrFeedbackUnavailable is the degraded state when the text-generation
	// collaborator fails or times out. Never fatal to the attempt flow.
	ErrFeedbackUnavailable = errors.New("feedback unavailable")
)
