// Package session implements the lifecycle of one quiz-taking session:
// question navigation, answer capture, and the countdown that force-finishes
// the attempt when time runs out.
package session

import (
	"sync"
	"time"

	"prep-quiz-service/internal/domain"
)

// State is the session lifecycle state.
type State int

const (
	Active State = iota
	Finished
)

// Summary is the raw material handed to scoring once a session finishes.
// In random-draw mode Questions holds only the questions that were actually
// answered; draws that were skipped without answering never reach scoring.
type Summary struct {
	QuizID   string
	Questions []domain.Question
	Answers  map[string]string
	Elapsed  time.Duration
	TimedOut bool
}

// Option configures a session at start time.
type Option func(*Session)

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithSelector picks the question-selection strategy. Defaults to Linear.
func WithSelector(sel Selector) Option {
	return func(s *Session) { s.selector = sel }
}

// WithLockAfterAnswer locks each question once answered; re-selection is
// rejected until the session advances past it.
func WithLockAfterAnswer() Option {
	return func(s *Session) { s.lockAfterAnswer = true }
}

// Session tracks one user's pass through a question set. All methods are
// safe for the cooperative single-user model: user input and timer ticks may
// arrive from different goroutines.
type Session struct {
	mu sync.Mutex

	quizID    string
	questions []domain.Question
	answers   map[string]string
	idx       int
	remaining int
	state     State
	timedOut  bool
	startedAt time.Time
	finishedAt time.Time

	selector        Selector
	lockAfterAnswer bool
	locked          string // question id locked by the answer policy

	now func() time.Time
}

// New starts a session over a non-empty question set with the given
// countdown duration in seconds.
func New(quizID string, questions []domain.Question, durationSeconds int, opts ...Option) (*Session, error) {
	if len(questions) == 0 {
		return nil, domain.ErrEmptyQuestionSet
	}
	s := &Session{
		quizID:    quizID,
		questions: questions,
		answers:   make(map[string]string),
		remaining: durationSeconds,
		selector:  Linear(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.now()
	s.idx = s.selector.First(len(questions))
	return s, nil
}

// Current returns the question the session is positioned on.
func (s *Session) Current() domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions[s.idx]
}

// Position returns the current zero-based index and the set size.
func (s *Session) Position() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx, len(s.questions)
}

// Remaining returns the countdown value in seconds.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Finished reports whether the session reached its terminal state.
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Finished
}

// TimedOut reports whether the terminal state was reached by the countdown
// hitting zero rather than an explicit finish.
func (s *Session) TimedOut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timedOut
}

// SelectAnswer records the chosen option for a question. Repeat selections
// are last-write-wins unless the lock-after-answer policy is active.
func (s *Session) SelectAnswer(questionID, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Finished {
		return domain.ErrSessionFinished
	}
	if !s.hasQuestion(questionID) {
		return domain.ErrQuestionNotFound
	}
	if s.lockAfterAnswer {
		if s.locked == questionID {
			return domain.ErrQuestionLocked
		}
		if questionID == s.questions[s.idx].ID {
			s.locked = questionID
		}
	}
	s.answers[questionID] = option
	return nil
}

// Advance moves to the next question. In linear mode advancing past the
// last question finishes the session; in random-draw mode there is always a
// next question.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Finished {
		return domain.ErrSessionFinished
	}
	s.locked = ""
	next, ok := s.selector.Next(s.idx, len(s.questions))
	if !ok {
		s.finishLocked(false)
		return nil
	}
	s.idx = next
	return nil
}

// Retreat moves to the previous question, clamped at the start of the
// sequence. Random-draw sessions have no history to walk back through.
func (s *Session) Retreat() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Finished {
		return domain.ErrSessionFinished
	}
	s.locked = ""
	if prev, ok := s.selector.Prev(s.idx); ok {
		s.idx = prev
	}
	return nil
}

// Skip advances without recording an answer. It is only legal while the
// current question is unanswered.
func (s *Session) Skip() error {
	s.mu.Lock()
	if s.state == Finished {
		s.mu.Unlock()
		return domain.ErrSessionFinished
	}
	if _, answered := s.answers[s.questions[s.idx].ID]; answered {
		s.mu.Unlock()
		return domain.ErrQuestionAnswered
	}
	s.mu.Unlock()
	return s.Advance()
}

// Tick decrements the countdown by one second. Reaching zero finishes the
// session with the timed-out flag set. Ticks against a finished session are
// no-ops so a stale timer callback cannot corrupt state.
func (s *Session) Tick() (remaining int, finished bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Finished {
		return s.remaining, true
	}
	s.remaining--
	if s.remaining <= 0 {
		s.remaining = 0
		s.finishLocked(true)
	}
	return s.remaining, s.state == Finished
}

// Finish forces the terminal state. Idempotent.
func (s *Session) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked(false)
}

func (s *Session) finishLocked(timedOut bool) {
	if s.state == Finished {
		return
	}
	s.state = Finished
	s.timedOut = timedOut
	s.finishedAt = s.now()
}

// Summary snapshots the finished (or in-flight) attempt. The answer map is
// copied so later session mutation cannot alias into a stored result.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make(map[string]string, len(s.answers))
	for id, option := range s.answers {
		answers[id] = option
	}

	questions := s.questions
	if s.selector.AnsweredOnly() {
		questions = make([]domain.Question, 0, len(answers))
		for _, q := range s.questions {
			if _, ok := answers[q.ID]; ok {
				questions = append(questions, q)
			}
		}
	}

	end := s.finishedAt
	if s.state != Finished {
		end = s.now()
	}
	return Summary{
		QuizID:    s.quizID,
		Questions: questions,
		Answers:   answers,
		Elapsed:   end.Sub(s.startedAt),
		TimedOut:  s.timedOut,
	}
}

func (s *Session) hasQuestion(id string) bool {
	for i := range s.questions {
		if s.questions[i].ID == id {
			return true
		}
	}
	return false
}
