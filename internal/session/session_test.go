package session

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"prep-quiz-service/internal/domain"
)

func questions(n int) []domain.Question {
	qs := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		qs = append(qs, domain.Question{
			ID:       string(rune('a' + i)),
			Category: "General",
			Text:     "question",
			Options:  []string{"right", "wrong"},
			Answer:   "right",
		})
	}
	return qs
}

func fixedClock() func() time.Time {
	t := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestNewRejectsEmptyQuestionSet(t *testing.T) {
	if _, err := New("quiz-1", nil, 60); !errors.Is(err, domain.ErrEmptyQuestionSet) {
		t.Fatalf("expected ErrEmptyQuestionSet, got %v", err)
	}
}

func TestSelectAnswerLastWriteWins(t *testing.T) {
	s, err := New("quiz-1", questions(3), 60, WithClock(fixedClock()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := s.SelectAnswer("a", "wrong"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := s.SelectAnswer("a", "right"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	sum := s.Summary()
	if sum.Answers["a"] != "right" {
		t.Fatalf("expected last write to win, got %q", sum.Answers["a"])
	}
}

func TestSelectAnswerUnknownQuestion(t *testing.T) {
	s, _ := New("quiz-1", questions(2), 60, WithClock(fixedClock()))
	if err := s.SelectAnswer("zz", "right"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestLockAfterAnswerPolicy(t *testing.T) {
	s, _ := New("quiz-1", questions(3), 60, WithClock(fixedClock()), WithLockAfterAnswer())

	if err := s.SelectAnswer("a", "right"); err != nil {
		t.Fatalf("first select: %v", err)
	}
	if err := s.SelectAnswer("a", "wrong"); !errors.Is(err, domain.ErrQuestionLocked) {
		t.Fatalf("expected ErrQuestionLocked, got %v", err)
	}

	// Advancing releases the lock.
	if err := s.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := s.SelectAnswer("a", "wrong"); err != nil {
		t.Fatalf("select after advance: %v", err)
	}
}

func TestAdvanceRetreatClamping(t *testing.T) {
	s, _ := New("quiz-1", questions(3), 60, WithClock(fixedClock()))

	if err := s.Retreat(); err != nil {
		t.Fatalf("retreat at start: %v", err)
	}
	if idx, _ := s.Position(); idx != 0 {
		t.Fatalf("expected clamp at 0, got %d", idx)
	}

	_ = s.Advance()
	_ = s.Advance()
	if idx, _ := s.Position(); idx != 2 {
		t.Fatalf("expected index 2, got %d", idx)
	}

	// Advancing past the end of a linear session finishes it.
	if err := s.Advance(); err != nil {
		t.Fatalf("final advance: %v", err)
	}
	if !s.Finished() {
		t.Fatalf("expected session finished after exhausting the sequence")
	}
	if s.TimedOut() {
		t.Fatalf("sequence exhaustion is not a timeout")
	}
}

func TestSkipOnlyWhenUnanswered(t *testing.T) {
	s, _ := New("quiz-1", questions(3), 60, WithClock(fixedClock()))

	if err := s.Skip(); err != nil {
		t.Fatalf("skip unanswered: %v", err)
	}
	if idx, _ := s.Position(); idx != 1 {
		t.Fatalf("expected skip to advance, got %d", idx)
	}

	if err := s.SelectAnswer("b", "right"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := s.Skip(); !errors.Is(err, domain.ErrQuestionAnswered) {
		t.Fatalf("expected ErrQuestionAnswered, got %v", err)
	}
}

func TestTickCountsDownToTimeout(t *testing.T) {
	s, _ := New("quiz-1", questions(2), 2, WithClock(fixedClock()))

	remaining, finished := s.Tick()
	if remaining != 1 || finished {
		t.Fatalf("expected 1 remaining, got %d finished=%v", remaining, finished)
	}
	remaining, finished = s.Tick()
	if remaining != 0 || !finished {
		t.Fatalf("expected timeout, got %d finished=%v", remaining, finished)
	}
	if !s.TimedOut() {
		t.Fatalf("expected timed-out flag")
	}

	sum := s.Summary()
	if !sum.TimedOut {
		t.Fatalf("summary should carry the timed-out flag")
	}
	if len(sum.Answers) != 0 || len(sum.Questions) != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestOperationsRejectedAfterFinish(t *testing.T) {
	s, _ := New("quiz-1", questions(2), 60, WithClock(fixedClock()))
	s.Finish()
	s.Finish() // idempotent

	if s.TimedOut() {
		t.Fatalf("manual finish must not set the timeout flag")
	}
	if err := s.SelectAnswer("a", "right"); !errors.Is(err, domain.ErrSessionFinished) {
		t.Fatalf("select after finish: %v", err)
	}
	if err := s.Advance(); !errors.Is(err, domain.ErrSessionFinished) {
		t.Fatalf("advance after finish: %v", err)
	}
	if err := s.Retreat(); !errors.Is(err, domain.ErrSessionFinished) {
		t.Fatalf("retreat after finish: %v", err)
	}
	if err := s.Skip(); !errors.Is(err, domain.ErrSessionFinished) {
		t.Fatalf("skip after finish: %v", err)
	}
	if remaining, finished := s.Tick(); !finished || remaining != 60 {
		t.Fatalf("tick after finish should be a no-op, got %d %v", remaining, finished)
	}
}

func TestRandomDrawCountsAnsweredOnly(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	s, _ := New("quiz-1", questions(5), 60, WithClock(fixedClock()), WithSelector(RandomDraw(r)))

	answered := map[string]bool{}
	for i := 0; i < 10; i++ {
		q := s.Current()
		if i%2 == 0 {
			if err := s.SelectAnswer(q.ID, "right"); err != nil {
				t.Fatalf("select: %v", err)
			}
			answered[q.ID] = true
			if err := s.Advance(); err != nil {
				t.Fatalf("advance: %v", err)
			}
			continue
		}
		// Drawn but not answered: must not appear in the tally. A repeat
		// draw of an already-answered question cannot be skipped.
		if err := s.Skip(); err != nil && !errors.Is(err, domain.ErrQuestionAnswered) {
			t.Fatalf("skip: %v", err)
		} else if err != nil {
			_ = s.Advance()
		}
	}
	s.Finish()

	sum := s.Summary()
	if len(sum.Questions) != len(answered) {
		t.Fatalf("expected %d tallied questions, got %d", len(answered), len(sum.Questions))
	}
	for _, q := range sum.Questions {
		if !answered[q.ID] {
			t.Fatalf("unanswered question %s leaked into the tally", q.ID)
		}
	}
}

func TestRandomDrawNeverExhausts(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	s, _ := New("quiz-1", questions(2), 60, WithClock(fixedClock()), WithSelector(RandomDraw(r)))

	for i := 0; i < 50; i++ {
		if err := s.Advance(); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}
	if s.Finished() {
		t.Fatalf("random-draw session must not finish by exhaustion")
	}
}
