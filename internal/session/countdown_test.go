package session

import (
	"testing"
	"time"
)

func TestCountdownFinishesSessionOnTimeout(t *testing.T) {
	s, _ := New("quiz-1", questions(2), 3)

	timedOut := make(chan bool, 1)
	c := StartCountdown(s, time.Millisecond, func(to bool) { timedOut <- to })
	defer c.Stop()

	select {
	case to := <-timedOut:
		if !to {
			t.Fatalf("expected timed-out finish")
		}
	case <-time.After(time.Second):
		t.Fatalf("countdown never finished the session")
	}
	if !s.Finished() {
		t.Fatalf("expected session finished")
	}
}

func TestCountdownStopPreventsFurtherTicks(t *testing.T) {
	s, _ := New("quiz-1", questions(2), 1000)

	c := StartCountdown(s, time.Millisecond, nil)
	time.Sleep(10 * time.Millisecond)
	c.Stop()
	c.Stop() // safe to call twice

	remaining := s.Remaining()
	time.Sleep(20 * time.Millisecond)
	if got := s.Remaining(); got != remaining {
		t.Fatalf("countdown kept ticking after Stop: %d -> %d", remaining, got)
	}
}

func TestCountdownStaleTickAfterManualFinish(t *testing.T) {
	s, _ := New("quiz-1", questions(2), 1000)

	finished := make(chan bool, 1)
	c := StartCountdown(s, 5*time.Millisecond, func(to bool) { finished <- to })
	defer c.Stop()

	// Finish by user action; the next tick must observe the terminal state
	// and bail without invoking onFinish.
	s.Finish()

	select {
	case <-finished:
		t.Fatalf("onFinish fired for an already-finished session")
	case <-time.After(50 * time.Millisecond):
	}
	if s.TimedOut() {
		t.Fatalf("stale tick flipped the timeout flag")
	}
}
