package session

import (
	"sync"
	"time"
)

// Countdown drives Session.Tick on a fixed interval until the session
// finishes or Stop is called. The returned handle must be stopped when the
// session is finished or abandoned; a leaked countdown keeps ticking against
// a session nobody reads.
type Countdown struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartCountdown begins ticking the session once per interval. onFinish is
// invoked at most once, from the timer goroutine, when a tick drives the
// session to its terminal state; it receives the timed-out flag. It is not
// invoked when the countdown is stopped externally.
func StartCountdown(s *Session, interval time.Duration, onFinish func(timedOut bool)) *Countdown {
	c := &Countdown{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				// Liveness check: the session may have been finished by
				// user action between ticks.
				if s.Finished() {
					return
				}
				if _, finished := s.Tick(); finished {
					// Only a tick sets the timed-out flag; a finished
					// session without it was ended by user action racing
					// this tick, and onFinish must not fire for it.
					if s.TimedOut() && onFinish != nil {
						onFinish(true)
					}
					return
				}
			}
		}
	}()
	return c
}

// Stop cancels the countdown and waits for the timer goroutine to exit.
// Safe to call multiple times and after the countdown finished on its own.
func (c *Countdown) Stop() {
	c.once.Do(func() { close(c.stop) })
	<-c.done
}
