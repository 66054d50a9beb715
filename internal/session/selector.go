package session

import "math/rand"

// Selector is the question-selection strategy fixed at session start.
type Selector interface {
	// First returns the starting index for a set of n questions.
	First(n int) int
	// Next returns the index after current, or ok=false when the sequence
	// is exhausted and the session should finish.
	Next(current, n int) (next int, ok bool)
	// Prev returns the index before current, or ok=false when movement is
	// clamped at the start (or unsupported by the strategy).
	Prev(current int) (prev int, ok bool)
	// AnsweredOnly reports whether only answered questions count toward
	// the final tally.
	AnsweredOnly() bool
}

// Linear walks the question set in order, clamped at both ends; advancing
// past the last question ends the session.
func Linear() Selector { return linear{} }

type linear struct{}

func (linear) First(int) int { return 0 }

func (linear) Next(current, n int) (int, bool) {
	if current+1 >= n {
		return current, false
	}
	return current + 1, true
}

func (linear) Prev(current int) (int, bool) {
	if current == 0 {
		return 0, false
	}
	return current - 1, true
}

func (linear) AnsweredOnly() bool { return false }

// RandomDraw is the "unlimited practice" strategy: every advance draws
// uniformly from the full set, repeats allowed, and only questions the user
// actually answered count toward scoring.
func RandomDraw(r *rand.Rand) Selector { return randomDraw{r: r} }

type randomDraw struct {
	r *rand.Rand
}

func (d randomDraw) First(n int) int { return d.r.Intn(n) }

func (d randomDraw) Next(_, n int) (int, bool) { return d.r.Intn(n), true }

func (randomDraw) Prev(current int) (int, bool) { return current, false }

func (randomDraw) AnsweredOnly() bool { return true }
