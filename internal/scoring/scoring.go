// Package scoring turns a question set and an answer map into a scored
// summary. Everything here is pure: no I/O, no clocks, no randomness.
package scoring

import "prep-quiz-service/internal/domain"

// Weights is the point value of each answer classification. The incorrect
// and skipped weights are penalties (subtracted from the score).
type Weights struct {
	Correct   int `yaml:"correct" json:"correct"`
	Incorrect int `yaml:"incorrect" json:"incorrect"`
	Skipped   int `yaml:"skipped" json:"skipped"`
}

// DefaultWeights returns the canonical 3/1/0 triple.
func DefaultWeights() Weights {
	return Weights{Correct: 3, Incorrect: 1, Skipped: 0}
}

// Config controls one evaluation.
type Config struct {
	Weights Weights
	// AllowNegative disables the default clamp of the final score at zero.
	AllowNegative bool
	// SubCategory, when non-empty, restricts evaluation to questions whose
	// SubCategory matches. Out-of-filter questions are excluded from every
	// count and from the category breakdown.
	SubCategory string
}

// DefaultConfig clamps at zero and uses DefaultWeights.
func DefaultConfig() Config {
	return Config{Weights: DefaultWeights()}
}

// Summary is the outcome of evaluating one answer map against one question
// set. Correct+Incorrect+Skipped always equals Total.
type Summary struct {
	Score          int
	Correct        int
	Incorrect      int
	Skipped        int
	Total          int
	CategoryScores map[string]float64
}

// Evaluate classifies every in-scope question as correct, incorrect, or
// skipped, computes the weighted score, and derives per-category accuracy
// over *attempted* questions. Every category that appears in the in-scope
// question set gets an entry; categories with no attempted questions score 0.
func Evaluate(questions []domain.Question, answers map[string]string, cfg Config) Summary {
	sum := Summary{CategoryScores: make(map[string]float64)}

	attempted := make(map[string]int)
	correct := make(map[string]int)

	for _, q := range questions {
		if cfg.SubCategory != "" && q.SubCategory != cfg.SubCategory {
			continue
		}
		sum.Total++
		if _, ok := sum.CategoryScores[q.Category]; !ok {
			sum.CategoryScores[q.Category] = 0
		}

		picked, ok := answers[q.ID]
		if !ok {
			sum.Skipped++
			continue
		}
		attempted[q.Category]++
		if picked == q.Answer {
			sum.Correct++
			correct[q.Category]++
		} else {
			sum.Incorrect++
		}
	}

	for category, n := range attempted {
		sum.CategoryScores[category] = float64(correct[category]) / float64(n) * 100
	}

	w := cfg.Weights
	sum.Score = sum.Correct*w.Correct - sum.Incorrect*w.Incorrect - sum.Skipped*w.Skipped
	if sum.Score < 0 && !cfg.AllowNegative {
		sum.Score = 0
	}
	return sum
}
