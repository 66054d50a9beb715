package scoring

import (
	"reflect"
	"testing"

	"prep-quiz-service/internal/domain"
)

func question(id, category, sub string) domain.Question {
	return domain.Question{
		ID:          id,
		Category:    category,
		SubCategory: sub,
		Text:        "question " + id,
		Options:     []string{"right", "wrong", "other"},
		Answer:      "right",
	}
}

func TestEvaluateWeightedScore(t *testing.T) {
	questions := make([]domain.Question, 0, 10)
	for _, id := range []string{"q1", "q2", "q3", "q4", "q5", "q6", "q7", "q8", "q9", "q10"} {
		questions = append(questions, question(id, "History", ""))
	}
	answers := map[string]string{
		"q1": "right", "q2": "right", "q3": "right",
		"q4": "right", "q5": "right", "q6": "right",
		"q7": "wrong", "q8": "wrong",
	}

	sum := Evaluate(questions, answers, DefaultConfig())

	if sum.Score != 16 {
		t.Fatalf("expected score 16, got %d", sum.Score)
	}
	if sum.Correct != 6 || sum.Incorrect != 2 || sum.Skipped != 2 || sum.Total != 10 {
		t.Fatalf("unexpected counts: %+v", sum)
	}
	if sum.Correct+sum.Incorrect+sum.Skipped != sum.Total {
		t.Fatalf("counts do not add up to total: %+v", sum)
	}
}

func TestEvaluateCategoryPercentagesUseAttemptedOnly(t *testing.T) {
	questions := []domain.Question{
		question("q1", "Polity", ""),
		question("q2", "Polity", ""),
		question("q3", "Polity", ""),
	}
	// One correct out of two attempted; the third is skipped.
	answers := map[string]string{"q1": "right", "q2": "wrong"}

	sum := Evaluate(questions, answers, DefaultConfig())

	if got := sum.CategoryScores["Polity"]; got != 50 {
		t.Fatalf("expected 50%% for Polity, got %v", got)
	}
}

func TestEvaluateUnattemptedCategoryIsZeroNotMissing(t *testing.T) {
	questions := []domain.Question{
		question("q1", "History", ""),
		question("q2", "Geography", ""),
	}
	answers := map[string]string{"q1": "right"}

	sum := Evaluate(questions, answers, DefaultConfig())

	got, ok := sum.CategoryScores["Geography"]
	if !ok {
		t.Fatalf("expected Geography to be present in category scores")
	}
	if got != 0 {
		t.Fatalf("expected 0 for unattempted category, got %v", got)
	}
	for category, pct := range sum.CategoryScores {
		if pct < 0 || pct > 100 {
			t.Fatalf("category %s out of range: %v", category, pct)
		}
	}
}

func TestEvaluateAllSkipped(t *testing.T) {
	questions := []domain.Question{
		question("q1", "History", ""),
		question("q2", "History", ""),
	}

	sum := Evaluate(questions, nil, DefaultConfig())

	if sum.Score != 0 || sum.Correct != 0 || sum.Incorrect != 0 {
		t.Fatalf("unexpected summary for empty answers: %+v", sum)
	}
	if sum.Skipped != sum.Total {
		t.Fatalf("expected all questions skipped, got %+v", sum)
	}
}

func TestEvaluateClampsNegativeScoresByDefault(t *testing.T) {
	questions := []domain.Question{
		question("q1", "History", ""),
		question("q2", "History", ""),
	}
	answers := map[string]string{"q1": "wrong", "q2": "wrong"}

	cfg := Config{Weights: Weights{Correct: 3, Incorrect: 5, Skipped: 1}}
	sum := Evaluate(questions, answers, cfg)
	if sum.Score != 0 {
		t.Fatalf("expected clamped score 0, got %d", sum.Score)
	}

	cfg.AllowNegative = true
	sum = Evaluate(questions, answers, cfg)
	if sum.Score != -10 {
		t.Fatalf("expected -10 with clamp disabled, got %d", sum.Score)
	}
}

func TestEvaluateSubCategoryFilter(t *testing.T) {
	questions := []domain.Question{
		question("q1", "History", "Prelims"),
		question("q2", "History", "Mains"),
		question("q3", "Polity", "Prelims"),
	}
	answers := map[string]string{"q1": "right", "q2": "right", "q3": "wrong"}

	sum := Evaluate(questions, answers, Config{Weights: DefaultWeights(), SubCategory: "Prelims"})

	if sum.Total != 2 {
		t.Fatalf("expected 2 in-scope questions, got %d", sum.Total)
	}
	if sum.Correct != 1 || sum.Incorrect != 1 || sum.Skipped != 0 {
		t.Fatalf("unexpected counts under filter: %+v", sum)
	}
	if _, ok := sum.CategoryScores["History"]; !ok {
		t.Fatalf("expected History present")
	}
	if len(sum.CategoryScores) != 2 {
		t.Fatalf("expected exactly the in-scope categories, got %v", sum.CategoryScores)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	questions := []domain.Question{
		question("q1", "History", ""),
		question("q2", "Polity", ""),
		question("q3", "Geography", ""),
	}
	answers := map[string]string{"q1": "right", "q2": "wrong"}

	first := Evaluate(questions, answers, DefaultConfig())
	second := Evaluate(questions, answers, DefaultConfig())

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("evaluation not deterministic: %+v vs %+v", first, second)
	}
}
