package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"prep-quiz-service/internal/domain"
	"prep-quiz-service/internal/scoring"
	"prep-quiz-service/internal/session"
)

// QuestionBank loads quiz content (from cache/backing store).
type QuestionBank interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ResultStore persists finished attempts. SaveResult returns the
// server-assigned id.
type ResultStore interface {
	SaveResult(ctx context.Context, userID string, result domain.Result) (string, error)
	GetResult(ctx context.Context, id string) (domain.Result, error)
}

// LeaderboardStore holds the cumulative per-(quiz,user) totals. Merge must be
// atomic under concurrent submissions and retry internally on contention.
type LeaderboardStore interface {
	Merge(ctx context.Context, quizID, userID string, delta int, profile domain.Profile) (total int, err error)
	Top(ctx context.Context, quizID string, n int) ([]domain.LeaderboardEntry, error)
}

// FeedbackGenerator is the opaque text-generation collaborator.
type FeedbackGenerator interface {
	Generate(ctx context.Context, req domain.FeedbackRequest) (domain.Feedback, error)
}

const (
	persistAttempts = 3
	persistBackoff  = 250 * time.Millisecond
)

// AttemptService wires the session engine, scoring, persistence, and the
// leaderboard merge into the attempt lifecycle. Nothing in here is allowed
// to be fatal to the caller: storage and feedback failures degrade to
// missing enrichment while the numeric result is always returned.
type AttemptService struct {
	bank     QuestionBank
	results  ResultStore
	board    LeaderboardStore
	feedback FeedbackGenerator
	scoring  scoring.Config
	log      *zap.Logger

	backoff time.Duration
	clock   func() time.Time
	wg      sync.WaitGroup
}

// AttemptOption tweaks service construction.
type AttemptOption func(*AttemptService)

// WithScoringConfig overrides the default weights/clamp policy.
func WithScoringConfig(cfg scoring.Config) AttemptOption {
	return func(s *AttemptService) { s.scoring = cfg }
}

// WithFeedbackGenerator attaches the text-generation collaborator.
func WithFeedbackGenerator(gen FeedbackGenerator) AttemptOption {
	return func(s *AttemptService) { s.feedback = gen }
}

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) AttemptOption {
	return func(s *AttemptService) { s.clock = now }
}

// WithPersistBackoff overrides the initial retry backoff for the async
// attempt write. Tests shorten it.
func WithPersistBackoff(d time.Duration) AttemptOption {
	return func(s *AttemptService) { s.backoff = d }
}

func NewAttemptService(bank QuestionBank, results ResultStore, board LeaderboardStore, log *zap.Logger, opts ...AttemptOption) *AttemptService {
	s := &AttemptService{
		bank:    bank,
		results: results,
		board:   board,
		scoring: scoring.DefaultConfig(),
		log:     log,
		backoff: persistBackoff,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the quiz and opens a session over its question set. Session
// options (selection strategy, lock policy, clock) pass through.
func (s *AttemptService) Start(ctx context.Context, quizID string, opts ...session.Option) (*session.Session, domain.Quiz, error) {
	quiz, err := s.bank.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, domain.Quiz{}, err
	}
	sess, err := session.New(quiz.ID, quiz.Questions, quiz.Duration, opts...)
	if err != nil {
		return nil, domain.Quiz{}, err
	}
	return sess, quiz, nil
}

// Complete scores a finished session summary, kicks off the durable attempt
// write, and merges the score into the cumulative leaderboard entry. The
// returned result is computed locally and is valid even if every downstream
// write fails.
func (s *AttemptService) Complete(ctx context.Context, userID string, profile domain.Profile, quizTitle string, sum session.Summary) domain.Result {
	return s.CompleteFiltered(ctx, userID, profile, quizTitle, sum, "")
}

// CompleteFiltered is Complete with an attempt-scoped sub-category filter:
// questions outside the filter are excluded from scoring, counts, and the
// category breakdown.
func (s *AttemptService) CompleteFiltered(ctx context.Context, userID string, profile domain.Profile, quizTitle string, sum session.Summary, subCategory string) domain.Result {
	cfg := s.scoring
	if subCategory != "" {
		cfg.SubCategory = subCategory
	}
	evaluated := scoring.Evaluate(sum.Questions, sum.Answers, cfg)

	result := domain.Result{
		QuizID:         sum.QuizID,
		QuizTitle:      quizTitle,
		SubCategory:    cfg.SubCategory,
		Score:          evaluated.Score,
		Correct:        evaluated.Correct,
		Incorrect:      evaluated.Incorrect,
		Skipped:        evaluated.Skipped,
		Total:          evaluated.Total,
		CategoryScores: evaluated.CategoryScores,
		Questions:      sum.Questions,
		Answers:        sum.Answers,
		Duration:       int(sum.Elapsed / time.Second),
		TimedOut:       sum.TimedOut,
		CompletedAt:    s.clock(),
	}

	s.persistAsync(userID, result)

	if _, err := s.board.Merge(ctx, result.QuizID, userID, result.Score, profile); err != nil {
		s.log.Warn("leaderboard merge failed",
			zap.String("quizId", result.QuizID),
			zap.String("userId", userID),
			zap.Int("delta", result.Score),
			zap.Error(err))
	}

	return result
}

// persistAsync writes the attempt record off the caller's path with bounded
// at-least-once retries. The caller never waits for durability.
func (s *AttemptService) persistAsync(userID string, result domain.Result) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		backoff := s.backoff
		for attempt := 1; ; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			id, err := s.results.SaveResult(ctx, userID, result)
			cancel()
			if err == nil {
				s.log.Debug("attempt persisted",
					zap.String("resultId", id),
					zap.String("quizId", result.QuizID))
				return
			}
			if attempt >= persistAttempts {
				s.log.Warn("attempt persistence dropped after retries",
					zap.String("quizId", result.QuizID),
					zap.String("userId", userID),
					zap.Error(err))
				return
			}
			time.Sleep(backoff)
			backoff *= 2
		}
	}()
}

// Feedback requests personalized feedback for a result. Failures come back
// as domain.ErrFeedbackUnavailable so callers can render the degraded state
// without touching the numeric result.
func (s *AttemptService) Feedback(ctx context.Context, profile domain.Profile, result domain.Result) (domain.Feedback, error) {
	if s.feedback == nil {
		return domain.Feedback{}, domain.ErrFeedbackUnavailable
	}
	req := domain.FeedbackRequest{
		UserName:       profile.DisplayName,
		UserAge:        profile.Age,
		UserState:      profile.State,
		Correct:        result.Correct,
		Incorrect:      result.Incorrect,
		Skipped:        result.Skipped,
		Total:          result.Total,
		CategoryScores: result.CategoryScores,
		Missed:         result.Missed(),
	}
	fb, err := s.feedback.Generate(ctx, req)
	if err != nil {
		s.log.Warn("feedback generation failed", zap.String("quizId", result.QuizID), zap.Error(err))
		return domain.Feedback{}, domain.ErrFeedbackUnavailable
	}
	return fb, nil
}

// Review fetches a persisted result by its server-assigned id.
func (s *AttemptService) Review(ctx context.Context, id string) (domain.Result, error) {
	return s.results.GetResult(ctx, id)
}

// Leaderboard returns the top-n cumulative entries for a quiz.
func (s *AttemptService) Leaderboard(ctx context.Context, quizID string, n int) ([]domain.LeaderboardEntry, error) {
	return s.board.Top(ctx, quizID, n)
}

// Flush waits for in-flight attempt writes. Used on shutdown and in tests.
func (s *AttemptService) Flush() {
	s.wg.Wait()
}
