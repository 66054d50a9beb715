package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"prep-quiz-service/internal/domain"
)

// LeaderboardStore keeps cumulative (quiz, user) totals in the leaderboard
// table. The merge is a single atomic upsert; Postgres serializes the
// conflicting row update, so concurrent submissions both land and the
// running total equals the sum of all merged deltas.
type LeaderboardStore struct {
	pool  *pgxpool.Pool
	clock func() time.Time
}

func NewLeaderboardStore(pool *pgxpool.Pool) *LeaderboardStore {
	return &LeaderboardStore{pool: pool, clock: time.Now}
}

func (s *LeaderboardStore) Merge(ctx context.Context, quizID, userID string, delta int, profile domain.Profile) (int, error) {
	var total int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO leaderboard (quiz_id, user_id, score, display_name, state, avatar_url, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (quiz_id, user_id) DO UPDATE SET
			score = leaderboard.score + EXCLUDED.score,
			display_name = EXCLUDED.display_name,
			state = EXCLUDED.state,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = EXCLUDED.updated_at
		RETURNING score`,
		quizID, userID, delta, profile.DisplayName, profile.State, profile.AvatarURL, s.clock().UTC()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("leaderboard merge: %w", err)
	}
	return total, nil
}

func (s *LeaderboardStore) Top(ctx context.Context, quizID string, n int) ([]domain.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, score, display_name, state, avatar_url, updated_at
		FROM leaderboard
		WHERE quiz_id=$1
		ORDER BY score DESC, updated_at ASC, display_name ASC
		LIMIT $2`,
		quizID, n)
	if err != nil {
		return nil, fmt.Errorf("leaderboard top: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		entry := domain.LeaderboardEntry{QuizID: quizID}
		if err := rows.Scan(&entry.UserID, &entry.Score, &entry.DisplayName, &entry.State, &entry.AvatarURL, &entry.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
