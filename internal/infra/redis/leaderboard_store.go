package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"prep-quiz-service/internal/domain"
)

const mergeRetries = 16

// LeaderboardStore keeps one hash per (quiz, user) with the cumulative score
// and the denormalized profile snapshot, plus a sorted set per quiz for
// ranked reads:
//
//	HSET leaderboard:{quizID}:user:{userID} score name state avatar updatedAt
//	ZADD leaderboard:{quizID} {score} {userID}
//
// Merge runs as an optimistic WATCH/MULTI transaction so two concurrent
// submissions by the same user never lose an increment; contention retries
// internally and is invisible to the caller.
type LeaderboardStore struct {
	client *redis.Client
	clock  func() time.Time
}

func NewLeaderboardStore(client *redis.Client) *LeaderboardStore {
	return &LeaderboardStore{client: client, clock: time.Now}
}

// WithClock swaps the timestamp source for deterministic tests.
func (s *LeaderboardStore) WithClock(now func() time.Time) *LeaderboardStore {
	s.clock = now
	return s
}

func (s *LeaderboardStore) Merge(ctx context.Context, quizID, userID string, delta int, profile domain.Profile) (int, error) {
	entryKey := s.entryKey(quizID, userID)
	rankKey := s.rankKey(quizID)

	var total int
	merge := func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, entryKey, "score").Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		total = current + delta

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, entryKey,
				"score", total,
				"name", profile.DisplayName,
				"state", profile.State,
				"avatar", profile.AvatarURL,
				"updatedAt", s.clock().UTC().Format(time.RFC3339Nano),
			)
			pipe.ZAdd(ctx, rankKey, redis.Z{Score: float64(total), Member: userID})
			return nil
		})
		return err
	}

	for i := 0; i < mergeRetries; i++ {
		err := s.client.Watch(ctx, merge, entryKey)
		if err == nil {
			return total, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return 0, fmt.Errorf("leaderboard merge: %w", err)
	}
	return 0, fmt.Errorf("leaderboard merge: retries exhausted for %s", entryKey)
}

// Top reads the n best totals for a quiz from the sorted set and hydrates
// each entry's profile snapshot.
func (s *LeaderboardStore) Top(ctx context.Context, quizID string, n int) ([]domain.LeaderboardEntry, error) {
	members, err := s.client.ZRevRangeWithScores(ctx, s.rankKey(quizID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard range: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(members))
	for _, member := range members {
		userID, ok := member.Member.(string)
		if !ok {
			userID = fmt.Sprint(member.Member)
		}
		fields, err := s.client.HGetAll(ctx, s.entryKey(quizID, userID)).Result()
		if err != nil {
			return nil, fmt.Errorf("leaderboard entry %s: %w", userID, err)
		}
		entry := domain.LeaderboardEntry{
			QuizID:      quizID,
			UserID:      userID,
			DisplayName: fields["name"],
			State:       fields["state"],
			AvatarURL:   fields["avatar"],
			Score:       int(member.Score),
		}
		if raw, ok := fields["score"]; ok {
			if v, err := strconv.Atoi(raw); err == nil {
				entry.Score = v
			}
		}
		if raw, ok := fields["updatedAt"]; ok {
			if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
				entry.UpdatedAt = ts
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *LeaderboardStore) entryKey(quizID, userID string) string {
	return "leaderboard:" + quizID + ":user:" + userID
}

func (s *LeaderboardStore) rankKey(quizID string) string {
	return "leaderboard:" + quizID
}
