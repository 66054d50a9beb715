package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"prep-quiz-service/internal/domain"
)

// LeaderboardStore keeps cumulative (quiz, user) totals in memory. A single
// mutex serializes merges, which gives the same guarantee the transactional
// backends provide: no increment is ever lost.
type LeaderboardStore struct {
	mu      sync.RWMutex
	entries map[string]map[string]*domain.LeaderboardEntry // quizID -> userID -> entry
	clock   func() time.Time
}

func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{
		entries: make(map[string]map[string]*domain.LeaderboardEntry),
		clock:   time.Now,
	}
}

// WithClock swaps the timestamp source for deterministic tests.
func (s *LeaderboardStore) WithClock(now func() time.Time) *LeaderboardStore {
	s.clock = now
	return s
}

// Merge folds delta into the cumulative entry for (quizID, userID), creating
// it on first submission, and refreshes the denormalized profile snapshot.
func (s *LeaderboardStore) Merge(_ context.Context, quizID, userID string, delta int, profile domain.Profile) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byUser, ok := s.entries[quizID]
	if !ok {
		byUser = make(map[string]*domain.LeaderboardEntry)
		s.entries[quizID] = byUser
	}
	entry, ok := byUser[userID]
	if !ok {
		entry = &domain.LeaderboardEntry{QuizID: quizID, UserID: userID}
		byUser[userID] = entry
	}
	entry.Score += delta
	entry.DisplayName = profile.DisplayName
	entry.State = profile.State
	entry.AvatarURL = profile.AvatarURL
	entry.UpdatedAt = s.clock()
	return entry.Score, nil
}

// Top returns up to n entries for a quiz ordered by score desc, ties broken
// by earliest last submission, then display name.
func (s *LeaderboardStore) Top(_ context.Context, quizID string, n int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byUser := s.entries[quizID]
	out := make([]domain.LeaderboardEntry, 0, len(byUser))
	for _, entry := range byUser {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}
