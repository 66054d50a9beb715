package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"prep-quiz-service/internal/domain"
)

func TestMergeCreatesThenAccumulates(t *testing.T) {
	ctx := context.Background()
	store := NewLeaderboardStore()

	total, err := store.Merge(ctx, "quiz-1", "u1", 10, domain.Profile{DisplayName: "Priya", State: "Kerala"})
	if err != nil || total != 10 {
		t.Fatalf("first merge: total=%d err=%v", total, err)
	}
	total, err = store.Merge(ctx, "quiz-1", "u1", 15, domain.Profile{DisplayName: "Priya S", State: "Kerala"})
	if err != nil || total != 25 {
		t.Fatalf("second merge: total=%d err=%v", total, err)
	}

	top, err := store.Top(ctx, "quiz-1", 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 1 || top[0].Score != 25 {
		t.Fatalf("expected cumulative 25, got %+v", top)
	}
	// Profile snapshot refreshed on every merge.
	if top[0].DisplayName != "Priya S" {
		t.Fatalf("expected refreshed display name, got %q", top[0].DisplayName)
	}
}

func TestMergeConcurrentSubmissionsLoseNothing(t *testing.T) {
	ctx := context.Background()
	store := NewLeaderboardStore()
	profile := domain.Profile{DisplayName: "Priya"}

	// Two near-simultaneous submissions (+5 and +3) plus a pile of extra
	// writers; the final total must be the exact sum under any interleaving.
	deltas := []int{5, 3}
	for i := 0; i < 48; i++ {
		deltas = append(deltas, i%7)
	}
	want := 0
	for _, d := range deltas {
		want += d
	}

	var wg sync.WaitGroup
	for _, d := range deltas {
		wg.Add(1)
		go func(d int) {
			defer wg.Done()
			if _, err := store.Merge(ctx, "quiz-1", "u1", d, profile); err != nil {
				t.Errorf("merge: %v", err)
			}
		}(d)
	}
	wg.Wait()

	top, _ := store.Top(ctx, "quiz-1", 1)
	if len(top) != 1 || top[0].Score != want {
		t.Fatalf("expected total %d, got %+v", want, top)
	}
}

func TestTopOrderingAndLimit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	store := NewLeaderboardStore().WithClock(func() time.Time {
		tick++
		return now.Add(time.Duration(tick) * time.Second)
	})

	_, _ = store.Merge(ctx, "quiz-1", "u1", 10, domain.Profile{DisplayName: "Asha"})
	_, _ = store.Merge(ctx, "quiz-1", "u2", 30, domain.Profile{DisplayName: "Bilal"})
	_, _ = store.Merge(ctx, "quiz-1", "u3", 30, domain.Profile{DisplayName: "Chitra"})
	_, _ = store.Merge(ctx, "quiz-1", "u4", 5, domain.Profile{DisplayName: "Dev"})

	top, err := store.Top(ctx, "quiz-1", 3)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}
	// u2 and u3 tie at 30; u2 submitted earlier and ranks first.
	if top[0].UserID != "u2" || top[1].UserID != "u3" || top[2].UserID != "u1" {
		t.Fatalf("unexpected ranking: %+v", top)
	}
}
