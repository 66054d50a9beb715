package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"prep-quiz-service/internal/domain"
)

// ResultStore keeps finished attempts in memory, keyed by a server-assigned
// id. Records are stored as marshaled JSON so a read returns exactly what
// was written, with no aliasing into caller-owned maps.
type ResultStore struct {
	mu      sync.RWMutex
	records map[string][]byte
	byUser  map[string][]string
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		records: make(map[string][]byte),
		byUser:  make(map[string][]string),
	}
}

func (s *ResultStore) SaveResult(_ context.Context, userID string, result domain.Result) (string, error) {
	id := uuid.NewString()
	result.ID = id
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	s.mu.Lock()
	s.records[id] = data
	s.byUser[userID] = append(s.byUser[userID], id)
	s.mu.Unlock()
	return id, nil
}

func (s *ResultStore) GetResult(_ context.Context, id string) (domain.Result, error) {
	s.mu.RLock()
	data, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return domain.Result{}, domain.ErrResultNotFound
	}
	var result domain.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.Result{}, fmt.Errorf("unmarshal result: %w", err)
	}
	return result, nil
}

// ResultsForUser lists the stored attempt ids for a user in insertion order.
func (s *ResultStore) ResultsForUser(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.byUser[userID]))
	copy(ids, s.byUser[userID])
	return ids
}
