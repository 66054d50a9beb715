package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"prep-quiz-service/internal/domain"
)

// ResultStore persists finished attempts as JSON blobs:
//
//	SET   result:{id} {json}
//	RPUSH user:{userID}:attempts:{quizID} {id}
//
// Results are immutable after write; the history list preserves submission
// order for the review screen.
type ResultStore struct {
	client *redis.Client
}

func NewResultStore(client *redis.Client) *ResultStore {
	return &ResultStore{client: client}
}

func (s *ResultStore) SaveResult(ctx context.Context, userID string, result domain.Result) (string, error) {
	id := uuid.NewString()
	result.ID = id
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.resultKey(id), data, 0)
	pipe.RPush(ctx, s.historyKey(userID, result.QuizID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("save result: %w", err)
	}
	return id, nil
}

func (s *ResultStore) GetResult(ctx context.Context, id string) (domain.Result, error) {
	data, err := s.client.Get(ctx, s.resultKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Result{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("get result: %w", err)
	}
	var result domain.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.Result{}, fmt.Errorf("unmarshal result: %w", err)
	}
	return result, nil
}

// History returns the attempt ids for a user and quiz in submission order.
func (s *ResultStore) History(ctx context.Context, userID, quizID string) ([]string, error) {
	ids, err := s.client.LRange(ctx, s.historyKey(userID, quizID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("attempt history: %w", err)
	}
	return ids, nil
}

func (s *ResultStore) resultKey(id string) string {
	return "result:" + id
}

func (s *ResultStore) historyKey(userID, quizID string) string {
	return "user:" + userID + ":attempts:" + quizID
}
