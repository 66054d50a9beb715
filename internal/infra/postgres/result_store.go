package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"prep-quiz-service/internal/domain"
)

// ResultStore appends immutable attempt records to the attempts table. The
// id is assigned here, never by the client, so repeat submissions cannot
// collide.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) SaveResult(ctx context.Context, userID string, result domain.Result) (string, error) {
	id := uuid.NewString()
	result.ID = id
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO attempts (id, user_id, quiz_id, data, completed_at) VALUES ($1, $2, $3, $4, $5)`,
		id, userID, result.QuizID, data, result.CompletedAt)
	if err != nil {
		return "", fmt.Errorf("insert attempt: %w", err)
	}
	return id, nil
}

func (s *ResultStore) GetResult(ctx context.Context, id string) (domain.Result, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM attempts WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Result{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("load attempt: %w", err)
	}
	var result domain.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.Result{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return result, nil
}

// History lists a user's attempt ids for one quiz, oldest first.
func (s *ResultStore) History(ctx context.Context, userID, quizID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM attempts WHERE user_id=$1 AND quiz_id=$2 ORDER BY completed_at`,
		userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("attempt history: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
