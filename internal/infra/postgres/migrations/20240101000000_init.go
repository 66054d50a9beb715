package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

const createQuizzesSQL = `
CREATE TABLE IF NOT EXISTS quizzes (
	id   TEXT PRIMARY KEY,
	data JSONB NOT NULL
)`

const createAttemptsSQL = `
CREATE TABLE IF NOT EXISTS attempts (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	quiz_id      TEXT NOT NULL,
	data         JSONB NOT NULL,
	completed_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS attempts_user_quiz_idx ON attempts (user_id, quiz_id, completed_at)`

const createLeaderboardSQL = `
CREATE TABLE IF NOT EXISTS leaderboard (
	quiz_id      TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	score        INTEGER NOT NULL DEFAULT 0,
	display_name TEXT NOT NULL DEFAULT '',
	state        TEXT NOT NULL DEFAULT '',
	avatar_url   TEXT NOT NULL DEFAULT '',
	updated_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (quiz_id, user_id)
);
CREATE INDEX IF NOT EXISTS leaderboard_rank_idx ON leaderboard (quiz_id, score DESC)`

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			for _, stmt := range []string{createQuizzesSQL, createAttemptsSQL, createLeaderboardSQL} {
				if _, err := db.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS leaderboard; DROP TABLE IF EXISTS attempts; DROP TABLE IF EXISTS quizzes`)
			return err
		},
	)
}
