package store

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	tableQuizzes      = "quizzes"
	tableHistory      = "question_history"
	tableAttempts     = "attempts"
	tableGamification = "gamification_states"
	tableLLMEvents    = "llm_request_events"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS quizzes (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		exam       TEXT NOT NULL,
		config     TEXT NOT NULL,
		questions  TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS quizzes_user_id ON quizzes (user_id)`,

	`CREATE TABLE IF NOT EXISTS question_history (
		user_id       TEXT NOT NULL,
		question_text TEXT NOT NULL,
		quiz_id       TEXT NOT NULL,
		seq           INTEGER NOT NULL,
		created_at    TEXT NOT NULL,
		PRIMARY KEY (user_id, question_text)
	)`,

	`CREATE TABLE IF NOT EXISTS attempts (
		id                   TEXT PRIMARY KEY,
		quiz_id              TEXT NOT NULL,
		user_id              TEXT NOT NULL,
		exam                 TEXT NOT NULL,
		stream               TEXT NOT NULL DEFAULT '',
		score                INTEGER NOT NULL,
		question_count       INTEGER NOT NULL,
		total_time_seconds   REAL NOT NULL DEFAULT 0,
		questions            TEXT NOT NULL,
		answers              TEXT NOT NULL,
		classification_state TEXT NOT NULL,
		classification       TEXT NOT NULL,
		attempt_date         TEXT NOT NULL,
		submitted_at         TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS attempts_user_submitted ON attempts (user_id, submitted_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS attempts_quiz_id ON attempts (quiz_id)`,

	`CREATE TABLE IF NOT EXISTS gamification_states (
		user_id           TEXT PRIMARY KEY,
		points            INTEGER NOT NULL DEFAULT 0,
		current_streak    INTEGER NOT NULL DEFAULT 0,
		longest_streak    INTEGER NOT NULL DEFAULT 0,
		badges            TEXT NOT NULL DEFAULT '[]',
		last_attempt_date TEXT,
		version           INTEGER NOT NULL DEFAULT 1
	)`,

	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL,
		timestamp     TEXT NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}
