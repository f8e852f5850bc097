package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/examprep/internal/scoring"
)

var attemptColumns = []string{
	"id", "quiz_id", "user_id", "exam", "stream", "score", "total_time_seconds",
	"questions", "answers", "classification", "attempt_date", "submitted_at",
}

func (s *Store) SaveAttempt(ctx context.Context, a *scoring.Attempt) (string, error) {
	if err := s.insertAttempt(ctx, s.db, a); err != nil {
		return "", err
	}
	return a.ID, nil
}

// SaveSubmission inserts the attempt and swaps the gamification state in
// one transaction.
func (s *Store) SaveSubmission(ctx context.Context, a *scoring.Attempt, st scoring.State) (scoring.State, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return st, fmt.Errorf("begin submission: %w", err)
	}
	defer tx.Rollback()

	if err := s.insertAttempt(ctx, tx, a); err != nil {
		return st, err
	}
	saved, err := s.saveState(ctx, tx, st)
	if err != nil {
		return st, err
	}
	if err := tx.Commit(); err != nil {
		return st, fmt.Errorf("commit submission: %w", err)
	}
	return saved, nil
}

func (s *Store) insertAttempt(ctx context.Context, q querier, a *scoring.Attempt) error {
	if !a.Finalized {
		return fmt.Errorf("save attempt: attempt is not finalized")
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	questions, err := json.Marshal(a.Questions)
	if err != nil {
		return fmt.Errorf("marshal attempt questions: %w", err)
	}
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("marshal attempt answers: %w", err)
	}
	classification, err := json.Marshal(a.Classification)
	if err != nil {
		return fmt.Errorf("marshal attempt classification: %w", err)
	}

	ins := s.builder.Insert(tableAttempts).
		Columns(
			"id", "quiz_id", "user_id", "exam", "stream", "score", "question_count",
			"total_time_seconds", "questions", "answers", "classification_state",
			"classification", "attempt_date", "submitted_at",
		).
		Values(
			a.ID, a.QuizID, a.UserID, a.Exam, a.Stream, a.Score, len(a.Questions),
			a.TotalTimeSeconds, string(questions), string(answers), string(a.Classification.State),
			string(classification), a.Date.String(), a.SubmittedAt.UTC().Format(timeLayout),
		).
		OnConflict(entsql.ConflictColumns("quiz_id"), entsql.DoNothing())
	res, err := exec(ctx, q, ins)
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("quiz %s: %w", a.QuizID, ErrAlreadySubmitted)
	}
	return nil
}

func (s *Store) GetAttempt(ctx context.Context, id string) (*scoring.Attempt, error) {
	sel := s.builder.Select(attemptColumns...).
		From(s.builder.Table(tableAttempts)).
		Where(entsql.EQ("id", id))

	a, err := scanAttempt(queryRow(ctx, s.db, sel))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("attempt %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return a, nil
}

func (s *Store) ListAttempts(ctx context.Context, userID string, limit int) ([]*scoring.Attempt, error) {
	sel := s.builder.Select(attemptColumns...).
		From(s.builder.Table(tableAttempts)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("submitted_at"))
	if limit > 0 {
		sel.Limit(limit)
	}

	rows, err := queryRows(ctx, s.db, sel)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []*scoring.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAttemptErrorClassification(ctx context.Context, id string, c scoring.Classification) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal classification: %w", err)
	}

	upd := s.builder.Update(tableAttempts).
		Set("classification", string(data)).
		Set("classification_state", string(c.State)).
		Where(entsql.EQ("id", id))
	res, err := exec(ctx, s.db, upd)
	if err != nil {
		return fmt.Errorf("update attempt classification: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("attempt %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (*scoring.Attempt, error) {
	var (
		a                                  scoring.Attempt
		questions, answers, classification string
		attemptDate, submittedAt           string
	)
	err := row.Scan(
		&a.ID, &a.QuizID, &a.UserID, &a.Exam, &a.Stream, &a.Score, &a.TotalTimeSeconds,
		&questions, &answers, &classification, &attemptDate, &submittedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(questions), &a.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if err := json.Unmarshal([]byte(classification), &a.Classification); err != nil {
		return nil, fmt.Errorf("decode classification: %w", err)
	}
	if a.Date, err = scoring.ParseDate(attemptDate); err != nil {
		return nil, err
	}
	if a.SubmittedAt, err = time.Parse(timeLayout, submittedAt); err != nil {
		return nil, fmt.Errorf("decode submitted_at: %w", err)
	}

	// Outcomes are derived; the stored score stays authoritative.
	stored := a.Score
	a.Rescore()
	a.Score = stored
	a.Finalized = true
	return &a, nil
}
