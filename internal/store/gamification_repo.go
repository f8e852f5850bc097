package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/examprep/internal/scoring"
)

var gamificationColumns = []string{
	"user_id", "points", "current_streak", "longest_streak", "badges", "last_attempt_date", "version",
}

func (s *Store) LoadGamificationState(ctx context.Context, userID string) (*scoring.State, error) {
	sel := s.builder.Select(gamificationColumns...).
		From(s.builder.Table(tableGamification)).
		Where(entsql.EQ("user_id", userID))

	st, err := scanState(queryRow(ctx, s.db, sel))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load gamification state: %w", err)
	}
	return st, nil
}

// SaveGamificationState performs a compare-and-swap on the version column.
// Version 0 means the caller expects no stored row yet.
func (s *Store) SaveGamificationState(ctx context.Context, st scoring.State) (scoring.State, error) {
	return s.saveState(ctx, s.db, st)
}

func (s *Store) saveState(ctx context.Context, q querier, st scoring.State) (scoring.State, error) {
	badges, err := json.Marshal(st.Badges)
	if err != nil {
		return st, fmt.Errorf("marshal badges: %w", err)
	}
	var last any
	if st.LastAttemptDate != nil {
		last = st.LastAttemptDate.String()
	}

	var b builtQuery
	if st.Version == 0 {
		b = s.builder.Insert(tableGamification).
			Columns(gamificationColumns...).
			Values(st.UserID, st.Points, st.CurrentStreak, st.LongestStreak, string(badges), last, 1).
			OnConflict(entsql.ConflictColumns("user_id"), entsql.DoNothing())
	} else {
		b = s.builder.Update(tableGamification).
			Set("points", st.Points).
			Set("current_streak", st.CurrentStreak).
			Set("longest_streak", st.LongestStreak).
			Set("badges", string(badges)).
			Set("last_attempt_date", last).
			Set("version", st.Version+1).
			Where(entsql.And(
				entsql.EQ("user_id", st.UserID),
				entsql.EQ("version", st.Version),
			))
	}

	res, err := exec(ctx, q, b)
	if err != nil {
		return st, fmt.Errorf("save gamification state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return st, fmt.Errorf("save gamification state: %w", err)
	}
	if n == 0 {
		return st, fmt.Errorf("gamification state of %s at version %d: %w", st.UserID, st.Version, ErrConflict)
	}

	saved := st.Clone()
	saved.Version++
	return saved, nil
}

func (s *Store) TopPoints(ctx context.Context, limit int) ([]scoring.State, error) {
	sel := s.builder.Select(gamificationColumns...).
		From(s.builder.Table(tableGamification)).
		OrderBy(entsql.Desc("points"), "user_id")
	if limit > 0 {
		sel.Limit(limit)
	}

	rows, err := queryRows(ctx, s.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query top points: %w", err)
	}
	defer rows.Close()

	var out []scoring.State
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan gamification state: %w", err)
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

func scanState(row rowScanner) (*scoring.State, error) {
	var (
		st     scoring.State
		badges string
		last   sql.NullString
	)
	if err := row.Scan(&st.UserID, &st.Points, &st.CurrentStreak, &st.LongestStreak, &badges, &last, &st.Version); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(badges), &st.Badges); err != nil {
		return nil, fmt.Errorf("decode badges: %w", err)
	}
	if last.Valid && last.String != "" {
		d, err := scoring.ParseDate(last.String)
		if err != nil {
			return nil, err
		}
		st.LastAttemptDate = &d
	}
	return &st, nil
}
