package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/examprep/internal/quiz"
)

const timeLayout = time.RFC3339Nano

func (s *Store) SaveQuiz(ctx context.Context, z *quiz.Quiz) error {
	cfg, err := json.Marshal(z.Config)
	if err != nil {
		return fmt.Errorf("marshal quiz config: %w", err)
	}
	questions, err := json.Marshal(z.Questions)
	if err != nil {
		return fmt.Errorf("marshal quiz questions: %w", err)
	}

	ins := s.builder.Insert(tableQuizzes).
		Columns("id", "user_id", "exam", "config", "questions", "created_at").
		Values(z.ID, z.UserID, z.Config.Exam, string(cfg), string(questions), z.CreatedAt.UTC().Format(timeLayout))
	if _, err := exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, id string) (*quiz.Quiz, error) {
	sel := s.builder.Select("id", "user_id", "config", "questions", "created_at").
		From(s.builder.Table(tableQuizzes)).
		Where(entsql.EQ("id", id))

	var (
		z                         quiz.Quiz
		cfg, questions, createdAt string
	)
	err := queryRow(ctx, s.db, sel).Scan(&z.ID, &z.UserID, &cfg, &questions, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("quiz %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}

	if err := json.Unmarshal([]byte(cfg), &z.Config); err != nil {
		return nil, fmt.Errorf("decode quiz config: %w", err)
	}
	if err := json.Unmarshal([]byte(questions), &z.Questions); err != nil {
		return nil, fmt.Errorf("decode quiz questions: %w", err)
	}
	if z.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("decode quiz created_at: %w", err)
	}
	return &z, nil
}

func (s *Store) QuestionTexts(ctx context.Context, userID string) ([]string, error) {
	sel := s.builder.Select("question_text").
		From(s.builder.Table(tableHistory)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("seq")

	rows, err := queryRows(ctx, s.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query question history: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan question history: %w", err)
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}

func (s *Store) RecordQuestions(ctx context.Context, userID, quizID string, texts []string) error {
	if len(texts) == 0 {
		return nil
	}

	now := time.Now().UTC().Format(timeLayout)
	ins := s.builder.Insert(tableHistory).
		Columns("user_id", "question_text", "quiz_id", "seq", "created_at")
	for _, t := range texts {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			return err
		}
		ins.Values(userID, t, quizID, seq, now)
	}
	ins.OnConflict(entsql.ConflictColumns("user_id", "question_text"), entsql.DoNothing())

	if _, err := exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("record question history: %w", err)
	}
	return nil
}
