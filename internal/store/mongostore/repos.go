package mongostore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/abhisek/examprep/internal/quiz"
	"github.com/abhisek/examprep/internal/scoring"
	"github.com/abhisek/examprep/internal/store"
)

// Question, answer and classification payloads are stored as JSON strings
// so that they decode through the same normalizing codecs as the SQL store.

type quizDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Config    string    `bson:"config"`
	Questions string    `bson:"questions"`
	CreatedAt time.Time `bson:"created_at"`
}

type historyDoc struct {
	UserID    string    `bson:"user_id"`
	Text      string    `bson:"text"`
	QuizID    string    `bson:"quiz_id"`
	FirstSeen time.Time `bson:"first_seen"`
}

type attemptDoc struct {
	ID                  string    `bson:"_id"`
	QuizID              string    `bson:"quiz_id"`
	UserID              string    `bson:"user_id"`
	Exam                string    `bson:"exam"`
	Stream              string    `bson:"stream"`
	Score               int       `bson:"score"`
	QuestionCount       int       `bson:"question_count"`
	TotalTimeSeconds    float64   `bson:"total_time_seconds"`
	Questions           string    `bson:"questions"`
	Answers             string    `bson:"answers"`
	ClassificationState string    `bson:"classification_state"`
	Classification      string    `bson:"classification"`
	AttemptDate         string    `bson:"attempt_date"`
	SubmittedAt         time.Time `bson:"submitted_at"`
}

type gamificationDoc struct {
	UserID          string   `bson:"_id"`
	Points          int      `bson:"points"`
	CurrentStreak   int      `bson:"current_streak"`
	LongestStreak   int      `bson:"longest_streak"`
	Badges          []string `bson:"badges"`
	LastAttemptDate string   `bson:"last_attempt_date,omitempty"`
	Version         int64    `bson:"version"`
}

func (s *Store) SaveQuiz(ctx context.Context, z *quiz.Quiz) error {
	cfg, err := json.Marshal(z.Config)
	if err != nil {
		return fmt.Errorf("marshal quiz config: %w", err)
	}
	questions, err := json.Marshal(z.Questions)
	if err != nil {
		return fmt.Errorf("marshal quiz questions: %w", err)
	}

	_, err = s.quizzes.InsertOne(ctx, quizDoc{
		ID:        z.ID,
		UserID:    z.UserID,
		Config:    string(cfg),
		Questions: string(questions),
		CreatedAt: z.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, id string) (*quiz.Quiz, error) {
	var doc quizDoc
	err := s.quizzes.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("quiz %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}

	z := &quiz.Quiz{ID: doc.ID, UserID: doc.UserID, CreatedAt: doc.CreatedAt.UTC()}
	if err := json.Unmarshal([]byte(doc.Config), &z.Config); err != nil {
		return nil, fmt.Errorf("decode quiz config: %w", err)
	}
	if err := json.Unmarshal([]byte(doc.Questions), &z.Questions); err != nil {
		return nil, fmt.Errorf("decode quiz questions: %w", err)
	}
	return z, nil
}

func (s *Store) QuestionTexts(ctx context.Context, userID string) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "first_seen", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"text": 1})
	cur, err := s.history.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("query question history: %w", err)
	}

	var docs []historyDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode question history: %w", err)
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	return texts, nil
}

func (s *Store) RecordQuestions(ctx context.Context, userID, quizID string, texts []string) error {
	if len(texts) == 0 {
		return nil
	}
	now := time.Now().UTC()

	models := make([]mongo.WriteModel, len(texts))
	for i, t := range texts {
		models[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"user_id": userID, "text": t}).
			SetUpdate(bson.M{"$setOnInsert": historyDoc{
				UserID:    userID,
				Text:      t,
				QuizID:    quizID,
				FirstSeen: now.Add(time.Duration(i)),
			}}).
			SetUpsert(true)
	}
	if _, err := s.history.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("record question history: %w", err)
	}
	return nil
}

func (s *Store) SaveAttempt(ctx context.Context, a *scoring.Attempt) (string, error) {
	if !a.Finalized {
		return "", fmt.Errorf("save attempt: attempt is not finalized")
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	doc := attemptDoc{
		ID:                  a.ID,
		QuizID:              a.QuizID,
		UserID:              a.UserID,
		Exam:                a.Exam,
		Stream:              a.Stream,
		Score:               a.Score,
		QuestionCount:       len(a.Questions),
		TotalTimeSeconds:    a.TotalTimeSeconds,
		ClassificationState: string(a.Classification.State),
		AttemptDate:         a.Date.String(),
		SubmittedAt:         a.SubmittedAt.UTC(),
	}
	var err error
	if doc.Questions, err = marshalString(a.Questions); err != nil {
		return "", fmt.Errorf("marshal attempt questions: %w", err)
	}
	if doc.Answers, err = marshalString(a.Answers); err != nil {
		return "", fmt.Errorf("marshal attempt answers: %w", err)
	}
	if doc.Classification, err = marshalString(a.Classification); err != nil {
		return "", fmt.Errorf("marshal attempt classification: %w", err)
	}

	_, err = s.attempts.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return "", fmt.Errorf("quiz %s: %w", a.QuizID, store.ErrAlreadySubmitted)
	}
	if err != nil {
		return "", fmt.Errorf("insert attempt: %w", err)
	}
	return a.ID, nil
}

// SaveSubmission inserts the attempt and then applies the state CAS. A
// standalone server has no multi-document transactions, so a failed CAS
// deletes the attempt again.
func (s *Store) SaveSubmission(ctx context.Context, a *scoring.Attempt, st scoring.State) (scoring.State, error) {
	if _, err := s.SaveAttempt(ctx, a); err != nil {
		return st, err
	}
	saved, err := s.SaveGamificationState(ctx, st)
	if err != nil {
		if _, derr := s.attempts.DeleteOne(context.WithoutCancel(ctx), bson.M{"_id": a.ID}); derr != nil {
			return st, errors.Join(err, fmt.Errorf("remove attempt %s: %w", a.ID, derr))
		}
		return st, err
	}
	return saved, nil
}

func (s *Store) GetAttempt(ctx context.Context, id string) (*scoring.Attempt, error) {
	var doc attemptDoc
	err := s.attempts.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("attempt %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return doc.attempt()
}

func (s *Store) ListAttempts(ctx context.Context, userID string, limit int) ([]*scoring.Attempt, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.attempts.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	var docs []attemptDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode attempts: %w", err)
	}
	out := make([]*scoring.Attempt, 0, len(docs))
	for _, d := range docs {
		a, err := d.attempt()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) UpdateAttemptErrorClassification(ctx context.Context, id string, c scoring.Classification) error {
	data, err := marshalString(c)
	if err != nil {
		return fmt.Errorf("marshal classification: %w", err)
	}
	res, err := s.attempts.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"classification":       data,
		"classification_state": string(c.State),
	}})
	if err != nil {
		return fmt.Errorf("update attempt classification: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("attempt %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (d attemptDoc) attempt() (*scoring.Attempt, error) {
	a := &scoring.Attempt{
		ID:               d.ID,
		QuizID:           d.QuizID,
		UserID:           d.UserID,
		Exam:             d.Exam,
		Stream:           d.Stream,
		TotalTimeSeconds: d.TotalTimeSeconds,
		SubmittedAt:      d.SubmittedAt.UTC(),
		Finalized:        true,
	}
	if err := json.Unmarshal([]byte(d.Questions), &a.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if err := json.Unmarshal([]byte(d.Answers), &a.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if err := json.Unmarshal([]byte(d.Classification), &a.Classification); err != nil {
		return nil, fmt.Errorf("decode classification: %w", err)
	}
	date, err := scoring.ParseDate(d.AttemptDate)
	if err != nil {
		return nil, err
	}
	a.Date = date

	// Outcomes are derived; the stored score stays authoritative.
	a.Rescore()
	a.Score = d.Score
	return a, nil
}

func (s *Store) LoadGamificationState(ctx context.Context, userID string) (*scoring.State, error) {
	var doc gamificationDoc
	err := s.gamification.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load gamification state: %w", err)
	}
	return doc.state()
}

// SaveGamificationState inserts the first state of a user and otherwise
// replaces it only while the stored version matches.
func (s *Store) SaveGamificationState(ctx context.Context, st scoring.State) (scoring.State, error) {
	doc := gamificationDoc{
		UserID:        st.UserID,
		Points:        st.Points,
		CurrentStreak: st.CurrentStreak,
		LongestStreak: st.LongestStreak,
		Badges:        st.Badges,
		Version:       st.Version + 1,
	}
	if doc.Badges == nil {
		doc.Badges = []string{}
	}
	if st.LastAttemptDate != nil {
		doc.LastAttemptDate = st.LastAttemptDate.String()
	}

	conflict := fmt.Errorf("gamification state of %s at version %d: %w", st.UserID, st.Version, store.ErrConflict)

	if st.Version == 0 {
		_, err := s.gamification.InsertOne(ctx, doc)
		if mongo.IsDuplicateKeyError(err) {
			return st, conflict
		}
		if err != nil {
			return st, fmt.Errorf("save gamification state: %w", err)
		}
	} else {
		res, err := s.gamification.ReplaceOne(ctx, bson.M{"_id": st.UserID, "version": st.Version}, doc)
		if err != nil {
			return st, fmt.Errorf("save gamification state: %w", err)
		}
		if res.MatchedCount == 0 {
			return st, conflict
		}
	}

	saved := st.Clone()
	saved.Version++
	return saved, nil
}

func (s *Store) TopPoints(ctx context.Context, limit int) ([]scoring.State, error) {
	opts := options.Find().SetSort(bson.D{{Key: "points", Value: -1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.gamification.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("query top points: %w", err)
	}

	var docs []gamificationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode gamification states: %w", err)
	}
	out := make([]scoring.State, 0, len(docs))
	for _, d := range docs {
		st, err := d.state()
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, nil
}

func (d gamificationDoc) state() (*scoring.State, error) {
	st := &scoring.State{
		UserID:        d.UserID,
		Points:        d.Points,
		CurrentStreak: d.CurrentStreak,
		LongestStreak: d.LongestStreak,
		Badges:        d.Badges,
		Version:       d.Version,
	}
	if st.Badges == nil {
		st.Badges = []string{}
	}
	if d.LastAttemptDate != "" {
		date, err := scoring.ParseDate(d.LastAttemptDate)
		if err != nil {
			return nil, err
		}
		st.LastAttemptDate = &date
	}
	return st, nil
}

func marshalString(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}
