// Package attempt scores quiz submissions, updates gamification state and
// hands persisted attempts to analysis.
package attempt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abhisek/examprep/internal/analysis"
	"github.com/abhisek/examprep/internal/leaderboard"
	"github.com/abhisek/examprep/internal/quiz"
	"github.com/abhisek/examprep/internal/scoring"
	"github.com/abhisek/examprep/internal/store"
)

// ErrInvalidSubmission is returned for submissions that do not fit their
// quiz.
var ErrInvalidSubmission = errors.New("invalid submission")

// Repos is the storage the service needs.
type Repos interface {
	store.QuizRepo
	store.AttemptRepo
	store.GamificationRepo
	store.SubmissionRepo
}

// Config controls the Service.
type Config struct {
	// Location decides which calendar day an attempt falls on.
	// Nil means UTC.
	Location *time.Location

	// AsyncAnalysis runs analysis on a background worker instead of
	// inside Submit.
	AsyncAnalysis bool

	// QueueSize bounds pending background analyses. Zero means 32.
	QueueSize int

	// AnalysisTimeout bounds one analysis call. Zero means 2 minutes.
	AnalysisTimeout time.Duration

	// MaxStateRetries bounds gamification saves lost to concurrent
	// writers. Zero means 3.
	MaxStateRetries int

	// Policy is the badge table. Nil means scoring.DefaultPolicy.
	Policy scoring.Policy
}

func (c *Config) applyDefaults() {
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 32
	}
	if c.AnalysisTimeout <= 0 {
		c.AnalysisTimeout = 2 * time.Minute
	}
	if c.MaxStateRetries <= 0 {
		c.MaxStateRetries = 3
	}
	if c.Policy == nil {
		c.Policy = scoring.DefaultPolicy()
	}
}

// Submission is a user's completed quiz as sent by a client. Answers and
// QuestionTimes are keyed by question index.
type Submission struct {
	QuizID            string
	UserID            string
	Answers           map[int]any
	QuestionTimes     map[int]float64
	TotalTimeSeconds  float64
	LearningStyleHint string

	// SubmittedAt defaults to the current time.
	SubmittedAt time.Time
}

// Submitted is the result of a successful submission.
type Submitted struct {
	Attempt      *scoring.Attempt
	Scorecard    scoring.Scorecard
	Gamification scoring.State
	NewBadges    []string

	// AnalysisQueued is set when analysis was handed to the background
	// worker and the attempt's classification is still pending.
	AnalysisQueued bool
}

// Service finalizes attempts.
type Service struct {
	repos    Repos
	analyzer analysis.Analyzer
	board    leaderboard.Board
	scorer   *scoring.Scorer
	cfg      Config
	locks    *userLocks
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.RWMutex
	closed  bool
	pending chan analysisJob
	wg      sync.WaitGroup
}

// NewService creates a Service. analyzer and board may be nil: without an
// analyzer every attempt is marked unavailable, without a board nothing is
// ranked.
func NewService(repos Repos, analyzer analysis.Analyzer, board leaderboard.Board, cfg Config, logger *slog.Logger) *Service {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		repos:    repos,
		analyzer: analyzer,
		board:    board,
		scorer:   scoring.NewScorer(logger),
		cfg:      cfg,
		locks:    newUserLocks(),
		logger:   logger,
		now:      time.Now,
	}
	if cfg.AsyncAnalysis && analyzer != nil {
		s.pending = make(chan analysisJob, cfg.QueueSize)
		s.wg.Add(1)
		go s.processLoop()
	}
	return s
}

// Submit scores a submission against its stored quiz, applies it to the
// user's gamification state and persists both. Analysis runs after the
// attempt is stored, either inline or on the background worker; its
// failure never fails the submission.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Submitted, error) {
	z, err := s.repos.GetQuiz(ctx, sub.QuizID)
	if err != nil {
		return nil, fmt.Errorf("load quiz %s: %w", sub.QuizID, err)
	}

	a, err := buildAttempt(z, sub)
	if err != nil {
		return nil, err
	}

	at := sub.SubmittedAt
	if at.IsZero() {
		at = s.now()
	}
	card, err := a.Finalize(s.scorer, at, s.cfg.Location, sub.TotalTimeSeconds)
	if err != nil {
		return nil, err
	}

	out, err := s.persist(ctx, a, card)
	if err != nil {
		return nil, err
	}

	if s.board != nil {
		if err := s.board.Record(ctx, out.Gamification); err != nil {
			s.logger.Warn("leaderboard update failed", "user_id", a.UserID, "error", err)
		}
	}

	s.logger.Info("attempt submitted",
		"attempt_id", a.ID, "user_id", a.UserID, "score", card.Score, "total", card.Total,
		"points", out.Gamification.Points, "streak", out.Gamification.CurrentStreak)

	out.AnalysisQueued = s.dispatchAnalysis(ctx, a, sub.LearningStyleHint)
	return out, nil
}

func buildAttempt(z *quiz.Quiz, sub Submission) (*scoring.Attempt, error) {
	if sub.UserID != "" && sub.UserID != z.UserID {
		return nil, fmt.Errorf("%w: quiz %s belongs to another user", ErrInvalidSubmission, z.ID)
	}

	a := scoring.NewAttempt(z)
	for i, raw := range sub.Answers {
		if err := a.SetAnswer(i, raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
		}
	}
	for i, secs := range sub.QuestionTimes {
		if err := a.RecordTime(i, secs); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
		}
	}
	if sub.TotalTimeSeconds < 0 {
		return nil, fmt.Errorf("%w: negative total time", ErrInvalidSubmission)
	}
	return a, nil
}

// persist saves the attempt together with the updated gamification state
// while holding the user's lock. A lost optimistic write stores neither,
// so the state is reloaded and the attempt applied again.
func (s *Service) persist(ctx context.Context, a *scoring.Attempt, card scoring.Scorecard) (*Submitted, error) {
	unlock := s.locks.Lock(a.UserID)
	defer unlock()

	for try := 1; ; try++ {
		upd, err := s.applyToState(ctx, a, card)
		if err != nil {
			return nil, err
		}

		saved, err := s.repos.SaveSubmission(ctx, a, upd.State)
		if err == nil {
			return &Submitted{Attempt: a, Scorecard: card, Gamification: saved, NewBadges: upd.NewBadges}, nil
		}
		if !errors.Is(err, store.ErrConflict) || try >= s.cfg.MaxStateRetries {
			return nil, fmt.Errorf("save submission: %w", err)
		}
		s.logger.Debug("gamification state changed concurrently, retrying", "user_id", a.UserID, "try", try)
	}
}

func (s *Service) applyToState(ctx context.Context, a *scoring.Attempt, card scoring.Scorecard) (scoring.Update, error) {
	st, err := s.repos.LoadGamificationState(ctx, a.UserID)
	if err != nil {
		return scoring.Update{}, fmt.Errorf("load gamification state: %w", err)
	}
	if st == nil {
		st = &scoring.State{UserID: a.UserID}
	}
	return s.cfg.Policy.Apply(*st, a.Date, card.Result()), nil
}

// Gamification returns the user's state, or a zero state for a user
// without attempts.
func (s *Service) Gamification(ctx context.Context, userID string) (scoring.State, error) {
	st, err := s.repos.LoadGamificationState(ctx, userID)
	if err != nil {
		return scoring.State{}, err
	}
	if st == nil {
		return scoring.State{UserID: userID, Badges: []string{}}, nil
	}
	return *st, nil
}
