package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/examprep/internal/quiz"
	"github.com/abhisek/examprep/internal/scoring"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an optimistic write loses a race.
	ErrConflict = errors.New("version conflict")

	// ErrAlreadySubmitted is returned when a quiz already has an attempt.
	ErrAlreadySubmitted = errors.New("quiz already submitted")
)

// QueryOpts configures list queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	Before int64     // id < Before (0 = no bound)
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To

	Purpose string // exact purpose match ("" = any)
}

// QuizRepo persists generated question sets.
type QuizRepo interface {
	SaveQuiz(ctx context.Context, z *quiz.Quiz) error

	// GetQuiz returns ErrNotFound if no quiz has the id.
	GetQuiz(ctx context.Context, id string) (*quiz.Quiz, error)
}

// HistoryRepo tracks every question text a user has been served.
type HistoryRepo interface {
	// QuestionTexts returns the user's deduplicated question history,
	// oldest first.
	QuestionTexts(ctx context.Context, userID string) ([]string, error)

	// RecordQuestions adds texts to the user's history. Known texts are
	// ignored.
	RecordQuestions(ctx context.Context, userID, quizID string, texts []string) error
}

// AttemptRepo persists finalized attempts.
type AttemptRepo interface {
	// SaveAttempt stores a finalized attempt and returns its id. An attempt
	// without an id is assigned one. A quiz holds at most one attempt; a
	// second one yields ErrAlreadySubmitted.
	SaveAttempt(ctx context.Context, a *scoring.Attempt) (string, error)

	// GetAttempt returns ErrNotFound if no attempt has the id.
	GetAttempt(ctx context.Context, id string) (*scoring.Attempt, error)

	// ListAttempts returns the user's attempts, most recent first.
	ListAttempts(ctx context.Context, userID string, limit int) ([]*scoring.Attempt, error)

	// UpdateAttemptErrorClassification replaces the classification of a
	// stored attempt.
	UpdateAttemptErrorClassification(ctx context.Context, id string, c scoring.Classification) error
}

// GamificationRepo persists per-user gamification state.
type GamificationRepo interface {
	// LoadGamificationState returns nil and no error when the user has no
	// state yet.
	LoadGamificationState(ctx context.Context, userID string) (*scoring.State, error)

	// SaveGamificationState writes st if the stored version still equals
	// st.Version and returns the state with its new version. A stale
	// version yields ErrConflict.
	SaveGamificationState(ctx context.Context, st scoring.State) (scoring.State, error)

	// TopPoints lists states by points, highest first.
	TopPoints(ctx context.Context, limit int) ([]scoring.State, error)
}

// SubmissionRepo stores an attempt together with the gamification state
// it produced.
type SubmissionRepo interface {
	// SaveSubmission saves a as SaveAttempt does and st as
	// SaveGamificationState does, both or neither. On ErrConflict or
	// ErrAlreadySubmitted nothing is stored.
	SaveSubmission(ctx context.Context, a *scoring.Attempt, st scoring.State) (scoring.State, error)
}

// Repos bundles the repositories a quiz backend provides.
type Repos interface {
	QuizRepo
	HistoryRepo
	AttemptRepo
	GamificationRepo
	SubmissionRepo
}

// LLMRequestEvent is one recorded LLM API call.
type LLMRequestEvent struct {
	ID           int64
	Sequence     int64
	Timestamp    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMUsage aggregates recorded calls for one purpose or model.
type LLMUsage struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMEventRepo records and queries LLM request events.
type LLMEventRepo interface {
	AppendLLMRequest(ctx context.Context, ev LLMRequestEvent) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns ErrNotFound if no event has the id.
	GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
