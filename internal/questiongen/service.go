package questiongen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhisek/examprep/internal/quiz"
)

// QuizStore persists generated quizzes and the history they extend.
type QuizStore interface {
	HistoryStore
	SaveQuiz(ctx context.Context, z *quiz.Quiz) error
	RecordQuestions(ctx context.Context, userID, quizID string, texts []string) error
}

// Service generates question sets and stores them as quizzes.
type Service struct {
	gen     *SetGenerator
	quizzes QuizStore
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a Service that reads history from and writes quizzes
// to quizzes.
func NewService(capability Capability, quizzes QuizStore, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		gen:     NewSetGenerator(quizzes, capability, cfg, logger),
		quizzes: quizzes,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateQuiz generates a question set for cfg, saves it as a quiz and adds
// its texts to the user's history. Generation errors are returned as is so
// callers can tell a *GenerationFailedError from a *TransportError.
func (s *Service) CreateQuiz(ctx context.Context, cfg quiz.Configuration) (*quiz.Quiz, *Result, error) {
	res, err := s.gen.Generate(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	z := quiz.NewQuiz(cfg, res.Questions, s.now())
	if err := s.quizzes.SaveQuiz(ctx, z); err != nil {
		return nil, nil, fmt.Errorf("save quiz: %w", err)
	}
	if err := s.quizzes.RecordQuestions(ctx, z.UserID, z.ID, z.Texts()); err != nil {
		return nil, nil, fmt.Errorf("record question history: %w", err)
	}

	s.logger.Info("quiz created", "quiz_id", z.ID, "user_id", z.UserID, "questions", len(z.Questions))
	return z, res, nil
}
