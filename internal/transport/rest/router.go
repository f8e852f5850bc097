// Package rest exposes quiz generation and submission over HTTP.
package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/abhisek/examprep/internal/attempt"
	"github.com/abhisek/examprep/internal/leaderboard"
	"github.com/abhisek/examprep/internal/questiongen"
	"github.com/abhisek/examprep/internal/quiz"
	"github.com/abhisek/examprep/internal/scoring"
)

// QuizCreator generates and stores question sets.
type QuizCreator interface {
	CreateQuiz(ctx context.Context, cfg quiz.Configuration) (*quiz.Quiz, *questiongen.Result, error)
}

// Submitter finalizes attempts and reads gamification state.
type Submitter interface {
	Submit(ctx context.Context, sub attempt.Submission) (*attempt.Submitted, error)
	Gamification(ctx context.Context, userID string) (scoring.State, error)
}

// Reader loads stored quizzes and attempts.
type Reader interface {
	GetQuiz(ctx context.Context, id string) (*quiz.Quiz, error)
	GetAttempt(ctx context.Context, id string) (*scoring.Attempt, error)
	ListAttempts(ctx context.Context, userID string, limit int) ([]*scoring.Attempt, error)
}

// Container holds all dependencies for the router.
type Container struct {
	Quizzes     QuizCreator
	Attempts    Submitter
	Reader      Reader
	Leaderboard leaderboard.Board

	// MinQuestions and MaxQuestions bound the count of a generation
	// request.
	MinQuestions int
	MaxQuestions int

	// Health reports backend readiness for /health. Nil always reports ok.
	Health func(ctx context.Context) error

	Logger *slog.Logger
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.MinQuestions <= 0 {
		c.MinQuestions = 1
	}
	if c.MaxQuestions < c.MinQuestions {
		c.MaxQuestions = 50
	}

	h := &handler{c: c, logger: c.Logger}

	r := mux.NewRouter()
	r.Use(h.logRequests)

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/quizzes", h.createQuiz).Methods(http.MethodPost)
	v1.HandleFunc("/quizzes/{id}", h.getQuiz).Methods(http.MethodGet)
	v1.HandleFunc("/attempts", h.submitAttempt).Methods(http.MethodPost)
	v1.HandleFunc("/attempts/{id}", h.getAttempt).Methods(http.MethodGet)
	v1.HandleFunc("/users/{userID}/attempts", h.listAttempts).Methods(http.MethodGet)
	v1.HandleFunc("/users/{userID}/gamification", h.gamification).Methods(http.MethodGet)
	v1.HandleFunc("/leaderboard", h.leaderboard).Methods(http.MethodGet)

	return r
}

type handler struct {
	c      *Container
	logger *slog.Logger
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Info("http request",
			"method", r.Method, "path", r.URL.Path, "status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.c.Health != nil {
		if err := h.c.Health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
