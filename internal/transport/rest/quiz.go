package rest

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/abhisek/examprep/internal/quiz"
)

type createQuizRequest struct {
	Exam       string `json:"exam"`
	Stream     string `json:"stream"`
	Syllabus   string `json:"syllabus"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
	UserID     string `json:"user_id"`
}

// publicQuestion is a question as shown to the learner before submission.
// Correct answers stay on the server.
type publicQuestion struct {
	Index      int             `json:"index"`
	Text       string          `json:"text"`
	Kind       quiz.Kind       `json:"kind"`
	Options    []string        `json:"options,omitempty"`
	Difficulty quiz.Difficulty `json:"difficulty"`
	Topic      string          `json:"topic,omitempty"`
}

type quizResponse struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Config    quiz.Configuration `json:"configuration"`
	Questions []publicQuestion   `json:"questions"`
	CreatedAt time.Time          `json:"created_at"`
	Attempts  int                `json:"generation_attempts,omitempty"`
}

func toQuizResponse(z *quiz.Quiz) quizResponse {
	resp := quizResponse{
		ID:        z.ID,
		UserID:    z.UserID,
		Config:    z.Config,
		CreatedAt: z.CreatedAt,
		Questions: make([]publicQuestion, len(z.Questions)),
	}
	for i, q := range z.Questions {
		resp.Questions[i] = publicQuestion{
			Index:      i,
			Text:       q.Text,
			Kind:       q.Kind,
			Options:    q.Options,
			Difficulty: q.Difficulty,
			Topic:      q.Topic,
		}
	}
	return resp
}

func (h *handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := h.configuration(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	z, res, err := h.c.Quizzes.CreateQuiz(r.Context(), cfg)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := toQuizResponse(z)
	resp.Attempts = len(res.Attempts)
	writeJSON(w, http.StatusCreated, resp)
}

func (h *handler) configuration(req createQuizRequest) (quiz.Configuration, error) {
	d, err := quiz.ParseDifficulty(req.Difficulty)
	if err != nil {
		return quiz.Configuration{}, err
	}
	if req.Count < h.c.MinQuestions || req.Count > h.c.MaxQuestions {
		return quiz.Configuration{}, fmt.Errorf("count must be between %d and %d", h.c.MinQuestions, h.c.MaxQuestions)
	}

	cfg := quiz.Configuration{
		Exam:       strings.TrimSpace(req.Exam),
		Stream:     strings.TrimSpace(req.Stream),
		Syllabus:   strings.TrimSpace(req.Syllabus),
		Difficulty: d,
		Count:      req.Count,
		UserID:     strings.TrimSpace(req.UserID),
	}
	return cfg, cfg.Validate()
}

func (h *handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	z, err := h.c.Reader.GetQuiz(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuizResponse(z))
}
