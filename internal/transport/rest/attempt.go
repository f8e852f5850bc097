package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/abhisek/examprep/internal/attempt"
	"github.com/abhisek/examprep/internal/leaderboard"
	"github.com/abhisek/examprep/internal/quiz"
	"github.com/abhisek/examprep/internal/scoring"
)

// submitAttemptRequest keys answers and times by question index. Answers
// may be a string, an array or a number; the server normalizes them.
type submitAttemptRequest struct {
	QuizID            string                  `json:"quiz_id"`
	UserID            string                  `json:"user_id"`
	Answers           map[int]json.RawMessage `json:"answers"`
	QuestionTimes     map[int]float64         `json:"question_times"`
	TotalTimeSeconds  float64                 `json:"total_time_seconds"`
	LearningStyleHint string                  `json:"learning_style_hint"`
}

type outcomeResponse struct {
	Index   int         `json:"index"`
	Correct bool        `json:"correct"`
	Status  quiz.Status `json:"answer_status"`
}

type submitAttemptResponse struct {
	AttemptID    string                      `json:"attempt_id"`
	Score        int                         `json:"score"`
	Total        int                         `json:"total"`
	Outcomes     []outcomeResponse           `json:"outcomes"`
	Gamification scoring.State               `json:"gamification"`
	NewBadges    []string                    `json:"new_badges"`
	Analysis     scoring.ClassificationState `json:"analysis"`
}

func (h *handler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	var req submitAttemptRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.QuizID == "" {
		writeError(w, http.StatusBadRequest, "quiz_id is required")
		return
	}

	answers, err := decodeAnswers(req.Answers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.c.Attempts.Submit(r.Context(), attempt.Submission{
		QuizID:            req.QuizID,
		UserID:            req.UserID,
		Answers:           answers,
		QuestionTimes:     req.QuestionTimes,
		TotalTimeSeconds:  req.TotalTimeSeconds,
		LearningStyleHint: req.LearningStyleHint,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := submitAttemptResponse{
		AttemptID:    out.Attempt.ID,
		Score:        out.Scorecard.Score,
		Total:        out.Scorecard.Total,
		Outcomes:     make([]outcomeResponse, len(out.Scorecard.Outcomes)),
		Gamification: out.Gamification,
		NewBadges:    out.NewBadges,
		Analysis:     out.Attempt.Classification.State,
	}
	if resp.NewBadges == nil {
		resp.NewBadges = []string{}
	}
	for i, o := range out.Scorecard.Outcomes {
		resp.Outcomes[i] = outcomeResponse{Index: o.Index, Correct: o.Correct, Status: o.Status}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// decodeAnswers keeps numbers as json.Number so that numeric answers are
// parsed once by the normalizer.
func decodeAnswers(raw map[int]json.RawMessage) (map[int]any, error) {
	answers := make(map[int]any, len(raw))
	for i, msg := range raw {
		dec := json.NewDecoder(bytes.NewReader(msg))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("answer %d: %w", i, err)
		}
		answers[i] = v
	}
	return answers, nil
}

func (h *handler) getAttempt(w http.ResponseWriter, r *http.Request) {
	a, err := h.c.Reader.GetAttempt(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type attemptSummary struct {
	ID               string                      `json:"id"`
	QuizID           string                      `json:"quiz_id"`
	Exam             string                      `json:"exam"`
	Score            int                         `json:"score"`
	Total            int                         `json:"total"`
	TotalTimeSeconds float64                     `json:"total_time_seconds"`
	Analysis         scoring.ClassificationState `json:"analysis"`
	SubmittedAt      time.Time                   `json:"submitted_at"`
}

func (h *handler) listAttempts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.c.Reader.ListAttempts(r.Context(), mux.Vars(r)["userID"], limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	out := make([]attemptSummary, len(list))
	for i, a := range list {
		out[i] = attemptSummary{
			ID:               a.ID,
			QuizID:           a.QuizID,
			Exam:             a.Exam,
			Score:            a.Score,
			Total:            len(a.Questions),
			TotalTimeSeconds: a.TotalTimeSeconds,
			Analysis:         a.Classification.State,
			SubmittedAt:      a.SubmittedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type gamificationResponse struct {
	scoring.State
	Rank int `json:"rank,omitempty"`
}

func (h *handler) gamification(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	st, err := h.c.Attempts.Gamification(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := gamificationResponse{State: st}
	if h.c.Leaderboard != nil {
		rank, err := h.c.Leaderboard.Rank(r.Context(), leaderboard.MetricPoints, userID)
		if err != nil {
			h.logger.Warn("leaderboard rank failed", "user_id", userID, "error", err)
		}
		resp.Rank = rank
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	if h.c.Leaderboard == nil {
		writeError(w, http.StatusNotFound, "leaderboard disabled")
		return
	}
	m, err := leaderboard.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.c.Leaderboard.Top(r.Context(), m, limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"metric": m, "entries": entries})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 100 {
		return 0, errBadQuery(key)
	}
	return n, nil
}

type errBadQuery string

func (e errBadQuery) Error() string {
	return string(e) + " must be an integer between 1 and 100"
}
