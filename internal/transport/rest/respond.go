package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abhisek/examprep/internal/attempt"
	"github.com/abhisek/examprep/internal/questiongen"
	"github.com/abhisek/examprep/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// generationFailedBody carries the counts of a failed generation so that
// clients can word their own message.
type generationFailedBody struct {
	Error     string `json:"error"`
	Hint      string `json:"hint"`
	Requested int    `json:"requested"`
	Received  int    `json:"received"`
	Attempts  int    `json:"attempts"`
}

// writeServiceError maps domain errors to status codes. Unknown errors are
// logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		failed    *questiongen.GenerationFailedError
		transport *questiongen.TransportError
	)
	switch {
	case errors.As(err, &failed):
		writeJSON(w, http.StatusUnprocessableEntity, generationFailedBody{
			Error:     "could not generate the requested number of questions",
			Hint:      "try different syllabus topics",
			Requested: failed.Requested,
			Received:  failed.LastCount,
			Attempts:  len(failed.Attempts),
		})
	case errors.As(err, &transport):
		writeError(w, http.StatusServiceUnavailable, "question generation service unavailable, try again later")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, attempt.ErrInvalidSubmission), errors.Is(err, errInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrAlreadySubmitted):
		writeError(w, http.StatusConflict, "quiz already submitted")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "concurrent update, retry the request")
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

var errInvalidInput = errors.New("invalid input")

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	return nil
}
