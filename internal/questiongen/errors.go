package questiongen

import (
	"errors"
	"fmt"
)

// ErrCountMismatch marks a batch that did not hold the requested number of
// questions. It is retried inside the generator and never surfaces alone.
var ErrCountMismatch = errors.New("question count mismatch")

// AttemptRecord describes one capability call made by the generator.
type AttemptRecord struct {
	Attempt   int   `json:"attempt"`
	Count     int   `json:"count"`
	Transport bool  `json:"transport"`
	Err       error `json:"-"`
}

// GenerationFailedError is returned when every attempt produced the wrong
// number of questions.
type GenerationFailedError struct {
	Requested int
	LastCount int
	Attempts  []AttemptRecord
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("generation failed: got %d of %d questions after %d attempts",
		e.LastCount, e.Requested, len(e.Attempts))
}

func (e *GenerationFailedError) Unwrap() error { return ErrCountMismatch }

// TransportError is returned when the generation capability could not be
// reached on the final attempt.
type TransportError struct {
	Attempts []AttemptRecord
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("generation capability unreachable after %d attempts: %v", len(e.Attempts), e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
