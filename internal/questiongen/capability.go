package questiongen

import (
	"context"

	"github.com/abhisek/examprep/internal/quiz"
)

// HistoryStore supplies the question texts a user has already been served.
type HistoryStore interface {
	QuestionTexts(ctx context.Context, userID string) ([]string, error)
}

// BatchRequest asks a capability for Configuration.Count questions that
// avoid every text in Exclusions.
type BatchRequest struct {
	Configuration quiz.Configuration
	Exclusions    []string
}

// Capability produces a batch of questions. It makes a best effort to
// return exactly the requested count; callers validate the count.
type Capability interface {
	GenerateBatch(ctx context.Context, req BatchRequest) ([]quiz.Question, error)
}
