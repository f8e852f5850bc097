package scoring

// ErrorType tags a question of an analysed attempt.
type ErrorType string

const (
	ErrorCorrect                   ErrorType = "correct"
	ErrorConceptual                ErrorType = "conceptual"
	ErrorCarelessSlip              ErrorType = "careless_slip"
	ErrorQuestionMisinterpretation ErrorType = "question_misinterpretation"
)

// WrongAnswerTypes is the taxonomy wrong answers are classified into.
var WrongAnswerTypes = []ErrorType{
	ErrorConceptual,
	ErrorCarelessSlip,
	ErrorQuestionMisinterpretation,
}

// IsWrongAnswerType reports whether t belongs to the wrong-answer taxonomy.
func IsWrongAnswerType(t ErrorType) bool {
	for _, w := range WrongAnswerTypes {
		if w == t {
			return true
		}
	}
	return false
}

// ClassificationState tracks the analysis of an attempt. Absence of a
// classification is a state, not an error.
type ClassificationState string

const (
	ClassificationPending     ClassificationState = "pending"
	ClassificationUnavailable ClassificationState = "unavailable"
	ClassificationPresent     ClassificationState = "present"
)

// QuestionTag is the classification of one question. Type is empty for a
// wrong answer the analysis did not cover.
type QuestionTag struct {
	Index        int       `json:"index"`
	QuestionText string    `json:"question_text"`
	Type         ErrorType `json:"type,omitempty"`
}

// Classification is the analysis attached to a persisted attempt.
type Classification struct {
	State         ClassificationState `json:"state"`
	Tags          []QuestionTag       `json:"tags,omitempty"`
	Tally         map[ErrorType]int   `json:"tally,omitempty"`
	WeakestTopics []string            `json:"weakest_topics,omitempty"`
	Feedback      string              `json:"feedback,omitempty"`

	// Reason explains an unavailable classification.
	Reason string `json:"reason,omitempty"`
}

// Pending returns the classification of an attempt awaiting analysis.
func Pending() Classification {
	return Classification{State: ClassificationPending}
}

// Unavailable returns a classification recording why analysis did not run.
func Unavailable(reason string) Classification {
	return Classification{State: ClassificationUnavailable, Reason: reason}
}
