package analysis

import (
	"github.com/abhisek/examprep/internal/quiz"
	"github.com/abhisek/examprep/internal/scoring"
)

// Merge attaches a report to an attempt's questions by exact question text.
// Correct questions are always tagged correct. A wrong question takes the
// type the report gave its text; a wrong question the report does not
// cover stays untagged. The tally counts every wrong-answer type, including
// those with no questions.
func Merge(questions []quiz.Question, outcomes []scoring.Outcome, report *Report) scoring.Classification {
	byText := make(map[string]scoring.ErrorType, len(report.PerQuestion))
	for _, r := range report.PerQuestion {
		if !scoring.IsWrongAnswerType(r.ErrorType) {
			continue
		}
		if _, dup := byText[r.QuestionText]; !dup {
			byText[r.QuestionText] = r.ErrorType
		}
	}

	c := scoring.Classification{
		State:         scoring.ClassificationPresent,
		Tags:          make([]scoring.QuestionTag, len(questions)),
		Tally:         make(map[scoring.ErrorType]int, len(scoring.WrongAnswerTypes)),
		WeakestTopics: report.WeakestTopics,
		Feedback:      report.Feedback,
	}
	for _, t := range scoring.WrongAnswerTypes {
		c.Tally[t] = 0
	}

	for i, q := range questions {
		tag := scoring.QuestionTag{Index: i, QuestionText: q.Text}
		if i < len(outcomes) && outcomes[i].Correct {
			tag.Type = scoring.ErrorCorrect
		} else if t, ok := byText[q.Text]; ok {
			tag.Type = t
			c.Tally[t]++
		}
		c.Tags[i] = tag
	}
	return c
}
