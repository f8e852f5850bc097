// Package report renders quizzes, attempts and gamification state for the
// terminal.
package report

import (
	"fmt"
	"slices"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/examprep/internal/quiz"
	"github.com/abhisek/examprep/internal/scoring"
	"github.com/abhisek/examprep/internal/ui/theme"
)

// Bar renders a horizontal bar filled to ratio, followed by the percentage.
func Bar(label string, ratio float64, width int) string {
	var result string
	if label != "" {
		result += theme.Body.Render(label) + "  "
	}

	barWidth := width - lipgloss.Width(result) - 6
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * ratio)
	filled = max(0, min(filled, barWidth))

	result += theme.BarFilled.Render(strings.Repeat(" ", filled))
	result += theme.BarEmpty.Render(strings.Repeat(" ", barWidth-filled))
	result += theme.Label.Render(fmt.Sprintf("  %d%%", int(ratio*100)))
	return result
}

// Quiz lists the questions of z. Correct answers are shown only when
// withAnswers is set.
func Quiz(z *quiz.Quiz, withAnswers bool) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(fmt.Sprintf("%s · %s", z.Config.Exam, z.Config.Syllabus)))
	b.WriteString("\n")
	b.WriteString(theme.Label.Render(fmt.Sprintf("quiz %s · %d questions · %s", z.ID, len(z.Questions), z.Config.Difficulty)))
	b.WriteString("\n\n")

	for i, q := range z.Questions {
		fmt.Fprintf(&b, "%s %s\n", theme.Title.Render(fmt.Sprintf("%d.", i+1)), theme.Body.Render(q.Text))
		for j, o := range q.Options {
			fmt.Fprintf(&b, "   %c) %s\n", 'A'+j, o)
		}
		if withAnswers {
			b.WriteString("   " + theme.Correct.Render("answer: "+q.Correct.String()) + "\n")
		}
		if q.Topic != "" {
			b.WriteString("   " + theme.Hint.Render(q.Topic) + "\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Stats summarizes a user's gamification state and recent attempts.
func Stats(st scoring.State, attempts []*scoring.Attempt, policy scoring.Policy) string {
	var b strings.Builder

	b.WriteString(theme.Title.Render(st.UserID))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %d   %s %d   %s %d\n",
		theme.Label.Render("Points"), st.Points,
		theme.Label.Render("Streak"), st.CurrentStreak,
		theme.Label.Render("Best"), st.LongestStreak)
	if st.LastAttemptDate != nil {
		fmt.Fprintf(&b, "%s %s\n", theme.Label.Render("Last attempt"), st.LastAttemptDate)
	}

	if len(st.Badges) > 0 {
		b.WriteString("\n")
		for _, id := range st.Badges {
			line := theme.Badge.Render(id)
			if d := policy.Describe(id); d != "" {
				line += "  " + theme.Hint.Render(d)
			}
			b.WriteString(line + "\n")
		}
	}

	if len(attempts) > 0 {
		b.WriteString("\n")
		for _, a := range attempts {
			b.WriteString(attemptLine(a) + "\n")
		}
		if weak := weakTopics(attempts); len(weak) > 0 {
			b.WriteString("\n" + theme.Label.Render("Weak topics") + " " + strings.Join(weak, ", ") + "\n")
		}
	}

	return theme.Card.Render(strings.TrimRight(b.String(), "\n"))
}

func attemptLine(a *scoring.Attempt) string {
	total := len(a.Questions)
	ratio := 0.0
	if total > 0 {
		ratio = float64(a.Score) / float64(total)
	}
	label := fmt.Sprintf("%s %-10s %2d/%-2d", a.Date, truncate(a.Exam, 10), a.Score, total)
	return Bar(label, ratio, 56)
}

// weakTopics merges the weakest topics of classified attempts, most
// frequent first.
func weakTopics(attempts []*scoring.Attempt) []string {
	counts := map[string]int{}
	for _, a := range attempts {
		if a.Classification.State != scoring.ClassificationPresent {
			continue
		}
		for _, t := range a.Classification.WeakestTopics {
			counts[t]++
		}
	}

	topics := make([]string, 0, len(counts))
	for t := range counts {
		topics = append(topics, t)
	}
	slices.SortFunc(topics, func(a, b string) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		return strings.Compare(a, b)
	})
	if len(topics) > 3 {
		topics = topics[:3]
	}
	return topics
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
