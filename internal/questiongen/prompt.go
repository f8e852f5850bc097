package questiongen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an expert exam paper setter creating practice questions for competitive exam aspirants.

Rules:
- Generate exactly the requested number of questions. Never fewer, never more.
- Every question must be answerable from the given syllabus and match the requested difficulty.
- Mix the kinds: single_choice, multi_choice and numeric.
- Choice questions have exactly 4 unique options. single_choice has exactly one correct option; multi_choice has two or three.
- Copy correct options verbatim from the options list.
- Numeric answers are plain numbers without units. Give numeric_tolerance only when rounding makes a range necessary.
- Use plain text. No LaTeX and no markdown.
- Question texts must be unique within the set.
- Do not repeat or paraphrase any question from the "already asked" list.`

// buildUserMessage constructs the user message for one batch request.
func buildUserMessage(req BatchRequest, cfg CapabilityConfig) string {
	c := req.Configuration
	var b strings.Builder

	fmt.Fprintf(&b, "Exam: %s\n", c.Exam)
	if c.Stream != "" {
		fmt.Fprintf(&b, "Stream: %s\n", c.Stream)
	}
	fmt.Fprintf(&b, "Difficulty: %s\n", c.Difficulty)
	fmt.Fprintf(&b, "Number of questions: %d\n", c.Count)
	b.WriteString("\nSyllabus:\n")
	b.WriteString(strings.TrimSpace(c.Syllabus))

	b.WriteString("\n\nAlready asked:\n")
	b.WriteString(buildExclusions(req.Exclusions, cfg.MaxExclusions))

	return b.String()
}

// buildExclusions formats prior questions for the prompt, keeping the most
// recent max entries. Returns "None" if there are none.
func buildExclusions(texts []string, max int) string {
	if len(texts) == 0 {
		return "None"
	}

	if max > 0 && len(texts) > max {
		texts = texts[len(texts)-max:]
	}

	var b strings.Builder
	for i, t := range texts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}
	return strings.TrimRight(b.String(), "\n")
}
