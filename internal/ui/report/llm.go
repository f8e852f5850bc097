package report

import (
	"fmt"
	"strings"

	"github.com/abhisek/examprep/internal/llm"
	"github.com/abhisek/examprep/internal/store"
	"github.com/abhisek/examprep/internal/ui/theme"
)

const timeFormat = "2006-01-02 15:04:05"

func rule(n int) string {
	return theme.Label.Render(strings.Repeat("─", n))
}

// LLMEvents lists recorded LLM calls, newest first.
func LLMEvents(events []store.LLMRequestEvent) string {
	if len(events) == 0 {
		return theme.Hint.Render("No LLM events found.")
	}

	var b strings.Builder
	b.WriteString(theme.Label.Render(fmt.Sprintf("%-5s  %-19s  %-20s  %-28s  %6s  %6s  %7s  %s",
		"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")))
	b.WriteString("\n" + rule(104) + "\n")

	for _, e := range events {
		ok := theme.Correct.Render("✓")
		if !e.Success {
			ok = theme.Incorrect.Render("✗")
		}
		fmt.Fprintf(&b, "%-5d  %-19s  %-20s  %-28s  %6d  %6d  %7d  %s\n",
			e.ID, e.Timestamp.Local().Format(timeFormat), truncate(e.Purpose, 20),
			truncate(e.Model, 28), e.InputTokens, e.OutputTokens, e.LatencyMs, ok)
	}
	return strings.TrimRight(b.String(), "\n")
}

// LLMEvent shows one call with its captured request and response bodies.
func LLMEvent(e store.LLMRequestEvent) string {
	var b strings.Builder
	field := func(name, value string) {
		fmt.Fprintf(&b, "%s %s\n", theme.Label.Render(fmt.Sprintf("%-9s", name+":")), value)
	}

	field("ID", fmt.Sprint(e.ID))
	field("Time", e.Timestamp.Local().Format(timeFormat))
	field("Provider", e.Provider)
	field("Model", e.Model)
	field("Purpose", e.Purpose)
	field("Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens))
	field("Latency", fmt.Sprintf("%dms", e.LatencyMs))
	if e.Success {
		field("Success", theme.Correct.Render("yes"))
	} else {
		field("Success", theme.Incorrect.Render("no"))
	}
	if e.ErrorMessage != "" {
		field("Error", e.ErrorMessage)
	}

	for _, sec := range []struct{ title, body string }{
		{"REQUEST", e.RequestBody},
		{"RESPONSE", e.ResponseBody},
	} {
		b.WriteString("\n" + rule(60) + "\n" + theme.Title.Render(sec.title) + "\n" + rule(60) + "\n")
		if sec.body == "" {
			b.WriteString(theme.Hint.Render("(not captured)") + "\n")
			continue
		}
		b.WriteString(sec.body + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// LLMUsage tabulates token usage per purpose and the estimated cost per
// model. Models without pricing show "?" and make the total partial.
func LLMUsage(byPurpose, byModel []store.LLMUsage) string {
	if len(byPurpose) == 0 {
		return theme.Hint.Render("No LLM usage recorded yet.")
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render("Usage by purpose") + "\n")
	b.WriteString(theme.Label.Render(fmt.Sprintf("%-20s  %6s  %10s  %10s  %10s  %8s",
		"Purpose", "Calls", "Input", "Output", "Total", "Avg Ms")))
	b.WriteString("\n" + rule(76) + "\n")

	var calls, in, out int
	for _, u := range byPurpose {
		fmt.Fprintf(&b, "%-20s  %6d  %10d  %10d  %10d  %8d\n",
			truncate(u.Key, 20), u.Calls, u.InputTokens, u.OutputTokens, u.InputTokens+u.OutputTokens, u.AvgLatencyMs)
		calls += u.Calls
		in += u.InputTokens
		out += u.OutputTokens
	}
	b.WriteString(rule(76) + "\n")
	fmt.Fprintf(&b, "%-20s  %6d  %10d  %10d  %10d\n", "TOTAL", calls, in, out, in+out)

	if len(byModel) == 0 {
		return strings.TrimRight(b.String(), "\n")
	}

	b.WriteString("\n" + theme.Title.Render("Estimated cost (USD)") + "\n")
	b.WriteString(theme.Label.Render(fmt.Sprintf("%-32s  %6s  %10s  %10s  %10s",
		"Model", "Calls", "Input", "Output", "Cost")))
	b.WriteString("\n" + rule(76) + "\n")

	var total float64
	var unpriced []string
	for _, u := range byModel {
		cost := "?"
		if c, ok := llm.EstimateCost(u.Key, u.InputTokens, u.OutputTokens); ok {
			total += c
			cost = formatCost(c)
		} else {
			unpriced = append(unpriced, u.Key)
		}
		fmt.Fprintf(&b, "%-32s  %6d  %10d  %10d  %10s\n",
			truncate(u.Key, 32), u.Calls, u.InputTokens, u.OutputTokens, cost)
	}
	b.WriteString(rule(76) + "\n")

	label := "TOTAL"
	if len(unpriced) > 0 {
		label = "TOTAL (partial)"
	}
	fmt.Fprintf(&b, "%-32s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(total))
	if len(unpriced) > 0 {
		b.WriteString("\n" + theme.Hint.Render("Pricing unavailable for: "+strings.Join(unpriced, ", ")) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}
