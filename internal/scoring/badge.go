package scoring

// Badge identifiers.
const (
	BadgePointCollector = "Point Collector"
	BadgeFiveDayStreak  = "5-Day Streak"
	BadgeFirstSteps     = "First Steps"
	BadgePerfectScore   = "Perfect Score"
)

// BadgeRule awards the badge ID when Qualifies holds for the state after an
// attempt. prev is the state before the attempt was applied.
type BadgeRule struct {
	ID          string
	Description string
	Qualifies   func(prev, next State, r Result) bool
}

// Policy is an ordered badge rule table. Rules are evaluated after points
// and streaks are updated; a badge already held is never awarded again.
type Policy []BadgeRule

// DefaultPolicy returns the built-in badge rules.
func DefaultPolicy() Policy {
	return Policy{
		{
			ID:          BadgeFirstSteps,
			Description: "Completed a first quiz",
			Qualifies: func(prev, _ State, _ Result) bool {
				return prev.LastAttemptDate == nil
			},
		},
		{
			ID:          BadgePerfectScore,
			Description: "Answered every question of a quiz correctly",
			Qualifies: func(_, _ State, r Result) bool {
				return r.Total > 0 && r.Score == r.Total
			},
		},
		{
			ID:          BadgePointCollector,
			Description: "Earned more than 1000 points",
			Qualifies: func(_, next State, _ Result) bool {
				return next.Points > 1000
			},
		},
		{
			ID:          BadgeFiveDayStreak,
			Description: "Practised five days in a row",
			Qualifies: func(_, next State, _ Result) bool {
				return next.CurrentStreak >= 5
			},
		},
	}
}

// Describe returns the description of a badge, or "" if it is unknown.
func (p Policy) Describe(id string) string {
	for _, r := range p {
		if r.ID == id {
			return r.Description
		}
	}
	return ""
}
