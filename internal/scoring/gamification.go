package scoring

import "slices"

// PointsPerCorrect is the number of points each correct answer earns.
const PointsPerCorrect = 10

// State is a user's gamification aggregate. It lives independently of any
// single attempt and is replaced whole by read-modify-write.
type State struct {
	UserID          string   `json:"user_id"`
	Points          int      `json:"points"`
	CurrentStreak   int      `json:"current_streak"`
	LongestStreak   int      `json:"longest_streak"`
	Badges          []string `json:"badges"`
	LastAttemptDate *Date    `json:"last_attempt_date,omitempty"`

	// Version increases on every save and guards concurrent writers.
	Version int64 `json:"version"`
}

// HasBadge reports whether the badge has already been awarded.
func (s State) HasBadge(id string) bool {
	return slices.Contains(s.Badges, id)
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	c := s
	c.Badges = slices.Clone(s.Badges)
	if s.LastAttemptDate != nil {
		d := *s.LastAttemptDate
		c.LastAttemptDate = &d
	}
	return c
}

// Result is the part of a finalized attempt gamification depends on.
type Result struct {
	Score int
	Total int
}

// Update is the outcome of applying one attempt to a State.
type Update struct {
	State     State
	NewBadges []string
}

// UpdateGamification applies one attempt on date to state using the
// default badge policy.
func UpdateGamification(state State, date Date, r Result) Update {
	return DefaultPolicy().Apply(state, date, r)
}

// Apply returns the state after one attempt. It does not modify state.
//
// Streaks count consecutive calendar days with at least one attempt: the day
// after the last attempt extends the streak, the same day leaves it alone,
// and anything else starts over at 1.
func (p Policy) Apply(state State, date Date, r Result) Update {
	prev := state
	next := state.Clone()

	next.Points += PointsPerCorrect * max(r.Score, 0)

	switch {
	case next.LastAttemptDate == nil:
		next.CurrentStreak = 1
	case *next.LastAttemptDate == date:
	case next.LastAttemptDate.AddDays(1) == date:
		next.CurrentStreak++
	default:
		next.CurrentStreak = 1
	}
	next.LongestStreak = max(next.LongestStreak, next.CurrentStreak)
	d := date
	next.LastAttemptDate = &d

	var awarded []string
	for _, rule := range p {
		if next.HasBadge(rule.ID) {
			continue
		}
		if rule.Qualifies(prev, next, r) {
			next.Badges = append(next.Badges, rule.ID)
			awarded = append(awarded, rule.ID)
		}
	}

	return Update{State: next, NewBadges: awarded}
}
