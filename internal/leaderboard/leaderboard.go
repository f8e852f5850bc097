// Package leaderboard ranks users by their gamification totals.
package leaderboard

import (
	"context"
	"fmt"

	"github.com/abhisek/examprep/internal/scoring"
)

// Metric selects the ranking a board is read by.
type Metric string

const (
	MetricPoints Metric = "points"
	MetricStreak Metric = "streak"
)

// ParseMetric returns MetricPoints for an empty string.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "", MetricPoints:
		return MetricPoints, nil
	case MetricStreak:
		return MetricStreak, nil
	}
	return "", fmt.Errorf("unknown leaderboard metric %q", s)
}

// Entry is one ranked user. Rank is 1-indexed.
type Entry struct {
	UserID string `json:"user_id"`
	Score  int    `json:"score"`
	Rank   int    `json:"rank"`
}

// Board records gamification states and reads rankings. Higher values rank
// first; equal values rank by user id ascending.
type Board interface {
	// Record publishes the user's current totals.
	Record(ctx context.Context, st scoring.State) error

	// Top returns the highest ranked users, best first.
	Top(ctx context.Context, m Metric, limit int) ([]Entry, error)

	// Rank returns the user's 1-indexed rank, or 0 if the user is unranked.
	Rank(ctx context.Context, m Metric, userID string) (int, error)
}

func metricValue(st scoring.State, m Metric) int {
	if m == MetricStreak {
		return st.LongestStreak
	}
	return st.Points
}
