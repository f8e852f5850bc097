package leaderboard

import (
	"cmp"
	"context"
	"slices"

	"github.com/abhisek/examprep/internal/scoring"
)

// StateSource lists persisted gamification states by points.
type StateSource interface {
	TopPoints(ctx context.Context, limit int) ([]scoring.State, error)
}

// StoreBoard ranks straight from persisted gamification state. It is used
// when no Redis server is configured; Record is a no-op because the state
// is already saved.
type StoreBoard struct {
	src StateSource
}

// NewStoreBoard creates a board reading from src.
func NewStoreBoard(src StateSource) *StoreBoard {
	return &StoreBoard{src: src}
}

func (b *StoreBoard) Record(context.Context, scoring.State) error { return nil }

func (b *StoreBoard) Top(ctx context.Context, m Metric, limit int) ([]Entry, error) {
	fetch := limit
	if m != MetricPoints {
		fetch = 0
	}
	states, err := b.src.TopPoints(ctx, fetch)
	if err != nil {
		return nil, err
	}
	return rank(states, m, limit), nil
}

func (b *StoreBoard) Rank(ctx context.Context, m Metric, userID string) (int, error) {
	states, err := b.src.TopPoints(ctx, 0)
	if err != nil {
		return 0, err
	}
	for _, e := range rank(states, m, 0) {
		if e.UserID == userID {
			return e.Rank, nil
		}
	}
	return 0, nil
}

func rank(states []scoring.State, m Metric, limit int) []Entry {
	slices.SortStableFunc(states, func(a, b scoring.State) int {
		if c := cmp.Compare(metricValue(b, m), metricValue(a, m)); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	if limit > 0 && len(states) > limit {
		states = states[:limit]
	}

	entries := make([]Entry, len(states))
	for i, st := range states {
		entries[i] = Entry{UserID: st.UserID, Score: metricValue(st, m), Rank: i + 1}
	}
	return entries
}
