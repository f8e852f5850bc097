package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/examprep/internal/scoring"
)

// DefaultKeyPrefix namespaces the sorted sets.
const DefaultKeyPrefix = "examprep:lb"

// RedisBoard keeps one sorted set per metric. Scores are stored negated so
// that ascending order ranks the highest value first and ties by user id
// ascending, as StoreBoard does.
type RedisBoard struct {
	client *redis.Client
	prefix string
}

// NewRedisBoard creates a board on client. An empty prefix uses
// DefaultKeyPrefix.
func NewRedisBoard(client *redis.Client, prefix string) *RedisBoard {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisBoard{client: client, prefix: prefix}
}

func (b *RedisBoard) key(m Metric) string {
	return fmt.Sprintf("%s:%s", b.prefix, m)
}

// Record writes both metrics in one round trip.
func (b *RedisBoard) Record(ctx context.Context, st scoring.State) error {
	_, err := b.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		b.add(ctx, p, st)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record leaderboard for %s: %w", st.UserID, err)
	}
	return nil
}

func (b *RedisBoard) add(ctx context.Context, p redis.Pipeliner, st scoring.State) {
	for _, m := range []Metric{MetricPoints, MetricStreak} {
		p.ZAdd(ctx, b.key(m), redis.Z{
			Score:  -float64(metricValue(st, m)),
			Member: st.UserID,
		})
	}
}

// Seed records every persisted state, so a fresh or flushed server ranks
// users who have not submitted since.
func (b *RedisBoard) Seed(ctx context.Context, src StateSource) error {
	states, err := src.TopPoints(ctx, 0)
	if err != nil {
		return fmt.Errorf("load states for leaderboard: %w", err)
	}
	if len(states) == 0 {
		return nil
	}
	_, err = b.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, st := range states {
			b.add(ctx, p, st)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed leaderboard: %w", err)
	}
	return nil
}

func (b *RedisBoard) Top(ctx context.Context, m Metric, limit int) ([]Entry, error) {
	stop := int64(limit - 1)
	if limit <= 0 {
		stop = -1
	}
	results, err := b.client.ZRangeWithScores(ctx, b.key(m), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}

	entries := make([]Entry, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		entries[i] = Entry{
			UserID: member,
			Score:  int(-z.Score),
			Rank:   i + 1,
		}
	}
	return entries, nil
}

func (b *RedisBoard) Rank(ctx context.Context, m Metric, userID string) (int, error) {
	rank, err := b.client.ZRank(ctx, b.key(m), userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read rank: %w", err)
	}
	return int(rank) + 1, nil
}

// Close closes the underlying client.
func (b *RedisBoard) Close() error {
	return b.client.Close()
}
