// Package mongostore implements the examprep repositories on MongoDB.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/abhisek/examprep/internal/store"
)

const (
	collQuizzes      = "quizzes"
	collHistory      = "question_history"
	collAttempts     = "attempts"
	collGamification = "gamification_states"
)

// Store holds one Mongo database.
type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	quizzes      *mongo.Collection
	history      *mongo.Collection
	attempts     *mongo.Collection
	gamification *mongo.Collection
}

var _ store.Repos = (*Store)(nil)

// Open connects to uri, pings the server and ensures the indexes exist.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := New(client, database)
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// New wraps an existing client without touching the server.
func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:       client,
		db:           db,
		quizzes:      db.Collection(collQuizzes),
		history:      db.Collection(collHistory),
		attempts:     db.Collection(collAttempts),
		gamification: db.Collection(collGamification),
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.history, mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "text", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.history, mongo.IndexModel{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "first_seen", Value: 1}},
		}},
		{s.attempts, mongo.IndexModel{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "submitted_at", Value: -1}},
		}},
		{s.attempts, mongo.IndexModel{
			Keys:    bson.D{{Key: "quiz_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.gamification, mongo.IndexModel{
			Keys: bson.D{{Key: "points", Value: -1}},
		}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

// Ping checks the server connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Drop removes the database. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
