package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yourorg/chat-app/realtime/internal/config"
)

func NewMongoClient(cfg *config.Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *Store) ensureIndexes() {
	specs := []struct {
		coll *mongo.Collection
		ix   mongo.IndexModel
	}{
		{s.messages, mongo.IndexModel{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: 1}}}},
		{s.messages, mongo.IndexModel{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "created_at", Value: 1}}}},
		{s.groups, mongo.IndexModel{Keys: bson.D{{Key: "members", Value: 1}}}},
	}
	for _, m := range specs {
		if _, err := m.coll.Indexes().CreateOne(context.Background(), m.ix); err != nil {
			s.log.Warnw("create index", "collection", m.coll.Name(), "err", err)
		}
	}
}
