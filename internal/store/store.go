// Package store is the durable record store for users, groups and messages.
// It is the source of truth: the live channel only ever carries copies of
// what was persisted here first.
package store

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Store struct {
	users    *mongo.Collection
	groups   *mongo.Collection
	messages *mongo.Collection
	log      *zap.SugaredLogger
}

func New(db *mongo.Database, log *zap.SugaredLogger) *Store {
	s := &Store{
		users:    db.Collection("users"),
		groups:   db.Collection("groups"),
		messages: db.Collection("messages"),
		log:      log,
	}
	s.ensureIndexes()
	return s
}
