package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yourorg/chat-app/realtime/internal/apperr"
	"github.com/yourorg/chat-app/realtime/internal/models"
)

// CreateMessage validates and persists one message. For group conversations
// the sender must be a member; for direct conversations the peer must exist.
// Authorization here always reads the store directly, never a cache.
func (s *Store) CreateMessage(ctx context.Context, conv models.Conversation, senderID, text, image string) (*models.Message, error) {
	if text == "" && image == "" {
		return nil, fmt.Errorf("%w: message needs text or image", apperr.ErrValidation)
	}

	m := &models.Message{
		ID:        uuid.New().String(),
		SenderID:  senderID,
		Text:      text,
		Image:     image,
		CreatedAt: time.Now().UTC(),
	}

	switch conv.Kind {
	case models.ConversationDirect:
		if conv.PeerID == "" {
			return nil, fmt.Errorf("%w: missing peer id", apperr.ErrValidation)
		}
		if err := s.userExists(ctx, conv.PeerID); err != nil {
			return nil, err
		}
		m.ReceiverID = conv.PeerID
	case models.ConversationGroup:
		g, err := s.GetGroup(ctx, conv.GroupID)
		if err != nil {
			return nil, err
		}
		if !g.HasMember(senderID) {
			return nil, fmt.Errorf("%w: sender is not a group member", apperr.ErrUnauthorized)
		}
		m.GroupID = conv.GroupID
	default:
		return nil, fmt.Errorf("%w: unknown conversation kind", apperr.ErrValidation)
	}

	if _, err := s.messages.InsertOne(ctx, m); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

// FetchHistory returns the ordered history of one conversation, oldest first.
// The viewer must be a party to the conversation.
func (s *Store) FetchHistory(ctx context.Context, conv models.Conversation, viewerID string) ([]models.Message, error) {
	var filter bson.M
	switch conv.Kind {
	case models.ConversationDirect:
		// history between the viewer and the peer, both directions
		filter = bson.M{
			"group_id": bson.M{"$exists": false},
			"$or": []bson.M{
				{"sender_id": viewerID, "receiver_id": conv.PeerID},
				{"sender_id": conv.PeerID, "receiver_id": viewerID},
			},
		}
	case models.ConversationGroup:
		g, err := s.GetGroup(ctx, conv.GroupID)
		if err != nil {
			return nil, err
		}
		if !g.HasMember(viewerID) {
			return nil, fmt.Errorf("%w: viewer is not a group member", apperr.ErrUnauthorized)
		}
		filter = bson.M{"group_id": conv.GroupID}
	default:
		return nil, fmt.Errorf("%w: unknown conversation kind", apperr.ErrValidation)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Message{}
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, cur.Err()
}

func (s *Store) userExists(ctx context.Context, userID string) error {
	err := s.users.FindOne(ctx, bson.M{"_id": userID}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return fmt.Errorf("%w: user %s", apperr.ErrNotFound, userID)
	}
	return err
}
