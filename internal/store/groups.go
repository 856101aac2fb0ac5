package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yourorg/chat-app/realtime/internal/apperr"
	"github.com/yourorg/chat-app/realtime/internal/models"
)

// normalizeMembers dedupes the requested member list and unions the admin in.
// The creator is always a member, whatever the caller sent.
func normalizeMembers(adminID string, memberIDs []string) []string {
	members := lo.Uniq(append([]string{adminID}, memberIDs...))
	return lo.Filter(members, func(id string, _ int) bool { return id != "" })
}

func (s *Store) CreateGroup(ctx context.Context, name, adminID string, memberIDs []string) (*models.Group, error) {
	if name == "" || len(memberIDs) == 0 {
		return nil, fmt.Errorf("%w: name and at least one member are required", apperr.ErrValidation)
	}

	g := &models.Group{
		ID:        uuid.New().String(),
		Name:      name,
		AdminID:   adminID,
		Members:   normalizeMembers(adminID, memberIDs),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.groups.InsertOne(ctx, g); err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}
	return g, nil
}

func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	var g models.Group
	if err := s.groups.FindOne(ctx, bson.M{"_id": groupID}).Decode(&g); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: group %s", apperr.ErrNotFound, groupID)
		}
		return nil, err
	}
	return &g, nil
}

func (s *Store) FetchGroupsFor(ctx context.Context, userID string) ([]models.Group, error) {
	cur, err := s.groups.Find(ctx, bson.M{"members": userID})
	if err != nil {
		return nil, fmt.Errorf("find groups: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Group{}
	for cur.Next(ctx) {
		var g models.Group
		if err := cur.Decode(&g); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, cur.Err()
}

// AddMember adds a user to a group. Admin only. Callers must invalidate the
// membership index for this group afterwards.
func (s *Store) AddMember(ctx context.Context, groupID, byUserID, userID string) (*models.Group, error) {
	g, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.AdminID != byUserID {
		return nil, fmt.Errorf("%w: only the admin can add members", apperr.ErrUnauthorized)
	}
	if err := s.userExists(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.groups.UpdateByID(ctx, groupID, bson.M{"$addToSet": bson.M{"members": userID}}); err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	return s.GetGroup(ctx, groupID)
}
