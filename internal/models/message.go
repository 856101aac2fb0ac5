package models

import "time"

type Message struct {
	ID         string    `bson:"_id" json:"id"`
	SenderID   string    `bson:"sender_id" json:"senderId"`
	ReceiverID string    `bson:"receiver_id,omitempty" json:"receiverId,omitempty"`
	GroupID    string    `bson:"group_id,omitempty" json:"groupId,omitempty"`
	Text       string    `bson:"text,omitempty" json:"text,omitempty"`
	Image      string    `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
}

// Conversation reconstructs the tagged conversation this message belongs to.
func (m Message) Conversation() Conversation {
	if m.GroupID != "" {
		return GroupChat(m.GroupID)
	}
	return Direct(m.ReceiverID)
}
