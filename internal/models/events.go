package models

import "time"

// Wire event types pushed server -> client over the live channel.
const (
	EventNewMessage      = "newMessage"
	EventPresenceChanged = "presenceChanged"
)

// MessageEvent is the live-channel copy of a persisted message.
// ConversationID is set only for group messages; its absence marks a direct
// message. ReceiverID is carried for direct messages so a recipient's session
// can attribute an event to a conversation even when the sender is the viewer
// themself (their own other tab).
type MessageEvent struct {
	Type           string    `json:"type"`
	ID             string    `json:"id"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId,omitempty"`
	ConversationID string    `json:"conversationId,omitempty"`
	Text           string    `json:"text,omitempty"`
	Image          string    `json:"image,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func NewMessageEvent(m Message) MessageEvent {
	return MessageEvent{
		Type:           EventNewMessage,
		ID:             m.ID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		ConversationID: m.GroupID,
		Text:           m.Text,
		Image:          m.Image,
		CreatedAt:      m.CreatedAt,
	}
}

type PresenceEvent struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Online bool   `json:"online"`
}

func NewPresenceEvent(userID string, online bool) PresenceEvent {
	return PresenceEvent{Type: EventPresenceChanged, UserID: userID, Online: online}
}
