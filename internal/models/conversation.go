package models

// ConversationKind tags a conversation as direct or group. The tag travels
// from the API layer through routing down to the wire event, so nothing ever
// has to guess the branch from payload shape.
type ConversationKind string

const (
	ConversationDirect ConversationKind = "direct"
	ConversationGroup  ConversationKind = "group"
)

type Conversation struct {
	Kind    ConversationKind
	PeerID  string // other party, direct only
	GroupID string // group only
}

func Direct(peerID string) Conversation {
	return Conversation{Kind: ConversationDirect, PeerID: peerID}
}

func GroupChat(groupID string) Conversation {
	return Conversation{Kind: ConversationGroup, GroupID: groupID}
}

func (c Conversation) IsGroup() bool {
	return c.Kind == ConversationGroup
}
