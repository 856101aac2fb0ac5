// Package router decides, for every persisted message, which users' live
// connections must receive it. It holds no state of its own: the audience is
// a pure function of the message and the membership index.
package router

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/yourorg/chat-app/realtime/internal/apperr"
	"github.com/yourorg/chat-app/realtime/internal/models"
)

// Deliverer fans an event out to users' live connections. Satisfied by ws.Hub.
type Deliverer interface {
	SendMany(userIDs []string, event any)
}

// MemberResolver resolves a group to its member set. Satisfied by membership.Index.
type MemberResolver interface {
	Resolve(ctx context.Context, groupID string) ([]string, error)
}

type Router struct {
	hub     Deliverer
	members MemberResolver
	log     *zap.SugaredLogger
}

func New(hub Deliverer, members MemberResolver, log *zap.SugaredLogger) *Router {
	return &Router{hub: hub, members: members, log: log}
}

// Route computes the audience of an already-persisted message and hands it to
// the hub. The sender is always part of the audience so their other open
// sessions see the message too; the client's own session dedupes by message
// id, never by audience exclusion.
//
// Route never fails the send: the message is durable by the time it is
// called, so a missing group or a dead connection only costs the live push.
func (r *Router) Route(ctx context.Context, m models.Message) {
	conv := m.Conversation()

	var audience []string
	switch conv.Kind {
	case models.ConversationDirect:
		audience = []string{m.SenderID, conv.PeerID}
	case models.ConversationGroup:
		members, err := r.members.Resolve(ctx, conv.GroupID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				r.log.Warnw("routing message for unknown group, delivering to nobody",
					"group_id", conv.GroupID, "message_id", m.ID)
			} else {
				r.log.Errorw("resolve group members", "group_id", conv.GroupID, "err", err)
			}
			return
		}
		audience = members
	default:
		r.log.Warnw("message with unknown conversation kind", "message_id", m.ID)
		return
	}

	// a user appears once however the audience was computed (self-DM,
	// duplicated member input): each recipient gets exactly one copy
	r.hub.SendMany(lo.Uniq(audience), models.NewMessageEvent(m))
}
