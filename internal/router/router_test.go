package router

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/chat-app/realtime/internal/apperr"
	"github.com/yourorg/chat-app/realtime/internal/models"
)

type fakeDeliverer struct {
	mu    sync.Mutex
	calls [][]string
	last  models.MessageEvent
}

func (f *fakeDeliverer) SendMany(userIDs []string, event any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userIDs)
	f.last = event.(models.MessageEvent)
}

type fakeResolver struct {
	members map[string][]string
}

func (f *fakeResolver) Resolve(ctx context.Context, groupID string) ([]string, error) {
	m, ok := f.members[groupID]
	if !ok {
		return nil, fmt.Errorf("%w: group %s", apperr.ErrNotFound, groupID)
	}
	return m, nil
}

func newTestRouter(members map[string][]string) (*Router, *fakeDeliverer) {
	d := &fakeDeliverer{}
	r := New(d, &fakeResolver{members: members}, zap.NewNop().Sugar())
	return r, d
}

func TestRoute_DirectAudienceIsSenderAndPeer(t *testing.T) {
	r, d := newTestRouter(nil)

	r.Route(context.Background(), models.Message{
		ID: "m1", SenderID: "alice", ReceiverID: "bob", Text: "hi",
	})

	require.Len(t, d.calls, 1)
	require.ElementsMatch(t, []string{"alice", "bob"}, d.calls[0])
	require.Equal(t, models.EventNewMessage, d.last.Type)
	require.Empty(t, d.last.ConversationID, "direct events carry no group id")
	require.Equal(t, "bob", d.last.ReceiverID)
}

func TestRoute_SelfDirectMessageSingleTarget(t *testing.T) {
	r, d := newTestRouter(nil)

	r.Route(context.Background(), models.Message{
		ID: "m1", SenderID: "alice", ReceiverID: "alice", Text: "note to self",
	})

	require.Len(t, d.calls, 1)
	require.Equal(t, []string{"alice"}, d.calls[0])
}

func TestRoute_GroupAudienceIncludesSender(t *testing.T) {
	r, d := newTestRouter(map[string][]string{
		"team": {"alice", "bob", "carol"},
	})

	r.Route(context.Background(), models.Message{
		ID: "m1", SenderID: "bob", GroupID: "team", Text: "hello",
	})

	require.Len(t, d.calls, 1)
	require.ElementsMatch(t, []string{"alice", "bob", "carol"}, d.calls[0])
	require.Equal(t, "team", d.last.ConversationID)
	require.Equal(t, "bob", d.last.SenderID)
}

func TestRoute_UnknownGroupDeliversToNobody(t *testing.T) {
	r, d := newTestRouter(nil)

	r.Route(context.Background(), models.Message{
		ID: "m1", SenderID: "alice", GroupID: "ghost", Text: "anyone?",
	})

	require.Empty(t, d.calls, "routing a message for a missing group must not fan out")
}

func TestRoute_DuplicateMembersCollapsed(t *testing.T) {
	r, d := newTestRouter(map[string][]string{
		"team": {"alice", "bob", "alice"},
	})

	r.Route(context.Background(), models.Message{ID: "m1", SenderID: "alice", GroupID: "team"})

	require.Len(t, d.calls, 1)
	require.ElementsMatch(t, []string{"alice", "bob"}, d.calls[0])
}
