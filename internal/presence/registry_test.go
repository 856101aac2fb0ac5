package presence

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/chat-app/realtime/internal/models"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []models.PresenceEvent
}

func (b *recordingBroadcaster) BroadcastAll(event any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event.(models.PresenceEvent))
}

func (b *recordingBroadcaster) recorded() []models.PresenceEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.PresenceEvent, len(b.events))
	copy(out, b.events)
	return out
}

func newTestRegistry() (*Registry, *recordingBroadcaster) {
	b := &recordingBroadcaster{}
	return NewRegistry(b, nil, zap.NewNop().Sugar()), b
}

func TestRegistry_FirstConnectionBroadcastsOnce(t *testing.T) {
	r, b := newTestRegistry()
	ctx := context.Background()

	r.OnConnect(ctx, "alice", "s1")
	r.OnConnect(ctx, "alice", "s2")
	r.OnConnect(ctx, "alice", "s3")

	require.True(t, r.IsOnline("alice"))
	events := b.recorded()
	require.Len(t, events, 1)
	require.Equal(t, models.EventPresenceChanged, events[0].Type)
	require.Equal(t, "alice", events[0].UserID)
	require.True(t, events[0].Online)
}

func TestRegistry_LastDisconnectionBroadcastsOnce(t *testing.T) {
	r, b := newTestRegistry()
	ctx := context.Background()

	r.OnConnect(ctx, "alice", "s1")
	r.OnConnect(ctx, "alice", "s2")
	r.OnDisconnect(ctx, "alice", "s1")
	require.True(t, r.IsOnline("alice"))

	r.OnDisconnect(ctx, "alice", "s2")
	require.False(t, r.IsOnline("alice"))

	events := b.recorded()
	require.Len(t, events, 2)
	require.True(t, events[0].Online)
	require.False(t, events[1].Online)
}

func TestRegistry_DisconnectIdempotent(t *testing.T) {
	r, b := newTestRegistry()
	ctx := context.Background()

	r.OnConnect(ctx, "alice", "s1")
	r.OnDisconnect(ctx, "alice", "s1")
	r.OnDisconnect(ctx, "alice", "s1")
	r.OnDisconnect(ctx, "bob", "never-connected")

	require.Len(t, b.recorded(), 2)
	require.False(t, r.IsOnline("alice"))
	require.False(t, r.IsOnline("bob"))
}

func TestRegistry_ChurnProducesOnlyEdgeTransitions(t *testing.T) {
	r, b := newTestRegistry()
	ctx := context.Background()

	r.OnConnect(ctx, "alice", "s1")
	for i := 0; i < 10; i++ {
		r.OnConnect(ctx, "alice", "churn")
		r.OnDisconnect(ctx, "alice", "churn")
	}
	r.OnDisconnect(ctx, "alice", "s1")

	// 0->1 once at the start, 1->0 once at the end, nothing in between
	events := b.recorded()
	require.Len(t, events, 2)
	require.True(t, events[0].Online)
	require.False(t, events[1].Online)
}

func TestRegistry_Snapshot(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	r.OnConnect(ctx, "alice", "s1")
	r.OnConnect(ctx, "bob", "s2")
	r.OnConnect(ctx, "carol", "s3")
	r.OnDisconnect(ctx, "bob", "s2")

	require.ElementsMatch(t, []string{"alice", "carol"}, r.Snapshot())
}

func TestRegistry_StaleTransitionDropped(t *testing.T) {
	r, b := newTestRegistry()
	ctx := context.Background()

	// opposite edges racing on different sockets can reach delivery in
	// inverted order; the earlier edge must be dropped, not delivered late
	r.transition(ctx, "alice", true, 2)
	r.transition(ctx, "alice", false, 1)

	events := b.recorded()
	require.Len(t, events, 1)
	require.True(t, events[0].Online)
}

func TestRegistry_ConcurrentChurnEndsConsistent(t *testing.T) {
	r, b := newTestRegistry()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.OnConnect(ctx, "alice", "flap")
			r.OnDisconnect(ctx, "alice", "flap")
		}()
	}
	wg.Wait()
	r.OnConnect(ctx, "alice", "stay")

	events := b.recorded()
	require.NotEmpty(t, events)
	require.True(t, events[len(events)-1].Online, "last broadcast must match the final state")
	require.True(t, r.IsOnline("alice"))
}

func TestRegistry_ConcurrentConnectsSingleTransition(t *testing.T) {
	r, b := newTestRegistry()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r.OnConnect(ctx, "alice", string(rune('a'+n%26))+"-socket")
		}(i)
	}
	wg.Wait()

	online := 0
	for _, ev := range b.recorded() {
		if ev.Online {
			online++
		}
	}
	require.Equal(t, 1, online)
	require.True(t, r.IsOnline("alice"))
}
