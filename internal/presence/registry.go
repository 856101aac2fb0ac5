// Package presence tracks which users currently hold at least one live
// connection. The set is derived state, recomputed purely from connection
// lifecycle events; the hub owns the connections themselves.
package presence

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/yourorg/chat-app/realtime/internal/models"
)

// Broadcaster pushes an event to every live connection. Satisfied by ws.Hub.
type Broadcaster interface {
	BroadcastAll(event any)
}

// Mirror persists presence transitions somewhere other instances can see
// them. Best effort; failures are logged, never propagated.
type Mirror interface {
	SetOnline(ctx context.Context, userID string, online bool) error
}

type Registry struct {
	mu    sync.Mutex
	conns map[string]map[string]struct{} // userID -> socketIDs
	seq   map[string]uint64              // userID -> transition counter, bumped on every edge

	bmu  sync.Mutex        // serializes transition delivery
	sent map[string]uint64 // userID -> last seq actually delivered

	broadcaster Broadcaster
	mirror      Mirror
	log         *zap.SugaredLogger
}

func NewRegistry(b Broadcaster, m Mirror, log *zap.SugaredLogger) *Registry {
	return &Registry{
		conns:       make(map[string]map[string]struct{}),
		seq:         make(map[string]uint64),
		sent:        make(map[string]uint64),
		broadcaster: b,
		mirror:      m,
		log:         log,
	}
}

// OnConnect records a new connection. Only the 0 -> 1 transition is
// externally visible: it broadcasts a presenceChanged event to everyone.
func (r *Registry) OnConnect(ctx context.Context, userID, socketID string) {
	r.mu.Lock()
	set, ok := r.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		r.conns[userID] = set
	}
	set[socketID] = struct{}{}
	first := len(set) == 1
	var seq uint64
	if first {
		r.seq[userID]++
		seq = r.seq[userID]
	}
	r.mu.Unlock()

	if first {
		r.transition(ctx, userID, true, seq)
	}
}

// OnDisconnect removes a connection. Idempotent: removing a socket that was
// already removed changes nothing. Only the 1 -> 0 transition broadcasts.
func (r *Registry) OnDisconnect(ctx context.Context, userID, socketID string) {
	r.mu.Lock()
	set, ok := r.conns[userID]
	if !ok {
		r.mu.Unlock()
		return
	}
	before := len(set)
	delete(set, socketID)
	last := before > 0 && len(set) == 0
	var seq uint64
	if last {
		delete(r.conns, userID)
		r.seq[userID]++
		seq = r.seq[userID]
	}
	r.mu.Unlock()

	if last {
		r.transition(ctx, userID, false, seq)
	}
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns[userID]) > 0
}

// Snapshot returns the ids of all users currently online.
func (r *Registry) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.conns))
	for userID := range r.conns {
		out = append(out, userID)
	}
	return out
}

// transition delivers one presence edge. Delivery is serialized and ordered
// by the per-user sequence captured under the registry lock: when opposite
// edges of the same user race on different sockets, the later edge can reach
// this point first, and the earlier one is then dropped so observers never
// see a stale final state.
func (r *Registry) transition(ctx context.Context, userID string, online bool, seq uint64) {
	r.bmu.Lock()
	defer r.bmu.Unlock()
	if seq <= r.sent[userID] {
		return
	}
	r.sent[userID] = seq

	if r.mirror != nil {
		if err := r.mirror.SetOnline(ctx, userID, online); err != nil {
			r.log.Warnw("presence mirror update failed", "user_id", userID, "err", err)
		}
	}
	if r.broadcaster != nil {
		r.broadcaster.BroadcastAll(models.NewPresenceEvent(userID, online))
	}
}
