// Package membership caches group member sets for fan-out. It is a
// read-through cache: a miss or a stale entry blocks on a reload from the
// durable store before returning, because delivering to a wrong audience is a
// worse failure than a slower one. Authorization decisions never read this
// cache; they go to the store directly.
package membership

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yourorg/chat-app/realtime/internal/models"
)

// GroupSource is the durable side of the read-through. Satisfied by store.Store.
type GroupSource interface {
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
}

type entry struct {
	members   []string
	fetchedAt time.Time
}

type Index struct {
	source GroupSource
	ttl    time.Duration

	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
}

func NewIndex(source GroupSource, ttl time.Duration) *Index {
	return &Index{
		source:  source,
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// Resolve returns the member set for a group, reloading from the store when
// the cached entry is missing or stale. Concurrent callers for the same group
// share one reload.
func (i *Index) Resolve(ctx context.Context, groupID string) ([]string, error) {
	i.mu.RLock()
	e, ok := i.entries[groupID]
	i.mu.RUnlock()
	if ok && time.Since(e.fetchedAt) < i.ttl {
		return e.members, nil
	}

	v, err, _ := i.group.Do(groupID, func() (any, error) {
		// another caller may have finished the reload while we queued
		i.mu.RLock()
		e, ok := i.entries[groupID]
		i.mu.RUnlock()
		if ok && time.Since(e.fetchedAt) < i.ttl {
			return e.members, nil
		}

		g, err := i.source.GetGroup(ctx, groupID)
		if err != nil {
			return nil, err
		}
		members := make([]string, len(g.Members))
		copy(members, g.Members)

		i.mu.Lock()
		i.entries[groupID] = entry{members: members, fetchedAt: time.Now()}
		i.mu.Unlock()
		return members, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// Invalidate drops the cached entry for a group. Must be called whenever the
// group's membership changes (creation, member add), before any fan-out that
// should observe the change.
func (i *Index) Invalidate(groupID string) {
	i.mu.Lock()
	delete(i.entries, groupID)
	i.mu.Unlock()
}
