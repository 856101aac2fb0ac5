// Package ws owns the live connections: the hub maps each user to the set of
// sockets they currently hold and fans events out to them.
package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

type Hub struct {
	mu     sync.RWMutex
	byUser map[string]map[*Client]struct{}
	log    *zap.SugaredLogger
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		byUser: make(map[string]map[*Client]struct{}),
		log:    log,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.byUser[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.byUser[c.UserID] = set
	}
	set[c] = struct{}{}
}

// Unregister removes the client from the user's set and closes it.
// Idempotent: a second call for the same client is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.byUser[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
	h.mu.Unlock()
	c.Close()
}

// Connections reports how many live sockets a user holds.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

// Send delivers event to every live connection of one user. A user with no
// connections is a silent no-op; the durable store remains the catch-up path.
func (h *Hub) Send(userID string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Errorw("marshal event", "err", err)
		return
	}
	h.deliver([]string{userID}, payload)
}

// SendMany fans event out to each user independently. One broken or slow
// target never aborts delivery to the rest.
func (h *Hub) SendMany(userIDs []string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Errorw("marshal event", "err", err)
		return
	}
	h.deliver(userIDs, payload)
}

// BroadcastAll pushes event to every live connection of every user.
func (h *Hub) BroadcastAll(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Errorw("marshal event", "err", err)
		return
	}
	h.mu.RLock()
	users := make([]string, 0, len(h.byUser))
	for userID := range h.byUser {
		users = append(users, userID)
	}
	h.mu.RUnlock()
	h.deliver(users, payload)
}

func (h *Hub) deliver(userIDs []string, payload []byte) {
	var slow []*Client
	h.mu.RLock()
	for _, userID := range userIDs {
		for c := range h.byUser[userID] {
			if !c.enqueue(payload) {
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()

	// Evict slow consumers outside the read lock so one stalled socket
	// cannot hold up fan-out to everyone else.
	for _, c := range slow {
		h.log.Warnw("send buffer full, evicting slow consumer",
			"user_id", c.UserID, "socket_id", c.SocketID)
		h.Unregister(c)
	}
}
