// Package session is the consuming side of the live channel: it keeps the
// ordered message list for the conversation a client currently has open,
// merging the initial history fetch with live events and deduplicating by
// message id. The live feed and history loader are injected; nothing here
// reaches into globals.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/yourorg/chat-app/realtime/internal/models"
)

type State int

const (
	Idle State = iota
	Loading
	Ready
)

// HistoryLoader is the bulk-fetch side. Satisfied by store.Store.
type HistoryLoader interface {
	FetchHistory(ctx context.Context, conv models.Conversation, viewerID string) ([]models.Message, error)
}

// LiveFeed hands out subscriptions to this client's live event stream. The
// returned cancel must be safe to call more than once; after cancel the
// channel is closed.
type LiveFeed interface {
	Subscribe() (<-chan models.MessageEvent, func())
}

type Session struct {
	viewerID string
	loader   HistoryLoader
	feed     LiveFeed
	log      *zap.SugaredLogger

	mu     sync.Mutex
	state  State
	conv   models.Conversation
	msgs   []models.Message
	seen   map[string]struct{}
	cancel func()
	gen    int // bumped on every open/close; stale consumers check it and stop
}

func New(viewerID string, loader HistoryLoader, feed LiveFeed, log *zap.SugaredLogger) *Session {
	return &Session{
		viewerID: viewerID,
		loader:   loader,
		feed:     feed,
		log:      log,
		seen:     make(map[string]struct{}),
	}
}

// Open switches the session to conversation conv: Idle -> Loading -> Ready.
// The previous conversation's subscription is torn down before the new one is
// established, so an event from the old stream can never leak into the new
// view. The new subscription starts before the history fetch; events that
// arrive while history loads sit in the subscription buffer and are merged
// after it, so none are lost.
func (s *Session) Open(ctx context.Context, conv models.Conversation) error {
	s.mu.Lock()
	s.teardownLocked()
	gen := s.gen
	s.state = Loading
	s.conv = conv
	s.msgs = nil
	s.seen = make(map[string]struct{})
	s.mu.Unlock()

	ch, cancel := s.feed.Subscribe()

	history, err := s.loader.FetchHistory(ctx, conv, s.viewerID)
	if err != nil {
		s.log.Warnw("history load failed", "viewer", s.viewerID, "error", err)
		cancel()
		s.mu.Lock()
		if s.gen == gen {
			s.state = Idle
		}
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	if s.gen != gen {
		// a concurrent Open/Close won; this attempt is obsolete
		s.mu.Unlock()
		cancel()
		return nil
	}
	for _, m := range history {
		s.appendLocked(m)
	}
	s.state = Ready
	s.cancel = cancel
	s.mu.Unlock()

	go s.consume(gen, ch)
	return nil
}

// Close leaves the current conversation and releases the subscription.
// Safe to call in any state, any number of times.
func (s *Session) Close() {
	s.mu.Lock()
	s.teardownLocked()
	s.state = Idle
	s.msgs = nil
	s.seen = make(map[string]struct{})
	s.mu.Unlock()
}

// AppendLocal records a message this session just sent, at send time. When
// the live channel later delivers the same message id it is ignored.
func (s *Session) AppendLocal(m models.Message) {
	s.mu.Lock()
	s.appendLocked(m)
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns a copy of the current ordered message list.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func (s *Session) consume(gen int, ch <-chan models.MessageEvent) {
	for ev := range ch {
		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		if s.state == Ready && s.matchesLocked(ev) {
			s.appendLocked(eventToMessage(ev))
		}
		// events for other conversations are dropped, not buffered:
		// only the open conversation's stream is rendered live
		s.mu.Unlock()
	}
}

// matchesLocked reports whether a live event belongs to the conversation this
// session has open.
func (s *Session) matchesLocked(ev models.MessageEvent) bool {
	switch s.conv.Kind {
	case models.ConversationGroup:
		return ev.ConversationID == s.conv.GroupID
	case models.ConversationDirect:
		if ev.ConversationID != "" {
			return false
		}
		fromPeer := ev.SenderID == s.conv.PeerID && ev.ReceiverID == s.viewerID
		fromSelf := ev.SenderID == s.viewerID && ev.ReceiverID == s.conv.PeerID
		return fromPeer || fromSelf
	default:
		return false
	}
}

func (s *Session) appendLocked(m models.Message) {
	if _, dup := s.seen[m.ID]; dup {
		return
	}
	s.seen[m.ID] = struct{}{}
	s.msgs = append(s.msgs, m)
}

func (s *Session) teardownLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

func eventToMessage(ev models.MessageEvent) models.Message {
	return models.Message{
		ID:         ev.ID,
		SenderID:   ev.SenderID,
		ReceiverID: ev.ReceiverID,
		GroupID:    ev.ConversationID,
		Text:       ev.Text,
		Image:      ev.Image,
		CreatedAt:  ev.CreatedAt,
	}
}
