// Package events publishes message-created records to kafka for the
// notification pipeline. Publishing is best effort and never gates delivery:
// the durable store is already written by the time an event goes out.
package events

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/yourorg/chat-app/realtime/internal/models"
)

type Publisher struct {
	writer *kafkago.Writer
	log    *zap.SugaredLogger
}

func NewPublisher(brokers []string, topic string, log *zap.SugaredLogger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
		Async:        true,
	}
	return &Publisher{writer: w, log: log}
}

type messageCreated struct {
	MessageID string    `json:"message_id"`
	SenderID  string    `json:"sender_id"`
	GroupID   string    `json:"group_id,omitempty"`
	PeerID    string    `json:"peer_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Publisher) PublishMessageCreated(ctx context.Context, m models.Message) {
	if p == nil || p.writer == nil {
		return
	}
	ev := messageCreated{
		MessageID: m.ID,
		SenderID:  m.SenderID,
		GroupID:   m.GroupID,
		PeerID:    m.ReceiverID,
		CreatedAt: m.CreatedAt,
	}
	b, err := json.Marshal(ev)
	if err != nil {
		p.log.Errorw("marshal message created event", "err", err)
		return
	}
	msg := kafkago.Message{
		Key:   []byte(m.ID),
		Value: b,
		Time:  m.CreatedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warnw("publish message created", "message_id", m.ID, "err", err)
	}
}

func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
