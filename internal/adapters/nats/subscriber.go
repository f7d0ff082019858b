package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/densitymap/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// pointSetMaxDeliver bounds redelivery of a set whose handler failed.
const pointSetMaxDeliver = 3

// SubscribePointSets delivers every point set published for any map.
//
// Map views live in the memory of one API process, so the consumer is
// ephemeral and per process: every instance reads every set, starting from
// new messages, and drops sets for views it does not hold.
func (s *Subscriber) SubscribePointSets(ctx context.Context, handler func(ctx context.Context, mapID string, set *domain.PointSet) error) error {
	sub, err := s.js.Subscribe(PointsSubjectPrefix+">", PointSetMsgHandler(ctx, handler),
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(pointSetMaxDeliver),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// PointSetMsgHandler decodes a point-set message and acks it by outcome:
// undecodable messages are terminated, handler errors are redelivered.
func PointSetMsgHandler(ctx context.Context, handler func(ctx context.Context, mapID string, set *domain.PointSet) error) nats.MsgHandler {
	return func(msg *nats.Msg) {
		mapID := strings.TrimPrefix(msg.Subject, PointsSubjectPrefix)
		var set domain.PointSet
		if err := json.Unmarshal(msg.Data, &set); err != nil {
			slog.Warn("bad point set", "map_id", mapID, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, mapID, &set); err != nil {
			slog.Warn("point set handler failed", "map_id", mapID, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	}
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
