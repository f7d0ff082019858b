package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/densitymap/internal/core/domain"
)

// Subjects
const (
	PointsSubjectPrefix = "density.points."
	SceneSubjectPrefix  = "density.scene."
)

// PointsSubject is where point sets for mapID are published.
func PointsSubject(mapID string) string { return PointsSubjectPrefix + mapID }

// SceneSubject is where scene snapshots for mapID are published.
func SceneSubject(mapID string) string { return SceneSubjectPrefix + mapID }

// PointStreamConfig is the JetStream stream carrying point sets. Every API
// process holds its own consumer on it, so retention is by interest: a set
// is kept until each live consumer has acked it.
func PointStreamConfig() nats.StreamConfig {
	return nats.StreamConfig{
		Name:      "DENSITY_POINTS",
		Subjects:  []string{PointsSubjectPrefix + ">"},
		Retention: nats.InterestPolicy,
		MaxAge:    time.Hour,
		Storage:   nats.FileStorage,
	}
}

// Publisher implements ports.EventPublisher using NATS JetStream.
// Scene snapshots go out on core NATS since only live subscribers care.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and makes sure the point-set stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := PointStreamConfig()
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist; try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishScene(ctx context.Context, scene *domain.Scene) error {
	data, err := json.Marshal(scene)
	if err != nil {
		return err
	}
	return p.conn.Publish(SceneSubject(scene.MapID), data)
}

func (p *Publisher) PublishPointSet(ctx context.Context, mapID string, set *domain.PointSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(PointsSubject(mapID), data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
