package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/densitymap/internal/adapters/nats"
	"github.com/samirrijal/densitymap/internal/core/usecases"
	"github.com/samirrijal/densitymap/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// wsRequest is what a client sends to follow or stop following a map.
// An empty MapID means every map.
type wsRequest struct {
	Action string `json:"action"`
	MapID  string `json:"map_id"`
}

// wsEvent is every frame the server writes.
type wsEvent struct {
	Type    string          `json:"type"` // "status", "error" or "scene"
	Subject string          `json:"subject,omitempty"`
	Message string          `json:"message,omitempty"`
	Scene   json.RawMessage `json:"scene,omitempty"`
}

// sceneRelay forwards scene snapshots from NATS to one websocket client.
type sceneRelay struct {
	conn   *websocket.Conn
	nc     *nats.Conn
	maps   *usecases.MapService
	logger *slog.Logger

	writeMu sync.Mutex
	subs    map[string]*nats.Subscription
}

func (r *sceneRelay) write(msgType int, data []byte) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.conn.WriteMessage(msgType, data)
}

func (r *sceneRelay) send(ev wsEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := r.write(websocket.TextMessage, data); err != nil {
		r.logger.Debug("ws write failed", "error", err)
	}
}

func (r *sceneRelay) fail(msg string) { r.send(wsEvent{Type: "error", Message: msg}) }

func (r *sceneRelay) subscribe(mapID string) {
	subject := natsadapter.SceneSubjectPrefix + ">"
	if mapID != "" {
		subject = natsadapter.SceneSubject(mapID)
	}
	if _, ok := r.subs[subject]; ok {
		r.send(wsEvent{Type: "status", Subject: subject, Message: "already subscribed"})
		return
	}

	sub, err := r.nc.Subscribe(subject, func(msg *nats.Msg) {
		r.send(wsEvent{Type: "scene", Subject: msg.Subject, Scene: msg.Data})
	})
	if err != nil {
		r.fail("subscribe failed: " + err.Error())
		return
	}
	r.subs[subject] = sub
	r.send(wsEvent{Type: "status", Subject: subject, Message: "subscribed"})

	// A single-map subscriber gets the current scene right away.
	if mapID != "" && r.maps != nil {
		if scene, err := r.maps.Get(mapID); err == nil {
			if data, err := json.Marshal(scene); err == nil {
				r.send(wsEvent{Type: "scene", Subject: subject, Scene: data})
			}
		}
	}
}

func (r *sceneRelay) unsubscribe(mapID string) {
	subject := natsadapter.SceneSubjectPrefix + ">"
	if mapID != "" {
		subject = natsadapter.SceneSubject(mapID)
	}
	sub, ok := r.subs[subject]
	if !ok {
		r.fail("not subscribed to " + subject)
		return
	}
	_ = sub.Unsubscribe()
	delete(r.subs, subject)
	r.send(wsEvent{Type: "status", Subject: subject, Message: "unsubscribed"})
}

func (r *sceneRelay) close() {
	for _, sub := range r.subs {
		_ = sub.Unsubscribe()
	}
}

// ping keeps idle connections open until done closes.
func (r *sceneRelay) ping(done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := r.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// WebSocketHandler streams scene snapshots to clients. Clients send
// {"action":"subscribe","map_id":"<uuid>"} or "unsubscribe"; an empty
// map_id follows every map.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		r := &sceneRelay{
			conn:   c,
			nc:     deps.NATS,
			maps:   deps.Maps,
			logger: slog.With("remote_addr", c.RemoteAddr().String()),
			subs:   make(map[string]*nats.Subscription),
		}
		if r.nc == nil {
			r.fail("scene events not available")
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		r.logger.Info("ws client connected")

		done := make(chan struct{})
		go r.ping(done)
		defer func() {
			close(done)
			r.close()
			r.logger.Info("ws client disconnected")
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var req wsRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				r.fail("invalid JSON")
				continue
			}
			switch req.Action {
			case "subscribe":
				r.subscribe(req.MapID)
			case "unsubscribe":
				r.unsubscribe(req.MapID)
			default:
				r.fail("unknown action: " + req.Action)
			}
		}
	}
}
