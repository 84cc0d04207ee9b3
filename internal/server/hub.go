package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/plunderhq/plunder-server/internal/engine"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// observationMessage is the wire form of one engine observation.
type observationMessage struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"`
	AttackID         uint64    `json:"attack_id"`
	Attacker         string    `json:"attacker"`
	Defender         string    `json:"defender"`
	Timestamp        time.Time `json:"timestamp"`
	Round            int       `json:"round,omitempty"`
	AttackerCategory string    `json:"attacker_category,omitempty"`
	DefenderCategory string    `json:"defender_category,omitempty"`
	AttackerRank     int       `json:"attacker_rank,omitempty"`
	DefenderRank     int       `json:"defender_rank,omitempty"`
	Result           string    `json:"result,omitempty"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans engine observations out to connected websocket clients. A
// slow client gets dropped rather than back-pressuring the rest.
type Hub struct {
	logger     *zap.Logger
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
}

func newHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// Observe is the observation bus listener. It runs under the engine
// mutex, so it only hands the encoded message to the hub goroutine.
func (h *Hub) Observe(obs engine.Observation) {
	msg := observationMessage{
		ID:        obs.ID,
		Type:      string(obs.Type),
		AttackID:  obs.AttackID,
		Attacker:  obs.Attacker,
		Defender:  obs.Defender,
		Timestamp: obs.Timestamp,
	}
	switch obs.Type {
	case engine.ObservationEvaluateHands:
		msg.Round = obs.Round
		msg.AttackerCategory = obs.AttackerCategory.String()
		msg.DefenderCategory = obs.DefenderCategory.String()
		msg.AttackerRank = obs.AttackerRank
		msg.DefenderRank = obs.DefenderRank
	case engine.ObservationDetermineAttackResult, engine.ObservationAttackFinalized:
		msg.Result = obs.Result.String()
	}

	encoded, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("encode observation", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- encoded:
	default:
		h.logger.Warn("broadcast queue full, observation dropped",
			zap.Uint64("attack_id", obs.AttackID),
		)
	}
}

func (h *Hub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = true
			h.logger.Debug("websocket client registered", zap.String("client_id", c.id))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Debug("websocket client unregistered", zap.String("client_id", c.id))
			}

		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
		}
	}
}

func (h *Hub) closeAll() {
	// Connections close when their read pumps fail; the run loop keeps
	// draining unregisters until the context is cancelled.
	for c := range h.clients {
		c.conn.Close()
	}
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 256),
	}
	h.register <- c

	go c.writePump()
	go c.readPump(h)
}

// readPump discards inbound frames; the stream is one-way. It exists
// to detect disconnects and unregister the client.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
