package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Hub fans game events out to connected websocket clients. Events arrive on
// the redis channel "game.<code>" published by the notifier, so the API path
// and the orchestrator both reach clients through the same pipe.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex

	redis  *redis.Client
	games  *GameService
	rounds *RoundService
	logger *zap.SugaredLogger
}

type Client struct {
	hub      *Hub
	id       string
	socket   *websocket.Conn
	send     chan []byte
	gameCode string
	playerID uint
	nickname string

	// Guarded by hub.mutex. Set before send is closed so reply never writes
	// to a closed channel.
	closed bool
}

func NewHub(rdb *redis.Client, games *GameService, rounds *RoundService, logger *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		redis:      rdb,
		games:      games,
		rounds:     rounds,
		logger:     logger,
	}
}

// Run subscribes to every game channel and pumps events to clients until the
// context is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	pubsub := h.redis.PSubscribe(ctx, ChannelPattern)
	defer pubsub.Close()
	events := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.logger.Debugw("client registered", "client", client.id, "game", client.gameCode, "player", client.playerID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				h.dropClient(client)
			}
			h.mutex.Unlock()
			h.logger.Debugw("client unregistered", "client", client.id, "game", client.gameCode)

		case msg, ok := <-events:
			if !ok {
				return nil
			}
			code := strings.TrimPrefix(msg.Channel, "game.")
			h.deliver(code, []byte(msg.Payload))
		}
	}
}

func (h *Hub) deliver(gameCode string, data []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if !strings.EqualFold(client.gameCode, gameCode) {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Slow consumer: drop the connection rather than the tick.
			h.dropClient(client)
		}
	}
}

// dropClient removes a client and closes its send channel. Callers hold the
// hub mutex.
func (h *Hub) dropClient(client *Client) {
	delete(h.clients, client)
	if !client.closed {
		client.closed = true
		close(client.send)
	}
}

func (h *Hub) RegisterClient(conn *websocket.Conn, gameCode string, playerID uint, nickname string) *Client {
	client := &Client{
		hub:      h,
		id:       uuid.NewString(),
		socket:   conn,
		send:     make(chan []byte, 256),
		gameCode: gameCode,
		playerID: playerID,
		nickname: nickname,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.socket.Close()
	}()

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debugw("websocket read error", "client", c.id, "error", err)
			}
			return
		}

		var msg Event
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) handleMessage(msg Event) {
	switch msg.Type {
	case "ping":
		c.reply(Event{Type: "pong", Payload: "pong"})
	case "request_game_state":
		c.sendStateSync()
	}
}

// sendStateSync pushes the authoritative game and round state to one client,
// used when a client reconnects mid-game.
func (c *Client) sendStateSync() {
	game, err := c.hub.games.GetGameByCode(c.gameCode)
	if err != nil {
		c.hub.logger.Debugw("state sync failed", "client", c.id, "game", c.gameCode, "error", err)
		return
	}

	payload := map[string]interface{}{
		"game": game,
	}
	if round, err := c.hub.rounds.CurrentRound(game); err == nil {
		payload["round"] = round
	}
	c.reply(Event{Type: "game_state_sync", Payload: payload})
}

func (c *Client) reply(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	// The read lock excludes dropClient, so send cannot be closed mid-write.
	c.hub.mutex.RLock()
	defer c.hub.mutex.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
