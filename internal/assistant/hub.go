package assistant

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub fans chat frames out to every open socket a user has. Redis pub/sub
// bridges instances; a nil redis client keeps the hub process-local.
type Hub struct {
	id      string
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	UserID string
	Send   chan []byte
}

// fanoutEnvelope wraps payloads on the wire so an instance can skip
// frames it published itself. Local sockets already got those in Broadcast.
type fanoutEnvelope struct {
	Src  string `json:"src"`
	Data []byte `json:"data"`
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		id:      uuid.NewString(),
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(userID string) *Client {
	client := &Client{
		UserID: userID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if userClients, ok := h.clients[client.UserID]; ok {
		delete(userClients, client)
		if len(userClients) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	close(client.Send)
}

func (h *Hub) Broadcast(userID string, payload []byte) {
	h.deliverLocal(userID, payload)

	if h.redis != nil {
		body, err := json.Marshal(fanoutEnvelope{Src: h.id, Data: payload})
		if err != nil {
			log.Printf("redis envelope error: %v", err)
			return
		}
		if err := h.redis.Publish(context.Background(), redisChannel(userID), body).Err(); err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) deliverLocal(userID string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[userID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "chat:*:broadcast")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var env fanoutEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			continue
		}
		if env.Src == h.id {
			continue
		}
		h.deliverLocal(userIDFromChannel(msg.Channel), env.Data)
	}
}

func redisChannel(userID string) string {
	return "chat:" + userID + ":broadcast"
}

func userIDFromChannel(ch string) string {
	// chat:{user}:broadcast
	const prefix = "chat:"
	const suffix = ":broadcast"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
