package services

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/KevinVandy/pointmystory-sub000/internal/config"
	"github.com/KevinVandy/pointmystory-sub000/internal/models"
)

// Hub fans room-change notifications out to all WebSocket subscribers of a
// room. Clients treat any message as an invalidation signal and refetch
// over HTTP; the hub never carries authoritative state.
type Hub struct {
	// Room connections: roomId -> set of clients
	rooms map[string]map[*Client]bool

	broadcast  chan *BroadcastMessage
	register   chan *Client
	unregister chan *Client

	metrics *Metrics

	mu sync.RWMutex
}

type BroadcastMessage struct {
	RoomID  string
	Message *models.WSMessage
}

func NewHub(metrics *Metrics) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *BroadcastMessage, config.HubBroadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		metrics:    metrics,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastToRoom(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[client.roomID] == nil {
		h.rooms[client.roomID] = make(map[*Client]bool)
		h.metrics.IncrementRooms()
	}
	h.rooms[client.roomID][client] = true
	h.metrics.IncrementConnections()

	log.Printf("ws registered: room=%s participant=%s (connections in room: %d)",
		client.roomID, client.participantID, len(h.rooms[client.roomID]))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[client.roomID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}

	delete(clients, client)
	h.metrics.DecrementConnections()
	client.Close()

	if len(clients) == 0 {
		delete(h.rooms, client.roomID)
		h.metrics.DecrementRooms()
	}
}

func (h *Hub) broadcastToRoom(msg *BroadcastMessage) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[msg.RoomID]))
	for client := range h.rooms[msg.RoomID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(msg.Message)
	if err != nil {
		log.Printf("error marshaling message: %v", err)
		return
	}

	for _, client := range clients {
		if client.Send(data) {
			h.metrics.IncrementMessagesSent()
		}
	}
}

// NotifyRoom queues a message for every subscriber of a room.
func (h *Hub) NotifyRoom(roomID string, message *models.WSMessage) {
	select {
	case h.broadcast <- &BroadcastMessage{RoomID: roomID, Message: message}:
	default:
		h.metrics.IncrementBroadcastErrors()
	}
}

// RoomChanged is the change hook the services call after a committed
// mutation.
func (h *Hub) RoomChanged(roomID, event string) {
	h.NotifyRoom(roomID, &models.WSMessage{Type: event, RoomID: roomID})
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}
