package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/KevinVandy/pointmystory-sub000/internal/config"
)

// Client represents a single WebSocket subscriber with its own send
// goroutine. The stream is push-only: inbound frames are rate limited and
// discarded (clients mutate state over HTTP).
type Client struct {
	conn          *websocket.Conn
	send          chan []byte
	hub           *Hub
	roomID        string
	participantID string

	// Rate limiting
	messageCount int
	rateLimitMu  sync.Mutex
	lastReset    time.Time

	// Lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
	closeMu sync.Mutex
}

func NewClient(conn *websocket.Conn, hub *Hub, roomID, participantID string) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		conn:          conn,
		send:          make(chan []byte, config.ClientSendBufferSize),
		hub:           hub,
		roomID:        roomID,
		participantID: participantID,
		lastReset:     time.Now(),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start begins the client's read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// writePump handles outgoing messages to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}

			writeCtx, cancel := context.WithTimeout(c.ctx, config.WriteTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(c.ctx, config.WriteTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// readPump drains the connection so pings are answered and close frames
// are noticed. Anything a client sends beyond that is dropped.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	for {
		readCtx, cancel := context.WithTimeout(c.ctx, config.PongTimeout)
		_, _, err := c.conn.Read(readCtx)
		cancel()

		if err != nil {
			return
		}

		if !c.checkRateLimit() {
			log.Printf("ws rate limit exceeded (room=%s, participant=%s)", c.roomID, c.participantID)
			c.hub.metrics.IncrementRateLimitViolations()
		}
	}
}

// checkRateLimit verifies the client hasn't exceeded message rate limits.
func (c *Client) checkRateLimit() bool {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	now := time.Now()
	if now.Sub(c.lastReset) > config.RateLimitWindow {
		c.messageCount = 0
		c.lastReset = now
	}

	c.messageCount++
	return c.messageCount <= config.MaxMessagesPerSecond
}

// Send queues a message for the client. Returns false when the client's
// buffer is full; slow clients are disconnected rather than blocking the
// hub.
func (c *Client) Send(message []byte) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		log.Printf("ws send buffer full, closing slow client (room=%s, participant=%s)", c.roomID, c.participantID)
		c.hub.metrics.IncrementBroadcastErrors()
		go c.Close()
		return false
	}
}

// Done is closed when the client shuts down. Handlers block on it so the
// HTTP goroutine outlives the connection.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close cleanly shuts down the client connection.
func (c *Client) Close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.cancel()
	close(c.send)
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}
