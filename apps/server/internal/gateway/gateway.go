package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"casino-lite/apps/server/internal/auth"
	"casino-lite/apps/server/internal/game"
	"casino-lite/apps/server/internal/metrics"

	"github.com/gorilla/websocket"
)

const (
	readLimit     = 65536
	pongWait      = 60 * time.Second
	pingInterval  = 30 * time.Second
	writeWait     = 10 * time.Second
	actionTimeout = 5 * time.Second
	sendBuffer    = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ClientMessage is one action frame: the HTTP envelope plus an optional
// request id echoed in the reply.
type ClientMessage struct {
	RequestID string `json:"requestId,omitempty"`
	game.Request
}

type ServerMessage struct {
	Type      string         `json:"type"`
	RequestID string         `json:"requestId,omitempty"`
	Action    string         `json:"action,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Points    *int64         `json:"points,omitempty"`
	Error     string         `json:"error,omitempty"`
	Kind      string         `json:"kind,omitempty"`
}

const (
	MessageResult = "result"
	MessageError  = "error"
	MessagePoints = "points"
)

// Connection represents a WebSocket client connection
type Connection struct {
	ID      string
	UserID  uint64
	Conn    *websocket.Conn
	Send    chan []byte
	Gateway *Gateway

	closeOnce sync.Once
}

// Gateway manages WebSocket connections
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	userConns   map[uint64]map[string]*Connection
	nextConnID  uint64

	auth    auth.Service
	game    *game.Service
	metrics *metrics.Metrics
}

func New(authService auth.Service, gameService *game.Service, m *metrics.Metrics) *Gateway {
	return &Gateway{
		connections: make(map[string]*Connection),
		userConns:   make(map[uint64]map[string]*Connection),
		auth:        authService,
		game:        gameService,
		metrics:     m,
	}
}

// HandleWebSocket authenticates the caller, then upgrades. The token comes
// from the Authorization header or the "token" query parameter.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := auth.Authenticate(g.auth, r)
	if !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] Upgrade error: %v", err)
		return
	}

	g.mu.Lock()
	g.nextConnID++
	c := &Connection{
		ID:      fmt.Sprintf("conn_%d", g.nextConnID),
		UserID:  userID,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		Gateway: g,
	}
	g.connections[c.ID] = c
	if g.userConns[userID] == nil {
		g.userConns[userID] = make(map[string]*Connection)
	}
	g.userConns[userID][c.ID] = c
	total := len(g.connections)
	g.mu.Unlock()

	g.metrics.ClientConnected()
	log.Printf("[Gateway] Client connected: %s (userID=%d), total: %d", c.ID, userID, total)

	go c.readPump()
	go c.writePump()
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(readLimit)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] Read error: %v", err)
			}
			break
		}
		if messageType == websocket.TextMessage {
			c.handleMessage(message)
		}
	}
}

// Frames from one connection are handled in order; concurrent frames for
// the same session from different connections serialize in the game service.
func (c *Connection) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.send(ServerMessage{Type: MessageError, Error: "invalid message format", Kind: game.KindInvalidAction})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	out, err := c.Gateway.game.Apply(ctx, c.UserID, msg.Request)
	if err != nil {
		reply := ServerMessage{Type: MessageError, RequestID: msg.RequestID, Action: msg.Action, Kind: game.ErrorKind(err)}
		if game.IsClientError(err) {
			reply.Error = game.PublicMessage(err)
		} else {
			log.Printf("[Gateway] action %s failed: user=%d err=%v", msg.Action, c.UserID, err)
			reply.Error = "internal error"
		}
		c.send(reply)
		return
	}

	c.send(ServerMessage{Type: MessageResult, RequestID: msg.RequestID, Action: string(out.Action), Data: out.Body()})
	if out.Action.Mutating() {
		points := out.Points
		c.Gateway.broadcastToUser(c.UserID, c.ID, ServerMessage{Type: MessagePoints, Points: &points})
	}
}

func (c *Connection) send(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Gateway] marshal reply failed: %v", err)
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Printf("[Gateway] send buffer full, dropping reply: conn=%s", c.ID)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	delete(g.connections, c.ID)
	if conns := g.userConns[c.UserID]; conns != nil {
		delete(conns, c.ID)
		if len(conns) == 0 {
			delete(g.userConns, c.UserID)
		}
	}
	total := len(g.connections)
	g.mu.Unlock()

	c.closeOnce.Do(func() { close(c.Send) })
	g.metrics.ClientDisconnected()
	log.Printf("[Gateway] Client disconnected: %s, total: %d", c.ID, total)
}

// broadcastToUser sends msg to every other connection of userID.
func (g *Gateway) broadcastToUser(userID uint64, exceptConnID string, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	for id, c := range g.userConns[userID] {
		if id == exceptConnID {
			continue
		}
		select {
		case c.Send <- data:
		default:
			// Drop if buffer full
		}
	}
}

func (g *Gateway) ConnectionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}
