package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"roomservice/internal/apperr"
	"roomservice/internal/roomservice"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// chatMessage is one guest utterance sent over the socket
type chatMessage struct {
	Utterance  string `json:"utterance"`
	RoomNumber int    `json:"room_number"`
}

// chatConn holds one guest connection. The connection owns a single
// conversation for its whole lifetime.
type chatConn struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	service   *roomservice.Service
	logger    *zap.Logger
	sessionID string
	room      int
}

// Chat upgrades the request to a WebSocket that carries a conversation.
// The session id and room may be passed as query parameters.
func (s *Server) Chat(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	room, _ := strconv.Atoi(c.Query("room"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade connection", zap.Error(err))
		return
	}

	cc := &chatConn{
		conn:      conn,
		send:      make(chan []byte, 16),
		done:      make(chan struct{}),
		service:   s.service,
		logger:    s.logger.With(zap.String("session", sessionID)),
		sessionID: sessionID,
		room:      room,
	}

	go cc.writePump()
	cc.readPump(c.Request.Context())
}

// readPump handles guest messages in order until the connection closes
func (c *chatConn) readPump(ctx context.Context) {
	defer close(c.send)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("chat connection lost", zap.Error(err))
			}
			return
		}
		c.handleMessage(ctx, message)
	}
}

// writePump pumps replies and keepalive pings to the connection
func (c *chatConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *chatConn) handleMessage(ctx context.Context, message []byte) {
	var msg chatMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.sendError(err.Error(), "invalid_input")
		return
	}
	if msg.RoomNumber > 0 {
		c.room = msg.RoomNumber
	}

	res, err := c.service.ProcessTurn(ctx, c.sessionID, msg.Utterance, c.room)
	if err != nil {
		c.sendError(err.Error(), apperr.Kind(err))
		return
	}
	c.sendJSON(res)
}

func (c *chatConn) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("failed to encode chat reply", zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	}
}

func (c *chatConn) sendError(message, kind string) {
	c.sendJSON(gin.H{"error": message, "kind": kind})
}
