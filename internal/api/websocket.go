package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"whatsfordinner/internal/kitchen"
	"whatsfordinner/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
	actionQueue    = 16
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the session token authenticates the client
	},
}

// wsConnection streams actions for one session over a websocket.
// Queued frames, malformed ones included, are answered in the order they
// arrive. A frame that finds the queue full is answered "busy" at once and
// that reply may overtake the pending ones.
type wsConnection struct {
	conn      *websocket.Conn
	send      chan []byte
	actions   chan frame
	api       *KitchenAPI
	sessionID string
	log       logrus.FieldLogger
}

// frame is one decoded client message, or the reason it could not be decoded.
type frame struct {
	action kitchen.Action
	err    error
}

// handleWebSocket upgrades the connection, sends the current view and then
// answers every action frame with {view, error}.
func (k *KitchenAPI) handleWebSocket(c *gin.Context) {
	log := loggerFrom(c)
	id := sessionID(c)

	// Fail before upgrading so the client sees a plain HTTP status.
	if _, err := k.controller.Snapshot(c.Request.Context(), id); err != nil {
		c.JSON(statusFor(err), errorResponse(models.ErrorKind(err), err.Error()))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("failed to upgrade connection")
		return
	}

	ws := &wsConnection{
		conn:      conn,
		send:      make(chan []byte, actionQueue),
		actions:   make(chan frame, actionQueue),
		api:       k,
		sessionID: id,
		log:       log,
	}

	// The request context ends when this handler returns, so the
	// connection gets its own.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ws.actions <- frame{action: kitchen.Action{Type: kitchen.ActionView}}
	go ws.writePump()
	go ws.dispatchLoop(ctx)
	ws.readPump()
	log.Debug("websocket closed")
}

// readPump pumps frames from the connection into the action queue
func (c *wsConnection) readPump() {
	defer func() {
		close(c.actions)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("websocket read failed")
			}
			return
		}

		var f frame
		if err := json.Unmarshal(message, &f.action); err != nil {
			f = frame{err: models.Invalid("frame", "malformed action: %v", err)}
		}

		select {
		case c.actions <- f:
		default:
			c.reply(ActionResponse{Error: &ErrorBody{Kind: "busy", Message: "too many pending actions"}})
		}
	}
}

// dispatchLoop applies queued actions one at a time.
func (c *wsConnection) dispatchLoop(ctx context.Context) {
	defer close(c.send)

	for f := range c.actions {
		if f.err != nil {
			c.reply(ActionResponse{Error: errorBody(f.err)})
			continue
		}
		view, err := c.api.controller.Dispatch(ctx, c.sessionID, f.action)
		c.reply(actionResponse(view, err))
	}
}

// reply queues a response, dropping it if the client is not reading.
func (c *wsConnection) reply(resp ActionResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		c.log.WithError(err).Error("failed to marshal websocket reply")
		return
	}

	select {
	case c.send <- data:
	default:
		c.log.Warn("websocket buffer full, dropping message")
	}
}

// writePump pumps messages from the server to the WebSocket connection
func (c *wsConnection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
