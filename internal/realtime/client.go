package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 64
)

// 1接続。書き込みはwritePumpだけが行う
type Client struct {
	id    string
	ident Identity
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(h *Hub, id string, ident Identity, conn *websocket.Conn) *Client {
	return &Client{
		id:    id,
		ident: ident,
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
	}
}

func (c *Client) username() string {
	if p, ok := c.hub.reg.User(c.id); ok {
		return p.Username
	}
	return c.ident.Username
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// 詰まっているクライアントには送らない
func (c *Client) enqueue(b []byte) {
	select {
	case <-c.done:
	case c.send <- b:
	default:
		c.hub.log.Warn().Str("socket_id", c.id).Msg("send buffer full, dropping frame")
	}
}

func (c *Client) sendEvent(event string, data any) {
	b, err := encodeFrame(event, data)
	if err != nil {
		c.hub.log.Error().Err(err).Str("event", event).Msg("encode frame failed")
		return
	}
	c.enqueue(b)
}

func (c *Client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug().Err(err).Str("socket_id", c.id).Msg("websocket closed")
			}
			return
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.sendEvent(EventError, map[string]string{"message": "invalid frame"})
			continue
		}
		c.hub.dispatch(c, f)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
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
