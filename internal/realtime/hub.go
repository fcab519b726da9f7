package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"ecshop/internal/domain/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// クライアントとやりとりするイベント名
const (
	EventRegister         = "register"
	EventChatMessage      = "chat_message"
	EventSelectUser       = "select_user"
	EventActiveUsers      = "active_users"
	EventUserSocketMap    = "user_socket_map"
	EventChatHistory      = "chat_history"
	EventUserConnected    = "user_connected"
	EventUserDisconnected = "user_disconnected"
	EventOrderUpdated     = "order_updated"
	EventError            = "error"
)

// {"event": "...", "data": {...}}
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// トークンから分かる接続者
type Identity struct {
	UserID   int64
	Username string
	Role     model.Role
}

// CS担当として扱うロールか
type AgentPolicy func(role model.Role) bool

type Hub struct {
	reg     *Registry
	isAgent AgentPolicy
	log     zerolog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub(reg *Registry, isAgent AgentPolicy, log zerolog.Logger) *Hub {
	return &Hub{
		reg:     reg,
		isAgent: isAgent,
		log:     log,
		now:     time.Now,
		clients: make(map[string]*Client),
	}
}

// 接続が切れるまでブロックする
func (h *Hub) Serve(conn *websocket.Conn, ident Identity) {
	c := newClient(h, uuid.NewString(), ident, conn)
	h.attach(c)
	go c.writePump()
	c.readPump()
	h.detach(c)
}

func (h *Hub) attach(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
}

func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.close()

	p, wasUser, ok := h.reg.Remove(c.id)
	if ok && wasUser {
		h.sendToAgents(EventUserDisconnected, map[string]any{
			"socket_id": p.SocketID,
			"user_id":   p.UserID,
		})
	}
}

func (h *Hub) client(id string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	return c, ok
}

// ctxが終わったら全接続を閉じる
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		c.close()
	}
	return nil
}

// 全接続に order_updated を送る
func (h *Hub) PublishOrderUpdated(_ context.Context, ev model.OrderUpdatedEvent) error {
	b, err := encodeFrame(EventOrderUpdated, ev)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.enqueue(b)
	}
	return nil
}

func (h *Hub) dispatch(c *Client, f Frame) {
	switch f.Event {
	case EventRegister:
		h.onRegister(c, f.Data)
	case EventChatMessage:
		h.onChatMessage(c, f.Data)
	case EventSelectUser:
		h.onSelectUser(c, f.Data)
	default:
		c.sendEvent(EventError, map[string]string{"message": "unknown event"})
	}
}

type registerData struct {
	Username string `json:"username"`
}

func (h *Hub) onRegister(c *Client, raw json.RawMessage) {
	var d registerData
	_ = json.Unmarshal(raw, &d)

	username := c.ident.Username
	if username == "" {
		username = strings.TrimSpace(d.Username)
	}
	p := Peer{SocketID: c.id, UserID: c.ident.UserID, Username: username}

	if h.isAgent(c.ident.Role) {
		h.reg.AddAgent(p)
		c.sendEvent(EventActiveUsers, h.reg.ActiveUsers())
		c.sendEvent(EventUserSocketMap, h.reg.UserSocketMap())
		h.log.Debug().Int64("user_id", p.UserID).Str("socket_id", p.SocketID).Msg("chat agent registered")
		return
	}

	history := h.reg.AddUser(p)
	c.sendEvent(EventChatHistory, history)
	h.sendToAgents(EventUserConnected, p)
}

type chatMessageData struct {
	// CS担当から送るときの宛先socket_id
	To      string `json:"to"`
	Message string `json:"message"`
}

// 送信者にも同じメッセージを返す
func (h *Hub) onChatMessage(c *Client, raw json.RawMessage) {
	var d chatMessageData
	if err := json.Unmarshal(raw, &d); err != nil || strings.TrimSpace(d.Message) == "" {
		c.sendEvent(EventError, map[string]string{"message": "invalid chat_message"})
		return
	}

	if h.reg.IsAgent(c.id) {
		target, ok := h.reg.User(d.To)
		if !ok {
			c.sendEvent(EventError, map[string]string{"message": "user is not connected"})
			return
		}
		msg := ChatMessage{From: c.username(), Message: d.Message, Role: c.ident.Role, Timestamp: h.now()}
		h.reg.AppendHistory(target.UserID, msg)
		if tc, ok := h.client(target.SocketID); ok {
			tc.sendEvent(EventChatMessage, msg)
		}
		c.sendEvent(EventChatMessage, msg)
		return
	}

	sender, ok := h.reg.User(c.id)
	if !ok {
		c.sendEvent(EventError, map[string]string{"message": "register first"})
		return
	}
	msg := ChatMessage{From: sender.Username, Message: d.Message, Role: c.ident.Role, Timestamp: h.now()}
	h.reg.AppendHistory(sender.UserID, msg)
	h.sendToAgents(EventChatMessage, struct {
		ChatMessage
		UserSocketID string `json:"user_socket_id"`
		UserID       int64  `json:"user_id"`
	}{msg, c.id, sender.UserID})
	c.sendEvent(EventChatMessage, msg)
}

type selectUserData struct {
	UserSocketID string `json:"user_socket_id"`
}

func (h *Hub) onSelectUser(c *Client, raw json.RawMessage) {
	if !h.reg.IsAgent(c.id) {
		c.sendEvent(EventError, map[string]string{"message": "forbidden"})
		return
	}
	var d selectUserData
	_ = json.Unmarshal(raw, &d)

	u, ok := h.reg.User(d.UserSocketID)
	if !ok {
		c.sendEvent(EventChatHistory, []ChatMessage{})
		return
	}
	c.sendEvent(EventChatHistory, h.reg.History(u.UserID))
}

func (h *Hub) sendToAgents(event string, data any) {
	b, err := encodeFrame(event, data)
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("encode frame failed")
		return
	}
	for _, a := range h.reg.Agents() {
		if c, ok := h.client(a.SocketID); ok {
			c.enqueue(b)
		}
	}
}

func encodeFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}
