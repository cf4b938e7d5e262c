package chatws

import (
	"context"
	"encoding/json"
	"log"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/danifc123/CorretoraJennisson/internal/models"
	"github.com/danifc123/CorretoraJennisson/internal/services"
)

// Push event names, shared with the frontend chat client.
const (
	EventReceiveMessage      = "ReceiveMessage"
	EventMessageSent         = "MessageSent"
	EventMessageRead         = "MessageRead"
	EventMessageMarkedAsRead = "MessageMarkedAsRead"
	EventError               = "Error"
)

// Hub tracks which group each live connection belongs to and fans pushes
// out to whole groups. Administrators share the "admins" group; each client
// joins the group named by its own id, so two tabs of the same client are
// reachable without extra bookkeeping.
type Hub struct {
	groups     map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *push
}

type push struct {
	group   string
	payload []byte
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	connID string
	userID int64
	role   string
	group  string
	send   chan []byte
}

type chatEngine interface {
	Send(ctx context.Context, actorID int64, role string, content string, recipientID *int64) (*services.Delivery, error)
	MarkRead(ctx context.Context, actorID int64, role string, messageID int64) (*services.ReadReceipt, error)
}

// Event is the envelope of every server push.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		groups:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *push, 64),
	}
}

// NewClient derives the client's group from its authenticated identity:
// the shared admins group for administrators, user_{id} otherwise.
func NewClient(hub *Hub, conn *websocket.Conn, userID int64, role string) *Client {
	group := services.UserGroup(userID)
	if role == models.RoleAdmin {
		group = services.AdminsGroup
	}
	return &Client{
		hub:    hub,
		conn:   conn,
		connID: uuid.NewString(),
		userID: userID,
		role:   role,
		group:  group,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.groups[client.group]
			if !ok {
				set = make(map[*Client]struct{})
				h.groups[client.group] = set
			}
			set[client] = struct{}{}
			log.Printf("chat hub: user %d (%s) joined group %q (conn %s)", client.userID, client.role, client.group, client.connID)
		case client := <-h.unregister:
			set, ok := h.groups[client.group]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
				log.Printf("chat hub: user %d left group %q (conn %s)", client.userID, client.group, client.connID)
			}
			if len(set) == 0 {
				delete(h.groups, client.group)
			}
		case message := <-h.broadcast:
			h.sendToGroup(message.group, message.payload)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// PushToGroup fans an event out to every connection in a group. Absent or
// empty groups are a no-op; pushes are fire-and-forget.
func (h *Hub) PushToGroup(group string, event string, data any) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		log.Printf("chat hub encode %s: %v", event, err)
		return
	}
	h.broadcast <- &push{group: group, payload: payload}
}

func (h *Hub) sendToGroup(group string, payload []byte) {
	set, ok := h.groups[group]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.groups, group)
	}
}

func encodeEvent(event string, data any) ([]byte, error) {
	return json.Marshal(Event{Event: event, Data: data})
}

// inbound is the client-to-server frame. "send" carries conteudo and, for
// administrators, usuario_id_destino; "mark_read" carries mensagem_id.
type inbound struct {
	Type        string `json:"type"`
	Content     string `json:"conteudo"`
	RecipientID *int64 `json:"usuario_id_destino"`
	MessageID   int64  `json:"mensagem_id"`
}

func (c *Client) ReadPump(engine chatEngine) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame inbound
		if err := json.Unmarshal(payload, &frame); err != nil {
			c.writeEvent(EventError, "invalid message payload")
			continue
		}

		switch frame.Type {
		case "send":
			c.handleSend(engine, frame)
		case "mark_read":
			c.handleMarkRead(engine, frame)
		default:
			c.writeEvent(EventError, "unsupported message type")
		}
	}
}

func (c *Client) handleSend(engine chatEngine, frame inbound) {
	delivery, err := engine.Send(context.Background(), c.userID, c.role, frame.Content, frame.RecipientID)
	if err != nil {
		c.writeEvent(EventError, err.Error())
		return
	}

	c.hub.PushToGroup(delivery.Group, EventReceiveMessage, delivery.Message)
	c.writeEvent(EventMessageSent, delivery.Message)
}

func (c *Client) handleMarkRead(engine chatEngine, frame inbound) {
	receipt, err := engine.MarkRead(context.Background(), c.userID, c.role, frame.MessageID)
	if err != nil {
		c.writeEvent(EventError, err.Error())
		return
	}

	c.hub.PushToGroup(receipt.Group, EventMessageRead, receipt.MessageID)
	c.writeEvent(EventMessageMarkedAsRead, receipt.MessageID)
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// writeEvent delivers an event to this connection only. A full send buffer
// drops the connection rather than blocking the hub.
func (c *Client) writeEvent(event string, data any) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
		c.hub.Unregister(c)
	}
}
