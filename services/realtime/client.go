package realtime

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/chat"
)

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	send   chan []byte

	// guarded by hub.mu
	rooms map[string]struct{}
}

func newClient(h *Hub, conn *websocket.Conn, userID int64) *client {
	return &client{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, h.conf.SendBuffer),
		rooms:  make(map[string]struct{}),
	}
}

// readPump dispatches inbound frames until the connection fails.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	conf := c.hub.conf
	c.conn.SetReadLimit(conf.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(conf.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(conf.PongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read", err, map[string]interface{}{"userId": c.userID})
			}
			return
		}
		c.dispatch(data)
	}
}

// writePump writes queued frames and keeps the connection alive with pings.
func (c *client) writePump() {
	conf := c.hub.conf
	ticker := time.NewTicker(conf.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(conf.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(conf.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) emit(event string, data interface{}) {
	c.hub.emit(event, data, func() []*client {
		if _, ok := c.hub.clients[c]; ok {
			return []*client{c}
		}
		return nil
	})
}

func (c *client) fail(event, msg string) {
	c.emit(EventError, ErrorPayload{Event: event, Message: msg})
}

// failErr reports err to the client. Unexpected errors are logged and hidden.
func (c *client) failErr(event string, err error) {
	switch cause := errors.Cause(err).(type) {
	case *core.ValidationError, *core.NotFoundError, *core.PermissionError, *core.ConflictError, validator.ValidationErrors:
		c.fail(event, cause.Error())
	default:
		c.hub.log.Error("realtime "+event, err, core.Actor{ID: strconv.FormatInt(c.userID, 10), Kind: "generus"})
		c.fail(event, "internal server error")
	}
}

func (c *client) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.hub.ctx, c.hub.conf.WriteTimeout)
}

func (c *client) dispatch(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.fail("", "malformed message")
		return
	}
	if !inboundEvents[env.Event] {
		c.fail(env.Event, "unknown event")
		return
	}
	eventsTotal.WithLabelValues("in", env.Event).Inc()

	switch env.Event {
	case EventRegisterUser:
		c.registerUser(env)
	case EventJoinRoom:
		c.joinRoom(env)
	case EventLeaveRoom:
		if p, ok := c.room(env); ok {
			c.hub.leave(c, chat.Room(p.ConversationID))
		}
	case EventSendMessage:
		c.sendMessage(env)
	case EventTypingStart, EventTypingStop:
		c.typing(env)
	case EventMarkRead:
		c.markRead(env)
	}
}

func (c *client) registerUser(env Envelope) {
	var p UserStatus
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &p); err != nil {
			c.fail(env.Event, "malformed payload")
			return
		}
	}
	if p.UserID != 0 && p.UserID != c.userID {
		c.fail(env.Event, "userId does not match the authenticated user")
		return
	}
	c.hub.register(c)
}

// room decodes a {conversationId} payload.
func (c *client) room(env Envelope) (roomPayload, bool) {
	var p roomPayload
	if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == "" {
		c.fail(env.Event, "conversationId is required")
		return p, false
	}
	return p, true
}

func (c *client) joinRoom(env Envelope) {
	p, ok := c.room(env)
	if !ok {
		return
	}
	if c.hub.chat == nil {
		c.fail(env.Event, "chat is unavailable")
		return
	}

	ctx, cancel := c.context()
	defer cancel()
	member, err := c.hub.chat.IsParticipant(ctx, p.ConversationID, c.userID)
	if err != nil {
		c.failErr(env.Event, err)
		return
	}
	if !member {
		c.fail(env.Event, "not a participant of this conversation")
		return
	}
	c.hub.join(c, chat.Room(p.ConversationID))
}

func (c *client) sendMessage(env Envelope) {
	var nm chat.NewMessage
	if err := json.Unmarshal(env.Data, &nm); err != nil {
		c.fail(env.Event, "malformed payload")
		return
	}
	if c.hub.chat == nil {
		c.fail(env.Event, "chat is unavailable")
		return
	}

	ctx, cancel := c.context()
	defer cancel()
	if _, err := c.hub.chat.SendMessage(ctx, c.userID, nm); err != nil {
		c.failErr(env.Event, err)
	}
}

func (c *client) typing(env Envelope) {
	p, ok := c.room(env)
	if !ok {
		return
	}
	room := chat.Room(p.ConversationID)
	if !c.hub.inRoom(c, room) {
		c.fail(env.Event, "join the conversation first")
		return
	}
	c.hub.emitToRoom(room, EventUserTyping, UserTyping{
		ConversationID: p.ConversationID,
		UserID:         c.userID,
		IsTyping:       env.Event == EventTypingStart,
	}, c)
}

func (c *client) markRead(env Envelope) {
	p, ok := c.room(env)
	if !ok {
		return
	}
	if c.hub.chat == nil {
		c.fail(env.Event, "chat is unavailable")
		return
	}

	ctx, cancel := c.context()
	defer cancel()
	if _, err := c.hub.chat.MarkRead(ctx, c.userID, p.ConversationID); err != nil {
		c.failErr(env.Event, err)
	}
}
