package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/chat"
)

var ErrHubClosed = errors.New("realtime hub is shut down")

// ChatService is the part of chat.Service driven by inbound events.
type ChatService interface {
	IsParticipant(ctx context.Context, conversationID string, userID int64) (bool, error)
	SendMessage(ctx context.Context, senderID int64, nm chat.NewMessage) (chat.Message, error)
	MarkRead(ctx context.Context, userID int64, conversationID string) (chat.MessagesRead, error)
}

// Hub keeps the connected clients, the user registry and the conversation rooms.
type Hub struct {
	conf     core.RealtimeConfig
	log      core.Logger
	upgrader websocket.Upgrader

	chat ChatService

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	clients map[*client]struct{}
	users   map[int64]*client
	rooms   map[string]map[*client]struct{}
}

var _ chat.Notifier = (*Hub)(nil)

func NewHub(conf core.RealtimeConfig, logger core.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		conf: conf,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		ctx:     ctx,
		cancel:  cancel,
		clients: make(map[*client]struct{}),
		users:   make(map[int64]*client),
		rooms:   make(map[string]map[*client]struct{}),
	}
}

// SetChat binds the service handling chat events.
// The hub and the chat service depend on each other, so it is set after both exist.
func (h *Hub) SetChat(svc ChatService) {
	h.chat = svc
}

// Serve upgrades the request and starts the pumps of a client authenticated as userID.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID int64) error {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		return ErrHubClosed
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return errors.Wrap(err, "upgrading connection")
	}

	c := newClient(h, conn, userID)
	if !h.add(c) {
		_ = conn.Close()
		return ErrHubClosed
	}

	go func() {
		defer h.wg.Done()
		c.writePump()
	}()
	go func() {
		defer h.wg.Done()
		c.readPump()
	}()

	h.register(c)
	return nil
}

// add tracks c and counts its two pumps so that Shutdown waits for them.
func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.wg.Add(2)
	h.clients[c] = struct{}{}
	connectionsGauge.Inc()
	return true
}

// register binds c to its user and announces it to every client, c included.
// The last registration of a user wins.
func (h *Hub) register(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	h.users[c.userID] = c
	h.mu.Unlock()

	h.Broadcast(EventUserOnline, UserStatus{UserID: c.userID})
}

// unregister drops c from the hub and closes its send buffer.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	h.remove(c)
	offline := false
	if h.users[c.userID] == c {
		delete(h.users, c.userID)
		offline = true
	}
	h.mu.Unlock()

	if offline {
		h.Broadcast(EventUserOffline, UserStatus{UserID: c.userID})
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(c *client) {
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	delete(h.clients, c)
	close(c.send)
	connectionsGauge.Dec()
}

func (h *Hub) join(c *client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*client]struct{})
		h.rooms[room] = members
		roomsGauge.Inc()
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leave(c *client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *client, room string) {
	delete(c.rooms, room)
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
		roomsGauge.Dec()
	}
}

func (h *Hub) inRoom(c *client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := c.rooms[room]
	return ok
}

func encode(event string, data interface{}) ([]byte, error) {
	return json.Marshal(outbound{Event: event, Data: data})
}

// deliver queues msg on every target. Clients with a full buffer are dropped.
func (h *Hub) deliver(event string, msg []byte, targets func() []*client) {
	var slow []*client

	h.mu.RLock()
	for _, c := range targets() {
		select {
		case c.send <- msg:
			eventsTotal.WithLabelValues("out", event).Inc()
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow client", map[string]interface{}{"userId": c.userID})
		h.unregister(c)
	}
}

func (h *Hub) emit(event string, data interface{}, targets func() []*client) {
	msg, err := encode(event, data)
	if err != nil {
		h.log.Error("encoding event", errors.Wrap(err, event))
		return
	}
	h.deliver(event, msg, targets)
}

// EmitToConversation sends event to every client that joined the conversation room.
func (h *Hub) EmitToConversation(conversationID, event string, data interface{}) {
	h.emitToRoom(chat.Room(conversationID), event, data, nil)
}

func (h *Hub) emitToRoom(room, event string, data interface{}, except *client) {
	h.emit(event, data, func() []*client {
		targets := make([]*client, 0, len(h.rooms[room]))
		for c := range h.rooms[room] {
			if c != except {
				targets = append(targets, c)
			}
		}
		return targets
	})
}

// EmitToUser sends event to the registered client of userID, if online.
func (h *Hub) EmitToUser(userID int64, event string, data interface{}) {
	h.emit(event, data, func() []*client {
		if c, ok := h.users[userID]; ok {
			return []*client{c}
		}
		return nil
	})
}

// Broadcast sends event to every connected client.
func (h *Hub) Broadcast(event string, data interface{}) {
	h.emit(event, data, func() []*client {
		targets := make([]*client, 0, len(h.clients))
		for c := range h.clients {
			targets = append(targets, c)
		}
		return targets
	})
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.users[userID]
	return ok
}

// OnlineUsers returns the registered user ids in ascending order.
func (h *Hub) OnlineUsers() []int64 {
	h.mu.RLock()
	ids := make([]int64, 0, len(h.users))
	for id := range h.users {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Shutdown closes every client and waits for their pumps to exit.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		for c := range h.clients {
			h.remove(c)
		}
		h.users = make(map[int64]*client)
	}
	h.mu.Unlock()
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for clients")
	}
}
