package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/chat"
	"github.com/sigenerus/sigenerus/core/member"
	inmemdb "github.com/sigenerus/sigenerus/storage/database/inmem"
	testutil "github.com/sigenerus/sigenerus/tests"
)

func TestMain(m *testing.M) {
	// rollbar-go starts its async transport when the package loads.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("github.com/rollbar/rollbar-go.NewAsyncTransport.func1"))
}

var testConf = core.RealtimeConfig{
	WriteTimeout:   time.Second,
	PongTimeout:    time.Minute,
	PingPeriod:     50 * time.Second,
	SendBuffer:     16,
	MaxMessageSize: 64 * 1024,
}

type fixture struct {
	hub   *Hub
	chat  *chat.Service
	url   string
	ahmad member.Member
	budi  member.Member
	siti  member.Member
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	env := testutil.NewEnv()
	r := env.CreateRegion(t, "Jakarta Barat", "Kalideres", "Kamal")
	remaja := env.CreateJenjang(t, "Remaja")

	hub := NewHub(testConf, testutil.NewLogger(), nil)
	svc := chat.NewService(nil, inmemdb.NewChatRepository(env.DB), env.Members, hub, env.Validate)
	hub.SetChat(svc)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.URL.Query().Get("uid"), 10, 64)
		if err := hub.Serve(w, r, id); err == ErrHubClosed {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, hub.Shutdown(ctx))
	})

	return &fixture{
		hub:   hub,
		chat:  svc,
		url:   "ws" + strings.TrimPrefix(srv.URL, "http"),
		ahmad: env.CreateGenerus(t, "Ahmad", r, remaja.ID),
		budi:  env.CreateGenerus(t, "Budi", r, remaja.ID),
		siti:  env.CreateGenerus(t, "Siti", r, remaja.ID),
	}
}

type testConn struct {
	*websocket.Conn
	t *testing.T
}

// connect dials the hub as userID and waits until the user is online.
func (f *fixture) connect(t *testing.T, userID int64) *testConn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.url+"/?uid="+strconv.FormatInt(userID, 10), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return f.hub.IsOnline(userID) }, 2*time.Second, 10*time.Millisecond)
	return &testConn{Conn: conn, t: t}
}

func (tc *testConn) send(event string, data interface{}) {
	tc.t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(tc.t, err)
	require.NoError(tc.t, tc.WriteJSON(Envelope{Event: event, Data: raw}))
}

// expect skips frames until event arrives and decodes its data into v.
func (tc *testConn) expect(event string, v interface{}) {
	tc.t.Helper()
	require.NoError(tc.t, tc.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var env Envelope
		require.NoError(tc.t, tc.ReadJSON(&env), "waiting for %s", event)
		if env.Event != event {
			continue
		}
		if v != nil {
			require.NoError(tc.t, json.Unmarshal(env.Data, v))
		}
		return
	}
}

func (f *fixture) roomSize(room string) int {
	f.hub.mu.RLock()
	defer f.hub.mu.RUnlock()
	return len(f.hub.rooms[room])
}

func (f *fixture) clientCount() int {
	f.hub.mu.RLock()
	defer f.hub.mu.RUnlock()
	return len(f.hub.clients)
}

func TestHub_presence(t *testing.T) {
	f := newFixture(t)

	ahmad := f.connect(t, f.ahmad.ID)
	budi := f.connect(t, f.budi.ID)

	// a client hears its own registration too
	var status UserStatus
	var heard []int64
	for i := 0; i < 2; i++ {
		ahmad.expect(EventUserOnline, &status)
		heard = append(heard, status.UserID)
	}
	assert.ElementsMatch(t, []int64{f.ahmad.ID, f.budi.ID}, heard)
	budi.expect(EventUserOnline, &status)
	assert.Equal(t, f.budi.ID, status.UserID)
	assert.Equal(t, []int64{f.ahmad.ID, f.budi.ID}, f.hub.OnlineUsers())

	require.NoError(t, budi.Close())
	ahmad.expect(EventUserOffline, &status)
	assert.Equal(t, f.budi.ID, status.UserID)
	assert.False(t, f.hub.IsOnline(f.budi.ID))
	assert.Equal(t, []int64{f.ahmad.ID}, f.hub.OnlineUsers())
}

func TestHub_lastRegistrationWins(t *testing.T) {
	f := newFixture(t)

	first := f.connect(t, f.ahmad.ID)
	second := f.connect(t, f.ahmad.ID)
	require.Eventually(t, func() bool { return f.clientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, first.Close())
	require.Eventually(t, func() bool { return f.clientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, f.hub.IsOnline(f.ahmad.ID))

	f.hub.EmitToUser(f.ahmad.ID, chat.EventNewGroup, map[string]string{"id": "g1"})
	var got map[string]string
	second.expect(chat.EventNewGroup, &got)
	assert.Equal(t, "g1", got["id"])
}

func TestHub_rooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	conv, _, err := f.chat.CreatePrivate(ctx, f.ahmad.ID, f.budi.ID)
	require.NoError(t, err)
	room := chat.Room(conv.ID)

	ahmad := f.connect(t, f.ahmad.ID)
	budi := f.connect(t, f.budi.ID)
	siti := f.connect(t, f.siti.ID)

	t.Run("non participant cannot join", func(t *testing.T) {
		siti.send(EventJoinRoom, roomPayload{ConversationID: conv.ID})
		var got ErrorPayload
		siti.expect(EventError, &got)
		assert.Equal(t, EventJoinRoom, got.Event)
		assert.Equal(t, "not a participant of this conversation", got.Message)
	})

	ahmad.send(EventJoinRoom, roomPayload{ConversationID: conv.ID})
	budi.send(EventJoinRoom, roomPayload{ConversationID: conv.ID})
	require.Eventually(t, func() bool { return f.roomSize(room) == 2 }, 2*time.Second, 10*time.Millisecond)

	t.Run("send message", func(t *testing.T) {
		ahmad.send(EventSendMessage, chat.NewMessage{ConversationID: conv.ID, Content: "Assalamualaikum"})

		var msg chat.Message
		budi.expect(chat.EventReceiveMessage, &msg)
		assert.Equal(t, "Assalamualaikum", msg.Content.String)
		assert.Equal(t, f.ahmad.ID, msg.SenderID)

		var update chat.ChatListUpdate
		budi.expect(chat.EventChatListUpdate, &update)
		assert.Equal(t, conv.ID, update.ConversationID)

		ahmad.expect(chat.EventReceiveMessage, &msg)
	})

	t.Run("typing", func(t *testing.T) {
		ahmad.send(EventTypingStart, roomPayload{ConversationID: conv.ID})
		var typing UserTyping
		budi.expect(EventUserTyping, &typing)
		assert.Equal(t, UserTyping{ConversationID: conv.ID, UserID: f.ahmad.ID, IsTyping: true}, typing)

		ahmad.send(EventTypingStop, roomPayload{ConversationID: conv.ID})
		budi.expect(EventUserTyping, &typing)
		assert.False(t, typing.IsTyping)
	})

	t.Run("mark read", func(t *testing.T) {
		budi.send(EventMarkRead, roomPayload{ConversationID: conv.ID})
		var read chat.MessagesRead
		ahmad.expect(chat.EventMessagesRead, &read)
		assert.Equal(t, conv.ID, read.ConversationID)
		assert.Equal(t, f.budi.ID, read.UserID)
	})

	t.Run("leave", func(t *testing.T) {
		budi.send(EventLeaveRoom, roomPayload{ConversationID: conv.ID})
		require.Eventually(t, func() bool { return f.roomSize(room) == 1 }, 2*time.Second, 10*time.Millisecond)
	})
}

func TestHub_errors(t *testing.T) {
	f := newFixture(t)
	conv, _, err := f.chat.CreatePrivate(context.Background(), f.ahmad.ID, f.budi.ID)
	require.NoError(t, err)

	ahmad := f.connect(t, f.ahmad.ID)

	tests := []struct {
		name    string
		event   string
		data    interface{}
		wantMsg string
	}{
		{name: "unknown event", event: "shout", data: nil, wantMsg: "unknown event"},
		{name: "register another user", event: EventRegisterUser, data: UserStatus{UserID: f.budi.ID}, wantMsg: "userId does not match the authenticated user"},
		{name: "join without conversation", event: EventJoinRoom, data: map[string]string{}, wantMsg: "conversationId is required"},
		{name: "typing outside room", event: EventTypingStart, data: roomPayload{ConversationID: conv.ID}, wantMsg: "join the conversation first"},
		{name: "empty message", event: EventSendMessage, data: chat.NewMessage{ConversationID: conv.ID}, wantMsg: "content or at least one attachment is required"},
		{name: "message to foreign conversation", event: EventSendMessage, data: chat.NewMessage{ConversationID: "nope", Content: "hi"}, wantMsg: chat.ErrNotParticipant.Error()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ahmad.send(tc.event, tc.data)
			var got ErrorPayload
			ahmad.expect(EventError, &got)
			assert.Equal(t, tc.event, got.Event)
			assert.Equal(t, tc.wantMsg, got.Message)
		})
	}

	t.Run("malformed frame", func(t *testing.T) {
		require.NoError(t, ahmad.WriteMessage(websocket.TextMessage, []byte("{")))
		var got ErrorPayload
		ahmad.expect(EventError, &got)
		assert.Equal(t, "malformed message", got.Message)
	})
}

func TestHub_slowClientIsDropped(t *testing.T) {
	hub := NewHub(testConf, testutil.NewLogger(), nil)
	c := &client{hub: hub, userID: 9, send: make(chan []byte, 1), rooms: make(map[string]struct{})}
	require.True(t, hub.add(c))
	hub.register(c)
	online, ok := <-c.send
	require.True(t, ok)
	assert.JSONEq(t, `{"event":"user_online","data":{"userId":9}}`, string(online))
	hub.join(c, chat.Room("c1"))
	require.True(t, hub.IsOnline(9))

	hub.EmitToConversation("c1", chat.EventReceiveMessage, "first")
	hub.EmitToConversation("c1", chat.EventReceiveMessage, "second")

	assert.False(t, hub.IsOnline(9))
	assert.Empty(t, hub.rooms)
	first, ok := <-c.send
	assert.True(t, ok)
	assert.JSONEq(t, `{"event":"receive_message","data":"first"}`, string(first))
	_, ok = <-c.send
	assert.False(t, ok, "send buffer is closed")
}

func TestHub_ShutdownWaitsForAddedClients(t *testing.T) {
	hub := NewHub(testConf, testutil.NewLogger(), nil)
	c := &client{hub: hub, userID: 9, send: make(chan []byte, 1), rooms: make(map[string]struct{})}
	require.True(t, hub.add(c))

	// the pumps of c are counted as soon as it is added
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, hub.Shutdown(ctx))

	hub.wg.Done()
	hub.wg.Done()
	require.NoError(t, hub.Shutdown(context.Background()))
	assert.False(t, hub.add(c), "a closed hub refuses clients")
}

func TestHub_Shutdown(t *testing.T) {
	f := newFixture(t)
	ahmad := f.connect(t, f.ahmad.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.hub.Shutdown(ctx))
	assert.Empty(t, f.hub.OnlineUsers())

	require.NoError(t, ahmad.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := ahmad.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), err.Error())
			break
		}
	}

	_, resp, err := websocket.DefaultDialer.Dial(f.url+"/?uid=1", nil)
	assert.Equal(t, websocket.ErrBadHandshake, err)
	if resp != nil {
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		_ = resp.Body.Close()
	}
}
