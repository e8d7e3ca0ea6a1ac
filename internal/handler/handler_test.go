package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/internal/app/avatar"
	"chatrelay/internal/app/chat"
	"chatrelay/internal/app/user"
	"chatrelay/internal/configs"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &configs.AppConfig{
		Environment:    "development",
		Port:           8080,
		ReplayHistory:  true,
		AllowedOrigins: []string{},
	}

	hub := chat.NewHub(avatar.NewRandomImage("https://img.example"), cfg.ReplayHistory)
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	srv := httptest.NewServer(Router(&AppDeps{Config: cfg, Hub: hub}))
	t.Cleanup(srv.Close)

	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env chat.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env.Event, env.Payload
}

func expectEvent(t *testing.T, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()

	got, payload := readFrame(t, conn)
	require.Equal(t, event, got)
	return payload
}

func TestRouter_HealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Code int `json:"code"`
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 0, body.Code)
	assert.Equal(t, "ok", body.Data.Status)
}

func TestWebSocket_JoinAndPrivateMessageFlow(t *testing.T) {
	srv := newTestServer(t)

	// First connection joins as Alice.
	alice := dial(t, srv)
	expectEvent(t, alice, chat.EventMessages)

	require.NoError(t, alice.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"join","payload":{"name":"Alice"}}`)))

	var aliceUser user.User
	require.NoError(t, json.Unmarshal(expectEvent(t, alice, chat.EventJoin), &aliceUser))
	assert.Equal(t, "Alice", aliceUser.Name)
	assert.NotEmpty(t, aliceUser.ID)
	assert.NotEmpty(t, aliceUser.Avatar)

	var roster []user.User
	require.NoError(t, json.Unmarshal(expectEvent(t, alice, chat.EventUsers), &roster))
	require.Len(t, roster, 1)

	// Second connection joins anonymously.
	bob := dial(t, srv)
	expectEvent(t, alice, chat.EventJoin) // courtesy notice
	expectEvent(t, bob, chat.EventMessages)

	require.NoError(t, bob.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"join","payload":{}}`)))

	var bobUser user.User
	require.NoError(t, json.Unmarshal(expectEvent(t, bob, chat.EventJoin), &bobUser))
	assert.Equal(t, user.AnonymousName, bobUser.Name)

	require.NoError(t, json.Unmarshal(expectEvent(t, alice, chat.EventUsers), &roster))
	require.Len(t, roster, 2)
	expectEvent(t, bob, chat.EventUsers)

	// Broadcast message reaches both, sender included.
	require.NoError(t, alice.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"message","payload":{"from":{"id":"`+aliceUser.ID+`","name":"Alice"},"content":"hi"}}`)))

	for _, conn := range []*websocket.Conn{alice, bob} {
		var msg chat.ChatMessage
		require.NoError(t, json.Unmarshal(expectEvent(t, conn, chat.EventMessage), &msg))
		assert.Equal(t, "hi", msg.Content)
	}

	// Private message is delivered to Bob only.
	require.NoError(t, alice.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"privateMessage","payload":{"targetIdentity":"`+bobUser.ID+`","message":{"from":{"id":"`+aliceUser.ID+`","name":"Alice"},"content":"psst"}}}`)))

	var private chat.ChatMessage
	require.NoError(t, json.Unmarshal(expectEvent(t, bob, chat.EventPrivateMessage), &private))
	assert.Equal(t, "psst", private.Content)

	// Bob disconnecting shrinks the roster broadcast to Alice.
	require.NoError(t, bob.Close())

	require.NoError(t, json.Unmarshal(expectEvent(t, alice, chat.EventUsers), &roster))
	require.Len(t, roster, 1)
	assert.Equal(t, aliceUser.ID, roster[0].ID)
}

func TestWebSocket_RenameUpdatesRoster(t *testing.T) {
	srv := newTestServer(t)

	conn := dial(t, srv)
	expectEvent(t, conn, chat.EventMessages)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"join","payload":{}}`)))

	var u user.User
	require.NoError(t, json.Unmarshal(expectEvent(t, conn, chat.EventJoin), &u))
	expectEvent(t, conn, chat.EventUsers)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"rename","payload":{"user":{"id":"`+u.ID+`","name":"Carol"}}}`)))

	var roster []user.User
	require.NoError(t, json.Unmarshal(expectEvent(t, conn, chat.EventUsers), &roster))
	require.Len(t, roster, 1)
	assert.Equal(t, "Carol", roster[0].Name)
}
