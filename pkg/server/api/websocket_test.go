package api

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrathCole/zentro-oracle/pkg/logging"
	"github.com/StrathCole/zentro-oracle/pkg/oracle"
	"github.com/StrathCole/zentro-oracle/pkg/oracle/feed"
)

// fakeSubscriber records feed subscriptions made by WebSocket clients.
type fakeSubscriber struct {
	mu   sync.Mutex
	subs map[string]feed.Callback
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{subs: make(map[string]feed.Callback)}
}

func (f *fakeSubscriber) Address() string { return testAccount }

func (f *fakeSubscriber) Subscribe(id string, cb feed.Callback) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[id] = cb
}

func (f *fakeSubscriber) Unsubscribe(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, id)
}

func (f *fakeSubscriber) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeSubscriber) push(q oracle.Quote) {
	f.mu.Lock()
	cbs := make([]feed.Callback, 0, len(f.subs))
	for _, cb := range f.subs {
		cbs = append(cbs, cb)
	}
	f.mu.Unlock()
	for _, cb := range cbs {
		cb(q)
	}
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readJSON[T any](t *testing.T, conn *websocket.Conn) T {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var out T
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func TestNewWebSocketServer(t *testing.T) {
	_, err := NewWebSocketServer(":0", nil, nil)
	require.ErrorIs(t, err, ErrSubscriberRequired)
}

func TestWebSocket_StreamsQuotes(t *testing.T) {
	subs := newFakeSubscriber()
	ws, err := NewWebSocketServer(":0", subs, logging.NewNoopLogger())
	require.NoError(t, err)
	srv := httptest.NewServer(ws.Handler())
	defer srv.Close()

	conn := dialWS(t, srv)

	hello := readJSON[ControlMessage](t, conn)
	assert.Equal(t, "connected", hello.Type)
	assert.NotEmpty(t, hello.ClientID)

	require.Eventually(t, func() bool { return subs.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, ws.ClientCount())

	q := oracle.Quote{Price: 0.62, Timestamp: 1_700_000_000_000, Confidence: 0.9, Status: oracle.StatusActive}
	subs.push(q)

	update := readJSON[QuoteUpdateMessage](t, conn)
	assert.Equal(t, "quote_update", update.Type)
	assert.Equal(t, testAccount, update.Account)
	assert.Equal(t, q, update.Quote)
}

func TestWebSocket_ClientMessages(t *testing.T) {
	subs := newFakeSubscriber()
	ws, err := NewWebSocketServer(":0", subs, logging.NewNoopLogger())
	require.NoError(t, err)
	srv := httptest.NewServer(ws.Handler())
	defer srv.Close()

	conn := dialWS(t, srv)
	_ = readJSON[ControlMessage](t, conn)

	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: "ping"}))
	assert.Equal(t, "pong", readJSON[ControlMessage](t, conn).Type)

	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: "unsubscribe"}))
	msg := readJSON[ControlMessage](t, conn)
	assert.Equal(t, "unsubscribed", msg.Type)
	require.NotNil(t, msg.Subscribed)
	assert.False(t, *msg.Subscribed)
	assert.Equal(t, 0, subs.count())

	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: "subscribe"}))
	msg = readJSON[ControlMessage](t, conn)
	assert.Equal(t, "subscribed", msg.Type)
	assert.Equal(t, 1, subs.count())
}

func TestWebSocket_DisconnectUnsubscribes(t *testing.T) {
	subs := newFakeSubscriber()
	ws, err := NewWebSocketServer(":0", subs, logging.NewNoopLogger())
	require.NoError(t, err)
	srv := httptest.NewServer(ws.Handler())
	defer srv.Close()

	conn := dialWS(t, srv)
	_ = readJSON[ControlMessage](t, conn)
	require.Eventually(t, func() bool { return subs.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return subs.count() == 0 && ws.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
