package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/StrathCole/zentro-oracle/pkg/logging"
	"github.com/StrathCole/zentro-oracle/pkg/metrics"
	"github.com/StrathCole/zentro-oracle/pkg/oracle"
	"github.com/StrathCole/zentro-oracle/pkg/oracle/feed"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	sendBufferSize = 256
)

// QuoteSubscriber is the subscription surface of a feed.
type QuoteSubscriber interface {
	Address() string
	Subscribe(id string, cb feed.Callback)
	Unsubscribe(id string)
}

// WebSocketServer streams feed quotes to WebSocket clients. Every client is
// subscribed to the feed under its own id.
type WebSocketServer struct {
	addr     string
	feed     QuoteSubscriber
	logger   *logging.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*WebSocketClient

	server *http.Server
}

// WebSocketClient represents a connected WebSocket client.
type WebSocketClient struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	server *WebSocketServer

	mu     sync.Mutex
	closed bool
}

// WebSocketMessage represents a client message.
type WebSocketMessage struct {
	Type string `json:"type"` // "subscribe", "unsubscribe", "ping"
}

// QuoteUpdateMessage is sent to subscribed clients.
type QuoteUpdateMessage struct {
	Type      string       `json:"type"` // "quote_update"
	Account   string       `json:"account"`
	Timestamp string       `json:"timestamp"` // RFC3339 send time
	Quote     oracle.Quote `json:"quote"`
}

// ControlMessage acknowledges connections and client requests.
type ControlMessage struct {
	Type       string `json:"type"`
	ClientID   string `json:"client_id,omitempty"`
	Subscribed *bool  `json:"subscribed,omitempty"`
}

// NewWebSocketServer creates a new WebSocket server.
func NewWebSocketServer(addr string, quotes QuoteSubscriber, logger *logging.Logger) (*WebSocketServer, error) {
	if quotes == nil {
		return nil, ErrSubscriberRequired
	}
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return &WebSocketServer{
		addr:   addr,
		feed:   quotes,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		clients: make(map[string]*WebSocketClient),
	}, nil
}

// Handler returns the HTTP handler serving /ws.
func (s *WebSocketServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start serves WebSocket connections until ctx is cancelled.
func (s *WebSocketServer) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting WebSocket server", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.closeAll()
	return s.server.Shutdown(shutdownCtx)
}

// ClientCount returns the number of connected clients.
func (s *WebSocketServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// handleWebSocket handles new WebSocket connections.
func (s *WebSocketServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := &WebSocketClient{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		server: s,
	}
	s.registerClient(client)
	client.sendControl(ControlMessage{Type: "connected", ClientID: client.id})
	client.subscribe()

	go client.writePump()
	go client.readPump()

	s.logger.Info("New WebSocket client connected", "client", client.id, "remote", conn.RemoteAddr())
}

func (s *WebSocketServer) registerClient(client *WebSocketClient) {
	s.mu.Lock()
	s.clients[client.id] = client
	n := len(s.clients)
	s.mu.Unlock()
	metrics.SetWebSocketClients(n)
}

// unregisterClient removes the client and its feed subscription.
func (s *WebSocketServer) unregisterClient(client *WebSocketClient) {
	s.feed.Unsubscribe(client.id)

	s.mu.Lock()
	_, ok := s.clients[client.id]
	delete(s.clients, client.id)
	n := len(s.clients)
	s.mu.Unlock()

	if ok {
		client.close()
		metrics.SetWebSocketClients(n)
	}
}

func (s *WebSocketServer) closeAll() {
	s.mu.RLock()
	clients := make([]*WebSocketClient, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		s.unregisterClient(c)
	}
}

// close stops the write pump, which closes the connection.
func (c *WebSocketClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// subscribe registers the client with the feed.
func (c *WebSocketClient) subscribe() {
	c.server.feed.Subscribe(c.id, c.pushQuote)
}

// pushQuote runs on the feed's notification goroutine and never blocks.
func (c *WebSocketClient) pushQuote(q oracle.Quote) {
	data, err := json.Marshal(QuoteUpdateMessage{
		Type:      "quote_update",
		Account:   c.server.feed.Address(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Quote:     q,
	})
	if err != nil {
		c.server.logger.Error("Failed to marshal quote update", "error", err)
		return
	}
	c.enqueue(data)
}

func (c *WebSocketClient) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.server.logger.Warn("Client send buffer full, skipping update", "client", c.id)
	}
}

func (c *WebSocketClient) sendControl(msg ControlMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.enqueue(data)
}

// writePump sends messages to the WebSocket connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
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
				c.server.logger.Error("Failed to write message", "client", c.id, "error", err)
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

// readPump reads messages from the WebSocket connection.
func (c *WebSocketClient) readPump() {
	defer c.server.unregisterClient(c)

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Error("WebSocket error", "client", c.id, "error", err)
			}
			return
		}
		c.handleMessage(message)
	}
}

// handleMessage processes client messages.
func (c *WebSocketClient) handleMessage(data []byte) {
	var msg WebSocketMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.server.logger.Warn("Invalid client message", "client", c.id, "error", err)
		return
	}

	switch msg.Type {
	case "subscribe":
		c.subscribe()
		subscribed := true
		c.sendControl(ControlMessage{Type: "subscribed", Subscribed: &subscribed})
	case "unsubscribe":
		c.server.feed.Unsubscribe(c.id)
		subscribed := false
		c.sendControl(ControlMessage{Type: "unsubscribed", Subscribed: &subscribed})
	case "ping":
		c.sendControl(ControlMessage{Type: "pong"})
	default:
		c.server.logger.Warn("Unknown message type", "client", c.id, "type", msg.Type)
	}
}
