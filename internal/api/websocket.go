package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/audit"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/infrastructure/config"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/infrastructure/logging"
)

// WebSocket constants.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"

	// wsSendBufferSize is the per-client outbound message buffer size.
	wsSendBufferSize = 256
)

// Channels a client can subscribe to. ChannelAuditEvents carries every
// event; "audit.event.<TYPE>" carries one event type.
const (
	ChannelAuditEvents     = "audit.event"
	channelAuditTypePrefix = "audit.event."
)

// WSMessage represents a message sent to/from a WebSocket client.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload is the payload for subscribe/unsubscribe messages.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// Hub tracks audit stream subscribers and fans security events out to them.
// It implements audit.EventStream.
type Hub struct {
	cfg         config.WebSocketConfig
	logger      *logging.Logger
	subscribers map[*subscriber]struct{}
	mu          sync.RWMutex
	dropped     atomic.Int64
}

// subscriber is one dashboard connection following the audit stream.
type subscriber struct {
	hub      *Hub
	conn     *websocket.Conn
	outbox   chan []byte
	channels map[string]struct{}
	mu       sync.RWMutex
	remote   string
}

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Callers must already hold the API key; origin adds nothing.
		return true
	},
}

// WebSocket defaults for unset config values.
const (
	defaultWSMaxMessageSize = 8192
	defaultWSPingInterval   = 30
	defaultWSPongTimeout    = 10
)

// NewHub creates an audit stream hub. Zero config values take defaults.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultWSMaxMessageSize
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultWSPingInterval
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = defaultWSPongTimeout
	}
	return &Hub{
		cfg:         cfg,
		logger:      logger.With("component", "audit-stream"),
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every subscriber.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.disconnectAll()
}

func (h *Hub) attach(sub *subscriber) {
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	n := len(h.subscribers)
	h.mu.Unlock()
	h.logger.Debug("audit stream subscriber attached", "remote", sub.remote, "subscribers", n)
}

// detach removes sub. Only the call that removes it closes its outbox, so
// repeated detaches and shutdown can race safely.
func (h *Hub) detach(sub *subscriber) {
	h.mu.Lock()
	_, attached := h.subscribers[sub]
	delete(h.subscribers, sub)
	n := len(h.subscribers)
	h.mu.Unlock()

	if attached {
		close(sub.outbox)
		h.logger.Debug("audit stream subscriber detached", "remote", sub.remote, "subscribers", n)
	}
}

// PublishEvent implements audit.EventStream.
func (h *Hub) PublishEvent(e audit.Event) {
	h.Broadcast(e.Type, e, ChannelAuditEvents, channelAuditTypePrefix+e.Type)
}

// Broadcast sends payload to every subscriber following any of channels.
// The hub lock is released before subscriber locks are taken.
func (h *Hub) Broadcast(eventType string, payload any, channels ...string) {
	data, err := json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		EventType: eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("encoding audit event for stream", "event_type", eventType, "error", err)
		return
	}

	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		if !sub.follows(channels...) {
			continue
		}
		if sub.offer(data) {
			delivered++
		} else {
			h.dropped.Add(1)
			h.logger.Warn("audit stream subscriber too slow, event dropped", "remote", sub.remote, "event_type", eventType)
		}
	}
	if delivered > 0 {
		h.logger.Debug("audit event streamed", "event_type", eventType, "subscribers", delivered)
	}
}

// ClientCount returns the number of attached subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Dropped returns how many events were skipped for subscribers whose outbox
// was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

func (h *Hub) disconnectAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		close(sub.outbox)
		if sub.conn != nil {
			sub.conn.Close()
		}
		delete(h.subscribers, sub)
	}
}

// handleWebSocket upgrades the connection after checking the API key in a
// header or the api_key query parameter.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	key := presentedKey(r)
	if key == "" {
		key = r.URL.Query().Get("api_key")
	}
	if !s.verifier.Verify(key) {
		s.rejectUnauthorized(w, r)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("audit stream upgrade failed", "remote", clientIP(r), "error", err)
		return
	}

	sub := &subscriber{
		hub:      s.hub,
		conn:     conn,
		outbox:   make(chan []byte, wsSendBufferSize),
		channels: make(map[string]struct{}),
		remote:   clientIP(r),
	}
	s.hub.attach(sub)

	go sub.deliver()
	go sub.listen()
}

// keepalive returns the ping period and the time allowed for a pong.
func (h *Hub) keepalive() (ping, pong time.Duration) {
	return time.Duration(h.cfg.PingInterval) * time.Second, time.Duration(h.cfg.PongTimeout) * time.Second
}

// listen reads subscription requests until the dashboard goes away.
func (sub *subscriber) listen() {
	defer func() {
		sub.hub.detach(sub)
		sub.conn.Close()
	}()

	ping, pong := sub.hub.keepalive()
	extend := func() error {
		return sub.conn.SetReadDeadline(time.Now().Add(ping + pong))
	}

	sub.conn.SetReadLimit(int64(sub.hub.cfg.MaxMessageSize))
	extend() //nolint:errcheck // read error surfaces below
	sub.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := sub.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				sub.hub.logger.Warn("audit stream read failed", "remote", sub.remote, "error", err)
			}
			return
		}
		extend() //nolint:errcheck // read error surfaces on next read
		sub.handle(data)
	}
}

// deliver writes queued audit events and keepalive pings. It exits when the
// outbox is closed or a write fails.
func (sub *subscriber) deliver() {
	ping, pong := sub.hub.keepalive()
	ticker := time.NewTicker(ping)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	write := func(kind int, data []byte) error {
		sub.conn.SetWriteDeadline(time.Now().Add(pong)) //nolint:errcheck // write error caught by caller
		return sub.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case data, open := <-sub.outbox:
			if !open {
				write(websocket.CloseMessage, nil) //nolint:errcheck // connection is going away
				return
			}
			if err := write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handle answers one message from the dashboard.
func (sub *subscriber) handle(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		sub.reject("", "invalid JSON message")
		return
	}

	switch msg.Type {
	case WSTypeSubscribe:
		sub.follow(msg, true)
	case WSTypeUnsubscribe:
		sub.follow(msg, false)
	case WSTypePing:
		sub.reply(msg.ID, WSTypePong, nil)
	default:
		sub.reject(msg.ID, "unknown message type: "+msg.Type)
	}
}

// follow adds or removes the audit channels named in msg.
func (sub *subscriber) follow(msg WSMessage, add bool) {
	raw, err := json.Marshal(msg.Payload)
	if err != nil {
		sub.reject(msg.ID, "invalid payload")
		return
	}
	var req WSSubscribePayload
	if err := json.Unmarshal(raw, &req); err != nil {
		sub.reject(msg.ID, "invalid "+msg.Type+" payload")
		return
	}

	for _, ch := range req.Channels {
		if ch != ChannelAuditEvents && !strings.HasPrefix(ch, channelAuditTypePrefix) {
			sub.reject(msg.ID, "unknown channel: "+ch)
			return
		}
	}

	sub.mu.Lock()
	for _, ch := range req.Channels {
		if add {
			sub.channels[ch] = struct{}{}
		} else {
			delete(sub.channels, ch)
		}
	}
	sub.mu.Unlock()

	key := "unsubscribed"
	if add {
		key = "subscribed"
		sub.hub.logger.Info("audit stream subscription", "remote", sub.remote, "channels", req.Channels)
	}
	sub.reply(msg.ID, WSTypeResponse, map[string]any{key: req.Channels})
}

// offer queues data without blocking. It reports false when the outbox is
// full. A send on an outbox closed by a concurrent detach is absorbed.
func (sub *subscriber) offer(data []byte) (queued bool) {
	defer func() {
		if recover() != nil {
			queued = true
		}
	}()

	select {
	case sub.outbox <- data:
		return true
	default:
		return false
	}
}

// follows reports whether sub is subscribed to any of channels.
func (sub *subscriber) follows(channels ...string) bool {
	sub.mu.RLock()
	defer sub.mu.RUnlock()
	for _, ch := range channels {
		if _, ok := sub.channels[ch]; ok {
			return true
		}
	}
	return false
}

func (sub *subscriber) reply(id, msgType string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		return
	}
	sub.offer(data)
}

func (sub *subscriber) reject(id, message string) {
	sub.reply(id, WSTypeError, map[string]string{"message": message})
}
