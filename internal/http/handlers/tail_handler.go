package handlers

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/audit-logger/backend/internal/events"
	"github.com/audit-logger/backend/internal/models"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// tailConn is the part of *websocket.Conn the hub writes to.
type tailConn interface {
	WriteMessage(messageType int, data []byte) error
}

// TailHub streams newly created logs to websocket clients. Each client gets a
// predicate from its ?action= and ?userId= query params.
type TailHub struct {
	subscriber events.Subscriber
	channel    string
	log        *zap.Logger
	mu         sync.RWMutex
	conns      map[tailConn]models.LogPredicate
}

func NewTailHub(subscriber events.Subscriber, channel string, log *zap.Logger) *TailHub {
	return &TailHub{
		subscriber: subscriber,
		channel:    channel,
		log:        log,
		conns:      make(map[tailConn]models.LogPredicate),
	}
}

// Start subscribes to the events channel. Without a subscriber the hub accepts
// connections but never sends anything.
func (h *TailHub) Start(ctx context.Context) error {
	if h.subscriber == nil {
		h.log.Info("live tail disabled, no event subscriber")
		return nil
	}
	return h.subscriber.Subscribe(ctx, h.channel, h.handleEvent)
}

func (h *TailHub) handleEvent(event events.Event) {
	if event.Type != events.EventLogCreated {
		return
	}
	var l models.LogRecord
	if err := event.Decode(events.PayloadLog, &l); err != nil {
		h.log.Warn("bad log_created payload", zap.Error(err))
		return
	}
	h.broadcast(&l)
}

func (h *TailHub) broadcast(l *models.LogRecord) {
	data, err := json.Marshal(l)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn, p := range h.conns {
		if !p.Matches(l) {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("tail write failed", zap.Error(err))
		}
	}
}

func (h *TailHub) register(conn tailConn, p models.LogPredicate) {
	h.mu.Lock()
	h.conns[conn] = p
	h.mu.Unlock()
}

func (h *TailHub) unregister(conn tailConn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// tailPredicate builds the per-connection filter. Time bounds make no sense
// for a live stream and are not accepted.
func tailPredicate(userID, action string) models.LogPredicate {
	return models.CompileLogFilter(models.LogFilter{
		CreatedBy: strings.TrimSpace(userID),
		Action:    strings.TrimSpace(action),
	}).Predicate
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *TailHub) HandleWS(conn *websocket.Conn) {
	h.register(conn, tailPredicate(conn.Query("userId"), conn.Query("action")))
	defer func() {
		h.unregister(conn)
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
