package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/audit-logger/backend/internal/config"
	"github.com/audit-logger/backend/internal/db"
	"github.com/audit-logger/backend/internal/events"
	"github.com/audit-logger/backend/internal/models"
	"go.uber.org/zap"
)

// Log forwarder: subscribes to log_created events and POSTs each record to
// FORWARD_WEBHOOK_URL.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	if cfg.ForwardWebhookURL == "" {
		log.Fatal("FORWARD_WEBHOOK_URL is required")
	}
	if !cfg.RedisEnabled() {
		log.Fatal("REDIS_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	f := &forwarder{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}

	subscriber := events.NewRedisSubscriber(rdb, log)
	if err := subscriber.Subscribe(ctx, cfg.EventsChannel, func(event events.Event) {
		f.handle(ctx, event)
	}); err != nil {
		log.Fatal("failed to subscribe", zap.String("channel", cfg.EventsChannel), zap.Error(err))
	}

	log.Info("log-forwarder started",
		zap.String("channel", cfg.EventsChannel),
		zap.Strings("actions", cfg.ForwardActions),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down log-forwarder")
	cancel()
}

type forwarder struct {
	cfg    *config.Config
	client *http.Client
	log    *zap.Logger
}

func (f *forwarder) handle(ctx context.Context, event events.Event) {
	if event.Type != events.EventLogCreated {
		return
	}

	var l models.LogRecord
	if err := event.Decode(events.PayloadLog, &l); err != nil {
		f.log.Warn("bad log_created payload", zap.Error(err))
		return
	}
	if !f.cfg.ShouldForward(l.Action) {
		return
	}

	body, err := json.Marshal(l)
	if err != nil {
		f.log.Warn("failed to encode log", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.ForwardWebhookURL, bytes.NewReader(body))
	if err != nil {
		f.log.Error("bad webhook request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.Warn("failed to forward log", zap.String("id", l.ID.String()), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.log.Warn("webhook returned non-2xx",
			zap.String("id", l.ID.String()),
			zap.Int("status", resp.StatusCode),
		)
		return
	}
	f.log.Debug("log forwarded", zap.String("id", l.ID.String()), zap.String("action", l.Action))
}
