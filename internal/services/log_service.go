package services

import (
	"context"
	"time"

	"github.com/audit-logger/backend/internal/events"
	"github.com/audit-logger/backend/internal/models"
	"go.uber.org/zap"
)

// LogStore is the persistence contract the log service needs. Find must
// return records ordered by created_at descending.
type LogStore interface {
	Append(ctx context.Context, l *models.LogRecord) error
	Find(ctx context.Context, q models.LogQuery) ([]models.LogRecord, error)
	Count(ctx context.Context, p models.LogPredicate) (int64, error)
}

// LogInput carries the caller-supplied fields of a new log. There is no
// CreatedAt: the server clock is authoritative.
type LogInput struct {
	CreatedBy   string
	Type        string
	Action      string
	Unicode     string
	Description string
	Object      string
	NewData     any
}

type LogPage struct {
	Logs       []models.LogRecord `json:"logs"`
	TotalCount int64              `json:"totalCount"`
}

type LogService struct {
	store     LogStore
	publisher events.Publisher
	channel   string
	now       func() time.Time
	log       *zap.Logger
}

func NewLogService(store LogStore, publisher events.Publisher, channel string, log *zap.Logger) *LogService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &LogService{
		store:     store,
		publisher: publisher,
		channel:   channel,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log,
	}
}

func (s *LogService) CreateLog(ctx context.Context, in LogInput) (*models.LogRecord, error) {
	if in.Action == "" {
		return nil, &ValidationError{Field: "action", Message: "is required"}
	}

	l := &models.LogRecord{
		CreatedBy:   in.CreatedBy,
		Type:        in.Type,
		Action:      in.Action,
		Unicode:     in.Unicode,
		Description: in.Description,
		Object:      in.Object,
		NewData:     in.NewData,
		CreatedAt:   s.now(),
	}

	if err := s.store.Append(ctx, l); err != nil {
		s.log.Error("append log failed", zap.String("action", l.Action), zap.Error(err))
		return nil, &StoreError{Op: "append", Err: err}
	}

	s.log.Debug("log created",
		zap.String("id", l.ID.String()),
		zap.String("created_by", l.CreatedBy),
		zap.String("action", l.Action),
	)

	// The log is already stored; a lost notification must not fail the request.
	if err := s.publisher.Publish(ctx, s.channel, events.Event{
		Type:    events.EventLogCreated,
		Payload: map[string]any{events.PayloadLog: l},
	}); err != nil {
		s.log.Warn("publish log_created failed", zap.String("id", l.ID.String()), zap.Error(err))
	}

	return l, nil
}

func (s *LogService) QueryLogs(ctx context.Context, f models.LogFilter) (*LogPage, error) {
	q := models.CompileLogFilter(f)

	logs, err := s.store.Find(ctx, q)
	if err != nil {
		s.log.Error("find logs failed", zap.Error(err))
		return nil, &StoreError{Op: "find", Err: err}
	}

	total, err := s.store.Count(ctx, q.Predicate)
	if err != nil {
		s.log.Error("count logs failed", zap.Error(err))
		return nil, &StoreError{Op: "count", Err: err}
	}

	if logs == nil {
		logs = []models.LogRecord{}
	}
	return &LogPage{Logs: logs, TotalCount: total}, nil
}
