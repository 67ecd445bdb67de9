package repositories

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/audit-logger/backend/internal/models"
	"github.com/google/uuid"
)

// MemoryLogRepo keeps logs in process. It backs tests and STORE_DRIVER=memory.
type MemoryLogRepo struct {
	mu   sync.RWMutex
	logs []models.LogRecord
}

func NewMemoryLogRepo() *MemoryLogRepo {
	return &MemoryLogRepo{}
}

func (r *MemoryLogRepo) Append(ctx context.Context, l *models.LogRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}

	r.mu.Lock()
	r.logs = append(r.logs, *l)
	r.mu.Unlock()
	return nil
}

func (r *MemoryLogRepo) Find(ctx context.Context, q models.LogQuery) ([]models.LogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Offset < 0 || q.Limit < 0 {
		return nil, fmt.Errorf("negative window: limit %d offset %d", q.Limit, q.Offset)
	}

	matched := r.match(q.Predicate)
	slices.SortStableFunc(matched, func(a, b models.LogRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if q.Offset >= len(matched) {
		return []models.LogRecord{}, nil
	}
	end := len(matched)
	// compared as a difference so Offset+Limit cannot overflow
	if q.Limit > 0 && q.Limit < end-q.Offset {
		end = q.Offset + q.Limit
	}
	return matched[q.Offset:end], nil
}

func (r *MemoryLogRepo) Count(ctx context.Context, p models.LogPredicate) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int64(len(r.match(p))), nil
}

func (r *MemoryLogRepo) match(p models.LogPredicate) []models.LogRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.LogRecord{}
	for i := range r.logs {
		if p.Matches(&r.logs[i]) {
			out = append(out, r.logs[i])
		}
	}
	return out
}
