package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/audit-logger/backend/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LogRepo struct {
	pool *pgxpool.Pool
}

func NewLogRepo(pool *pgxpool.Pool) *LogRepo {
	return &LogRepo{pool: pool}
}

func (r *LogRepo) Append(ctx context.Context, l *models.LogRecord) error {
	newData, err := encodeDocument(l.NewData)
	if err != nil {
		return fmt.Errorf("encode newData: %w", err)
	}

	return r.pool.QueryRow(ctx, `
		INSERT INTO logs (created_by, type, action, unicode, description, object, new_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, l.CreatedBy, l.Type, l.Action, l.Unicode, l.Description, l.Object, newData, l.CreatedAt,
	).Scan(&l.ID)
}

func (r *LogRepo) Find(ctx context.Context, q models.LogQuery) ([]models.LogRecord, error) {
	where, args := buildLogWhere(q.Predicate)
	argIdx := len(args) + 1

	// id only makes the SQL output stable; ties on created_at have no defined order.
	query := `
		SELECT id, created_by, type, action, unicode, description, object, new_data, created_at
		FROM logs` + where + fmt.Sprintf(`
		ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.LogRecord{}
	for rows.Next() {
		var (
			l       models.LogRecord
			newData []byte
		)
		if err := rows.Scan(&l.ID, &l.CreatedBy, &l.Type, &l.Action, &l.Unicode,
			&l.Description, &l.Object, &newData, &l.CreatedAt); err != nil {
			return nil, err
		}
		if l.NewData, err = decodeDocument(newData); err != nil {
			return nil, fmt.Errorf("decode newData of log %s: %w", l.ID, err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *LogRepo) Count(ctx context.Context, p models.LogPredicate) (int64, error) {
	where, args := buildLogWhere(p)

	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM logs`+where, args...).Scan(&n)
	return n, err
}

// buildLogWhere renders the predicate as a WHERE clause with positional args
// starting at $1. It returns an empty clause for an empty predicate.
func buildLogWhere(p models.LogPredicate) (string, []any) {
	args := []any{}
	if p.IsEmpty() {
		return "", args
	}
	where := []string{}

	if p.CreatedFrom != nil {
		args = append(args, *p.CreatedFrom)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if p.CreatedTo != nil {
		args = append(args, *p.CreatedTo)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if p.CreatedBy != nil {
		args = append(args, *p.CreatedBy)
		where = append(where, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if p.Action != nil {
		args = append(args, *p.Action)
		where = append(where, fmt.Sprintf("action = $%d", len(args)))
	}

	return " WHERE " + strings.Join(where, " AND "), args
}

// pgx passes []byte to jsonb verbatim, so documents are marshalled here rather
// than letting a bare Go string be mistaken for raw JSON.
func encodeDocument(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func decodeDocument(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
