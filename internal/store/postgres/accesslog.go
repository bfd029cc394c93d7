package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/eaglesec/eagle-access/internal/store"
)

// AccessLogRepository provides PostgreSQL-backed append-only decision
// history.
type AccessLogRepository struct {
	pool *Pool
}

// NewAccessLogRepository creates a new PostgreSQL access log repository.
func NewAccessLogRepository(pool *Pool) *AccessLogRepository {
	return &AccessLogRepository{pool: pool}
}

// Append records one access decision.
func (r *AccessLogRepository) Append(ctx context.Context, decision store.AccessDecision) error {
	var scores []byte
	if len(decision.Scores) > 0 {
		var err error
		scores, err = json.Marshal(decision.Scores)
		if err != nil {
			return fmt.Errorf("marshal scores: %w", err)
		}
	}

	var errField sql.NullString
	if decision.Error != "" {
		errField = sql.NullString{String: decision.Error, Valid: true}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO access_log (status, name, confidence, scores, error, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, decision.Status, decision.Name, decision.Confidence, scores, errField, decision.Time)
	if err != nil {
		return fmt.Errorf("insert access log entry: %w", err)
	}
	return nil
}

// All returns every recorded decision in insertion order.
func (r *AccessLogRepository) All(ctx context.Context) ([]store.AccessDecision, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, name, confidence, scores, error, occurred_at
		FROM access_log
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query access log: %w", err)
	}
	defer rows.Close()

	var entries []store.AccessDecision
	for rows.Next() {
		var d store.AccessDecision
		var scores []byte
		var errField sql.NullString
		if err := rows.Scan(&d.Status, &d.Name, &d.Confidence, &scores, &errField, &d.Time); err != nil {
			return nil, fmt.Errorf("scan access log entry: %w", err)
		}
		if len(scores) > 0 {
			if err := json.Unmarshal(scores, &d.Scores); err != nil {
				return nil, fmt.Errorf("unmarshal scores: %w", err)
			}
		}
		d.Error = errField.String
		entries = append(entries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access log: %w", err)
	}
	return entries, nil
}

var _ store.AccessLogRepository = (*AccessLogRepository)(nil)
