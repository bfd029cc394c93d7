package jsonfile

import (
	"context"
	"sync"

	"github.com/eaglesec/eagle-access/internal/store"
)

// AccessLogRepository is the append-only JSON decision log. Insertion order
// is chronological order; entries are never mutated or removed.
type AccessLogRepository struct {
	path string
	mu   sync.Mutex
}

// NewAccessLogRepository creates an access log backed by the given file.
func NewAccessLogRepository(path string) *AccessLogRepository {
	return &AccessLogRepository{path: path}
}

// Append adds one decision to the end of the log.
func (r *AccessLogRepository) Append(ctx context.Context, decision store.AccessDecision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []store.AccessDecision
	if err := readJSON(r.path, &entries); err != nil {
		return err
	}

	entries = append(entries, decision)
	return writeJSON(r.path, entries)
}

// All returns the full history in insertion order.
func (r *AccessLogRepository) All(ctx context.Context) ([]store.AccessDecision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []store.AccessDecision
	if err := readJSON(r.path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
