package store

import (
	"context"
	"errors"
)

// ErrDuplicateName is returned by UserRepository.Create when another user
// already holds the same name under normalized comparison.
var ErrDuplicateName = errors.New("user name already registered")

// UserRepository provides access to the user registry.
type UserRepository interface {
	// Create allocates a fresh user ID for name and persists the record.
	// Fails with ErrDuplicateName if the name collides case-insensitively.
	Create(ctx context.Context, name string) (string, error)
	// List returns the user_id -> name mapping for all registered users.
	List(ctx context.Context) (map[string]string, error)
	// Delete removes a user by user ID or name (case-insensitive) together
	// with their embeddings and dataset artifacts. Returns false when no
	// record matched; a missing user is a normal negative result, not an error.
	Delete(ctx context.Context, identifier string) (bool, error)
}

// EmbeddingRepository provides access to per-user sample embeddings.
type EmbeddingRepository interface {
	// Save replaces the whole entry for name with the given vectors and
	// returns how many were saved. An empty slice is a no-op returning 0
	// and never deletes a pre-existing entry.
	Save(ctx context.Context, name string, vectors [][]float32) (int, error)
	// Centroid returns the mean vector of the user's samples, nil when the
	// user has no entry.
	Centroid(ctx context.Context, name string) ([]float32, error)
	// AllCentroids returns the comparison set, computed fresh from raw
	// vectors. Users with zero samples are excluded.
	AllCentroids(ctx context.Context) ([]NamedCentroid, error)
	// AllSamples returns every raw sample vector across all users.
	AllSamples(ctx context.Context) ([]StoredSample, error)
	// Delete removes the entry for name. Deleting an absent name is a no-op.
	Delete(ctx context.Context, name string) error
}

// AccessLogRepository is the append-only decision log. Append is the only
// mutator; entries are returned in insertion (chronological) order.
type AccessLogRepository interface {
	Append(ctx context.Context, decision AccessDecision) error
	All(ctx context.Context) ([]AccessDecision, error)
}
