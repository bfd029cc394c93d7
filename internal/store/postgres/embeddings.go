package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/eaglesec/eagle-access/internal/store"
)

// EmbeddingRepository provides PostgreSQL-backed embedding storage with
// pgvector columns.
type EmbeddingRepository struct {
	pool *Pool
}

// NewEmbeddingRepository creates a new PostgreSQL embedding repository.
func NewEmbeddingRepository(pool *Pool) *EmbeddingRepository {
	return &EmbeddingRepository{pool: pool}
}

// Save replaces the stored sample set for name with vectors in a single
// transaction. An empty vectors slice is a no-op that leaves any existing
// entry untouched.
func (r *EmbeddingRepository) Save(ctx context.Context, name string, vectors [][]float32) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM embeddings WHERE name = $1", name); err != nil {
		return 0, fmt.Errorf("clear embeddings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO embeddings (name, sample_index, embedding) VALUES ($1, $2, $3::vector)",
	)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, v := range vectors {
		if _, err := stmt.ExecContext(ctx, name, i, pgvector.NewVector(v)); err != nil {
			return 0, fmt.Errorf("insert embedding %d for %s: %w", i, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit embeddings: %w", err)
	}
	return len(vectors), nil
}

// Centroid returns the mean of the stored sample vectors for name, nil when
// the user has no samples.
func (r *EmbeddingRepository) Centroid(ctx context.Context, name string) ([]float32, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT embedding FROM embeddings WHERE name = $1 ORDER BY sample_index",
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	var vectors [][]float32
	for rows.Next() {
		var vec pgvector.Vector
		if err := rows.Scan(&vec); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		vectors = append(vectors, vec.Slice())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}
	return store.Centroid(vectors), nil
}

// AllCentroids returns one centroid per enrolled name, ordered by name.
func (r *EmbeddingRepository) AllCentroids(ctx context.Context) ([]store.NamedCentroid, error) {
	samples, err := r.AllSamples(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string][][]float32)
	var order []string
	for _, s := range samples {
		if _, seen := byName[s.Name]; !seen {
			order = append(order, s.Name)
		}
		byName[s.Name] = append(byName[s.Name], s.Embedding)
	}

	centroids := make([]store.NamedCentroid, 0, len(order))
	for _, name := range order {
		c := store.Centroid(byName[name])
		if c == nil {
			continue
		}
		centroids = append(centroids, store.NamedCentroid{Name: name, Centroid: c})
	}
	return centroids, nil
}

// AllSamples returns every stored sample vector ordered by name and sample
// index.
func (r *EmbeddingRepository) AllSamples(ctx context.Context) ([]store.StoredSample, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT name, sample_index, embedding FROM embeddings ORDER BY name, sample_index",
	)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	var samples []store.StoredSample
	for rows.Next() {
		var s store.StoredSample
		var vec pgvector.Vector
		if err := rows.Scan(&s.Name, &s.Index, &vec); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		s.Embedding = vec.Slice()
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}
	return samples, nil
}

// Delete removes all stored samples for name. Deleting an absent name is a
// no-op.
func (r *EmbeddingRepository) Delete(ctx context.Context, name string) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM embeddings WHERE name = $1", name); err != nil {
		return fmt.Errorf("delete embeddings: %w", err)
	}
	return nil
}

var _ store.EmbeddingRepository = (*EmbeddingRepository)(nil)
