package jsonfile

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/eaglesec/eagle-access/internal/store"
)

// EmbeddingRepository stores per-user raw sample vectors in a single JSON
// file keyed by user name. Centroids are derived on read, never persisted.
type EmbeddingRepository struct {
	path string
	mu   sync.RWMutex
}

// NewEmbeddingRepository creates an embedding store backed by the given file.
func NewEmbeddingRepository(path string) *EmbeddingRepository {
	return &EmbeddingRepository{path: path}
}

func (r *EmbeddingRepository) load() (map[string][][]float32, error) {
	db := map[string][][]float32{}
	if err := readJSON(r.path, &db); err != nil {
		return nil, err
	}
	return db, nil
}

// Save replaces the entry for name wholesale. An empty vector slice is a
// no-op returning 0 saved; it never deletes a pre-existing entry.
func (r *EmbeddingRepository) Save(ctx context.Context, name string, vectors [][]float32) (int, error) {
	if len(vectors) == 0 {
		log.Printf("embeddings: nothing to save for %q", name)
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	db, err := r.load()
	if err != nil {
		return 0, err
	}

	db[name] = vectors
	if err := writeJSON(r.path, db); err != nil {
		return 0, err
	}

	log.Printf("embeddings: saved %d vectors for %q", len(vectors), name)
	return len(vectors), nil
}

// Centroid returns the mean of the user's raw vectors, nil when absent.
func (r *EmbeddingRepository) Centroid(ctx context.Context, name string) ([]float32, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	db, err := r.load()
	if err != nil {
		return nil, err
	}
	return store.Centroid(db[name]), nil
}

// AllCentroids computes the comparison set fresh from raw vectors. Users
// with zero vectors (mid-enrollment) are excluded. The result is ordered
// by name so repeated calls rank deterministically.
func (r *EmbeddingRepository) AllCentroids(ctx context.Context) ([]store.NamedCentroid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	db, err := r.load()
	if err != nil {
		return nil, err
	}

	out := make([]store.NamedCentroid, 0, len(db))
	for name, vectors := range db {
		centroid := store.Centroid(vectors)
		if centroid == nil {
			continue
		}
		out = append(out, store.NamedCentroid{Name: name, Centroid: centroid})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AllSamples flattens every stored raw vector, ordered by name then sample
// index.
func (r *EmbeddingRepository) AllSamples(ctx context.Context) ([]store.StoredSample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	db, err := r.load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(db))
	for name := range db {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []store.StoredSample
	for _, name := range names {
		for i, vec := range db[name] {
			out = append(out, store.StoredSample{Name: name, Index: i, Embedding: vec})
		}
	}
	return out, nil
}

// Delete removes the entry for name. Absent names are a no-op.
func (r *EmbeddingRepository) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	db, err := r.load()
	if err != nil {
		return err
	}

	if _, ok := db[name]; !ok {
		return nil
	}

	delete(db, name)
	return writeJSON(r.path, db)
}
