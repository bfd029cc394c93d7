package store

import (
	"errors"
	"sync"

	"github.com/coder/hnsw"
)

// HNSW index parameters for 512-dim face embeddings
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	HNSWMaxNeighbors = 16
)

// SampleMatch is one nearest-neighbor hit from the sample index.
type SampleMatch struct {
	Name        string  `json:"name"`
	SampleIndex int     `json:"sample_index"`
	Distance    float64 `json:"distance"`
}

// SampleIndex is an in-memory HNSW index over all raw sample embeddings.
// It backs the operator-facing probe inspection endpoint; access decisions
// always go through the exhaustive centroid comparison instead.
type SampleIndex struct {
	graph      *hnsw.Graph[int64]
	idToSample map[int64]StoredSample
	mu         sync.RWMutex
}

// NewSampleIndex creates a new empty sample index.
func NewSampleIndex() *SampleIndex {
	return &SampleIndex{
		idToSample: make(map[int64]StoredSample),
	}
}

// Build replaces the index contents with the given samples.
func (s *SampleIndex) Build(samples []StoredSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(samples) == 0 {
		s.graph = nil
		s.idToSample = make(map[int64]StoredSample)
		return nil
	}

	g := hnsw.NewGraph[int64]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance

	s.idToSample = make(map[int64]StoredSample, len(samples))

	var id int64
	for i := range samples {
		sample := samples[i]
		if len(sample.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(id, sample.Embedding))
		s.idToSample[id] = sample
		id++
	}

	s.graph = g
	return nil
}

// Count returns the number of indexed samples.
func (s *SampleIndex) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.idToSample)
}

// Search finds the k nearest samples to the query embedding, ordered by
// cosine distance (0 identical, 2 opposite).
func (s *SampleIndex) Search(query []float32, k int) ([]SampleMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.graph == nil {
		return nil, errors.New("index not initialized")
	}

	neighbors := s.graph.Search(query, k)

	matches := make([]SampleMatch, 0, len(neighbors))
	for _, n := range neighbors {
		sample, ok := s.idToSample[n.Key]
		if !ok {
			continue
		}
		matches = append(matches, SampleMatch{
			Name:        sample.Name,
			SampleIndex: sample.Index,
			Distance:    1 - CosineSimilarity(query, n.Value),
		})
	}
	return matches, nil
}
