// Package recognize implements the access decision engine: ranking enrolled
// centroids against a probe embedding and applying the threshold policy.
package recognize

import (
	"errors"
	"math"
	"time"

	"github.com/eaglesec/eagle-access/internal/store"
)

// ErrEmptyRegistry is returned when verification runs with no enrolled
// centroids. Distinct from a normal denial.
var ErrEmptyRegistry = errors.New("no enrolled users to compare against")

// ProbeExtractionError tags denied decisions caused by a probe that yielded
// no usable embedding, as opposed to a genuine low-confidence mismatch.
const ProbeExtractionError = "probe_extraction_failed"

// Matcher ranks centroids by similarity and renders access decisions.
type Matcher struct {
	threshold float64
}

// NewMatcher creates a matcher with the given cosine similarity threshold.
// The best candidate must strictly exceed it for access to be granted.
func NewMatcher(threshold float64) *Matcher {
	return &Matcher{threshold: threshold}
}

// candidate holds the three similarity scores for one centroid.
type candidate struct {
	name      string
	cosine    float64
	euclidean float64
	manhattan float64
}

// Decide compares the probe against every centroid and applies the decision
// rule. Both the probe and the centroids are L2-normalized here, uniformly,
// right before scoring. Cosine similarity is the decision metric; the
// Euclidean- and Manhattan-derived scores are informational only.
func (m *Matcher) Decide(probe []float32, centroids []store.NamedCentroid) (store.AccessDecision, error) {
	if len(centroids) == 0 {
		return store.AccessDecision{}, ErrEmptyRegistry
	}

	normProbe := store.NormalizeL2(probe)

	best := candidate{cosine: math.Inf(-1)}
	for _, c := range centroids {
		normCentroid := store.NormalizeL2(c.Centroid)
		cand := candidate{
			name:      c.Name,
			cosine:    store.CosineSimilarity(normProbe, normCentroid),
			euclidean: store.EuclideanScore(normProbe, normCentroid),
			manhattan: store.ManhattanScore(normProbe, normCentroid),
		}
		if cand.cosine > best.cosine {
			best = cand
		}
	}

	decision := store.AccessDecision{
		Status:     store.DecisionDenied,
		Name:       store.UnknownName,
		Confidence: round4(best.cosine),
		Scores: map[string]float64{
			"cosine":    round4(best.cosine),
			"euclidean": round4(best.euclidean),
			"manhattan": round4(best.manhattan),
		},
		Time: time.Now().UTC(),
	}

	// Strict inequality: a score exactly at the threshold is denied.
	if best.cosine > m.threshold {
		decision.Status = store.DecisionGranted
		decision.Name = best.name
	}

	return decision, nil
}

// Threshold returns the configured decision threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// round4 rounds a score to 4 decimal places for reporting.
func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
