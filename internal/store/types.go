package store

import (
	"time"
)

// Decision status values recorded in the access log.
const (
	DecisionGranted = "granted"
	DecisionDenied  = "denied"
)

// UnknownName is the sentinel identity reported on a denied decision.
const UnknownName = "Unknown"

// UserRecord represents an enrolled (or mid-enrollment) user.
// A record may exist before any embeddings do; the matcher skips such users.
type UserRecord struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// NamedCentroid pairs a user name with the mean vector of their samples.
// The centroid is kept raw; L2 normalization happens at comparison time.
type NamedCentroid struct {
	Name     string
	Centroid []float32
}

// StoredSample is a single raw sample embedding belonging to a user.
type StoredSample struct {
	Name      string
	Index     int
	Embedding []float32
}

// AccessDecision is one immutable entry of the append-only access log.
type AccessDecision struct {
	Status     string             `json:"status"`
	Name       string             `json:"name"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores,omitempty"`
	Time       time.Time          `json:"time"`

	// Error tags a denial caused by probe extraction failure rather than
	// a genuine mismatch.
	Error string `json:"error,omitempty"`
}
