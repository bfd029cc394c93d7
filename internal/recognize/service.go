package recognize

import (
	"context"
	"log"
	"time"

	"github.com/eaglesec/eagle-access/internal/store"
)

// ProbeSource produces one probe embedding per verification attempt,
// typically by capturing a frame, cropping the largest face, and running
// the embedding model.
type ProbeSource interface {
	Probe(ctx context.Context) ([]float32, error)
}

// Service runs the full verification cycle: probe, match, log, return.
type Service struct {
	embeddings store.EmbeddingRepository
	accessLog  store.AccessLogRepository
	probes     ProbeSource
	matcher    *Matcher
}

// NewService wires the verification cycle together.
func NewService(embeddings store.EmbeddingRepository, accessLog store.AccessLogRepository, probes ProbeSource, matcher *Matcher) *Service {
	return &Service{
		embeddings: embeddings,
		accessLog:  accessLog,
		probes:     probes,
		matcher:    matcher,
	}
}

// Verify performs one capture-embed-match-log cycle. Every rendered
// decision, including extraction-failure denials, is appended to the access
// log before returning. ErrEmptyRegistry is surfaced before touching the
// camera and logs nothing.
func (s *Service) Verify(ctx context.Context) (store.AccessDecision, error) {
	centroids, err := s.embeddings.AllCentroids(ctx)
	if err != nil {
		return store.AccessDecision{}, err
	}
	if len(centroids) == 0 {
		return store.AccessDecision{}, ErrEmptyRegistry
	}

	probe, err := s.probes.Probe(ctx)
	if err != nil {
		log.Printf("access: probe extraction failed: %v", err)
		decision := store.AccessDecision{
			Status:     store.DecisionDenied,
			Name:       store.UnknownName,
			Confidence: 0,
			Time:       time.Now().UTC(),
			Error:      ProbeExtractionError,
		}
		s.appendDecision(ctx, decision)
		return decision, nil
	}

	decision, err := s.matcher.Decide(probe, centroids)
	if err != nil {
		return store.AccessDecision{}, err
	}

	s.appendDecision(ctx, decision)
	log.Printf("access: %s name=%s confidence=%.4f", decision.Status, decision.Name, decision.Confidence)
	return decision, nil
}

// appendDecision writes to the audit log. A log write failure must not turn
// a rendered decision into an error for the caller; it is reported and the
// decision stands.
func (s *Service) appendDecision(ctx context.Context, decision store.AccessDecision) {
	if err := s.accessLog.Append(ctx, decision); err != nil {
		log.Printf("access: failed to append decision to log: %v", err)
	}
}
