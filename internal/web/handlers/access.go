package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/eaglesec/eagle-access/internal/recognize"
	"github.com/eaglesec/eagle-access/internal/store"
)

// defaultInspectK is how many nearest samples an inspect request returns
// when the caller does not ask for a specific count.
const defaultInspectK = 5

// AccessHandler handles verification and decision history endpoints.
type AccessHandler struct {
	verifier   *recognize.Service
	accessLog  store.AccessLogRepository
	embeddings store.EmbeddingRepository
	probes     recognize.ProbeSource
}

// NewAccessHandler creates a new access handler.
func NewAccessHandler(verifier *recognize.Service, accessLog store.AccessLogRepository, embeddings store.EmbeddingRepository, probes recognize.ProbeSource) *AccessHandler {
	return &AccessHandler{
		verifier:   verifier,
		accessLog:  accessLog,
		embeddings: embeddings,
		probes:     probes,
	}
}

// Verify captures a probe from the camera, matches it against enrolled
// users and returns the logged decision.
func (h *AccessHandler) Verify(w http.ResponseWriter, r *http.Request) {
	decision, err := h.verifier.Verify(r.Context())
	if err != nil {
		if errors.Is(err, recognize.ErrEmptyRegistry) {
			respondError(w, http.StatusConflict, "no enrolled users")
			return
		}
		log.Printf("access: verification failed: %v", err)
		respondError(w, http.StatusInternalServerError, "verification failed")
		return
	}

	respondJSON(w, http.StatusOK, decision)
}

// Log returns the full decision history in insertion order.
func (h *AccessHandler) Log(w http.ResponseWriter, r *http.Request) {
	entries, err := h.accessLog.All(r.Context())
	if err != nil {
		log.Printf("access: reading log failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to read access log")
		return
	}
	if entries == nil {
		entries = []store.AccessDecision{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(entries),
		"entries": entries,
	})
}

// InspectRequest is the optional body of an inspect request. When an
// embedding is supplied it is used as the probe; otherwise a fresh probe is
// captured from the camera.
type InspectRequest struct {
	K         int       `json:"k"`
	Embedding []float32 `json:"embedding"`
}

// InspectMatch is one nearest enrolled sample for a probe.
type InspectMatch struct {
	Name        string  `json:"name"`
	SampleIndex int     `json:"sample_index"`
	Distance    float64 `json:"distance"`
}

// Inspect captures a probe and returns its nearest enrolled samples. It
// searches individual samples rather than per-user centroids, which makes
// it useful for diagnosing borderline denials. No decision is made and
// nothing is logged.
func (h *AccessHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	req := InspectRequest{K: defaultInspectK}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.K <= 0 {
		req.K = defaultInspectK
	}

	samples, err := h.embeddings.AllSamples(r.Context())
	if err != nil {
		log.Printf("access: loading samples failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load samples")
		return
	}
	if len(samples) == 0 {
		respondError(w, http.StatusConflict, "no enrolled users")
		return
	}

	probe := req.Embedding
	if len(probe) == 0 {
		probe, err = h.probes.Probe(r.Context())
		if err != nil {
			log.Printf("access: probe capture failed: %v", err)
			respondError(w, http.StatusBadGateway, "failed to capture probe")
			return
		}
	}

	index := store.NewSampleIndex()
	if err := index.Build(samples); err != nil {
		log.Printf("access: building sample index failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to build sample index")
		return
	}

	matches, err := index.Search(probe, req.K)
	if err != nil {
		log.Printf("access: sample search failed: %v", err)
		respondError(w, http.StatusInternalServerError, "sample search failed")
		return
	}

	response := make([]InspectMatch, len(matches))
	for i, m := range matches {
		response[i] = InspectMatch{
			Name:        m.Name,
			SampleIndex: m.SampleIndex,
			Distance:    m.Distance,
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(response),
		"matches": response,
	})
}
