package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eaglesec/eagle-access/internal/recognize"
	"github.com/eaglesec/eagle-access/internal/store"
)

func newAccessHandler(embeddings *fakeEmbeddings, accessLog *memoryLog, probe *fakeProbe) *AccessHandler {
	verifier := recognize.NewService(embeddings, accessLog, probe, recognize.NewMatcher(0.5))
	return NewAccessHandler(verifier, accessLog, embeddings, probe)
}

func TestAccessVerify_Granted(t *testing.T) {
	embeddings := newFakeEmbeddings()
	embeddings.Save(context.Background(), "ada", [][]float32{{1, 0, 0}})
	accessLog := &memoryLog{}
	h := newAccessHandler(embeddings, accessLog, &fakeProbe{vector: []float32{1, 0, 0}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/access", nil)
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var decision store.AccessDecision
	parseJSONResponse(t, rec, &decision)
	if decision.Status != store.DecisionGranted || decision.Name != "ada" {
		t.Errorf("unexpected decision: %+v", decision)
	}
	if len(accessLog.entries) != 1 {
		t.Errorf("expected decision to be logged, got %d entries", len(accessLog.entries))
	}
}

func TestAccessVerify_EmptyRegistry(t *testing.T) {
	h := newAccessHandler(newFakeEmbeddings(), &memoryLog{}, &fakeProbe{vector: []float32{1, 0, 0}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/access", nil)
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	assertStatusCode(t, rec, http.StatusConflict)
	assertJSONError(t, rec, "no enrolled users")
}

func TestAccessVerify_ProbeFailureDenied(t *testing.T) {
	embeddings := newFakeEmbeddings()
	embeddings.Save(context.Background(), "ada", [][]float32{{1, 0, 0}})
	accessLog := &memoryLog{}
	h := newAccessHandler(embeddings, accessLog, &fakeProbe{err: errBoom})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/access", nil)
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var decision store.AccessDecision
	parseJSONResponse(t, rec, &decision)
	if decision.Status != store.DecisionDenied || decision.Name != store.UnknownName {
		t.Errorf("expected denied decision, got %+v", decision)
	}
	if decision.Error == "" {
		t.Error("expected denial to carry an error tag")
	}
}

func TestAccessLog_ReturnsHistory(t *testing.T) {
	accessLog := &memoryLog{}
	accessLog.Append(context.Background(), store.AccessDecision{Status: store.DecisionDenied, Name: store.UnknownName})
	h := newAccessHandler(newFakeEmbeddings(), accessLog, &fakeProbe{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/access/log", nil)
	rec := httptest.NewRecorder()
	h.Log(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var body struct {
		Count   int                    `json:"count"`
		Entries []store.AccessDecision `json:"entries"`
	}
	parseJSONResponse(t, rec, &body)
	if body.Count != 1 || len(body.Entries) != 1 {
		t.Fatalf("expected one entry, got %+v", body)
	}
}

func TestAccessLog_EmptyIsArray(t *testing.T) {
	h := newAccessHandler(newFakeEmbeddings(), &memoryLog{}, &fakeProbe{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/access/log", nil)
	rec := httptest.NewRecorder()
	h.Log(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"entries":[]`) {
		t.Errorf("expected empty entries array, got %s", rec.Body.String())
	}
}

func TestAccessInspect_ReturnsNearestSamples(t *testing.T) {
	embeddings := newFakeEmbeddings()
	embeddings.Save(context.Background(), "ada", [][]float32{{1, 0, 0}, {0.9, 0.1, 0}})
	embeddings.Save(context.Background(), "bob", [][]float32{{0, 1, 0}})
	h := newAccessHandler(embeddings, &memoryLog{}, &fakeProbe{vector: []float32{1, 0, 0}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/access/inspect", strings.NewReader(`{"k":2}`))
	rec := httptest.NewRecorder()
	h.Inspect(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var body struct {
		Count   int            `json:"count"`
		Matches []InspectMatch `json:"matches"`
	}
	parseJSONResponse(t, rec, &body)
	if body.Count != 2 {
		t.Fatalf("expected 2 matches, got %+v", body)
	}
	if body.Matches[0].Name != "ada" {
		t.Errorf("expected nearest sample to be ada, got %+v", body.Matches[0])
	}
}

func TestAccessInspect_EmptyBodyUsesDefaultK(t *testing.T) {
	embeddings := newFakeEmbeddings()
	embeddings.Save(context.Background(), "ada", [][]float32{{1, 0, 0}})
	h := newAccessHandler(embeddings, &memoryLog{}, &fakeProbe{vector: []float32{1, 0, 0}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/access/inspect", nil)
	rec := httptest.NewRecorder()
	h.Inspect(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
}

func TestAccessInspect_NoSamples(t *testing.T) {
	h := newAccessHandler(newFakeEmbeddings(), &memoryLog{}, &fakeProbe{vector: []float32{1, 0, 0}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/access/inspect", nil)
	rec := httptest.NewRecorder()
	h.Inspect(rec, req)

	assertStatusCode(t, rec, http.StatusConflict)
	assertJSONError(t, rec, "no enrolled users")
}

func TestAccessInspect_SuppliedEmbeddingSkipsCamera(t *testing.T) {
	embeddings := newFakeEmbeddings()
	embeddings.Save(context.Background(), "ada", [][]float32{{1, 0, 0}})
	// The probe source fails, so a result proves the supplied vector was used.
	h := newAccessHandler(embeddings, &memoryLog{}, &fakeProbe{err: errBoom})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/access/inspect", strings.NewReader(`{"embedding":[1,0,0]}`))
	rec := httptest.NewRecorder()
	h.Inspect(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
}

func TestAccessInspect_ProbeFailure(t *testing.T) {
	embeddings := newFakeEmbeddings()
	embeddings.Save(context.Background(), "ada", [][]float32{{1, 0, 0}})
	h := newAccessHandler(embeddings, &memoryLog{}, &fakeProbe{err: errBoom})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/access/inspect", nil)
	rec := httptest.NewRecorder()
	h.Inspect(rec, req)

	assertStatusCode(t, rec, http.StatusBadGateway)
}
