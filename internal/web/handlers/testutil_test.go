package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/eaglesec/eagle-access/internal/store"
)

// requestWithChiParams creates a request with chi URL parameters.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type.
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code.
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message.
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}

// fakeUsers is an in-memory user registry for handler tests.
type fakeUsers struct {
	mu      sync.Mutex
	users   map[string]string // id -> name
	nextID  int
	listErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]string{}}
}

func (f *fakeUsers) Create(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if store.NormalizeName(existing) == store.NormalizeName(name) {
			return "", store.ErrDuplicateName
		}
	}
	f.nextID++
	id := fmt.Sprintf("id%06d", f.nextID)
	f.users[id] = name
	return id, nil
}

func (f *fakeUsers) List(ctx context.Context) (map[string]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.users))
	for id, name := range f.users {
		out[id] = name
	}
	return out, nil
}

func (f *fakeUsers) Delete(ctx context.Context, identifier string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[identifier]; ok {
		delete(f.users, identifier)
		return true, nil
	}
	for id, name := range f.users {
		if store.NormalizeName(name) == store.NormalizeName(identifier) {
			delete(f.users, id)
			return true, nil
		}
	}
	return false, nil
}

// fakeEmbeddings is an in-memory embedding store for handler tests.
type fakeEmbeddings struct {
	mu   sync.Mutex
	data map[string][][]float32
}

func newFakeEmbeddings() *fakeEmbeddings {
	return &fakeEmbeddings{data: map[string][][]float32{}}
}

func (f *fakeEmbeddings) Save(ctx context.Context, name string, vectors [][]float32) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}
	f.mu.Lock()
	f.data[name] = vectors
	f.mu.Unlock()
	return len(vectors), nil
}

func (f *fakeEmbeddings) Centroid(ctx context.Context, name string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return store.Centroid(f.data[name]), nil
}

func (f *fakeEmbeddings) AllCentroids(ctx context.Context) ([]store.NamedCentroid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.NamedCentroid
	for name, vectors := range f.data {
		c := store.Centroid(vectors)
		if c == nil {
			continue
		}
		out = append(out, store.NamedCentroid{Name: name, Centroid: c})
	}
	return out, nil
}

func (f *fakeEmbeddings) AllSamples(ctx context.Context) ([]store.StoredSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.StoredSample
	for name, vectors := range f.data {
		for i, v := range vectors {
			out = append(out, store.StoredSample{Name: name, Index: i, Embedding: v})
		}
	}
	return out, nil
}

func (f *fakeEmbeddings) Delete(ctx context.Context, name string) error {
	f.mu.Lock()
	delete(f.data, name)
	f.mu.Unlock()
	return nil
}

// memoryLog is an in-memory access log for handler tests.
type memoryLog struct {
	mu      sync.Mutex
	entries []store.AccessDecision
}

func (m *memoryLog) Append(ctx context.Context, decision store.AccessDecision) error {
	m.mu.Lock()
	m.entries = append(m.entries, decision)
	m.mu.Unlock()
	return nil
}

func (m *memoryLog) All(ctx context.Context) ([]store.AccessDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.AccessDecision(nil), m.entries...), nil
}

// fakeProbe returns a fixed probe vector or an error.
type fakeProbe struct {
	vector []float32
	err    error
}

func (f *fakeProbe) Probe(ctx context.Context) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

// fakeCapturer returns one dummy sample per requested capture.
type fakeCapturer struct {
	samples int
}

func (f *fakeCapturer) CaptureSamples(ctx context.Context, name string, onSample func(i int)) ([][]byte, error) {
	out := make([][]byte, f.samples)
	for i := range out {
		out[i] = []byte{byte(i)}
	}
	return out, nil
}

// fakeEmbedder returns a fixed embedding for any image.
type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, imageData []byte) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

var errBoom = errors.New("boom")
