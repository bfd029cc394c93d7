// Package enroll coordinates the asynchronous registration workflow: create
// the registry record synchronously, then capture, embed, and store samples
// in a background job with externally pollable status.
package enroll

import (
	"context"
	"log"
	"sync"

	"github.com/eaglesec/eagle-access/internal/store"
)

// Status is the lifecycle state of a registration job.
type Status string

// Job states. Processing moves to exactly one of completed or failed;
// terminal states are never left. Unknown distinguishes "never requested"
// from "in progress".
const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusUnknown    Status = "unknown"
)

// Capturer collects enrollment sample images for a user.
type Capturer interface {
	CaptureSamples(ctx context.Context, name string, onSample func(i int)) ([][]byte, error)
}

// Embedder turns one sample image into a vector.
type Embedder interface {
	Embed(ctx context.Context, imageData []byte) ([]float32, error)
}

// Manager runs registrations. Job status lives in memory only and is lost
// on restart; a restart mid-registration leaves a registry record with no
// embeddings and no discoverable job.
type Manager struct {
	users      store.UserRepository
	embeddings store.EmbeddingRepository
	capturer   Capturer
	embedder   Embedder

	mu     sync.Mutex
	status map[string]Status

	wg sync.WaitGroup
}

// NewManager creates a registration manager.
func NewManager(users store.UserRepository, embeddings store.EmbeddingRepository, capturer Capturer, embedder Embedder) *Manager {
	return &Manager{
		users:      users,
		embeddings: embeddings,
		capturer:   capturer,
		embedder:   embedder,
		status:     make(map[string]Status),
	}
}

// Enroll creates the user record and starts the background capture job.
// Duplicate names fail here, synchronously, before any job state exists.
// The returned user ID is immediately valid; the embeddings arrive when the
// job completes.
func (m *Manager) Enroll(ctx context.Context, name string, onSample func(i int)) (string, error) {
	userID, err := m.users.Create(ctx, name)
	if err != nil {
		return "", err
	}

	m.setStatus(name, StatusProcessing)

	m.wg.Add(1)
	go m.run(name, onSample)

	log.Printf("enroll: registration started for %q (id=%s)", name, userID)
	return userID, nil
}

// Status reports the job state for name, StatusUnknown when no registration
// was ever requested for it during this process lifetime.
func (m *Manager) Status(name string) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.status[name]; ok {
		return s
	}
	return StatusUnknown
}

// run is the background unit of work. It is the exclusive writer of this
// name's embedding entry for its duration. Capture and embedding failures
// downgrade to a failed status, never a crash. The job is detached from the
// originating request's context: an accepted enrollment runs to completion.
func (m *Manager) run(name string, onSample func(i int)) {
	defer m.wg.Done()
	ctx := context.Background()

	samples, err := m.capturer.CaptureSamples(ctx, name, onSample)
	if err != nil {
		log.Printf("enroll: capture failed for %q: %v", name, err)
		m.setStatus(name, StatusFailed)
		return
	}
	if len(samples) == 0 {
		log.Printf("enroll: no frames captured for %q, aborting", name)
		m.setStatus(name, StatusFailed)
		return
	}

	var vectors [][]float32
	for i, sample := range samples {
		vec, err := m.embedder.Embed(ctx, sample)
		if err != nil {
			log.Printf("enroll: skipping sample %d for %q: %v", i+1, name, err)
			continue
		}
		vectors = append(vectors, vec)
	}

	saved, err := m.embeddings.Save(ctx, name, vectors)
	if err != nil {
		log.Printf("enroll: failed to save embeddings for %q: %v", name, err)
		m.setStatus(name, StatusFailed)
		return
	}
	if saved == 0 {
		log.Printf("enroll: no usable embeddings for %q", name)
		m.setStatus(name, StatusFailed)
		return
	}

	log.Printf("enroll: completed registration for %q (%d/%d samples embedded)", name, saved, len(samples))
	m.setStatus(name, StatusCompleted)
}

// setStatus is the only writer of the status map. The lock is never held
// across capture or embedding calls.
func (m *Manager) setStatus(name string, s Status) {
	m.mu.Lock()
	m.status[name] = s
	m.mu.Unlock()
}
