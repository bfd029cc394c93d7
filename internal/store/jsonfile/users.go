package jsonfile

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/eaglesec/eagle-access/internal/store"
)

// userIDLength is the truncated UUID prefix used as a user ID.
const userIDLength = 8

// userEntry is the on-disk shape of one registry record.
type userEntry struct {
	Name string `json:"name"`
}

// UserRepository is the JSON-file user registry. Deleting a user cascades
// into the embedding store and the user's dataset folders.
type UserRepository struct {
	path       string
	datasetDir string
	embeddings store.EmbeddingRepository
	mu         sync.Mutex
}

// NewUserRepository creates a registry backed by the given users file.
// The embeddings repository receives cascaded deletes.
func NewUserRepository(path, datasetDir string, embeddings store.EmbeddingRepository) *UserRepository {
	return &UserRepository{
		path:       path,
		datasetDir: datasetDir,
		embeddings: embeddings,
	}
}

// Create allocates a fresh user ID and persists the record before returning.
// Fails with store.ErrDuplicateName when the normalized name is taken.
func (r *UserRepository) Create(ctx context.Context, name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := map[string]userEntry{}
	if err := readJSON(r.path, &users); err != nil {
		return "", err
	}

	normalized := store.NormalizeName(name)
	for _, entry := range users {
		if store.NormalizeName(entry.Name) == normalized {
			return "", fmt.Errorf("user %q: %w", name, store.ErrDuplicateName)
		}
	}

	userID := uuid.NewString()[:userIDLength]
	users[userID] = userEntry{Name: name}
	if err := writeJSON(r.path, users); err != nil {
		return "", err
	}

	// Provision the sample folders the capture session will write into.
	// A failure here is logged, not fatal: the registry record already
	// exists and capture re-creates missing directories.
	for _, sub := range []string{"raw", "cropped"} {
		dir := filepath.Join(r.datasetDir, name, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("users: failed to provision %s: %v", dir, err)
		}
	}

	log.Printf("users: created %q (id=%s)", name, userID)
	return userID, nil
}

// List returns the user_id -> name mapping.
func (r *UserRepository) List(ctx context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := map[string]userEntry{}
	if err := readJSON(r.path, &users); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(users))
	for id, entry := range users {
		out[id] = entry.Name
	}
	return out, nil
}

// Delete removes a user by ID or name. The registry entry goes first, then
// the embedding entry, then the dataset folders; artifact removal is best
// effort and never rolls back the registry deletion.
func (r *UserRepository) Delete(ctx context.Context, identifier string) (bool, error) {
	r.mu.Lock()

	users := map[string]userEntry{}
	if err := readJSON(r.path, &users); err != nil {
		r.mu.Unlock()
		return false, err
	}

	normalized := store.NormalizeName(identifier)
	targetID := ""
	for id, entry := range users {
		if id == identifier || store.NormalizeName(entry.Name) == normalized {
			targetID = id
			break
		}
	}
	if targetID == "" {
		r.mu.Unlock()
		return false, nil
	}

	name := users[targetID].Name
	delete(users, targetID)
	if err := writeJSON(r.path, users); err != nil {
		r.mu.Unlock()
		return false, err
	}
	r.mu.Unlock()

	if err := r.embeddings.Delete(ctx, name); err != nil {
		log.Printf("users: failed to remove embeddings for %q: %v", name, err)
	}

	userRoot := filepath.Join(r.datasetDir, name)
	if err := os.RemoveAll(userRoot); err != nil {
		log.Printf("users: failed to remove dataset folder %s: %v", userRoot, err)
	}

	log.Printf("users: deleted %q (id=%s)", name, targetID)
	return true, nil
}
