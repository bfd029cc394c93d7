package cmd

import (
	"context"
	"fmt"

	"github.com/eaglesec/eagle-access/internal/capture"
	"github.com/eaglesec/eagle-access/internal/config"
	"github.com/eaglesec/eagle-access/internal/embedder"
	"github.com/eaglesec/eagle-access/internal/store"
	"github.com/eaglesec/eagle-access/internal/store/jsonfile"
	"github.com/eaglesec/eagle-access/internal/store/postgres"
)

// repositories bundles the storage backend behind the three repository
// interfaces. close is a no-op for the JSON backend.
type repositories struct {
	users      store.UserRepository
	embeddings store.EmbeddingRepository
	accessLog  store.AccessLogRepository
	close      func() error
}

// openRepositories selects and initializes the storage backend from
// configuration. The JSON file backend is the default; PostgreSQL is used
// when EAGLE_STORAGE_BACKEND=postgres and runs its migrations on open.
func openRepositories(cfg *config.Config) (*repositories, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		pool, err := postgres.NewPool(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
		}
		if err := pool.Migrate(context.Background()); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		return &repositories{
			users:      postgres.NewUserRepository(pool, cfg.Storage.DatasetDir),
			embeddings: postgres.NewEmbeddingRepository(pool),
			accessLog:  postgres.NewAccessLogRepository(pool),
			close:      pool.Close,
		}, nil

	case "json", "":
		embeddings := jsonfile.NewEmbeddingRepository(cfg.Storage.EmbeddingsFile)
		return &repositories{
			users:      jsonfile.NewUserRepository(cfg.Storage.UsersFile, cfg.Storage.DatasetDir, embeddings),
			embeddings: embeddings,
			accessLog:  jsonfile.NewAccessLogRepository(cfg.Storage.AccessLogFile),
			close:      func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newCaptureSession wires the camera and the embedding service into a
// capture session. The returned client doubles as face detector and
// embedder.
func newCaptureSession(cfg *config.Config) (*capture.Session, *embedder.Client) {
	client := embedder.NewClient(cfg.Embedding.URL)
	camera := capture.NewSnapshotCamera(cfg.Capture.CameraURL)
	session := capture.NewSession(camera, client, client, capture.Options{
		DatasetDir:  cfg.Storage.DatasetDir,
		NumSamples:  cfg.Capture.NumSamples,
		SampleDelay: cfg.Capture.SampleDelay,
		FaceSize:    cfg.Capture.FaceSize,
	})
	return session, client
}
