package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var policyYAML []byte

type Config struct {
	Storage   StorageConfig
	Capture   CaptureConfig
	Embedding EmbeddingConfig
	Database  DatabaseConfig
	Policy    PolicyConfig
}

type StorageConfig struct {
	Backend        string // "json" (default) or "postgres"
	DataDir        string // base directory for JSON stores and dataset folders
	UsersFile      string
	EmbeddingsFile string
	AccessLogFile  string
	DatasetDir     string // per-user raw/cropped sample folders
}

type CaptureConfig struct {
	CameraURL   string        // snapshot endpoint of the camera daemon
	NumSamples  int           // frames captured per enrollment (default 30)
	SampleDelay time.Duration // pause between frames (default 200ms)
	FaceSize    int           // square side of normalized face crops (default 160)
}

type EmbeddingConfig struct {
	URL string // embedding service base URL, defaults to http://localhost:8000
	Dim int    // expected vector dimensionality (default 512)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL (postgres backend only)
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// PolicyConfig is the decision policy, loaded from the embedded policy.yaml
// with an optional threshold override from the environment.
type PolicyConfig struct {
	Decision DecisionPolicy `yaml:"decision"`
	Metrics  []string       `yaml:"metrics"`
}

type DecisionPolicy struct {
	// Threshold is the cosine similarity the best candidate must strictly
	// exceed for access to be granted.
	Threshold float64 `yaml:"threshold"`
	Primary   string  `yaml:"primary"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envString reads an environment variable with a fallback default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var policy PolicyConfig
	if err := yaml.Unmarshal(policyYAML, &policy); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded policy.yaml: " + err.Error())
	}
	policy.Decision.Threshold = envFloat("EAGLE_SIM_THRESHOLD", policy.Decision.Threshold)

	dataDir := envString("EAGLE_DATA_DIR", ".")

	return &Config{
		Storage: StorageConfig{
			Backend:        envString("EAGLE_STORAGE_BACKEND", "json"),
			DataDir:        dataDir,
			UsersFile:      envString("EAGLE_USERS_FILE", filepath.Join(dataDir, "users.json")),
			EmbeddingsFile: envString("EAGLE_EMBEDDINGS_FILE", filepath.Join(dataDir, "embeddings.json")),
			AccessLogFile:  envString("EAGLE_ACCESS_LOG_FILE", filepath.Join(dataDir, "access_log.json")),
			DatasetDir:     envString("EAGLE_DATASET_DIR", filepath.Join(dataDir, "dataset")),
		},
		Capture: CaptureConfig{
			CameraURL:   os.Getenv("EAGLE_CAMERA_URL"),
			NumSamples:  envInt("EAGLE_NUM_SAMPLES", 30),
			SampleDelay: time.Duration(envInt("EAGLE_CAPTURE_DELAY_MS", 200)) * time.Millisecond,
			FaceSize:    envInt("EAGLE_FACE_SIZE", 160),
		},
		Embedding: EmbeddingConfig{
			URL: os.Getenv("EMBEDDING_URL"),
			Dim: envInt("EMBEDDING_DIM", 512),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Policy: policy,
	}
}
