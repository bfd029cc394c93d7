package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/eaglesec/eagle-access/internal/embedder"
)

// Detector finds faces with bounding boxes in an encoded frame.
type Detector interface {
	DetectFaces(ctx context.Context, imageData []byte) ([]embedder.FaceDetection, error)
}

// Embedder turns an encoded face crop into a vector.
type Embedder interface {
	Embed(ctx context.Context, imageData []byte) ([]float32, error)
}

// Options configures a capture session.
type Options struct {
	DatasetDir  string
	NumSamples  int
	SampleDelay time.Duration
	FaceSize    int
}

// Session owns the camera for both enrollment capture and verification
// probes. The mutex makes it the admission point for the single physical
// camera: one capture session at a time, enrollment or verification.
type Session struct {
	camera   Camera
	detector Detector
	embedder Embedder
	opts     Options

	mu sync.Mutex
}

// NewSession creates a capture session over the given camera, detector, and
// embedder.
func NewSession(camera Camera, detector Detector, embedder Embedder, opts Options) *Session {
	return &Session{
		camera:   camera,
		detector: detector,
		embedder: embedder,
		opts:     opts,
	}
}

// CaptureSamples grabs the configured number of frames for name, saving the
// raw frame and the normalized face crop under the user's dataset folders.
// Returns the cropped sample images. onSample, when non-nil, is called after
// each captured frame (used for CLI progress).
//
// A frame read failure stops the capture; whatever was collected so far is
// returned. Zero samples is the caller's signal for a capture failure.
func (s *Session) CaptureSamples(ctx context.Context, name string, onSample func(i int)) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rawDir := filepath.Join(s.opts.DatasetDir, name, "raw")
	croppedDir := filepath.Join(s.opts.DatasetDir, name, "cropped")
	for _, dir := range []string{rawDir, croppedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	log.Printf("capture: collecting %d samples for %q", s.opts.NumSamples, name)

	var samples [][]byte
	for i := 0; i < s.opts.NumSamples; i++ {
		frame, err := s.camera.Frame(ctx)
		if err != nil {
			log.Printf("capture: failed to read frame %d, stopping: %v", i+1, err)
			break
		}

		rawData, err := encodeJPEG(frame)
		if err != nil {
			log.Printf("capture: failed to encode frame %d: %v", i+1, err)
			break
		}
		rawPath := filepath.Join(rawDir, fmt.Sprintf("img_%d.jpg", i+1))
		if err := os.WriteFile(rawPath, rawData, 0o644); err != nil {
			log.Printf("capture: failed to save %s: %v", rawPath, err)
		}

		cropped, err := encodeJPEG(s.crop(ctx, frame, rawData))
		if err != nil {
			log.Printf("capture: failed to encode crop %d: %v", i+1, err)
			break
		}
		croppedPath := filepath.Join(croppedDir, fmt.Sprintf("img_%d.jpg", i+1))
		if err := os.WriteFile(croppedPath, cropped, 0o644); err != nil {
			log.Printf("capture: failed to save %s: %v", croppedPath, err)
		}

		samples = append(samples, cropped)
		if onSample != nil {
			onSample(i)
		}

		if i < s.opts.NumSamples-1 {
			if err := sleepCtx(ctx, s.opts.SampleDelay); err != nil {
				return samples, err
			}
		}
	}

	log.Printf("capture: collected %d samples for %q", len(samples), name)
	return samples, nil
}

// Probe captures one frame, crops the largest face, and embeds it. It
// implements the verification probe source.
func (s *Session) Probe(ctx context.Context) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame, err := s.camera.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading frame: %w", err)
	}

	rawData, err := encodeJPEG(frame)
	if err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}

	cropped, err := encodeJPEG(s.crop(ctx, frame, rawData))
	if err != nil {
		return nil, fmt.Errorf("encoding crop: %w", err)
	}

	vector, err := s.embedder.Embed(ctx, cropped)
	if err != nil {
		return nil, fmt.Errorf("embedding probe: %w", err)
	}
	return vector, nil
}

// crop runs face detection and cuts out the largest face. Detection errors
// degrade to the whole-frame fallback rather than failing the sample.
func (s *Session) crop(ctx context.Context, frame image.Image, rawData []byte) image.Image {
	faces, err := s.detector.DetectFaces(ctx, rawData)
	if err != nil {
		log.Printf("capture: face detection failed, using whole frame: %v", err)
		faces = nil
	}
	return CropLargestFace(frame, faces, s.opts.FaceSize)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
