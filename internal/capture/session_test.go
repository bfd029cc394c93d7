package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/eaglesec/eagle-access/internal/embedder"
)

// testFrame returns a small solid-color frame.
func testFrame() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	return img
}

// fakeCamera serves frames until failAfter frames have been read.
type fakeCamera struct {
	frames    int
	failAfter int
}

func (c *fakeCamera) Frame(ctx context.Context) (image.Image, error) {
	if c.failAfter > 0 && c.frames >= c.failAfter {
		return nil, errors.New("device gone")
	}
	c.frames++
	return testFrame(), nil
}

type fakeDetector struct {
	faces []embedder.FaceDetection
	err   error
}

func (d *fakeDetector) DetectFaces(ctx context.Context, imageData []byte) ([]embedder.FaceDetection, error) {
	return d.faces, d.err
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (e *fakeEmbedder) Embed(ctx context.Context, imageData []byte) ([]float32, error) {
	return e.vector, e.err
}

func newTestSession(t *testing.T, camera Camera, detector Detector, emb Embedder) (*Session, string) {
	t.Helper()
	dir := t.TempDir()
	session := NewSession(camera, detector, emb, Options{
		DatasetDir:  dir,
		NumSamples:  3,
		SampleDelay: 0,
		FaceSize:    32,
	})
	return session, dir
}

func TestCaptureSamples_CollectsAndSaves(t *testing.T) {
	session, dir := newTestSession(t, &fakeCamera{}, &fakeDetector{}, &fakeEmbedder{})

	samples, err := session.CaptureSamples(context.Background(), "Ada", nil)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}

	for i := 1; i <= 3; i++ {
		for _, sub := range []string{"raw", "cropped"} {
			path := filepath.Join(dir, "Ada", sub, fmt.Sprintf("img_%d.jpg", i))
			if _, err := os.Stat(path); err != nil {
				t.Errorf("expected sample file %s: %v", path, err)
			}
		}
	}
}

func TestCaptureSamples_ProgressCallback(t *testing.T) {
	session, _ := newTestSession(t, &fakeCamera{}, &fakeDetector{}, &fakeEmbedder{})

	var calls int
	_, err := session.CaptureSamples(context.Background(), "Ada", func(i int) { calls++ })
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 progress calls, got %d", calls)
	}
}

func TestCaptureSamples_StopsOnCameraFailure(t *testing.T) {
	session, _ := newTestSession(t, &fakeCamera{failAfter: 2}, &fakeDetector{}, &fakeEmbedder{})

	samples, err := session.CaptureSamples(context.Background(), "Ada", nil)
	if err != nil {
		t.Fatalf("capture returned error: %v", err)
	}
	if len(samples) != 2 {
		t.Errorf("expected 2 samples before failure, got %d", len(samples))
	}
}

func TestCaptureSamples_ZeroSamplesWhenCameraDead(t *testing.T) {
	camera := &fakeCamera{failAfter: 1, frames: 1} // first read already fails
	session, _ := newTestSession(t, camera, &fakeDetector{}, &fakeEmbedder{})

	samples, err := session.CaptureSamples(context.Background(), "Ada", nil)
	if err != nil {
		t.Fatalf("capture returned error: %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("expected 0 samples, got %d", len(samples))
	}
}

func TestCaptureSamples_DetectionFailureFallsBack(t *testing.T) {
	detector := &fakeDetector{err: errors.New("detector offline")}
	session, _ := newTestSession(t, &fakeCamera{}, detector, &fakeEmbedder{})

	samples, err := session.CaptureSamples(context.Background(), "Ada", nil)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if len(samples) != 3 {
		t.Errorf("expected whole-frame fallback to keep capturing, got %d samples", len(samples))
	}
}

func TestProbe_ReturnsEmbedding(t *testing.T) {
	emb := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	session, _ := newTestSession(t, &fakeCamera{}, &fakeDetector{}, emb)

	vec, err := session.Probe(context.Background())
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("expected 2-dim probe, got %d", len(vec))
	}
}

func TestProbe_CameraFailure(t *testing.T) {
	camera := &fakeCamera{failAfter: 1, frames: 1}
	session, _ := newTestSession(t, camera, &fakeDetector{}, &fakeEmbedder{})

	if _, err := session.Probe(context.Background()); err == nil {
		t.Error("expected error when camera is unavailable")
	}
}

func TestProbe_EmbeddingFailure(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("no usable features")}
	session, _ := newTestSession(t, &fakeCamera{}, &fakeDetector{}, emb)

	if _, err := session.Probe(context.Background()); err == nil {
		t.Error("expected error when embedding fails")
	}
}

func TestCropLargestFace_PicksLargest(t *testing.T) {
	frame := testFrame()
	faces := []embedder.FaceDetection{
		{FaceIndex: 0, BBox: []float64{0, 0, 10, 10}},
		{FaceIndex: 1, BBox: []float64{10, 10, 40, 40}},
	}

	out := CropLargestFace(frame, faces, 16)

	bounds := out.Bounds()
	if bounds.Dx() != 16 || bounds.Dy() != 16 {
		t.Errorf("expected 16x16 crop, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestCropLargestFace_FallbackWholeFrame(t *testing.T) {
	out := CropLargestFace(testFrame(), nil, 16)

	bounds := out.Bounds()
	if bounds.Dx() != 16 || bounds.Dy() != 16 {
		t.Errorf("expected 16x16 fallback resize, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestCropLargestFace_IgnoresInvalidBoxes(t *testing.T) {
	frame := testFrame()
	faces := []embedder.FaceDetection{
		{FaceIndex: 0, BBox: []float64{5, 5}},            // malformed
		{FaceIndex: 1, BBox: []float64{100, 100, 120, 120}}, // outside frame
	}

	out := CropLargestFace(frame, faces, 16)

	bounds := out.Bounds()
	if bounds.Dx() != 16 || bounds.Dy() != 16 {
		t.Errorf("expected whole-frame fallback, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}
