// Package capture acquires frames from the camera and turns them into
// normalized face crops for enrollment samples and verification probes.
package capture

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"

	// Frame decoders for camera snapshots.
	_ "image/jpeg"
	_ "image/png"
)

// Camera produces one frame per call. The physical device is a single
// exclusive resource; Session serializes access to it.
type Camera interface {
	Frame(ctx context.Context) (image.Image, error)
}

// SnapshotCamera fetches frames from an HTTP snapshot endpoint, the kind
// exposed by webcam daemons (e.g. motion, ustreamer).
type SnapshotCamera struct {
	url    string
	client *http.Client
}

// NewSnapshotCamera creates a camera reading from the given snapshot URL.
func NewSnapshotCamera(url string) *SnapshotCamera {
	return &SnapshotCamera{
		url:    url,
		client: &http.Client{},
	}
}

// Frame fetches and decodes one snapshot.
func (c *SnapshotCamera) Frame(ctx context.Context) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("camera request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("camera error (status %d): %s", resp.StatusCode, string(body))
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	return img, nil
}
