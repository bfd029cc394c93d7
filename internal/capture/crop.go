package capture

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/eaglesec/eagle-access/internal/embedder"
)

// CropLargestFace cuts the largest detected face out of the frame and
// resizes it to a size x size square. With no detections it falls back to
// the whole frame, resized, so the embedding model still gets an input.
func CropLargestFace(frame image.Image, faces []embedder.FaceDetection, size int) image.Image {
	region := frame.Bounds()

	if rect, ok := largestFaceRect(frame.Bounds(), faces); ok {
		region = rect
	}

	return resizeRegion(frame, region, size)
}

// largestFaceRect picks the detection with the largest bounding box area,
// clamped to the frame.
func largestFaceRect(bounds image.Rectangle, faces []embedder.FaceDetection) (image.Rectangle, bool) {
	var best image.Rectangle
	bestArea := 0

	for _, face := range faces {
		if len(face.BBox) != 4 {
			continue
		}
		rect := image.Rect(
			int(face.BBox[0]),
			int(face.BBox[1]),
			int(face.BBox[2]),
			int(face.BBox[3]),
		).Intersect(bounds)
		if rect.Empty() {
			continue
		}
		area := rect.Dx() * rect.Dy()
		if area > bestArea {
			best = rect
			bestArea = area
		}
	}

	return best, bestArea > 0
}

// resizeRegion scales the given region of src into a size x size RGBA image.
func resizeRegion(src image.Image, region image.Rectangle, size int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, region, draw.Src, nil)
	return dst
}
