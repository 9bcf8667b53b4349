package port

import (
	"context"

	"github.com/natureobs/natureobs-analysis-service/internal/domain/entity"
)

type VideoMetadata struct {
	Duration   float64
	Resolution entity.Resolution
}

// VideoProber reads duration and source resolution from a video file.
type VideoProber interface {
	Probe(ctx context.Context, videoPath string) (*VideoMetadata, error)
}

// VideoHandle is an open, seekable video source. A handle has a single
// current position, so extraction calls on one handle are serialized by
// the implementation. The handle imposes no timeout of its own; callers
// bound extraction through ctx.
type VideoHandle interface {
	// ExtractFrame captures a still image at the given timestamp, at the
	// video's native resolution, into outPath.
	ExtractFrame(ctx context.Context, timestamp float64, outPath string) error
	Close() error
}

type FrameExtractor interface {
	Open(videoPath string) (VideoHandle, error)
}

type ThumbnailResult struct {
	Paths []string
	Count int
}

// ThumbnailExtractor produces the low-rate preview filmstrip in one pass.
type ThumbnailExtractor interface {
	ExtractThumbnails(ctx context.Context, videoPath string, outputDir string, fps float64) (*ThumbnailResult, error)
}

// Downscaler resizes a still image to the processing resolution before it
// is handed to the detector.
type Downscaler interface {
	Downscale(ctx context.Context, inPath, outPath string, res entity.Resolution) error
}
