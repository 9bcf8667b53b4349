package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/natureobs/natureobs-analysis-service/internal/domain/port"
	"go.uber.org/zap"
)

// Extractor opens video handles for single-frame capture.
type Extractor struct {
	format string
	logger *zap.Logger
}

func NewExtractor(format string, logger *zap.Logger) *Extractor {
	return &Extractor{format: format, logger: logger}
}

func (e *Extractor) Open(videoPath string) (port.VideoHandle, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	return &handle{path: videoPath, logger: e.logger}, nil
}

var _ port.FrameExtractor = (*Extractor)(nil)

// handle serializes extraction: a video source has a single current
// position, so overlapping seeks on one handle would corrupt each
// other. The mutex makes the single-flight property explicit instead of
// relying on caller discipline.
type handle struct {
	mu     sync.Mutex
	path   string
	closed bool
	logger *zap.Logger
}

func (h *handle) ExtractFrame(ctx context.Context, timestamp float64, outPath string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("video handle closed")
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-ss", fmt.Sprintf("%.3f", timestamp),
		"-i", h.path,
		"-frames:v", "1",
		"-y",
		outPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg seek to %.3fs: %w, output: %s", timestamp, err, string(output))
	}

	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("no decodable image at %.3fs: %w", timestamp, err)
	}

	h.logger.Debug("frame extracted",
		zap.Float64("timestamp", timestamp),
		zap.String("out_path", outPath),
	)
	return nil
}

func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}
