package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/natureobs/natureobs-analysis-service/internal/domain/port"
	"go.uber.org/zap"
)

// ThumbnailExtractor produces the preview filmstrip in a single ffmpeg
// pass with the fps filter.
type ThumbnailExtractor struct {
	format string
	logger *zap.Logger
}

func NewThumbnailExtractor(format string, logger *zap.Logger) *ThumbnailExtractor {
	return &ThumbnailExtractor{format: format, logger: logger}
}

func (e *ThumbnailExtractor) ExtractThumbnails(ctx context.Context, videoPath string, outputDir string, fps float64) (*port.ThumbnailResult, error) {
	framePattern := filepath.Join(outputDir, fmt.Sprintf("thumb_%%04d.%s", e.format))
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=%g", fps),
		"-y",
		framePattern,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg error: %w, output: %s", err, string(output))
	}

	globPattern := filepath.Join(outputDir, fmt.Sprintf("thumb_*.%s", e.format))
	paths, err := filepath.Glob(globPattern)
	if err != nil {
		return nil, fmt.Errorf("glob thumbnails: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no thumbnails extracted from video")
	}
	sort.Strings(paths)

	e.logger.Info("thumbnails extracted",
		zap.Int("count", len(paths)),
		zap.Float64("fps", fps),
	)

	return &port.ThumbnailResult{Paths: paths, Count: len(paths)}, nil
}

var _ port.ThumbnailExtractor = (*ThumbnailExtractor)(nil)
