package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/natureobs/natureobs-analysis-service/internal/domain/entity"
	"github.com/natureobs/natureobs-analysis-service/internal/domain/port"
)

// Downscaler resizes stills to the processing resolution so detection
// cost stays bounded regardless of the source resolution.
type Downscaler struct{}

func NewDownscaler() *Downscaler {
	return &Downscaler{}
}

func (d *Downscaler) Downscale(ctx context.Context, inPath, outPath string, res entity.Resolution) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inPath,
		"-vf", fmt.Sprintf("scale=%d:%d", res.Width, res.Height),
		"-y",
		outPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg scale to %dx%d: %w, output: %s", res.Width, res.Height, err, string(output))
	}
	return nil
}

var _ port.Downscaler = (*Downscaler)(nil)
