package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/natureobs/natureobs-analysis-service/internal/domain/port"
)

// Prober reads video metadata with ffprobe.
type Prober struct{}

func NewProber() *Prober {
	return &Prober{}
}

func (p *Prober) Probe(ctx context.Context, videoPath string) (*port.VideoMetadata, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height:format=duration",
		"-of", "default=noprint_wrappers=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbeOutput(output, videoPath)
}

func parseProbeOutput(output []byte, videoPath string) (*port.VideoMetadata, error) {
	meta := &port.VideoMetadata{}
	var err error
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "width":
			meta.Resolution.Width, err = strconv.Atoi(value)
		case "height":
			meta.Resolution.Height, err = strconv.Atoi(value)
		case "duration":
			meta.Duration, err = strconv.ParseFloat(value, 64)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("parse ffprobe %s %q: %w", key, value, err)
		}
	}

	if meta.Duration <= 0 {
		return nil, fmt.Errorf("ffprobe reported no duration for %s", videoPath)
	}
	if meta.Resolution.Width <= 0 || meta.Resolution.Height <= 0 {
		return nil, fmt.Errorf("ffprobe reported no video stream resolution for %s", videoPath)
	}
	return meta, nil
}

var _ port.VideoProber = (*Prober)(nil)
