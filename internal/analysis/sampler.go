package analysis

import "math"

// Default sampling rates. Thumbnails drive the preview filmstrip;
// analysis frames feed the detector. The two frame sets are distinct
// and must not be confused.
const (
	DefaultThumbnailFPS = 2.0
	DefaultAnalysisFPS  = 10.0

	// FrameMatchTolerance is the maximum timestamp distance, in seconds,
	// for mapping an analysis result onto a preview frame.
	FrameMatchTolerance = 0.1
)

// Sample returns the ordered timestamps to extract for a video of the
// given duration: ceil(duration*fps) timestamps at t_i = i/fps.
func Sample(duration, fps float64) []float64 {
	if duration <= 0 || fps <= 0 {
		return nil
	}
	n := int(math.Ceil(duration * fps))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = float64(i) / fps
	}
	return out
}

// NearestFrameIndex maps a timestamp onto a frame set sampled at fps.
// It prefers the nearest timestamp within FrameMatchTolerance and falls
// back to the index round(ts*fps). Returns -1 when the timestamp lands
// outside the set entirely.
func NearestFrameIndex(timestamps []float64, ts, fps float64) int {
	best := -1
	bestDist := math.Inf(1)
	for i, t := range timestamps {
		if d := math.Abs(t - ts); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 && bestDist <= FrameMatchTolerance {
		return best
	}
	idx := int(math.Round(ts * fps))
	if idx < 0 || idx >= len(timestamps) {
		return -1
	}
	return idx
}
