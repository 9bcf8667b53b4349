package analysis

import (
	"math"

	"github.com/natureobs/natureobs-analysis-service/internal/domain/entity"
)

// TargetHeight caps the processing resolution. Detection runs on frames
// no taller than this; geometry is scaled back to source on export.
const TargetHeight = 720

// ProcessingResolution derives the downscaled resolution used for
// detection. Sources at or under the cap pass through unchanged;
// taller sources are scaled to exactly TargetHeight with the width
// rounded to preserve the aspect ratio.
func ProcessingResolution(src entity.Resolution) entity.Resolution {
	if src.Height <= TargetHeight {
		return src
	}
	return entity.Resolution{
		Width:  int(math.Round(float64(TargetHeight) * float64(src.Width) / float64(src.Height))),
		Height: TargetHeight,
	}
}

// ScaleMaskToSource maps a mask's points from the processing coordinate
// space back to the source resolution. It is the inverse of the
// resolution reduction, so a full-frame box scaled down and back up
// reproduces the original corners within floating-point tolerance.
func ScaleMaskToSource(mask entity.Mask, src, proc entity.Resolution) entity.Mask {
	out := mask
	out.Points = ScalePointsToSource(mask.Points, src, proc)
	return out
}

func ScalePointsToSource(points []entity.Point, src, proc entity.Resolution) []entity.Point {
	if proc.Width == 0 || proc.Height == 0 {
		return points
	}
	sx := float64(src.Width) / float64(proc.Width)
	sy := float64(src.Height) / float64(proc.Height)
	out := make([]entity.Point, len(points))
	for i, p := range points {
		out[i] = entity.Point{X: p.X * sx, Y: p.Y * sy}
	}
	return out
}
