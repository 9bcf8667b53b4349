package port

import (
	"context"

	"github.com/natureobs/natureobs-analysis-service/internal/domain/entity"
)

// Detector invokes the external object-detection capability on a still
// image and returns normalized detections. Box coordinates are in the
// pixel space of the image at imagePath. No ordering guarantee, and
// duplicate overlapping boxes for the same object may occur.
type Detector interface {
	Detect(ctx context.Context, imagePath string) ([]entity.Detection, error)
}
