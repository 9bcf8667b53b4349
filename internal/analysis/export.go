package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/natureobs/natureobs-analysis-service/internal/domain/entity"
	"gonum.org/v1/gonum/stat"
)

// BuildExport serializes the accumulated analysis state into the report
// structure. Pure transformation, no I/O. Mask geometry is rescaled from
// the processing resolution to the source resolution, and each object's
// bounding box is recomputed from its polygon so manual edits are
// reflected.
func BuildExport(data *entity.ProcessedVideoData, inventory entity.Inventory, processedAt time.Time) (*entity.ExportData, error) {
	if data == nil {
		return nil, fmt.Errorf("no processed video data")
	}

	proc := ProcessingResolution(data.Resolution)

	detected := make(entity.Inventory)
	for label, entry := range inventory {
		if entry.LastConfidence > ConfidenceThreshold {
			detected[label] = entry
		}
	}

	unique := make(map[string]struct{})
	frames := make([]entity.ExportFrame, 0, len(data.Frames))
	frameMeans := make([]float64, 0, len(data.Frames))

	for _, frame := range data.Frames {
		objects := make([]entity.ExportObject, 0, len(frame.Segmentation.Masks))
		for _, mask := range frame.Segmentation.Masks {
			if len(mask.Points) < 3 {
				return nil, fmt.Errorf("frame %s: mask %s has a degenerate polygon", frame.ID, mask.ID)
			}
			points := ScalePointsToSource(mask.Points, data.Resolution, proc)
			objects = append(objects, entity.ExportObject{
				Label:       mask.Label,
				Category:    mask.Category,
				Confidence:  mask.Confidence,
				Points:      points,
				BoundingBox: PolygonBounds(points),
			})
			unique[mask.Label] = struct{}{}
		}
		frames = append(frames, entity.ExportFrame{
			Timestamp: frame.Timestamp,
			Objects:   objects,
		})
		frameMeans = append(frameMeans, meanConfidence(frame.Segmentation.Confidence))
	}

	uniqueObjects := make([]string, 0, len(unique))
	for label := range unique {
		uniqueObjects = append(uniqueObjects, label)
	}
	sort.Strings(uniqueObjects)

	avg := 0.0
	if len(frameMeans) > 0 {
		avg = stat.Mean(frameMeans, nil)
	}

	return &entity.ExportData{
		Metadata: entity.ExportMetadata{
			Duration:        data.Duration,
			Resolution:      data.Resolution,
			ProcessedAt:     processedAt.UTC().Format(time.RFC3339),
			TotalFrames:     len(data.Frames),
			DetectedObjects: detected,
		},
		Frames: frames,
		Summary: entity.ExportSummary{
			UniqueObjects:     uniqueObjects,
			AverageConfidence: avg,
		},
	}, nil
}

// meanConfidence averages a frame's confidence values; frames with no
// masks contribute zero.
func meanConfidence(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// ReportObjectKey builds the storage key for an export report. The
// filename embeds an ISO-8601 UTC timestamp.
func ReportObjectKey(userID, jobID string, at time.Time) string {
	return fmt.Sprintf("%s/report_%s_%s.json", userID, jobID, at.UTC().Format("2006-01-02T15-04-05Z"))
}
