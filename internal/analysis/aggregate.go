package analysis

import (
	"fmt"
	"math"

	"github.com/natureobs/natureobs-analysis-service/internal/domain/entity"
)

// ConfidenceThreshold is the acceptance threshold for detector output.
// Predictions at or below it are dropped before they reach the mask
// layer; the same threshold gates inventory retention.
const ConfidenceThreshold = 0.5

// Engine merges per-frame detection lists into frame segmentations and
// the persistent inventory. It is a pure transformation layer: every
// method returns new values and leaves its inputs untouched, so the
// caller (the single goroutine draining queue events) owns all state.
type Engine struct {
	threshold float64
}

func NewEngine(threshold float64) *Engine {
	if threshold <= 0 {
		threshold = ConfidenceThreshold
	}
	return &Engine{threshold: threshold}
}

// ApplyDetections returns a copy of frame whose segmentation is rebuilt
// from the accepted detections. Detections at or below the confidence
// threshold never become masks. The labels/confidence projections are
// rebuilt in lock-step with the mask slice.
func (e *Engine) ApplyDetections(frame entity.FrameData, detections []entity.Detection) entity.FrameData {
	out := frame
	var masks []entity.Mask
	var labels []string
	var confidence []float64
	for _, d := range detections {
		if d.Confidence <= e.threshold {
			continue
		}
		masks = append(masks, entity.Mask{
			ID:         fmt.Sprintf("%s-mask-%d", frame.ID, len(masks)),
			Points:     BoxToPolygon(d.Box),
			Label:      d.Label,
			Confidence: d.Confidence,
			Category:   d.Category,
		})
		labels = append(labels, d.Label)
		confidence = append(confidence, d.Confidence)
	}
	out.Segmentation = entity.Segmentation{
		Masks:      masks,
		Labels:     labels,
		Confidence: confidence,
	}
	return out
}

// UpdateInventory folds one frame's detections into the running
// inventory. Labels seen above the threshold overwrite their entry with
// this frame's occurrence count and score. Labels absent from the frame
// are retained unchanged while their stored confidence clears the
// threshold, and dropped otherwise. Retained entries are never revised
// downward, so a confidently-seen object persists until superseded.
func (e *Engine) UpdateInventory(prev entity.Inventory, detections []entity.Detection) entity.Inventory {
	counts := make(map[string]int)
	scores := make(map[string]float64)
	for _, d := range detections {
		if d.Confidence <= e.threshold {
			continue
		}
		counts[d.Label]++
		if d.Confidence > scores[d.Label] {
			scores[d.Label] = d.Confidence
		}
	}

	next := make(entity.Inventory, len(prev)+len(counts))
	for label, entry := range prev {
		if entry.LastConfidence > e.threshold {
			next[label] = entry
		}
	}
	for label, n := range counts {
		next[label] = entity.InventoryEntry{Count: n, LastConfidence: scores[label]}
	}
	return next
}

// BoxToPolygon converts an axis-aligned box to its four corners,
// clockwise from the top-left. This is the canonical box-to-polygon
// conversion; PolygonBounds is its inverse for unedited masks.
func BoxToPolygon(box entity.BoundingBox) []entity.Point {
	return []entity.Point{
		{X: box.X, Y: box.Y},
		{X: box.X + box.Width, Y: box.Y},
		{X: box.X + box.Width, Y: box.Y + box.Height},
		{X: box.X, Y: box.Y + box.Height},
	}
}

// PolygonBounds recomputes the axis-aligned bounding box of a polygon.
func PolygonBounds(points []entity.Point) entity.BoundingBox {
	if len(points) == 0 {
		return entity.BoundingBox{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return entity.BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
