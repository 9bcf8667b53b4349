package analysis

import (
	"testing"

	"github.com/natureobs/natureobs-analysis-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func det(label string, conf float64, box entity.BoundingBox) entity.Detection {
	return entity.Detection{
		Label:      label,
		Confidence: conf,
		Box:        box,
		Category:   Categorize(label),
	}
}

func TestBoxToPolygon_ClockwiseFromTopLeft(t *testing.T) {
	points := BoxToPolygon(entity.BoundingBox{X: 10, Y: 10, Width: 50, Height: 30})
	want := []entity.Point{{X: 10, Y: 10}, {X: 60, Y: 10}, {X: 60, Y: 40}, {X: 10, Y: 40}}
	assert.Equal(t, want, points)
}

func TestPolygonBounds_InverseOfBoxToPolygon(t *testing.T) {
	box := entity.BoundingBox{X: 10, Y: 10, Width: 50, Height: 30}
	assert.Equal(t, box, PolygonBounds(BoxToPolygon(box)))
}

func TestPolygonBounds_ArbitraryPolygon(t *testing.T) {
	points := []entity.Point{{X: 5, Y: 20}, {X: 15, Y: 2}, {X: 30, Y: 25}}
	assert.Equal(t, entity.BoundingBox{X: 5, Y: 2, Width: 25, Height: 23}, PolygonBounds(points))
}

func TestPolygonBounds_Empty(t *testing.T) {
	assert.Equal(t, entity.BoundingBox{}, PolygonBounds(nil))
}

func TestApplyDetections_BuildsMasksAndProjections(t *testing.T) {
	e := NewEngine(ConfidenceThreshold)
	frame := entity.FrameData{ID: "frame-0", Timestamp: 0}

	next := e.ApplyDetections(frame, []entity.Detection{
		det("bear", 0.9, entity.BoundingBox{X: 1, Y: 2, Width: 3, Height: 4}),
		det("tree", 0.8, entity.BoundingBox{X: 5, Y: 6, Width: 7, Height: 8}),
	})

	require.Len(t, next.Segmentation.Masks, 2)
	assert.Equal(t, []string{"bear", "tree"}, next.Segmentation.Labels)
	assert.Equal(t, []float64{0.9, 0.8}, next.Segmentation.Confidence)

	bear := next.Segmentation.Masks[0]
	assert.Equal(t, "frame-0-mask-0", bear.ID)
	assert.Equal(t, entity.CategoryDynamic, bear.Category)
	assert.Equal(t, BoxToPolygon(entity.BoundingBox{X: 1, Y: 2, Width: 3, Height: 4}), bear.Points)
	assert.Equal(t, entity.CategoryStatic, next.Segmentation.Masks[1].Category)

	// Input frame untouched.
	assert.Empty(t, frame.Segmentation.Masks)
}

func TestApplyDetections_DropsLowConfidence(t *testing.T) {
	e := NewEngine(ConfidenceThreshold)
	frame := entity.FrameData{ID: "frame-1"}

	next := e.ApplyDetections(frame, []entity.Detection{
		det("bear", 0.5, entity.BoundingBox{}),  // at threshold: dropped
		det("deer", 0.49, entity.BoundingBox{}), // below: dropped
		det("fox", 0.51, entity.BoundingBox{}),
	})

	require.Len(t, next.Segmentation.Masks, 1)
	assert.Equal(t, []string{"fox"}, next.Segmentation.Labels)
}

func TestApplyDetections_ReplacesPreviousSegmentation(t *testing.T) {
	e := NewEngine(ConfidenceThreshold)
	frame := entity.FrameData{ID: "frame-2"}
	frame = e.ApplyDetections(frame, []entity.Detection{det("bear", 0.9, entity.BoundingBox{})})
	frame = e.ApplyDetections(frame, []entity.Detection{det("owl", 0.8, entity.BoundingBox{})})

	require.Len(t, frame.Segmentation.Masks, 1)
	assert.Equal(t, "owl", frame.Segmentation.Masks[0].Label)
}

func TestUpdateInventory_RetainsConfidentAbsentLabels(t *testing.T) {
	e := NewEngine(ConfidenceThreshold)

	// Frame N: bear seen confidently.
	inv := e.UpdateInventory(entity.Inventory{}, []entity.Detection{
		det("bear", 0.9, entity.BoundingBox{}),
	})
	require.Equal(t, entity.InventoryEntry{Count: 1, LastConfidence: 0.9}, inv["bear"])

	// Frame N+1: bear absent, entry persists unchanged.
	inv = e.UpdateInventory(inv, nil)
	assert.Equal(t, entity.InventoryEntry{Count: 1, LastConfidence: 0.9}, inv["bear"])

	// Frame N+2: still absent, still persists (no decay).
	inv = e.UpdateInventory(inv, nil)
	assert.Equal(t, entity.InventoryEntry{Count: 1, LastConfidence: 0.9}, inv["bear"])
}

func TestUpdateInventory_OverwritesOnRedetection(t *testing.T) {
	e := NewEngine(ConfidenceThreshold)

	inv := e.UpdateInventory(entity.Inventory{}, []entity.Detection{
		det("deer", 0.9, entity.BoundingBox{}),
	})
	inv = e.UpdateInventory(inv, []entity.Detection{
		det("deer", 0.7, entity.BoundingBox{}),
		det("deer", 0.6, entity.BoundingBox{}),
	})

	// Count is this frame's occurrences, not a running total, and the
	// score is this frame's best.
	assert.Equal(t, entity.InventoryEntry{Count: 2, LastConfidence: 0.7}, inv["deer"])
}

func TestUpdateInventory_DropsStaleLowConfidenceEntries(t *testing.T) {
	e := NewEngine(ConfidenceThreshold)

	prev := entity.Inventory{
		"bear": {Count: 1, LastConfidence: 0.9},
		"fox":  {Count: 1, LastConfidence: 0.5}, // at threshold: not retained
	}
	inv := e.UpdateInventory(prev, nil)

	assert.Contains(t, inv, "bear")
	assert.NotContains(t, inv, "fox")
}

func TestUpdateInventory_IgnoresLowConfidenceDetections(t *testing.T) {
	e := NewEngine(ConfidenceThreshold)
	inv := e.UpdateInventory(entity.Inventory{}, []entity.Detection{
		det("rabbit", 0.3, entity.BoundingBox{}),
	})
	assert.Empty(t, inv)
}

func TestUpdateInventory_DoesNotMutatePrevious(t *testing.T) {
	e := NewEngine(ConfidenceThreshold)
	prev := entity.Inventory{"bear": {Count: 1, LastConfidence: 0.9}}
	_ = e.UpdateInventory(prev, []entity.Detection{det("bear", 0.95, entity.BoundingBox{})})
	assert.Equal(t, entity.InventoryEntry{Count: 1, LastConfidence: 0.9}, prev["bear"])
}
