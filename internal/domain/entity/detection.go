package entity

// Detection is a single normalized detector output for one frame.
// Box coordinates are in the pixel space of the image that was analyzed
// (the processing resolution, not the source resolution).
type Detection struct {
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
	Category   Category    `json:"category"`
}

// InventoryEntry records the most recent sighting of a label.
// Count is the number of occurrences within the last frame that contained
// the label; it is overwritten on re-detection, never accumulated.
type InventoryEntry struct {
	Count          int     `json:"count"`
	LastConfidence float64 `json:"last_confidence"`
}

// Inventory maps label to its latest sighting across the whole video so
// far. Entries persist across frames where detection transiently fails,
// as long as their stored confidence clears the acceptance threshold.
type Inventory map[string]InventoryEntry

// Clone returns an independent copy, usable as the base for the next
// frame's inventory without mutating the previous one.
func (inv Inventory) Clone() Inventory {
	out := make(Inventory, len(inv))
	for k, v := range inv {
		out[k] = v
	}
	return out
}
