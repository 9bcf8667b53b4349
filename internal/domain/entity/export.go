package entity

// ExportData is the structured analysis report. It is derived state:
// recomputed fresh on each export request, never mutated in place.
type ExportData struct {
	Metadata ExportMetadata `json:"metadata"`
	Frames   []ExportFrame  `json:"frames"`
	Summary  ExportSummary  `json:"summary"`
}

type ExportMetadata struct {
	Duration        float64    `json:"duration"`
	Resolution      Resolution `json:"resolution"`
	ProcessedAt     string     `json:"processedAt"`
	TotalFrames     int        `json:"totalFrames"`
	DetectedObjects Inventory  `json:"detectedObjects"`
}

type ExportFrame struct {
	Timestamp float64        `json:"timestamp"`
	Objects   []ExportObject `json:"objects"`
}

// ExportObject carries mask geometry rescaled to the source resolution.
// BoundingBox is recomputed from the polygon at export time so that
// manual polygon edits are reflected.
type ExportObject struct {
	Label       string      `json:"label"`
	Category    Category    `json:"category"`
	Confidence  float64     `json:"confidence"`
	Points      []Point     `json:"points"`
	BoundingBox BoundingBox `json:"boundingBox"`
}

type ExportSummary struct {
	UniqueObjects     []string `json:"uniqueObjects"`
	AverageConfidence float64  `json:"averageConfidence"`
}
