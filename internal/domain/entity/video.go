package entity

import "fmt"

// Category classifies what a mask represents in the scene.
type Category string

const (
	CategoryStatic  Category = "static"
	CategoryDynamic Category = "dynamic"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Resolution) AspectRatio() float64 {
	if r.Height == 0 {
		return 0
	}
	return float64(r.Width) / float64(r.Height)
}

// BoundingBox is an axis-aligned box in pixel coordinates, originating at
// the top-left corner.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Mask is a closed polygon annotation. Detector-produced masks carry the
// four corners of the detection box; hand-drawn masks carry an arbitrary
// polygon of at least three vertices. IDs are unique within a frame only.
type Mask struct {
	ID         string   `json:"id"`
	Points     []Point  `json:"points"`
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	Category   Category `json:"category"`
}

// Segmentation holds the masks of one frame plus parallel label/confidence
// projections kept in lock-step with the mask slice.
type Segmentation struct {
	Masks      []Mask    `json:"masks"`
	Labels     []string  `json:"labels"`
	Confidence []float64 `json:"confidence"`
}

// FrameData is one sampled video timestamp with its accumulated segmentation.
type FrameData struct {
	ID           string       `json:"id"`
	Timestamp    float64      `json:"timestamp"`
	Thumbnail    string       `json:"thumbnail,omitempty"`
	Segmentation Segmentation `json:"segmentation"`
}

// AddMask appends a hand-drawn mask. No detector ran on it, so it gets the
// manual-edit defaults: static, full confidence, placeholder label.
func (f *FrameData) AddMask(id string, points []Point) error {
	if len(points) < 3 {
		return fmt.Errorf("mask %s: polygon needs at least 3 points, got %d", id, len(points))
	}
	f.Segmentation.Masks = append(f.Segmentation.Masks, Mask{
		ID:         id,
		Points:     points,
		Label:      "New Object",
		Confidence: 1,
		Category:   CategoryStatic,
	})
	f.syncProjections()
	return nil
}

// UpdateMask applies non-zero fields of upd to the mask with the given id.
func (f *FrameData) UpdateMask(id string, upd MaskUpdate) error {
	for i := range f.Segmentation.Masks {
		m := &f.Segmentation.Masks[i]
		if m.ID != id {
			continue
		}
		if upd.Points != nil {
			if len(upd.Points) < 3 {
				return fmt.Errorf("mask %s: polygon needs at least 3 points, got %d", id, len(upd.Points))
			}
			m.Points = upd.Points
		}
		if upd.Label != nil {
			m.Label = *upd.Label
		}
		if upd.Category != nil {
			m.Category = *upd.Category
		}
		if upd.Confidence != nil {
			m.Confidence = *upd.Confidence
		}
		f.syncProjections()
		return nil
	}
	return fmt.Errorf("mask %s not found", id)
}

func (f *FrameData) DeleteMask(id string) error {
	for i := range f.Segmentation.Masks {
		if f.Segmentation.Masks[i].ID != id {
			continue
		}
		f.Segmentation.Masks = append(f.Segmentation.Masks[:i], f.Segmentation.Masks[i+1:]...)
		f.syncProjections()
		return nil
	}
	return fmt.Errorf("mask %s not found", id)
}

func (f *FrameData) syncProjections() {
	labels := make([]string, len(f.Segmentation.Masks))
	confidence := make([]float64, len(f.Segmentation.Masks))
	for i, m := range f.Segmentation.Masks {
		labels[i] = m.Label
		confidence[i] = m.Confidence
	}
	f.Segmentation.Labels = labels
	f.Segmentation.Confidence = confidence
}

// MaskUpdate is a partial edit of a mask; nil fields are left untouched.
type MaskUpdate struct {
	Points     []Point
	Label      *string
	Category   *Category
	Confidence *float64
}

// ProcessedVideoData is the accumulated analysis state of one video.
type ProcessedVideoData struct {
	Frames     []FrameData `json:"frames"`
	Duration   float64     `json:"duration"`
	Resolution Resolution  `json:"resolution"`
}

// FrameByID returns a pointer into the frame slice, or nil.
func (p *ProcessedVideoData) FrameByID(id string) *FrameData {
	for i := range p.Frames {
		if p.Frames[i].ID == id {
			return &p.Frames[i]
		}
	}
	return nil
}
