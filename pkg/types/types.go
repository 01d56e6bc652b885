package types

import "sort"

// FaceBox represents a normalized bounding box with coordinates in [0,1] range,
// relative to the dimensions of the image it was detected in.
type FaceBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DetectionResult is the ordered list of faces returned by a detector for one photo.
type DetectionResult struct {
	Faces []FaceBox `json:"faces"`
}

// Count returns the number of detected faces
func (d DetectionResult) Count() int {
	return len(d.Faces)
}

// PixelRect is a face rectangle in absolute pixel units.
type PixelRect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Width returns the horizontal extent of the rectangle
func (r PixelRect) Width() float64 {
	return r.Right - r.Left
}

// Height returns the vertical extent of the rectangle
func (r PixelRect) Height() float64 {
	return r.Bottom - r.Top
}

// OrdinalMap maps 1-based ordinals (detection order) to the face they label.
// Boxes stay normalized so they can be re-projected on any render target.
type OrdinalMap map[int]FaceBox

// NewOrdinalMap numbers faces 1..N in detection order.
func NewOrdinalMap(faces []FaceBox) OrdinalMap {
	m := make(OrdinalMap, len(faces))
	for i, f := range faces {
		m[i+1] = f
	}
	return m
}

// Keys returns the ordinals in ascending order
func (m OrdinalMap) Keys() []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Has reports whether the ordinal is present
func (m OrdinalMap) Has(ordinal int) bool {
	_, ok := m[ordinal]
	return ok
}

// Selection is a deduplicated, ascending set of ordinals.
type Selection []int

// Empty reports whether nothing was selected
func (s Selection) Empty() bool {
	return len(s) == 0
}
