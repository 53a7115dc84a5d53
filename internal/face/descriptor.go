// Package face extracts face descriptors from uploaded images and matches a
// probe descriptor against the gallery of enrolled users.
package face

import (
	"fmt"
	"math"
)

// Size is the dimensionality of a descriptor produced by the dlib model.
const Size = 128

// Descriptor is a fixed-length face embedding.
type Descriptor [Size]float32

// FromSlice converts a stored descriptor, rejecting wrong lengths.
func FromSlice(v []float32) (Descriptor, error) {
	var d Descriptor
	if len(v) != Size {
		return d, fmt.Errorf("descriptor has %d dimensions, want %d", len(v), Size)
	}
	copy(d[:], v)
	return d, nil
}

// Slice returns a copy suitable for storage.
func (d Descriptor) Slice() []float32 {
	out := make([]float32, Size)
	copy(out, d[:])
	return out
}

// Distance is the Euclidean (L2) distance between two descriptors.
func Distance(a, b Descriptor) float64 {
	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
