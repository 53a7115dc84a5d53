package face

import (
	"errors"
	"math"

	"github.com/google/uuid"
)

// DefaultThreshold is the exclusive upper bound on an accepted match distance.
const DefaultThreshold = 0.6

var ErrNoMatch = errors.New("no enrolled face matched")

// Enrolled is one gallery entry.
type Enrolled struct {
	UserID     uuid.UUID
	Descriptor Descriptor
}

// Result is the best gallery entry for a probe.
type Result struct {
	UserID   uuid.UUID
	Index    int
	Distance float64
}

// Match scans the whole gallery and returns the entry closest to probe.
// The match is accepted only when its distance is strictly below threshold.
// On equal distances the entry that appears first in gallery wins.
func Match(probe Descriptor, gallery []Enrolled, threshold float64) (Result, error) {
	best := Result{Index: -1, Distance: math.Inf(1)}

	for i, entry := range gallery {
		d := Distance(probe, entry.Descriptor)
		if d < best.Distance {
			best = Result{UserID: entry.UserID, Index: i, Distance: d}
		}
	}

	if best.Index < 0 || !(best.Distance < threshold) {
		return Result{}, ErrNoMatch
	}

	return best, nil
}
