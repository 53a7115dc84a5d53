package face

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shifted returns base with its first component moved by delta, so that
// Distance(base, shifted(base, delta)) == |delta|.
func shifted(base Descriptor, delta float32) Descriptor {
	base[0] += delta
	return base
}

func sampleDescriptor() Descriptor {
	var d Descriptor
	for i := range d {
		d[i] = float32(i%7) / 10
	}
	return d
}

func TestDistance_SelfIsZero(t *testing.T) {
	d := sampleDescriptor()
	assert.Equal(t, 0.0, Distance(d, d))
}

func TestDistance_Euclidean(t *testing.T) {
	var a, b Descriptor
	a[0], a[1] = 3, 0
	b[0], b[1] = 0, 4
	assert.InDelta(t, 5.0, Distance(a, b), 1e-9)
}

func TestMatch_SelfMatchesWhenAlone(t *testing.T) {
	probe := sampleDescriptor()
	id := uuid.New()

	res, err := Match(probe, []Enrolled{{UserID: id, Descriptor: probe}}, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, id, res.UserID)
	assert.Equal(t, 0.0, res.Distance)
}

func TestMatch_ThresholdIsExclusive(t *testing.T) {
	probe := sampleDescriptor()

	_, err := Match(probe, []Enrolled{{UserID: uuid.New(), Descriptor: shifted(probe, 0.65)}}, DefaultThreshold)
	assert.ErrorIs(t, err, ErrNoMatch)

	// exactly at the threshold is still rejected
	var a, b Descriptor
	b[0] = 0.5
	_, err = Match(a, []Enrolled{{UserID: uuid.New(), Descriptor: b}}, 0.5)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestMatch_PicksMinimumDistance(t *testing.T) {
	probe := sampleDescriptor()
	far, near := uuid.New(), uuid.New()

	gallery := []Enrolled{
		{UserID: far, Descriptor: shifted(probe, 0.5)},
		{UserID: near, Descriptor: shifted(probe, -0.2)},
		{UserID: uuid.New(), Descriptor: shifted(probe, 3)},
	}

	res, err := Match(probe, gallery, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, near, res.UserID)
	assert.Equal(t, 1, res.Index)
	assert.InDelta(t, 0.2, res.Distance, 1e-6)
}

func TestMatch_TieGoesToFirst(t *testing.T) {
	probe := sampleDescriptor()
	first, second := uuid.New(), uuid.New()

	gallery := []Enrolled{
		{UserID: first, Descriptor: shifted(probe, 0.25)},
		{UserID: second, Descriptor: shifted(probe, -0.25)},
	}

	res, err := Match(probe, gallery, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, first, res.UserID)
}

func TestMatch_EmptyGallery(t *testing.T) {
	_, err := Match(sampleDescriptor(), nil, DefaultThreshold)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestMatch_NaNNeverMatches(t *testing.T) {
	probe := sampleDescriptor()
	bad := probe
	bad[3] = float32(math.NaN())

	_, err := Match(probe, []Enrolled{{UserID: uuid.New(), Descriptor: bad}}, DefaultThreshold)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestFromSlice(t *testing.T) {
	_, err := FromSlice(make([]float32, 64))
	assert.Error(t, err)

	src := sampleDescriptor()
	d, err := FromSlice(src.Slice())
	require.NoError(t, err)
	assert.Equal(t, src, d)
}
