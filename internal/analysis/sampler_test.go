package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample_ExactTimestamps(t *testing.T) {
	got := Sample(5.0, 2)
	want := []float64{0, 0.5, 1.0, 1.5, 2.0, 2.5, 3.0, 3.5, 4.0, 4.5}
	require.Len(t, got, 10)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12)
	}
}

func TestSample_CeilFrameCount(t *testing.T) {
	// 2.1 s at 2 fps needs ceil(4.2) = 5 frames.
	assert.Len(t, Sample(2.1, 2), 5)
	assert.Len(t, Sample(2.0, 2), 4)
	assert.Len(t, Sample(0.05, 10), 1)
}

func TestSample_DegenerateInputs(t *testing.T) {
	assert.Nil(t, Sample(0, 2))
	assert.Nil(t, Sample(-1, 2))
	assert.Nil(t, Sample(5, 0))
}

func TestSample_TimestampsMonotonic(t *testing.T) {
	got := Sample(3.7, 10)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i], got[i-1])
	}
}

func TestNearestFrameIndex_WithinTolerance(t *testing.T) {
	preview := Sample(5.0, 2) // 0, 0.5, 1.0, ...
	assert.Equal(t, 2, NearestFrameIndex(preview, 1.04, 2))
	assert.Equal(t, 0, NearestFrameIndex(preview, 0.09, 2))
}

func TestNearestFrameIndex_FallsBackToIndex(t *testing.T) {
	// Sparse preview set: 0.7 is more than the tolerance away from both
	// 0.5 and 1.0, so the mapping falls back to round(0.7*2) = 1.
	preview := []float64{0, 0.5, 1.0, 1.5}
	assert.Equal(t, 1, NearestFrameIndex(preview, 0.7, 2))
}

func TestNearestFrameIndex_OutOfRange(t *testing.T) {
	preview := []float64{0, 0.5}
	assert.Equal(t, -1, NearestFrameIndex(preview, 9.3, 2))
	assert.Equal(t, -1, NearestFrameIndex(nil, 0, 2))
}
