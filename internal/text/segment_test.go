package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment_LiteralBoundaries(t *testing.T) {
	// 12,000 chars, budget 6000, overlap 1: windows advance by 5999, so the
	// boundaries are [0,6000), [5999,11999), [11998,12000).
	transcript := strings.Repeat("abcdefghij", 1200)
	require.Len(t, transcript, 12000)

	segments := Segment(transcript, 6000, 1)

	require.Len(t, segments, 3)
	assert.Equal(t, transcript[0:6000], segments[0])
	assert.Equal(t, transcript[5999:11999], segments[1])
	assert.Equal(t, transcript[11998:12000], segments[2])
}

func TestSegment_CountFormula(t *testing.T) {
	// count = ceil(L / (budget - overlap))
	tests := []struct {
		l, budget, overlap, want int
	}{
		{12000, 6000, 1, 3},
		{5998, 6000, 1, 1},
		{5999, 6000, 1, 1},
		{10, 4, 1, 4},
		{9, 3, 0, 3},
		{1, 6000, 1, 1},
	}

	for _, tt := range tests {
		transcript := strings.Repeat("x", tt.l)
		segments := Segment(transcript, tt.budget, tt.overlap)
		stride := tt.budget - tt.overlap
		assert.Equal(t, (tt.l+stride-1)/stride, len(segments), "L=%d B=%d O=%d", tt.l, tt.budget, tt.overlap)
		assert.Equal(t, tt.want, len(segments), "L=%d B=%d O=%d", tt.l, tt.budget, tt.overlap)
	}
}

func TestSegment_TotalCoverage(t *testing.T) {
	transcript := "0123456789abcdefghij"
	budget, overlap := 7, 2
	stride := budget - overlap

	segments := Segment(transcript, budget, overlap)

	// Segment n starts at n*stride; together the windows must cover every
	// character of the transcript in order.
	covered := make([]bool, len(transcript))
	for n, seg := range segments {
		start := n * stride
		require.Equal(t, transcript[start:start+len(seg)], seg)
		for i := start; i < start+len(seg); i++ {
			covered[i] = true
		}
	}
	for i, c := range covered {
		assert.True(t, c, "character %d not covered", i)
	}
}

func TestSegment_SmallerThanBudget(t *testing.T) {
	segments := Segment("short transcript", 6000, 1)
	assert.Equal(t, []string{"short transcript"}, segments)
}

func TestSegment_Empty(t *testing.T) {
	assert.Nil(t, Segment("", 6000, 1))
}

func TestSegment_OverlapIsCarried(t *testing.T) {
	transcript := "aaaaBbbbb" // 9 chars, budget 5, overlap 1 -> stride 4
	segments := Segment(transcript, 5, 1)

	require.Len(t, segments, 3)
	assert.Equal(t, "aaaaB", segments[0])
	assert.Equal(t, "Bbbbb", segments[1])
	// Last character of a segment opens the next one.
	assert.Equal(t, segments[0][4:], segments[1][:1])
}
