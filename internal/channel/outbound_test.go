package channel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentTextShortInput(t *testing.T) {
	t.Parallel()

	segments, omitted := SegmentText(strings.Repeat("a", 100), SegmentPolicy{})
	require.Len(t, segments, 1)
	assert.Equal(t, strings.Repeat("a", 100), segments[0])
	assert.Zero(t, omitted)
}

func TestSegmentTextSliceBoundaries(t *testing.T) {
	t.Parallel()

	input := strings.Repeat("x", 5000)
	segments, omitted := SegmentText(input, SegmentPolicy{Limit: 1993, MaxSegments: 3})
	require.Len(t, segments, 3)
	assert.Equal(t, 1993, len(segments[0]))
	assert.Equal(t, 1993, len(segments[1]))
	assert.Equal(t, 1014, len(segments[2]))
	assert.Zero(t, omitted)
	assert.Equal(t, input, strings.Join(segments, ""))
}

func TestSegmentTextTruncatesAtCap(t *testing.T) {
	t.Parallel()

	// 3 segments cover 5979 runes; everything past that is reported, not kept.
	input := strings.Repeat("y", 6100)
	segments, omitted := SegmentText(input, SegmentPolicy{Limit: 1993, MaxSegments: 3})
	require.Len(t, segments, 3)
	assert.Equal(t, 6100-3*1993, omitted)
	assert.Equal(t, input[:3*1993], strings.Join(segments, ""))
}

func TestSegmentTextOrderPreserved(t *testing.T) {
	t.Parallel()

	input := "abcdefghij"
	segments, omitted := SegmentText(input, SegmentPolicy{Limit: 3, MaxSegments: 10})
	assert.Equal(t, []string{"abc", "def", "ghi", "j"}, segments)
	assert.Zero(t, omitted)
}

func TestSegmentTextRuneSafety(t *testing.T) {
	t.Parallel()

	input := strings.Repeat("é", 10)
	segments, _ := SegmentText(input, SegmentPolicy{Limit: 4, MaxSegments: 10})
	require.Len(t, segments, 3)
	assert.Equal(t, input, strings.Join(segments, ""))
}

func TestSegmentTextEmpty(t *testing.T) {
	t.Parallel()

	segments, omitted := SegmentText("", SegmentPolicy{})
	assert.Nil(t, segments)
	assert.Zero(t, omitted)
}

func TestWrapSegment(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "```hello```", WrapSegment("hello"))
}

func TestNormalizeSegmentPolicyDefaults(t *testing.T) {
	t.Parallel()

	policy := NormalizeSegmentPolicy(SegmentPolicy{})
	assert.Equal(t, DefaultSegmentLimit, policy.Limit)
	assert.Equal(t, DefaultMaxSegments, policy.MaxSegments)
}
