package solver

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestResourceTimelineEarliestFitAvoidsOverlap(t *testing.T) {
	tl := newResourceTimeline()
	id := uuid.New()

	tl.Book(id, 0, 60)
	start := tl.EarliestFit(id, 0, 30)
	require.Equal(t, int64(60), start)

	tl.Book(id, 60, 30)
	start = tl.EarliestFit(id, 0, 10)
	require.Equal(t, int64(90), start)
}

func TestResourceTimelineFitsAndRelease(t *testing.T) {
	tl := newResourceTimeline()
	id := uuid.New()
	tl.Book(id, 100, 50)

	require.False(t, tl.Fits(id, 120, 10))
	require.True(t, tl.Fits(id, 150, 10))

	tl.Release(id, 100, 50)
	require.True(t, tl.Fits(id, 100, 50))
}

func TestZoneTimelineEnforcesWIPLimit(t *testing.T) {
	zt := newZoneTimeline(1)
	require.True(t, zt.Fits(0, 100))
	zt.Book(0, 100)

	require.False(t, zt.Fits(50, 10))
	require.True(t, zt.Fits(100, 10))
}

func TestMaxConcurrency(t *testing.T) {
	intervals := []busyInterval{
		{start: 0, end: 10},
		{start: 5, end: 15},
		{start: 20, end: 30},
	}
	require.Equal(t, 2, maxConcurrency(intervals))
}
