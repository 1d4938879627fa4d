package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeWindow_ShiftRoundTrip(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)
	w, err := NewAbsoluteWindow(start, end)
	require.NoError(t, err)

	shifted := w.ShiftByMinutes(90).ShiftByMinutes(-90)
	assert.Equal(t, w.Start(), shifted.Start())
	assert.Equal(t, w.End(), shifted.End())
}

func TestTimeWindow_ExtendByMinutesIsLinear(t *testing.T) {
	w, err := NewRelativeWindow(480, 960)
	require.NoError(t, err)

	combined, err := w.ExtendByMinutes(30)
	require.NoError(t, err)
	combined, err = combined.ExtendByMinutes(20)
	require.NoError(t, err)

	direct, err := w.ExtendByMinutes(50)
	require.NoError(t, err)

	assert.Equal(t, direct.EndMinuteOfDay(), combined.EndMinuteOfDay())
}

func TestTimeWindow_MixedKindsIsError(t *testing.T) {
	abs, err := NewAbsoluteWindow(time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	rel, err := NewRelativeWindow(0, 60)
	require.NoError(t, err)

	_, err = abs.Overlaps(rel)
	assert.Error(t, err)

	_, _, err = abs.Intersection(rel)
	assert.Error(t, err)
}

func TestTimeWindow_InvariantStartBeforeEnd(t *testing.T) {
	_, err := NewRelativeWindow(600, 600)
	assert.Error(t, err)

	_, err = NewRelativeWindow(600, 500)
	assert.Error(t, err)
}

func TestTimeWindow_Intersection(t *testing.T) {
	a, err := NewRelativeWindow(480, 720)
	require.NoError(t, err)
	b, err := NewRelativeWindow(600, 900)
	require.NoError(t, err)

	got, ok, err := a.Intersection(b)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 600, got.StartMinuteOfDay())
	assert.Equal(t, 720, got.EndMinuteOfDay())
}

func TestTimeWindow_Union(t *testing.T) {
	a, err := NewRelativeWindow(480, 720)
	require.NoError(t, err)
	b, err := NewRelativeWindow(600, 900)
	require.NoError(t, err)

	u, err := a.Union(b)
	require.NoError(t, err)
	assert.Equal(t, 480, u.StartMinuteOfDay())
	assert.Equal(t, 900, u.EndMinuteOfDay())
}

func TestDuration_Arithmetic(t *testing.T) {
	d1 := NewDuration(30)
	d2 := NewDuration(45)

	assert.Equal(t, int64(75), d1.Add(d2).Minutes())
	assert.Equal(t, int64(0), d1.Sub(d2).Minutes())
	assert.Equal(t, int64(15), d2.Sub(d1).Minutes())
	assert.True(t, ZeroDuration.IsZero())
	assert.Equal(t, 1.0, NewDuration(60).Hours())
	assert.Equal(t, 1.0, NewDuration(1440).Days())
}

func TestDuration_NegativeClampedToZero(t *testing.T) {
	assert.Equal(t, int64(0), NewDuration(-5).Minutes())
}
