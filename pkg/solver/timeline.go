package solver

import (
	"sort"

	"github.com/google/uuid"
)

// busyInterval is a half-open [start, end) booking in schedule minutes.
type busyInterval struct {
	start, end int64
}

func (b busyInterval) overlaps(other busyInterval) bool {
	return b.start < other.end && other.start < b.end
}

// resourceTimeline books non-overlapping intervals per resource id
// (machine or operator), used by the constructive scheduler and the
// local-search repair step to find a resource's earliest free slot.
type resourceTimeline struct {
	bookings map[uuid.UUID][]busyInterval
}

func newResourceTimeline() *resourceTimeline {
	return &resourceTimeline{bookings: make(map[uuid.UUID][]busyInterval)}
}

// EarliestFit returns the earliest start >= earliest at which a
// duration-length booking for id does not overlap any existing booking.
func (t *resourceTimeline) EarliestFit(id uuid.UUID, earliest, duration int64) int64 {
	if duration <= 0 {
		return earliest
	}
	intervals := t.bookings[id]
	candidate := earliest
	for {
		conflict := false
		for _, existing := range intervals {
			if candidate < existing.end && existing.start < candidate+duration {
				candidate = existing.end
				conflict = true
			}
		}
		if !conflict {
			return candidate
		}
	}
}

// Fits reports whether [start, start+duration) is free for id.
func (t *resourceTimeline) Fits(id uuid.UUID, start, duration int64) bool {
	want := busyInterval{start: start, end: start + duration}
	for _, existing := range t.bookings[id] {
		if existing.overlaps(want) {
			return false
		}
	}
	return true
}

// Book records a new interval for id, keeping the slice sorted by start.
func (t *resourceTimeline) Book(id uuid.UUID, start, duration int64) {
	intervals := append(t.bookings[id], busyInterval{start: start, end: start + duration})
	sort.Slice(intervals, func(i, j int) bool { return intervals[i].start < intervals[j].start })
	t.bookings[id] = intervals
}

// Release removes one booking matching (start, duration) for id.
func (t *resourceTimeline) Release(id uuid.UUID, start, duration int64) {
	intervals := t.bookings[id]
	end := start + duration
	for i, existing := range intervals {
		if existing.start == start && existing.end == end {
			t.bookings[id] = append(intervals[:i], intervals[i+1:]...)
			return
		}
	}
}

// zoneTimeline tracks concurrent occupancy of all machines within a
// WIP-bounded production zone, independent of which specific machine in
// the zone each task lands on (spec §4.1's cumulative zone constraint).
type zoneTimeline struct {
	intervals []busyInterval
	limit     int
}

func newZoneTimeline(limit int) *zoneTimeline {
	return &zoneTimeline{limit: limit}
}

// Fits reports whether adding [start, start+duration) keeps concurrent
// occupancy within the zone's WIP limit at every instant.
func (z *zoneTimeline) Fits(start, duration int64) bool {
	if z.limit <= 0 {
		return true
	}
	candidate := busyInterval{start: start, end: start + duration}
	return maxConcurrency(append(append([]busyInterval{}, z.intervals...), candidate)) <= z.limit
}

// Book records a new zone occupancy interval.
func (z *zoneTimeline) Book(start, duration int64) {
	z.intervals = append(z.intervals, busyInterval{start: start, end: start + duration})
}

// maxConcurrency computes the maximum number of intervals simultaneously
// open via a classic start/end event sweep.
func maxConcurrency(intervals []busyInterval) int {
	type event struct {
		at    int64
		delta int
	}
	events := make([]event, 0, len(intervals)*2)
	for _, iv := range intervals {
		events = append(events, event{at: iv.start, delta: 1}, event{at: iv.end, delta: -1})
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].at != events[j].at {
			return events[i].at < events[j].at
		}
		return events[i].delta < events[j].delta // process ends before starts at the same instant
	})
	var running, max int
	for _, e := range events {
		running += e.delta
		if running > max {
			max = running
		}
	}
	return max
}
