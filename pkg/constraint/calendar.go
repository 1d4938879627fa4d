package constraint

import "github.com/flowforge/jobshop/pkg/domain"

// WorkingWindow describes one day's open work interval, in minutes
// from schedule start, after masking lunch. A holiday day yields no
// working windows at all.
type WorkingWindow struct {
	StartMinute int64
	EndMinute   int64
}

// WorkingWindowsForDay returns the open (non-lunch) work sub-windows for
// dayOffset, or nil if the day is a full holiday. When
// EnforceBusinessHours is false the entire day is open.
func WorkingWindowsForDay(bc domain.BusinessConstraints, dayOffset int64) []WorkingWindow {
	if !bc.EnforceBusinessHours {
		return []WorkingWindow{{StartMinute: dayOffset * 1440, EndMinute: (dayOffset + 1) * 1440}}
	}
	if bc.IsHoliday(int(dayOffset)) {
		return nil
	}
	workStart, workEnd := bc.WorkWindowMinutesOfDay()
	lunchStart, lunchEnd := bc.LunchWindowMinutesOfDay()
	base := dayOffset * 1440

	ws, we := base+int64(workStart), base+int64(workEnd)
	ls, le := base+int64(lunchStart), base+int64(lunchEnd)

	if le <= ws || ls >= we {
		return []WorkingWindow{{StartMinute: ws, EndMinute: we}}
	}
	var out []WorkingWindow
	if ls > ws {
		out = append(out, WorkingWindow{StartMinute: ws, EndMinute: minInt64(ls, we)})
	}
	if le < we {
		out = append(out, WorkingWindow{StartMinute: maxInt64(le, ws), EndMinute: we})
	}
	return out
}

// FitsWithinWorkingHours reports whether [start, end) lies entirely
// within one open working window (used for an attended task's setup
// sub-interval, spec §4.1).
func FitsWithinWorkingHours(bc domain.BusinessConstraints, start, end int64) bool {
	if start >= end {
		return true // zero-duration events need no window
	}
	dayOffset := start / 1440
	for _, w := range WorkingWindowsForDay(bc, dayOffset) {
		if start >= w.StartMinute && end <= w.EndMinute {
			return true
		}
	}
	return false
}

// NextWorkingInstant returns the earliest minute >= from that lies within
// some open working window, searching forward day by day up to
// maxDayOffset.
func NextWorkingInstant(bc domain.BusinessConstraints, from int64, maxDayOffset int64) (int64, bool) {
	day := from / 1440
	for day <= maxDayOffset {
		for _, w := range WorkingWindowsForDay(bc, day) {
			if from < w.StartMinute {
				return w.StartMinute, true
			}
			if from >= w.StartMinute && from < w.EndMinute {
				return from, true
			}
		}
		day++
		from = day * 1440
	}
	return 0, false
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
