package domain

import "fmt"

// BusinessConstraints is the closed, fully-enumerated set of calendar and
// work-hours rules a SolveRequest carries (spec §6). Unknown or
// out-of-range fields are a ConfigurationError rather than being silently
// ignored (spec §9).
type BusinessConstraints struct {
	WorkStartHour         int // [0,23]
	WorkEndHour            int // [1,24], WorkEndHour > WorkStartHour
	LunchStartHour         float64
	LunchDurationMinutes   int // [15,120]
	HolidayDays            []int // day offsets from schedule_start, in [0, horizon_days)
	EnforceBusinessHours   bool
}

// Validate checks every field's stated range and cross-field invariant.
// The work-hours and lunch-window ranges only apply when
// EnforceBusinessHours is set: a caller that never enforces business
// hours is not required to populate them, so a zero-valued
// BusinessConstraints is a legal "no calendar restrictions" request.
// Holiday bounds are checked unconditionally, since a holiday masks out
// a whole calendar day regardless of whether intraday hours are
// enforced.
func (b BusinessConstraints) Validate(horizonDays int) error {
	if b.EnforceBusinessHours {
		if b.WorkStartHour < 0 || b.WorkStartHour > 23 {
			return NewConfigurationError("work_start_hour out of range [0,23]", map[string]any{"work_start_hour": b.WorkStartHour})
		}
		if b.WorkEndHour < 1 || b.WorkEndHour > 24 {
			return NewConfigurationError("work_end_hour out of range [1,24]", map[string]any{"work_end_hour": b.WorkEndHour})
		}
		if b.WorkEndHour <= b.WorkStartHour {
			return NewConfigurationError("work_end_hour must be greater than work_start_hour", map[string]any{
				"work_start_hour": b.WorkStartHour, "work_end_hour": b.WorkEndHour,
			})
		}
		if b.LunchDurationMinutes < 15 || b.LunchDurationMinutes > 120 {
			return NewConfigurationError("lunch_duration_minutes out of range [15,120]", map[string]any{"lunch_duration_minutes": b.LunchDurationMinutes})
		}
	}
	for _, d := range b.HolidayDays {
		if d < 0 || d >= horizonDays {
			return NewConfigurationError(fmt.Sprintf("holiday day %d lies outside the horizon", d), map[string]any{"day": d, "horizon_days": horizonDays})
		}
	}
	return nil
}

// WorkWindowMinutesOfDay returns the work-hours window as minute-of-day
// offsets.
func (b BusinessConstraints) WorkWindowMinutesOfDay() (int, int) {
	return b.WorkStartHour * 60, b.WorkEndHour * 60
}

// LunchWindowMinutesOfDay returns the lunch window as minute-of-day
// offsets.
func (b BusinessConstraints) LunchWindowMinutesOfDay() (int, int) {
	start := int(b.LunchStartHour * 60)
	return start, start + b.LunchDurationMinutes
}

// IsHoliday reports whether dayOffset (days since schedule_start) is
// masked as a full holiday.
func (b BusinessConstraints) IsHoliday(dayOffset int) bool {
	for _, d := range b.HolidayDays {
		if d == dayOffset {
			return true
		}
	}
	return false
}
