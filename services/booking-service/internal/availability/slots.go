package availability

import "time"

// Business hours are fixed for every day of the week.
const (
	OpensAt  = 9 * time.Hour
	ClosesAt = 17 * time.Hour
)

// DayWindow returns the business window [open, close) on the given calendar date.
func DayWindow(day time.Time) (time.Time, time.Time) {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return d.Add(OpensAt), d.Add(ClosesAt)
}

// AvailableSlots returns grid points windowStart, windowStart+step, ... strictly before windowEnd
// that do not coincide with any taken start time.
//
// A step that is not positive, or that spans the whole window or more, yields no slots.
func AvailableSlots(windowStart, windowEnd time.Time, step time.Duration, taken []time.Time) []time.Time {
	if step <= 0 {
		return nil
	}
	if !windowEnd.After(windowStart) {
		return nil
	}
	if step >= windowEnd.Sub(windowStart) {
		return nil
	}

	busy := make(map[int64]struct{}, len(taken))
	for _, t := range taken {
		busy[t.Truncate(time.Minute).Unix()] = struct{}{}
	}

	var slots []time.Time
	for t := windowStart; t.Before(windowEnd); t = t.Add(step) {
		if _, ok := busy[t.Unix()]; ok {
			continue
		}
		slots = append(slots, t)
	}
	return slots
}
