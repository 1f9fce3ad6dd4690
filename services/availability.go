package services

import (
	"sort"
	"time"

	"bemymentor-server/models"
)

// Session duration bounds in minutes.
const (
	MinSessionMinutes = 15
	MaxSessionMinutes = 240
)

// Window is an absolute half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// OpenSlots walks each available window in steps of min(duration, 30) minutes
// and keeps every candidate [t, t+duration) that fits inside the window and
// overlaps no blocked window and no existing booking. Returns sorted,
// deduplicated "HH:mm" start times in UTC.
func OpenSlots(available []models.AvailableSlot, blocked []models.BlockedSlot, booked []Window, duration time.Duration) []string {
	step := duration
	if step > 30*time.Minute {
		step = 30 * time.Minute
	}

	seen := make(map[string]bool)
	var out []string

	for _, win := range available {
		for t := win.StartAt; !t.Add(duration).After(win.EndAt); t = t.Add(step) {
			end := t.Add(duration)
			if conflictsAny(t, end, blocked, booked) {
				continue
			}
			hm := t.UTC().Format("15:04")
			if !seen[hm] {
				seen[hm] = true
				out = append(out, hm)
			}
		}
	}

	sort.Strings(out)
	return out
}

// ClampToDay narrows declared windows to [dayStart, dayEnd) so a window
// straddling midnight cannot emit start times that belong to a neighboring
// calendar day. Windows emptied by the clamp are dropped.
func ClampToDay(available []models.AvailableSlot, dayStart, dayEnd time.Time) []models.AvailableSlot {
	out := make([]models.AvailableSlot, 0, len(available))
	for _, win := range available {
		if win.StartAt.Before(dayStart) {
			win.StartAt = dayStart
		}
		if win.EndAt.After(dayEnd) {
			win.EndAt = dayEnd
		}
		if win.EndAt.After(win.StartAt) {
			out = append(out, win)
		}
	}
	return out
}

func conflictsAny(start, end time.Time, blocked []models.BlockedSlot, booked []Window) bool {
	for _, b := range blocked {
		if Overlaps(start, end, b.StartAt, b.EndAt) {
			return true
		}
	}
	for _, w := range booked {
		if Overlaps(start, end, w.Start, w.End) {
			return true
		}
	}
	return false
}
