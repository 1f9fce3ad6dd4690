package services

import (
	"testing"
	"time"

	"bemymentor-server/models"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad time literal %q: %v", value, err)
	}
	return parsed
}

func TestOverlapsHalfOpen(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	hour := time.Hour

	// Back-to-back intervals share an endpoint and do not overlap.
	if Overlaps(base, base.Add(hour), base.Add(hour), base.Add(2*hour)) {
		t.Fatal("adjacent intervals should not overlap")
	}
	if !Overlaps(base, base.Add(hour), base.Add(30*time.Minute), base.Add(2*hour)) {
		t.Fatal("intersecting intervals should overlap")
	}
	if !Overlaps(base, base.Add(2*hour), base.Add(30*time.Minute), base.Add(time.Hour)) {
		t.Fatal("contained interval should overlap")
	}
}

func TestOpenSlotsAroundExistingBooking(t *testing.T) {
	// Window 09:00-12:00, one 10:00-11:00 booking, one-hour sessions.
	// Candidates walk in 30-minute steps; 09:30 collides with the booking
	// because 09:30-10:30 intersects 10:00-11:00. Only 09:00 and 11:00
	// survive.
	available := []models.AvailableSlot{{
		StartAt: mustTime(t, "2026-03-10T09:00:00Z"),
		EndAt:   mustTime(t, "2026-03-10T12:00:00Z"),
	}}
	booked := []Window{{
		Start: mustTime(t, "2026-03-10T10:00:00Z"),
		End:   mustTime(t, "2026-03-10T11:00:00Z"),
	}}

	slots := OpenSlots(available, nil, booked, time.Hour)
	want := []string{"09:00", "11:00"}
	if len(slots) != len(want) {
		t.Fatalf("expected %v, got %v", want, slots)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, slots)
		}
	}
}

func TestOpenSlotsCandidateMustFitWindow(t *testing.T) {
	// A 60-minute session starting 11:30 would end past the 12:00 window
	// boundary, so 11:00 is the last valid start.
	available := []models.AvailableSlot{{
		StartAt: mustTime(t, "2026-03-10T09:00:00Z"),
		EndAt:   mustTime(t, "2026-03-10T12:00:00Z"),
	}}

	slots := OpenSlots(available, nil, nil, time.Hour)
	for _, s := range slots {
		if s == "11:30" {
			t.Fatal("11:30 start does not fit a one-hour session before 12:00")
		}
	}
	if len(slots) == 0 || slots[len(slots)-1] != "11:00" {
		t.Fatalf("expected last slot 11:00, got %v", slots)
	}
}

func TestOpenSlotsBlockedWindow(t *testing.T) {
	available := []models.AvailableSlot{{
		StartAt: mustTime(t, "2026-03-10T09:00:00Z"),
		EndAt:   mustTime(t, "2026-03-10T12:00:00Z"),
	}}
	blocked := []models.BlockedSlot{{
		StartAt: mustTime(t, "2026-03-10T09:00:00Z"),
		EndAt:   mustTime(t, "2026-03-10T10:00:00Z"),
	}}

	slots := OpenSlots(available, blocked, nil, time.Hour)
	for _, s := range slots {
		if s == "09:00" || s == "09:30" {
			t.Fatalf("slot %s intersects the blocked window", s)
		}
	}
	if len(slots) == 0 || slots[0] != "10:00" {
		t.Fatalf("expected first slot 10:00, got %v", slots)
	}
}

func TestOpenSlotsShortSessionStepsByDuration(t *testing.T) {
	// A 15-minute duration steps every 15 minutes.
	available := []models.AvailableSlot{{
		StartAt: mustTime(t, "2026-03-10T09:00:00Z"),
		EndAt:   mustTime(t, "2026-03-10T10:00:00Z"),
	}}

	slots := OpenSlots(available, nil, nil, 15*time.Minute)
	want := []string{"09:00", "09:15", "09:30", "09:45"}
	if len(slots) != len(want) {
		t.Fatalf("expected %v, got %v", want, slots)
	}
}

func TestClampToDayCutsStraddlingWindows(t *testing.T) {
	dayStart := mustTime(t, "2026-03-10T00:00:00Z")
	dayEnd := mustTime(t, "2026-03-11T00:00:00Z")

	// A window running 22:00 the previous evening to 02:00 must only offer
	// starts belonging to the queried day.
	available := ClampToDay([]models.AvailableSlot{{
		StartAt: mustTime(t, "2026-03-09T22:00:00Z"),
		EndAt:   mustTime(t, "2026-03-10T02:00:00Z"),
	}}, dayStart, dayEnd)

	slots := OpenSlots(available, nil, nil, time.Hour)
	want := []string{"00:00", "00:30", "01:00"}
	if len(slots) != len(want) {
		t.Fatalf("expected %v, got %v", want, slots)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, slots)
		}
	}

	// A window entirely outside the day is dropped.
	if got := ClampToDay([]models.AvailableSlot{{
		StartAt: mustTime(t, "2026-03-09T08:00:00Z"),
		EndAt:   mustTime(t, "2026-03-09T10:00:00Z"),
	}}, dayStart, dayEnd); len(got) != 0 {
		t.Fatalf("expected out-of-day window dropped, got %v", got)
	}
}

func TestOpenSlotsDedupesOverlappingWindows(t *testing.T) {
	// Two declared windows covering the same morning must not produce
	// duplicate start times, and output stays sorted.
	available := []models.AvailableSlot{
		{StartAt: mustTime(t, "2026-03-10T10:00:00Z"), EndAt: mustTime(t, "2026-03-10T12:00:00Z")},
		{StartAt: mustTime(t, "2026-03-10T09:00:00Z"), EndAt: mustTime(t, "2026-03-10T11:00:00Z")},
	}

	slots := OpenSlots(available, nil, nil, time.Hour)
	seen := map[string]bool{}
	for i, s := range slots {
		if seen[s] {
			t.Fatalf("duplicate slot %s in %v", s, slots)
		}
		seen[s] = true
		if i > 0 && slots[i-1] >= s {
			t.Fatalf("slots not sorted: %v", slots)
		}
	}
	if !seen["09:00"] || !seen["11:00"] {
		t.Fatalf("expected both windows represented, got %v", slots)
	}
}
