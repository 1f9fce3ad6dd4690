package services

import (
	"testing"
	"time"

	"bemymentor-server/config"
	"bemymentor-server/models"
)

func completedBooking(completedAt time.Time, deadline time.Time) *models.Booking {
	return &models.Booking{
		Status:            models.BookingStatusConfirmed,
		MentorCompletedAt: &completedAt,
		AutoConfirmAt:     &deadline,
	}
}

func TestAutoConfirmDue(t *testing.T) {
	completed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	deadline := completed.Add(72 * time.Hour)

	b := completedBooking(completed, deadline)

	if AutoConfirmDue(b, deadline.Add(-time.Minute)) {
		t.Fatal("deadline not yet passed, should not be due")
	}
	if !AutoConfirmDue(b, deadline.Add(time.Hour)) {
		t.Fatal("deadline passed, should be due")
	}

	// A student confirmation closes the window.
	confirmed := deadline.Add(-time.Hour)
	b.StudentConfirmedAt = &confirmed
	if AutoConfirmDue(b, deadline.Add(time.Hour)) {
		t.Fatal("confirmed booking should never be due")
	}

	// A fraud report cancels the deadline even when it is still set.
	b2 := completedBooking(completed, deadline)
	b2.IsFraudReported = true
	if AutoConfirmDue(b2, deadline.Add(time.Hour)) {
		t.Fatal("fraud-reported booking should never auto-confirm")
	}

	// No completion yet, nothing to confirm.
	b3 := &models.Booking{Status: models.BookingStatusConfirmed, AutoConfirmAt: &deadline}
	if AutoConfirmDue(b3, deadline.Add(time.Hour)) {
		t.Fatal("booking without mentor completion should not be due")
	}
}

func TestEffectiveStatusAppliesDeadlineLazily(t *testing.T) {
	completed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	deadline := completed.Add(72 * time.Hour)
	b := completedBooking(completed, deadline)

	// 71 hours in, still within the window.
	if got := EffectiveStatus(b, completed.Add(71*time.Hour)); got != models.BookingStatusConfirmed {
		t.Fatalf("expected CONFIRMED at 71h, got %s", got)
	}
	// 73 hours in, the stored row still says CONFIRMED but readers see
	// COMPLETED before any sweep has run.
	if got := EffectiveStatus(b, completed.Add(73*time.Hour)); got != models.BookingStatusCompleted {
		t.Fatalf("expected COMPLETED at 73h, got %s", got)
	}
}

func TestConfirmBookingRejectsCancelledBooking(t *testing.T) {
	db := openTestDB(t)
	config.C.TrustThreshold = 5

	mentor := models.Mentor{UserID: 42, OfferType: models.OfferTypeSession, HourlyRate: 6000}
	if err := db.Create(&mentor).Error; err != nil {
		t.Fatalf("seed mentor: %v", err)
	}

	// The mentor marked complete, then the booking was cancelled before the
	// student acted. A late confirmation must not resurrect it.
	completed := time.Now().Add(-2 * time.Hour)
	booking := models.Booking{
		UserID:            7,
		MentorID:          mentor.ID,
		Type:              models.BookingTypeSession,
		Status:            models.BookingStatusCancelled,
		TotalPrice:        9000,
		MentorPayout:      7650,
		PayoutStatus:      models.PayoutStatusRefunded,
		MentorCompletedAt: &completed,
	}
	if err := db.Create(&booking).Error; err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	if err := ConfirmBooking(db, &booking, time.Now()); err != ErrAlreadyResolved {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}

	var got models.Booking
	if err := db.First(&got, booking.ID).Error; err != nil {
		t.Fatalf("reload booking: %v", err)
	}
	if got.Status != models.BookingStatusCancelled {
		t.Fatalf("expected status to stay CANCELLED, got %s", got.Status)
	}
	if got.StudentConfirmedAt != nil {
		t.Fatal("cancelled booking must not gain a confirmation timestamp")
	}

	var gotMentor models.Mentor
	if err := db.First(&gotMentor, mentor.ID).Error; err != nil {
		t.Fatalf("reload mentor: %v", err)
	}
	if gotMentor.VerifiedBookingsCount != 0 {
		t.Fatalf("verified count must not move, got %d", gotMentor.VerifiedBookingsCount)
	}
}

func TestEffectiveStatusLeavesOtherStatesAlone(t *testing.T) {
	completed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	deadline := completed.Add(72 * time.Hour)
	late := deadline.Add(time.Hour)

	for _, status := range []string{
		models.BookingStatusPending,
		models.BookingStatusCompleted,
		models.BookingStatusCancelled,
		models.BookingStatusRefunded,
	} {
		b := completedBooking(completed, deadline)
		b.Status = status
		if got := EffectiveStatus(b, late); got != status {
			t.Fatalf("status %s: expected unchanged, got %s", status, got)
		}
	}
}
