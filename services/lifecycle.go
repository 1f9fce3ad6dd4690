package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"bemymentor-server/config"
	"bemymentor-server/models"

	"gorm.io/gorm"
)

var (
	// ErrAlreadyResolved means the completion phase was already closed by a
	// confirmation or fraud report; the conditional update matched no row.
	ErrAlreadyResolved = errors.New("booking confirmation phase already resolved")
)

// AutoConfirmDue reports whether the booking's implicit-confirmation deadline
// has passed without a student action.
func AutoConfirmDue(b *models.Booking, now time.Time) bool {
	return b.MentorCompletedAt != nil &&
		b.StudentConfirmedAt == nil &&
		!b.IsFraudReported &&
		b.AutoConfirmAt != nil &&
		now.After(*b.AutoConfirmAt)
}

// EffectiveStatus is the status a reader should see at the given instant.
// The auto-confirm deadline is applied lazily here so every read path honors
// it even before the sweep has persisted the transition.
func EffectiveStatus(b *models.Booking, now time.Time) string {
	if b.Status == models.BookingStatusConfirmed && AutoConfirmDue(b, now) {
		return models.BookingStatusCompleted
	}
	return b.Status
}

// ConfirmBooking closes the completion phase as a confirmation, either
// because the student acted or because the auto-confirm deadline passed.
// The write is a single conditional update so a racing fraud report or
// cancellation cannot interleave: whichever commits first wins and the
// loser gets ErrAlreadyResolved.
func ConfirmBooking(db *gorm.DB, b *models.Booking, now time.Time) error {
	res := db.Model(&models.Booking{}).
		Where("id = ? AND status = ? AND mentor_completed_at IS NOT NULL AND student_confirmed_at IS NULL AND is_fraud_reported = ?",
			b.ID, models.BookingStatusConfirmed, false).
		Updates(map[string]interface{}{
			"student_confirmed_at": now,
			"status":               models.BookingStatusCompleted,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyResolved
	}
	b.StudentConfirmedAt = &now
	b.Status = models.BookingStatusCompleted

	mentor, err := bumpVerifiedCount(db, b.MentorID)
	if err != nil {
		log.Printf("❌ LIFECYCLE: failed to bump verified count for mentor %d: %v", b.MentorID, err)
		return nil // confirmation itself committed; trust bookkeeping is secondary
	}

	// Trusted mentors are paid the moment the student confirms; everyone
	// else stays HELD until the scheduled release after the hold period.
	if mentor.IsTrusted {
		if err := ReleasePayout(db, b, mentor, now); err != nil {
			log.Printf("❌ LIFECYCLE: immediate payout for booking %d failed: %v", b.ID, err)
		}
	}
	return nil
}

// bumpVerifiedCount increments the mentor's confirmed-booking tally and flips
// the trust flag once the configured threshold is crossed.
func bumpVerifiedCount(db *gorm.DB, mentorID uint) (*models.Mentor, error) {
	if err := db.Model(&models.Mentor{}).
		Where("id = ?", mentorID).
		UpdateColumn("verified_bookings_count", gorm.Expr("verified_bookings_count + 1")).Error; err != nil {
		return nil, err
	}

	var mentor models.Mentor
	if err := db.First(&mentor, mentorID).Error; err != nil {
		return nil, err
	}

	if !mentor.IsTrusted && mentor.VerifiedBookingsCount >= config.C.TrustThreshold {
		if err := db.Model(&mentor).Update("is_trusted", true).Error; err != nil {
			return nil, err
		}
		mentor.IsTrusted = true
		log.Printf("✅ LIFECYCLE: mentor %d reached %d verified bookings, now trusted", mentorID, mentor.VerifiedBookingsCount)
	}
	return &mentor, nil
}

// ReleasePayout issues the mentor transfer for a HELD booking and persists
// the payout fields in one update. Zero-payout bookings (free sessions) are
// marked RELEASED without a provider call.
func ReleasePayout(db *gorm.DB, b *models.Booking, mentor *models.Mentor, now time.Time) error {
	if b.PayoutStatus != models.PayoutStatusHeld {
		return nil
	}

	if b.MentorPayout <= 0 {
		return db.Model(&models.Booking{}).Where("id = ? AND payout_status = ?", b.ID, models.PayoutStatusHeld).
			Updates(map[string]interface{}{
				"payout_status":      models.PayoutStatusReleased,
				"payout_released_at": now,
			}).Error
	}

	if mentor.StripeConnectID == "" || !mentor.StripeOnboarded {
		return fmt.Errorf("mentor %d has no payout-capable account", mentor.ID)
	}

	memo := fmt.Sprintf("Booking #%d payout", b.ID)
	transferID, err := Payments.CreatePayout(mentor.StripeConnectID, b.MentorPayout, b.ID, memo)
	if err != nil {
		return err
	}

	res := db.Model(&models.Booking{}).Where("id = ? AND payout_status = ?", b.ID, models.PayoutStatusHeld).
		Updates(map[string]interface{}{
			"payout_status":      models.PayoutStatusPaidOut,
			"payout_id":          transferID,
			"payout_released_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	b.PayoutStatus = models.PayoutStatusPaidOut
	b.PayoutID = transferID
	b.PayoutReleasedAt = &now

	notifyPayoutReleased(db, mentor, b)
	return nil
}

func notifyPayoutReleased(db *gorm.DB, mentor *models.Mentor, b *models.Booking) {
	notification := models.Notification{
		UserID:  mentor.UserID,
		Type:    "payout_released",
		Title:   "Payout on the way 💸",
		Message: fmt.Sprintf("Your payout of $%.2f for booking #%d has been released.", float64(b.MentorPayout)/100, b.ID),
		RefType: "booking",
		RefID:   b.ID,
	}
	if err := db.Create(&notification).Error; err != nil {
		log.Printf("❌ LIFECYCLE: failed to create payout notification: %v", err)
	}
}
