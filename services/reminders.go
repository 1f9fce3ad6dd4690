package services

import (
	"fmt"
	"log"
	"time"

	"bemymentor-server/config"
	"bemymentor-server/models"
	"bemymentor-server/storage"

	"github.com/google/uuid"
)

// ScanResult summarizes one scanner invocation for the cron response.
type ScanResult struct {
	RunID   string `json:"runId"`
	Matched int    `json:"matched"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
}

// ScanSessionReminders sends the 24-hour and 15-minute pre-session reminders
// to both parties of CONFIRMED sessions. The sent-at marker is the sole dedup
// guard: it is written only after the email went out, so a failed send is
// retried on the next invocation, and one bad row never aborts the batch.
func ScanSessionReminders(now time.Time) ScanResult {
	result := ScanResult{RunID: uuid.NewString()}

	result = scanReminderWindow(result, now.Add(23*time.Hour), now.Add(25*time.Hour),
		"reminder24h_sent_at", EmailSessionReminder24h, now)
	result = scanReminderWindow(result, now.Add(10*time.Minute), now.Add(20*time.Minute),
		"reminder15min_sent_at", EmailSessionReminder15min, now)

	log.Printf("⏰ REMINDERS run %s: matched=%d sent=%d failed=%d", result.RunID, result.Matched, result.Sent, result.Failed)
	return result
}

func scanReminderWindow(result ScanResult, windowStart, windowEnd time.Time, markerColumn, template string, now time.Time) ScanResult {
	var bookings []models.Booking
	err := storage.DB.Preload("User").Preload("Mentor").Preload("Mentor.User").
		Where("type = ? AND status = ?", models.BookingTypeSession, models.BookingStatusConfirmed).
		Where("scheduled_at >= ? AND scheduled_at <= ?", windowStart, windowEnd).
		Where(markerColumn + " IS NULL").
		Find(&bookings).Error
	if err != nil {
		log.Printf("❌ REMINDERS: window query failed: %v", err)
		return result
	}

	for i := range bookings {
		b := &bookings[i]
		result.Matched++
		if !deliverSessionReminder(b, template) {
			result.Failed++
			continue
		}
		if err := storage.DB.Model(&models.Booking{}).Where("id = ?", b.ID).
			Update(markerColumn, now).Error; err != nil {
			log.Printf("❌ REMINDERS: failed to mark booking %d: %v", b.ID, err)
			result.Failed++
			continue
		}
		result.Sent++
	}
	return result
}

// deliverSessionReminder emails both parties and raises in-app
// notifications. Returns false when either email failed so the marker stays
// unset and the row is retried. One marker covers both recipients, so a
// mentor-side failure re-sends the student's copy on the retry.
func deliverSessionReminder(b *models.Booking, template string) bool {
	vars := map[string]string{
		"bookingId": fmt.Sprintf("%d", b.ID),
		"startsAt":  b.ScheduledAt.UTC().Format(time.RFC3339),
	}

	if err := SendEmail(template, b.User.Email, vars); err != nil {
		log.Printf("❌ REMINDERS: student email for booking %d failed: %v", b.ID, err)
		return false
	}
	if err := SendEmail(template, b.Mentor.User.Email, vars); err != nil {
		log.Printf("❌ REMINDERS: mentor email for booking %d failed: %v", b.ID, err)
		return false
	}

	title := "Upcoming session ⏰"
	body := fmt.Sprintf("Your session for booking #%d starts at %s.", b.ID, b.ScheduledAt.UTC().Format("15:04 MST, Jan 2"))
	NotificationServiceInstance.Notify(b.UserID, "session_reminder", title, body, fmt.Sprintf("/bookings/%d", b.ID), "booking", b.ID)
	NotificationServiceInstance.Notify(b.Mentor.UserID, "session_reminder", title, body, fmt.Sprintf("/bookings/%d", b.ID), "booking", b.ID)
	return true
}

// ScanSessionReviewReminders prompts students to review sessions they
// confirmed roughly a day ago and have not reviewed yet.
func ScanSessionReviewReminders(now time.Time) ScanResult {
	result := ScanResult{RunID: uuid.NewString()}

	var bookings []models.Booking
	err := storage.DB.Preload("User").Preload("Mentor").
		Where("type = ? AND status = ?", models.BookingTypeSession, models.BookingStatusCompleted).
		Where("student_confirmed_at >= ? AND student_confirmed_at <= ?", now.Add(-25*time.Hour), now.Add(-23*time.Hour)).
		Where("review_reminder_sent_at IS NULL").
		Where("NOT EXISTS (SELECT 1 FROM reviews WHERE reviews.booking_id = bookings.id AND reviews.deleted_at IS NULL)").
		Find(&bookings).Error
	if err != nil {
		log.Printf("❌ REMINDERS: review scan failed: %v", err)
		return result
	}

	return sendReviewPrompts(result, bookings, now)
}

// ScanAccessReviewReminders is the same pattern keyed on creation time,
// since access passes have no confirmation step.
func ScanAccessReviewReminders(now time.Time) ScanResult {
	result := ScanResult{RunID: uuid.NewString()}

	var bookings []models.Booking
	err := storage.DB.Preload("User").Preload("Mentor").
		Where("type = ?", models.BookingTypeAccess).
		Where("status IN ?", []string{models.BookingStatusConfirmed, models.BookingStatusCompleted}).
		Where("created_at >= ? AND created_at <= ?", now.Add(-25*time.Hour), now.Add(-23*time.Hour)).
		Where("review_reminder_sent_at IS NULL").
		Where("NOT EXISTS (SELECT 1 FROM reviews WHERE reviews.booking_id = bookings.id AND reviews.deleted_at IS NULL)").
		Find(&bookings).Error
	if err != nil {
		log.Printf("❌ REMINDERS: access review scan failed: %v", err)
		return result
	}

	return sendReviewPrompts(result, bookings, now)
}

func sendReviewPrompts(result ScanResult, bookings []models.Booking, now time.Time) ScanResult {
	for i := range bookings {
		b := &bookings[i]
		result.Matched++

		vars := map[string]string{"bookingId": fmt.Sprintf("%d", b.ID)}
		if err := SendEmail(EmailReviewPrompt, b.User.Email, vars); err != nil {
			log.Printf("❌ REMINDERS: review prompt for booking %d failed: %v", b.ID, err)
			result.Failed++
			continue
		}
		if err := storage.DB.Model(&models.Booking{}).Where("id = ?", b.ID).
			Update("review_reminder_sent_at", now).Error; err != nil {
			log.Printf("❌ REMINDERS: failed to mark booking %d: %v", b.ID, err)
			result.Failed++
			continue
		}
		NotificationServiceInstance.Notify(b.UserID, "review_prompt", "Leave a review ⭐",
			fmt.Sprintf("How was your experience with booking #%d?", b.ID),
			fmt.Sprintf("/bookings/%d/review", b.ID), "booking", b.ID)
		result.Sent++
	}
	log.Printf("⏰ REVIEW PROMPTS run %s: matched=%d sent=%d failed=%d", result.RunID, result.Matched, result.Sent, result.Failed)
	return result
}

// ScanSubscriptionReviewReminders nudges long-running subscribers who have
// neither been reminded in the last 31 days nor reviewed in the last 30.
func ScanSubscriptionReviewReminders(now time.Time) ScanResult {
	result := ScanResult{RunID: uuid.NewString()}

	var subs []models.UserSubscription
	err := storage.DB.Preload("User").Preload("Mentor").
		Where("status = ?", models.SubscriptionStatusActive).
		Where("started_at <= ?", now.AddDate(0, 0, -30)).
		Where("(review_reminder_sent_at IS NULL OR review_reminder_sent_at <= ?)", now.AddDate(0, 0, -31)).
		Where("NOT EXISTS (SELECT 1 FROM reviews WHERE reviews.mentor_id = user_subscriptions.mentor_id AND reviews.user_id = user_subscriptions.user_id AND reviews.created_at > ? AND reviews.deleted_at IS NULL)", now.AddDate(0, 0, -30)).
		Find(&subs).Error
	if err != nil {
		log.Printf("❌ REMINDERS: subscription review scan failed: %v", err)
		return result
	}

	for i := range subs {
		sub := &subs[i]
		result.Matched++

		vars := map[string]string{"subscriptionId": fmt.Sprintf("%d", sub.ID)}
		if err := SendEmail(EmailReviewPrompt, sub.User.Email, vars); err != nil {
			log.Printf("❌ REMINDERS: subscription review prompt %d failed: %v", sub.ID, err)
			result.Failed++
			continue
		}
		if err := storage.DB.Model(&models.UserSubscription{}).Where("id = ?", sub.ID).
			Update("review_reminder_sent_at", now).Error; err != nil {
			log.Printf("❌ REMINDERS: failed to mark subscription %d: %v", sub.ID, err)
			result.Failed++
			continue
		}
		NotificationServiceInstance.Notify(sub.UserID, "review_prompt", "Leave a review ⭐",
			"How is your mentorship going? Share a review.",
			fmt.Sprintf("/mentors/%d/review", sub.MentorID), "subscription", sub.ID)
		result.Sent++
	}
	return result
}

// SweepAutoConfirm persists the implicit confirmation for bookings whose
// 72-hour deadline passed, so payout release reacts instead of waiting for
// the next read.
func SweepAutoConfirm(now time.Time) ScanResult {
	result := ScanResult{RunID: uuid.NewString()}

	var bookings []models.Booking
	err := storage.DB.
		Where("status = ?", models.BookingStatusConfirmed).
		Where("mentor_completed_at IS NOT NULL AND student_confirmed_at IS NULL AND is_fraud_reported = ?", false).
		Where("auto_confirm_at IS NOT NULL AND auto_confirm_at < ?", now).
		Find(&bookings).Error
	if err != nil {
		log.Printf("❌ AUTO-CONFIRM: sweep query failed: %v", err)
		return result
	}

	for i := range bookings {
		b := &bookings[i]
		result.Matched++
		if err := ConfirmBooking(storage.DB, b, now); err != nil {
			if err != ErrAlreadyResolved {
				log.Printf("❌ AUTO-CONFIRM: booking %d failed: %v", b.ID, err)
				result.Failed++
			}
			continue
		}
		result.Sent++
	}
	log.Printf("⏰ AUTO-CONFIRM run %s: matched=%d confirmed=%d", result.RunID, result.Matched, result.Sent)
	return result
}

// ReleaseHeldPayouts issues the delayed transfers for untrusted mentors once
// the hold period after student confirmation has elapsed.
func ReleaseHeldPayouts(now time.Time) ScanResult {
	result := ScanResult{RunID: uuid.NewString()}
	cutoff := now.AddDate(0, 0, -config.C.PayoutHoldDays)

	var bookings []models.Booking
	err := storage.DB.Preload("Mentor").
		Where("status = ? AND payout_status = ?", models.BookingStatusCompleted, models.PayoutStatusHeld).
		Where("is_fraud_reported = ?", false).
		Where("student_confirmed_at IS NOT NULL AND student_confirmed_at <= ?", cutoff).
		Find(&bookings).Error
	if err != nil {
		log.Printf("❌ PAYOUTS: release query failed: %v", err)
		return result
	}

	for i := range bookings {
		b := &bookings[i]
		result.Matched++
		if err := ReleasePayout(storage.DB, b, &b.Mentor, now); err != nil {
			log.Printf("❌ PAYOUTS: release for booking %d failed: %v", b.ID, err)
			result.Failed++
			continue
		}
		result.Sent++
	}
	log.Printf("💸 PAYOUT RELEASE run %s: matched=%d released=%d failed=%d", result.RunID, result.Matched, result.Sent, result.Failed)
	return result
}
