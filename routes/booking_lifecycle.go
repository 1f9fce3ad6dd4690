package routes

import (
	"fmt"
	"log"
	"strings"
	"time"

	"bemymentor-server/config"
	"bemymentor-server/models"
	"bemymentor-server/services"
	"bemymentor-server/storage"
	"bemymentor-server/utils"

	"github.com/kataras/iris/v12"
)

// MentorMarkComplete records that the mentor delivered the engagement and
// starts the student's confirmation window.
func MentorMarkComplete(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	bookingID := ctx.Params().GetUintDefault("id", 0)

	var booking models.Booking
	if err := storage.DB.Preload("Mentor").Preload("Mentor.User").Preload("User").
		First(&booking, bookingID).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "booking not found")
		return
	}
	if booking.Mentor.UserID != userID {
		utils.JSONError(ctx, iris.StatusForbidden, "forbidden", "only the mentor on this booking can mark it complete")
		return
	}
	if booking.Status != models.BookingStatusConfirmed {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_state", "only confirmed bookings can be marked complete")
		return
	}

	now := time.Now()
	autoConfirmAt := now.Add(time.Duration(config.C.AutoConfirmHours) * time.Hour)

	res := storage.DB.Model(&models.Booking{}).
		Where("id = ? AND status = ? AND mentor_completed_at IS NULL", booking.ID, models.BookingStatusConfirmed).
		Updates(map[string]interface{}{
			"mentor_completed_at": now,
			"auto_confirm_at":     autoConfirmAt,
		})
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if res.RowsAffected == 0 {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_state", "booking was already marked complete")
		return
	}

	mentorName := fmt.Sprintf("%s %s", booking.Mentor.User.FirstName, booking.Mentor.User.LastName)
	services.NotificationServiceInstance.SendConfirmationNeededToStudent(booking.UserID, booking.ID, mentorName)
	go func() {
		if err := services.SendEmail(services.EmailConfirmationNeeded, booking.User.Email, map[string]string{
			"bookingId": fmt.Sprintf("%d", booking.ID),
			"mentor":    mentorName,
			"deadline":  autoConfirmAt.UTC().Format(time.RFC3339),
		}); err != nil {
			// Best-effort; the transition already committed.
			log.Printf("❌ LIFECYCLE: confirmation email for booking %d failed: %v", booking.ID, err)
		}
	}()

	booking.MentorCompletedAt = &now
	booking.AutoConfirmAt = &autoConfirmAt
	utils.JSONData(ctx, booking)
}

type StudentConfirmInput struct {
	Action     string `json:"action" validate:"required,oneof=confirm report_fraud"`
	FraudNotes string `json:"fraudNotes" validate:"max=2000"`
}

// StudentConfirmBooking closes the completion phase: the student either
// confirms the engagement or replaces confirmation with a fraud report.
func StudentConfirmBooking(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	bookingID := ctx.Params().GetUintDefault("id", 0)

	var input StudentConfirmInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var booking models.Booking
	if err := storage.DB.Preload("Mentor").First(&booking, bookingID).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "booking not found")
		return
	}
	if booking.UserID != userID {
		utils.JSONError(ctx, iris.StatusForbidden, "forbidden", "only the student on this booking can confirm it")
		return
	}
	if booking.MentorCompletedAt == nil {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_state", "the mentor has not marked this booking complete")
		return
	}
	if booking.StudentConfirmedAt != nil || booking.IsFraudReported {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_state", "this booking was already confirmed or reported")
		return
	}

	now := time.Now()

	switch input.Action {
	case "confirm":
		if err := services.ConfirmBooking(storage.DB, &booking, now); err != nil {
			if err == services.ErrAlreadyResolved {
				utils.JSONError(ctx, iris.StatusBadRequest, "invalid_state", "this booking was already confirmed or reported")
				return
			}
			utils.CreateInternalServerError(ctx)
			return
		}
		utils.JSONData(ctx, booking)

	case "report_fraud":
		if services.AutoConfirmDue(&booking, now) {
			utils.JSONError(ctx, iris.StatusBadRequest, "too_late", "the confirmation window has passed; contact support")
			return
		}
		notes := strings.TrimSpace(input.FraudNotes)
		if notes == "" {
			utils.JSONError(ctx, iris.StatusBadRequest, "missing_reason", "fraudNotes is required when reporting a problem")
			return
		}

		// One conditional write: whichever of confirm/report/cancel commits
		// first wins, and auto-confirm is cancelled the moment fraud is
		// recorded.
		res := storage.DB.Model(&models.Booking{}).
			Where("id = ? AND status = ? AND mentor_completed_at IS NOT NULL AND student_confirmed_at IS NULL AND is_fraud_reported = ?",
				booking.ID, models.BookingStatusConfirmed, false).
			Updates(map[string]interface{}{
				"is_fraud_reported": true,
				"fraud_reported_at": now,
				"fraud_reason":      notes,
				"payout_status":     models.PayoutStatusHeld,
				"auto_confirm_at":   nil,
			})
		if res.Error != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		if res.RowsAffected == 0 {
			utils.JSONError(ctx, iris.StatusBadRequest, "invalid_state", "this booking was already confirmed or reported")
			return
		}

		services.NotificationServiceInstance.SendFraudReportToMentor(booking.Mentor.UserID, booking.ID)
		services.NotificationServiceInstance.SendFraudReportToAdmins(booking.ID, notes)

		booking.IsFraudReported = true
		booking.FraudReportedAt = &now
		booking.FraudReason = notes
		booking.PayoutStatus = models.PayoutStatusHeld
		booking.AutoConfirmAt = nil
		utils.JSONData(ctx, booking)
	}
}
