package routes

import (
	"fmt"
	"time"

	"bemymentor-server/models"
	"bemymentor-server/services"
	"bemymentor-server/storage"
	"bemymentor-server/utils"

	"github.com/kataras/iris/v12"
)

type CreateBookingInput struct {
	MentorID        uint       `json:"mentorID" validate:"required"`
	Type            string     `json:"type" validate:"required,oneof=ACCESS SESSION"`
	ScheduledAt     *time.Time `json:"scheduledAt"`
	DurationMinutes *int       `json:"durationMinutes"`
	IsFreeSession   bool       `json:"isFreeSession"`
	PaymentIntentID string     `json:"paymentIntentID"`
}

// CreateBooking prices and persists a new purchase. Paid bookings start
// PENDING until the payment webhook confirms capture; a free session is the
// one path that skips PENDING entirely.
func CreateBooking(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input CreateBookingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var mentor models.Mentor
	if err := storage.DB.Preload("User").First(&mentor, input.MentorID).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "mentor not found")
		return
	}
	if mentor.UserID == userID {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_booking", "you cannot book yourself")
		return
	}

	duration := 0
	if input.Type == models.BookingTypeSession {
		if input.ScheduledAt == nil || input.DurationMinutes == nil {
			utils.JSONError(ctx, iris.StatusBadRequest, "invalid_booking", "sessions require scheduledAt and durationMinutes")
			return
		}
		duration = *input.DurationMinutes
		if duration < services.MinSessionMinutes || duration > services.MaxSessionMinutes {
			utils.JSONError(ctx, iris.StatusBadRequest, "invalid_duration", "duration must be between 15 and 240 minutes")
			return
		}
		if input.ScheduledAt.Before(time.Now()) {
			utils.JSONError(ctx, iris.StatusBadRequest, "invalid_booking", "cannot book sessions in the past")
			return
		}
		if conflict, err := sessionConflicts(mentor.ID, input.ScheduledAt.UTC(), duration); err != nil {
			utils.CreateInternalServerError(ctx)
			return
		} else if conflict {
			utils.JSONError(ctx, iris.StatusBadRequest, "slot_unavailable", "the requested time is not available")
			return
		}
	}

	totalPrice, err := services.QuotePrice(&mentor, input.Type, duration, input.IsFreeSession)
	if err != nil {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_offer", err.Error())
		return
	}
	platformFee, mentorPayout := services.SplitPrice(totalPrice)

	status := models.BookingStatusPending
	if totalPrice == 0 {
		// No payment to capture.
		status = models.BookingStatusConfirmed
	}

	booking := models.Booking{
		UserID:                userID,
		MentorID:              mentor.ID,
		Type:                  input.Type,
		Status:                status,
		TotalPrice:            totalPrice,
		PlatformFee:           platformFee,
		MentorPayout:          mentorPayout,
		PayoutStatus:          models.PayoutStatusHeld,
		StripePaymentIntentID: input.PaymentIntentID,
	}
	if input.Type == models.BookingTypeSession {
		scheduled := input.ScheduledAt.UTC()
		booking.ScheduledAt = &scheduled
		booking.DurationMinutes = &duration
	}

	if err := storage.DB.Create(&booking).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var student models.User
	if err := storage.DB.First(&student, userID).Error; err == nil {
		studentName := fmt.Sprintf("%s %s", student.FirstName, student.LastName)
		services.NotificationServiceInstance.Notify(mentor.UserID, "booking_created",
			"New booking 🎉",
			fmt.Sprintf("%s booked a %s with you.", studentName, bookingKindLabel(input.Type)),
			fmt.Sprintf("/bookings/%d", booking.ID), "booking", booking.ID)
	}

	utils.JSONData(ctx, booking)
}

func bookingKindLabel(bookingType string) string {
	if bookingType == models.BookingTypeAccess {
		return "access pass"
	}
	return "session"
}

// sessionConflicts reports whether [start, start+duration) overlaps an
// existing PENDING/CONFIRMED session or a blocked window for the mentor.
func sessionConflicts(mentorID uint, start time.Time, durationMinutes int) (bool, error) {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	var bookings []models.Booking
	if err := storage.DB.Where("mentor_id = ? AND type = ? AND status IN ?",
		mentorID, models.BookingTypeSession, []string{models.BookingStatusPending, models.BookingStatusConfirmed}).
		Where("scheduled_at < ?", end).
		Where("scheduled_at > ?", start.Add(-services.MaxSessionMinutes*time.Minute)).
		Find(&bookings).Error; err != nil {
		return false, err
	}
	for _, b := range bookings {
		if b.ScheduledAt == nil || b.DurationMinutes == nil {
			continue
		}
		bEnd := b.ScheduledAt.Add(time.Duration(*b.DurationMinutes) * time.Minute)
		if services.Overlaps(start, end, *b.ScheduledAt, bEnd) {
			return true, nil
		}
	}

	var blockedCount int64
	if err := storage.DB.Model(&models.BlockedSlot{}).
		Where("mentor_id = ? AND start_at < ? AND end_at > ?", mentorID, end, start).
		Count(&blockedCount).Error; err != nil {
		return false, err
	}
	return blockedCount > 0, nil
}

// GetMyBookings lists the caller's purchases, newest first. Statuses are
// reported through the auto-confirm lens so an expired deadline reads as
// COMPLETED even before the sweep persisted it.
func GetMyBookings(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var bookings []models.Booking
	if err := storage.DB.Where("user_id = ?", userID).
		Preload("Mentor").Preload("Mentor.User").
		Order("created_at DESC").
		Find(&bookings).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	now := time.Now()
	out := make([]iris.Map, 0, len(bookings))
	for i := range bookings {
		out = append(out, bookingView(&bookings[i], now))
	}
	utils.JSONData(ctx, out)
}

// GetMentorBookings lists bookings sold by the caller's mentor profile.
func GetMentorBookings(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var mentor models.Mentor
	if err := storage.DB.Where("user_id = ?", userID).First(&mentor).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "mentor profile not found")
		return
	}

	var bookings []models.Booking
	if err := storage.DB.Where("mentor_id = ?", mentor.ID).
		Preload("User").
		Order("created_at DESC").
		Find(&bookings).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	now := time.Now()
	out := make([]iris.Map, 0, len(bookings))
	for i := range bookings {
		out = append(out, bookingView(&bookings[i], now))
	}
	utils.JSONData(ctx, out)
}

func GetBooking(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	bookingID := ctx.Params().GetUintDefault("id", 0)

	var booking models.Booking
	if err := storage.DB.Preload("User").Preload("Mentor").Preload("Mentor.User").Preload("Review").
		First(&booking, bookingID).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "booking not found")
		return
	}
	if booking.UserID != userID && booking.Mentor.UserID != userID {
		utils.JSONError(ctx, iris.StatusForbidden, "forbidden", "you are not a party to this booking")
		return
	}

	utils.JSONData(ctx, bookingView(&booking, time.Now()))
}

// bookingView decorates the stored row with its effective status.
func bookingView(b *models.Booking, now time.Time) iris.Map {
	return iris.Map{
		"booking":         b,
		"effectiveStatus": services.EffectiveStatus(b, now),
	}
}

// CancelBooking cancels from PENDING/CONFIRMED. A captured payment is
// refunded in full and the booking lands in REFUNDED instead of CANCELLED.
func CancelBooking(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	bookingID := ctx.Params().GetUintDefault("id", 0)

	var booking models.Booking
	if err := storage.DB.Preload("Mentor").First(&booking, bookingID).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "booking not found")
		return
	}
	if booking.UserID != userID && booking.Mentor.UserID != userID {
		utils.JSONError(ctx, iris.StatusForbidden, "forbidden", "you are not a party to this booking")
		return
	}
	if booking.Status != models.BookingStatusPending && booking.Status != models.BookingStatusConfirmed {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_state", "only pending or confirmed bookings can be cancelled")
		return
	}
	if booking.Type == models.BookingTypeSession && booking.ScheduledAt != nil &&
		booking.UserID == userID && time.Until(*booking.ScheduledAt) < 24*time.Hour {
		utils.JSONError(ctx, iris.StatusBadRequest, "too_late", "cannot cancel a session within 24 hours of its start")
		return
	}

	updates := map[string]interface{}{"status": models.BookingStatusCancelled}

	if booking.StripePaidAt != nil && booking.StripePaymentIntentID != "" && booking.TotalPrice > 0 {
		refundID, err := services.Payments.IssueRefund(booking.StripePaymentIntentID, booking.TotalPrice, "requested_by_customer")
		if err != nil {
			utils.JSONError(ctx, iris.StatusBadGateway, "provider_error", "refund failed; the booking was not cancelled")
			return
		}
		updates["status"] = models.BookingStatusRefunded
		updates["payout_status"] = models.PayoutStatusRefunded
		updates["stripe_refund_id"] = refundID
		updates["refund_amount"] = booking.TotalPrice
	}

	if err := storage.DB.Model(&models.Booking{}).Where("id = ?", booking.ID).Updates(updates).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	counterparty := booking.Mentor.UserID
	if userID == booking.Mentor.UserID {
		counterparty = booking.UserID
	}
	services.NotificationServiceInstance.Notify(counterparty, "booking_cancelled",
		"Booking cancelled",
		fmt.Sprintf("Booking #%d has been cancelled.", booking.ID),
		fmt.Sprintf("/bookings/%d", booking.ID), "booking", booking.ID)

	ctx.JSON(iris.Map{"ok": true, "message": "Booking cancelled successfully"})
}
