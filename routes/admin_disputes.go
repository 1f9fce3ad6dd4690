package routes

import (
	"log"
	"net/http"
	"time"

	"bemymentor-server/models"
	"bemymentor-server/services"
	"bemymentor-server/storage"
	"bemymentor-server/utils"

	"github.com/kataras/iris/v12"
)

// GET /admin/bookings
func AdminListBookings(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	q := storage.DB.Model(&models.Booking{})
	if status := ctx.URLParamDefault("status", ""); status != "" {
		q = q.Where("status = ?", status)
	}
	if payoutStatus := ctx.URLParamDefault("payout_status", ""); payoutStatus != "" {
		q = q.Where("payout_status = ?", payoutStatus)
	}
	if bookingType := ctx.URLParamDefault("type", ""); bookingType != "" {
		q = q.Where("type = ?", bookingType)
	}
	if mentorID := ctx.URLParamIntDefault("mentor_id", 0); mentorID > 0 {
		q = q.Where("mentor_id = ?", mentorID)
	}

	var total int64
	q.Count(&total)

	var items []models.Booking
	if err := q.Preload("User").Preload("Mentor").Preload("Mentor.User").
		Offset((page - 1) * perPage).Limit(perPage).Order("created_at DESC").
		Find(&items).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	utils.JSONPage(ctx, items, page, perPage, total)
}

// GET /admin/bookings/:id
func AdminGetBooking(ctx iris.Context) {
	bookingID := ctx.Params().GetUintDefault("id", 0)

	var booking models.Booking
	if err := storage.DB.Preload("User").Preload("Mentor").Preload("Mentor.User").Preload("Review").
		First(&booking, bookingID).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "booking not found")
		return
	}
	utils.JSONData(ctx, booking)
}

// GET /admin/disputes
func AdminListDisputes(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	q := storage.DB.Model(&models.Booking{}).Where("is_fraud_reported = ?", true)
	if ctx.URLParamDefault("unresolved", "") == "true" {
		q = q.Where("admin_reviewed_at IS NULL")
	}

	var total int64
	q.Count(&total)

	var items []models.Booking
	if err := q.Preload("User").Preload("Mentor").Preload("Mentor.User").
		Offset((page - 1) * perPage).Limit(perPage).Order("fraud_reported_at DESC").
		Find(&items).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	utils.JSONPage(ctx, items, page, perPage, total)
}

type ResolveDisputeInput struct {
	Decision           string `json:"decision" validate:"required,oneof=REFUND_STUDENT_FULL REFUND_STUDENT_PARTIAL PAYOUT_MENTOR_FULL SPLIT_50_50 UNDER_REVIEW NO_ACTION"`
	AdminNotes         string `json:"adminNotes" validate:"max=2000"`
	CustomRefundAmount *int64 `json:"customRefundAmount"`
}

// POST /admin/disputes/:id/resolve
//
// The financial resolution runs as independently failure-handled legs.
// Only a refund failure aborts the operation; reversal and payout failures
// are logged and the operation continues. The persisted update reflects
// the legs that actually completed.
func AdminResolveDispute(ctx iris.Context) {
	adminID := ctx.Values().Get("userID").(uint)
	bookingID := ctx.Params().GetUintDefault("id", 0)
	if bookingID == 0 {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	var input ResolveDisputeInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var booking models.Booking
	if err := storage.DB.Preload("Mentor").First(&booking, bookingID).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "booking not found")
		return
	}
	if !booking.IsFraudReported {
		utils.JSONError(ctx, http.StatusBadRequest, "no_fraud_report", "this booking has no fraud report to resolve")
		return
	}
	if booking.StripePaymentIntentID == "" {
		utils.JSONError(ctx, http.StatusBadRequest, "no_payment", "this booking has no captured payment to act on")
		return
	}

	resolution, err := services.ResolveDispute(input.Decision, booking.TotalPrice, booking.MentorPayout, input.CustomRefundAmount)
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_decision", err.Error())
		return
	}

	before := booking
	now := time.Now()

	// Reverse a transfer that already went out before refunding the student
	// in full. The refund proceeds even if the reversal fails.
	if input.Decision == models.DecisionRefundStudentFull &&
		booking.PayoutStatus == models.PayoutStatusPaidOut && booking.PayoutID != "" {
		if err := services.Payments.ReverseTransfer(booking.PayoutID); err != nil {
			log.Printf("❌ DISPUTE: transfer reversal for booking %d failed: %v", booking.ID, err)
		}
	}

	// The refund. Failure aborts the whole operation.
	refundID := ""
	if resolution.RefundAmount > 0 {
		refundID, err = services.Payments.IssueRefund(booking.StripePaymentIntentID, resolution.RefundAmount, "fraudulent")
		if err != nil {
			log.Printf("❌ DISPUTE: refund for booking %d failed: %v", booking.ID, err)
			utils.JSONError(ctx, http.StatusBadGateway, "refund_failed", "the refund could not be issued; no changes were persisted")
			return
		}
	}

	// The payout. A failure here does not roll back the refund; the payout
	// stays HELD for a manual retry.
	payoutID := booking.PayoutID
	payoutSucceeded := false
	if resolution.PayoutAmount > 0 {
		if booking.Mentor.StripeConnectID == "" {
			log.Printf("❌ DISPUTE: mentor %d has no connected account; payout for booking %d held", booking.MentorID, booking.ID)
		} else {
			id, err := services.Payments.CreatePayout(booking.Mentor.StripeConnectID, resolution.PayoutAmount, booking.ID, "Dispute resolution payout")
			if err != nil {
				log.Printf("❌ DISPUTE: payout for booking %d failed: %v", booking.ID, err)
			} else {
				payoutID = id
				payoutSucceeded = true
			}
		}
	}

	payoutStatus := resolution.PayoutStatus
	if resolution.PayoutAmount > 0 && !payoutSucceeded {
		payoutStatus = models.PayoutStatusHeld
	}

	updates := map[string]interface{}{
		"admin_reviewed_at": now,
		"admin_reviewed_by": adminID,
		"admin_decision":    input.Decision,
		"admin_notes":       input.AdminNotes,
		"refund_amount":     resolution.RefundAmount,
		"payout_status":     payoutStatus,
		"status":            services.FinalBookingStatus(input.Decision, booking.Status),
	}
	if refundID != "" {
		updates["stripe_refund_id"] = refundID
	}
	if deadline := services.ReopenedDeadline(input.Decision, &booking, now); deadline != nil {
		// NO_ACTION: lift the freeze and restart the confirmation clock so
		// the confirm/auto-confirm/hold-release machinery can reach the
		// booking again.
		updates["is_fraud_reported"] = false
		updates["auto_confirm_at"] = *deadline
	}
	if payoutSucceeded {
		updates["payout_id"] = payoutID
		updates["payout_released_at"] = now
	}

	if err := storage.DB.Model(&models.Booking{}).Where("id = ?", booking.ID).Updates(updates).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	payoutPaid := int64(0)
	if payoutSucceeded {
		payoutPaid = resolution.PayoutAmount
	}
	services.NotificationServiceInstance.SendDisputeOutcome(booking.UserID, booking.ID, resolution.RefundAmount, payoutPaid)
	services.NotificationServiceInstance.SendDisputeOutcome(booking.Mentor.UserID, booking.ID, resolution.RefundAmount, payoutPaid)

	if err := storage.DB.Preload("User").Preload("Mentor").First(&booking, booking.ID).Error; err == nil {
		utils.Audit(ctx, "dispute.resolve", "booking", booking.ID, before, booking)
	}

	ctx.JSON(iris.Map{
		"ok": true,
		"data": iris.Map{
			"booking":      booking,
			"refundAmount": resolution.RefundAmount,
			"payoutAmount": resolution.PayoutAmount,
			"payoutIssued": payoutSucceeded,
		},
	})
}
