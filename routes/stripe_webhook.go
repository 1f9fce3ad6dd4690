package routes

import (
	"encoding/json"
	"io"
	"log"
	"time"

	"bemymentor-server/config"
	"bemymentor-server/models"
	"bemymentor-server/services"
	"bemymentor-server/storage"
	"bemymentor-server/utils"

	"github.com/kataras/iris/v12"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeWebhook receives payment events. Capture of a booking's payment
// intent moves the booking from PENDING to CONFIRMED; every other event type
// is acknowledged and ignored. Stripe retries on non-2xx, so handler errors
// after signature verification still return 200 once the event is parsed.
func StripeWebhook(ctx iris.Context) {
	payload, err := io.ReadAll(io.LimitReader(ctx.Request().Body, 1<<16))
	if err != nil {
		utils.JSONError(ctx, iris.StatusBadRequest, "bad_payload", "could not read request body")
		return
	}

	event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), config.C.StripeWebhookSecret)
	if err != nil {
		log.Printf("❌ WEBHOOK: signature verification failed: %v", err)
		utils.JSONError(ctx, iris.StatusBadRequest, "bad_signature", "webhook signature verification failed")
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			log.Printf("❌ WEBHOOK: could not parse payment intent: %v", err)
			break
		}
		handlePaymentCaptured(intent.ID)

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err == nil {
			log.Printf("⚠️ WEBHOOK: payment failed for intent %s", intent.ID)
		}
	}

	ctx.JSON(iris.Map{"received": true})
}

// handlePaymentCaptured confirms the PENDING booking tied to the intent. The
// conditional update makes redelivered events no-ops.
func handlePaymentCaptured(paymentIntentID string) {
	var booking models.Booking
	if err := storage.DB.Preload("Mentor").
		Where("stripe_payment_intent_id = ?", paymentIntentID).
		First(&booking).Error; err != nil {
		log.Printf("⚠️ WEBHOOK: no booking for payment intent %s", paymentIntentID)
		return
	}

	now := time.Now()
	res := storage.DB.Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, models.BookingStatusPending).
		Updates(map[string]interface{}{
			"status":         models.BookingStatusConfirmed,
			"stripe_paid_at": now,
		})
	if res.Error != nil {
		log.Printf("❌ WEBHOOK: failed to confirm booking %d: %v", booking.ID, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		return // already confirmed, redelivery
	}

	log.Printf("✅ WEBHOOK: booking %d confirmed by payment %s", booking.ID, paymentIntentID)
	services.NotificationServiceInstance.Notify(booking.UserID, "booking_confirmed",
		"Booking confirmed ✅", "Your payment went through and the booking is confirmed.",
		"/bookings", "booking", booking.ID)
	services.NotificationServiceInstance.Notify(booking.Mentor.UserID, "booking_confirmed",
		"Booking paid 💳", "A booking was paid and is now confirmed.",
		"/bookings", "booking", booking.ID)
}
