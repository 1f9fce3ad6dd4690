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

type SubscribeInput struct {
	MentorID             uint   `json:"mentorID" validate:"required"`
	PriceMonthly         int64  `json:"priceMonthly" validate:"required,min=100"`
	StripeSubscriptionID string `json:"stripeSubscriptionID" validate:"required"`
}

// Subscribe starts a monthly mentorship. Billing itself is owned by the
// payment provider; this records the relationship.
func Subscribe(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input SubscribeInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var mentor models.Mentor
	if err := storage.DB.First(&mentor, input.MentorID).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "mentor not found")
		return
	}
	if mentor.UserID == userID {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_subscription", "you cannot subscribe to yourself")
		return
	}

	var active int64
	storage.DB.Model(&models.UserSubscription{}).
		Where("user_id = ? AND mentor_id = ? AND status = ?", userID, mentor.ID, models.SubscriptionStatusActive).
		Count(&active)
	if active > 0 {
		utils.JSONError(ctx, iris.StatusConflict, "already_subscribed", "you already have an active subscription with this mentor")
		return
	}

	sub := models.UserSubscription{
		UserID:               userID,
		MentorID:             mentor.ID,
		Status:               models.SubscriptionStatusActive,
		PriceMonthly:         input.PriceMonthly,
		StripeSubscriptionID: input.StripeSubscriptionID,
		StartedAt:            time.Now(),
	}
	if err := storage.DB.Create(&sub).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	services.NotificationServiceInstance.Notify(mentor.UserID, "new_subscriber",
		"New subscriber 🎉",
		fmt.Sprintf("You have a new monthly mentee at $%.2f/month.", float64(input.PriceMonthly)/100),
		"/subscribers", "subscription", sub.ID)

	utils.JSONData(ctx, sub)
}

// CancelSubscription marks the caller's subscription cancelled.
func CancelSubscription(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	subID := ctx.Params().GetUintDefault("id", 0)

	now := time.Now()
	res := storage.DB.Model(&models.UserSubscription{}).
		Where("id = ? AND user_id = ? AND status = ?", subID, userID, models.SubscriptionStatusActive).
		Updates(map[string]interface{}{
			"status":       models.SubscriptionStatusCancelled,
			"cancelled_at": now,
		})
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if res.RowsAffected == 0 {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "no active subscription found")
		return
	}
	ctx.JSON(iris.Map{"ok": true, "message": "Subscription cancelled"})
}

// GetMySubscriptions lists the caller's subscriptions, active first.
func GetMySubscriptions(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var subs []models.UserSubscription
	if err := storage.DB.Where("user_id = ?", userID).
		Preload("Mentor").Preload("Mentor.User").
		Order("status ASC, created_at DESC").
		Find(&subs).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	utils.JSONData(ctx, subs)
}
