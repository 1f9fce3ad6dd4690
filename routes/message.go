package routes

import (
	"fmt"
	"strings"
	"time"

	"bemymentor-server/models"
	"bemymentor-server/services"
	"bemymentor-server/storage"
	"bemymentor-server/utils"

	"github.com/kataras/iris/v12"
)

type SendMessageInput struct {
	Text string `json:"text" validate:"required,max=4000"`
}

// messageParties resolves the booking and the two user IDs on its thread,
// verifying the caller is one of them.
func messageParties(ctx iris.Context, userID uint) (*models.Booking, uint, bool) {
	bookingID := ctx.Params().GetUintDefault("id", 0)

	var booking models.Booking
	if err := storage.DB.Preload("Mentor").First(&booking, bookingID).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "booking not found")
		return nil, 0, false
	}

	switch userID {
	case booking.UserID:
		return &booking, booking.Mentor.UserID, true
	case booking.Mentor.UserID:
		return &booking, booking.UserID, true
	default:
		utils.JSONError(ctx, iris.StatusForbidden, "forbidden", "you are not a party to this booking")
		return nil, 0, false
	}
}

// SendBookingMessage posts to the booking's private thread.
func SendBookingMessage(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input SendMessageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	text := strings.TrimSpace(input.Text)
	if text == "" {
		utils.JSONError(ctx, iris.StatusBadRequest, "empty_message", "message text is required")
		return
	}

	booking, receiverID, ok := messageParties(ctx, userID)
	if !ok {
		return
	}

	message := models.Message{
		BookingID:  booking.ID,
		SenderID:   userID,
		ReceiverID: receiverID,
		Text:       text,
	}
	if err := storage.DB.Create(&message).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	services.NotificationServiceInstance.Notify(receiverID, "new_message",
		"New message 💬",
		fmt.Sprintf("You have a new message on booking #%d.", booking.ID),
		fmt.Sprintf("/bookings/%d/messages", booking.ID), "booking", booking.ID)

	utils.JSONData(ctx, message)
}

// GetBookingMessages returns the thread oldest-first and marks the caller's
// unseen messages as seen.
func GetBookingMessages(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	booking, _, ok := messageParties(ctx, userID)
	if !ok {
		return
	}

	var messages []models.Message
	if err := storage.DB.Where("booking_id = ?", booking.ID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	storage.DB.Model(&models.Message{}).
		Where("booking_id = ? AND receiver_id = ? AND seen_at IS NULL", booking.ID, userID).
		Update("seen_at", time.Now())

	utils.JSONData(ctx, messages)
}
