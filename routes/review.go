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

type CreateReviewInput struct {
	BookingID uint   `json:"bookingID" validate:"required"`
	Title     string `json:"title" validate:"max=120"`
	Body      string `json:"body" validate:"max=4000"`
	Stars     int    `json:"stars" validate:"required,min=1,max=5"`
}

// CreateReview records the student's review of a booking. One review per
// booking; a review on a confirmed engagement is marked verified.
func CreateReview(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input CreateReviewInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var booking models.Booking
	if err := storage.DB.First(&booking, input.BookingID).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "booking not found")
		return
	}
	if booking.UserID != userID {
		utils.JSONError(ctx, iris.StatusForbidden, "forbidden", "only the student on this booking can review it")
		return
	}

	effective := services.EffectiveStatus(&booking, time.Now())
	if effective != models.BookingStatusCompleted && effective != models.BookingStatusConfirmed {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_state", "only confirmed or completed bookings can be reviewed")
		return
	}

	var existing int64
	storage.DB.Model(&models.Review{}).Where("booking_id = ?", booking.ID).Count(&existing)
	if existing > 0 {
		utils.JSONError(ctx, iris.StatusConflict, "already_reviewed", "this booking already has a review")
		return
	}

	review := models.Review{
		UserID:     userID,
		MentorID:   booking.MentorID,
		BookingID:  booking.ID,
		Title:      input.Title,
		Body:       input.Body,
		Stars:      input.Stars,
		IsVerified: effective == models.BookingStatusCompleted,
	}
	if err := storage.DB.Create(&review).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var mentor models.Mentor
	if err := storage.DB.First(&mentor, booking.MentorID).Error; err == nil {
		services.NotificationServiceInstance.Notify(mentor.UserID, "review_received",
			"New review ⭐",
			fmt.Sprintf("You received a %d-star review on booking #%d.", input.Stars, booking.ID),
			fmt.Sprintf("/mentors/%d/reviews", mentor.ID), "booking", booking.ID)
	}

	utils.JSONData(ctx, review)
}

// GetMentorReviews lists a mentor's reviews with their aggregate rating.
func GetMentorReviews(ctx iris.Context) {
	mentorID := ctx.Params().GetUintDefault("id", 0)
	if mentorID == 0 {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_id", "invalid mentor ID")
		return
	}

	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}

	var total int64
	storage.DB.Model(&models.Review{}).Where("mentor_id = ?", mentorID).Count(&total)

	var reviews []models.Review
	if err := storage.DB.Where("mentor_id = ?", mentorID).
		Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&reviews).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var average float64
	storage.DB.Model(&models.Review{}).Where("mentor_id = ?", mentorID).
		Select("COALESCE(AVG(stars), 0)").Scan(&average)

	ctx.JSON(iris.Map{
		"ok":   true,
		"data": reviews,
		"meta": iris.Map{
			"page":     page,
			"per_page": perPage,
			"total":    total,
			"average":  average,
		},
	})
}
