package routes

import (
	"time"

	"bemymentor-server/models"
	"bemymentor-server/services"
	"bemymentor-server/storage"
	"bemymentor-server/utils"

	"github.com/kataras/iris/v12"
)

type SlotInput struct {
	StartAt time.Time `json:"startAt" validate:"required"`
	EndAt   time.Time `json:"endAt" validate:"required"`
	Note    string    `json:"note" validate:"max=200"`
}

// CreateAvailableSlot declares an open window for the caller's mentor profile.
func CreateAvailableSlot(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input SlotInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if !input.EndAt.After(input.StartAt) {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_window", "endAt must be after startAt")
		return
	}

	var mentor models.Mentor
	if err := storage.DB.Where("user_id = ?", userID).First(&mentor).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "mentor profile not found")
		return
	}

	slot := models.AvailableSlot{
		MentorID: mentor.ID,
		StartAt:  input.StartAt.UTC(),
		EndAt:    input.EndAt.UTC(),
		Note:     input.Note,
	}
	if err := storage.DB.Create(&slot).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	utils.JSONData(ctx, slot)
}

// CreateBlockedSlot carves time out of the mentor's open windows.
func CreateBlockedSlot(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input struct {
		StartAt time.Time `json:"startAt" validate:"required"`
		EndAt   time.Time `json:"endAt" validate:"required"`
		Reason  string    `json:"reason" validate:"max=200"`
	}
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if !input.EndAt.After(input.StartAt) {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_window", "endAt must be after startAt")
		return
	}

	var mentor models.Mentor
	if err := storage.DB.Where("user_id = ?", userID).First(&mentor).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "mentor profile not found")
		return
	}

	block := models.BlockedSlot{
		MentorID: mentor.ID,
		StartAt:  input.StartAt.UTC(),
		EndAt:    input.EndAt.UTC(),
		Reason:   input.Reason,
	}
	if err := storage.DB.Create(&block).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	utils.JSONData(ctx, block)
}

// DeleteAvailableSlot removes a declared window owned by the caller.
func DeleteAvailableSlot(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	slotID := ctx.Params().GetUintDefault("id", 0)

	var mentor models.Mentor
	if err := storage.DB.Where("user_id = ?", userID).First(&mentor).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "mentor profile not found")
		return
	}

	res := storage.DB.Where("id = ? AND mentor_id = ?", slotID, mentor.ID).Delete(&models.AvailableSlot{})
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if res.RowsAffected == 0 {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "slot not found")
		return
	}
	ctx.JSON(iris.Map{"ok": true, "message": "Slot deleted"})
}

// GetAvailableSlots enumerates bookable start times for a mentor on one
// date. All comparison happens in UTC instant space; display conversion is
// the client's job.
func GetAvailableSlots(ctx iris.Context) {
	mentorID := ctx.Params().GetUintDefault("id", 0)
	if mentorID == 0 {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_id", "invalid mentor ID")
		return
	}

	dateStr := ctx.URLParam("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	duration := ctx.URLParamIntDefault("duration", 60)
	if duration < services.MinSessionMinutes || duration > services.MaxSessionMinutes {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_duration", "duration must be between 15 and 240 minutes")
		return
	}
	dur := time.Duration(duration) * time.Minute

	dayStart := date.UTC()
	dayEnd := dayStart.Add(24 * time.Hour)

	var available []models.AvailableSlot
	if err := storage.DB.Where("mentor_id = ? AND start_at < ? AND end_at > ?", mentorID, dayEnd, dayStart).
		Order("start_at ASC").Find(&available).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if len(available) == 0 {
		ctx.JSON(iris.Map{"ok": true, "data": []string{}, "message": "The mentor has no availability on this date"})
		return
	}

	var blocked []models.BlockedSlot
	if err := storage.DB.Where("mentor_id = ? AND start_at < ? AND end_at > ?", mentorID, dayEnd, dayStart).
		Find(&blocked).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// Existing PENDING/CONFIRMED sessions consume time too. The query window
	// is padded by the longest session so a booking straddling midnight is
	// still caught.
	var bookings []models.Booking
	if err := storage.DB.Where("mentor_id = ? AND type = ? AND status IN ?",
		mentorID, models.BookingTypeSession, []string{models.BookingStatusPending, models.BookingStatusConfirmed}).
		Where("scheduled_at < ? AND scheduled_at > ?", dayEnd, dayStart.Add(-services.MaxSessionMinutes*time.Minute)).
		Find(&bookings).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	booked := make([]services.Window, 0, len(bookings))
	for _, b := range bookings {
		if b.ScheduledAt == nil || b.DurationMinutes == nil {
			continue
		}
		booked = append(booked, services.Window{
			Start: *b.ScheduledAt,
			End:   b.ScheduledAt.Add(time.Duration(*b.DurationMinutes) * time.Minute),
		})
	}

	slots := services.OpenSlots(services.ClampToDay(available, dayStart, dayEnd), blocked, booked, dur)
	utils.JSONData(ctx, slots)
}
