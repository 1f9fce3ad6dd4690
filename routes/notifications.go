package routes

import (
	"time"

	"bemymentor-server/models"
	"bemymentor-server/storage"
	"bemymentor-server/utils"

	"github.com/kataras/iris/v12"
)

// GetMyNotifications lists the caller's notifications, newest first.
func GetMyNotifications(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 50)
	if perPage <= 0 || perPage > 100 {
		perPage = 50
	}

	q := storage.DB.Model(&models.Notification{}).Where("user_id = ?", userID)
	if ctx.URLParamDefault("unread", "") == "true" {
		q = q.Where("is_read = ?", false)
	}

	var total int64
	q.Count(&total)

	var notifications []models.Notification
	if err := q.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&notifications).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	utils.JSONPage(ctx, notifications, page, perPage, total)
}

// MarkNotificationRead marks one of the caller's notifications as read.
func MarkNotificationRead(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	notificationID := ctx.Params().GetUintDefault("id", 0)

	now := time.Now()
	res := storage.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if res.RowsAffected == 0 {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "notification not found")
		return
	}
	ctx.JSON(iris.Map{"ok": true, "message": "Notification marked as read"})
}

// MarkAllNotificationsRead clears the caller's unread badge in one write.
func MarkAllNotificationsRead(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	now := time.Now()
	if err := storage.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"ok": true, "message": "All notifications marked as read"})
}
