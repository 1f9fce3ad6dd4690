package routes

import (
	"time"

	"bemymentor-server/services"
	"bemymentor-server/utils"

	"github.com/kataras/iris/v12"
)

// The cron party exposes the periodic scanners to an external scheduler.
// Every handler runs the scan synchronously and returns its counters so the
// scheduler's logs double as a delivery report.

func CronSessionReminders(ctx iris.Context) {
	utils.JSONData(ctx, services.ScanSessionReminders(time.Now()))
}

func CronReviewReminders(ctx iris.Context) {
	now := time.Now()
	utils.JSONData(ctx, iris.Map{
		"sessions":      services.ScanSessionReviewReminders(now),
		"access":        services.ScanAccessReviewReminders(now),
		"subscriptions": services.ScanSubscriptionReviewReminders(now),
	})
}

func CronAutoConfirm(ctx iris.Context) {
	utils.JSONData(ctx, services.SweepAutoConfirm(time.Now()))
}

func CronReleasePayouts(ctx iris.Context) {
	utils.JSONData(ctx, services.ReleaseHeldPayouts(time.Now()))
}
