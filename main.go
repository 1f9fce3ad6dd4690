package main

import (
	"os"

	"bemymentor-server/config"
	"bemymentor-server/routes"
	"bemymentor-server/services"
	"bemymentor-server/storage"
	"bemymentor-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	config.Load()
	storage.InitializeDB()
	storage.InitializeRedis()
	services.Payments = services.NewStripeProvider(config.C.StripeSecretKey)

	app := iris.New()
	app.Validator = validator.New()

	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		if err := ctx.ReadJSON(&tokenInput); err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	authed := []iris.Handler{accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware}

	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)
		user.Get("/me", append(authed, routes.GetCurrentUser)...)
		user.Patch("/pushtoken", append(authed, routes.AlterPushToken)...)
		user.Patch("/settings/notifications", append(authed, routes.AllowsNotifications)...)
		user.Get("/notifications", append(authed, routes.GetMyNotifications)...)
		user.Patch("/notifications/read", append(authed, routes.MarkAllNotificationsRead)...)
		user.Patch("/notifications/{id:uint}/read", append(authed, routes.MarkNotificationRead)...)
	}

	mentor := app.Party("/api/mentor")
	{
		mentor.Post("/profile", append(authed, routes.CreateOrUpdateMentorProfile)...)
		mentor.Put("/profile", append(authed, routes.CreateOrUpdateMentorProfile)...)
		mentor.Get("/{id:uint}", routes.GetMentor)
		mentor.Get("/{id:uint}/slots", routes.GetAvailableSlots)
		mentor.Get("/{id:uint}/reviews", routes.GetMentorReviews)
		mentor.Post("/slots", append(authed, routes.CreateAvailableSlot)...)
		mentor.Post("/blocks", append(authed, routes.CreateBlockedSlot)...)
		mentor.Delete("/slots/{id:uint}", append(authed, routes.DeleteAvailableSlot)...)
		mentor.Post("/connect", append(authed, routes.LinkConnectAccount)...)
		mentor.Get("/connect/status", append(authed, routes.GetOnboardingStatus)...)
		mentor.Get("/bookings", append(authed, routes.GetMentorBookings)...)
	}

	booking := app.Party("/api/booking", authed...)
	{
		booking.Post("/", routes.CreateBooking)
		booking.Get("/", routes.GetMyBookings)
		booking.Get("/{id:uint}", routes.GetBooking)
		booking.Post("/{id:uint}/cancel", routes.CancelBooking)
		booking.Post("/{id:uint}/complete", routes.MentorMarkComplete)
		booking.Post("/{id:uint}/confirm", routes.StudentConfirmBooking)
		booking.Get("/{id:uint}/messages", routes.GetBookingMessages)
		booking.Post("/{id:uint}/messages", routes.SendBookingMessage)
	}

	review := app.Party("/api/review", authed...)
	{
		review.Post("/", routes.CreateReview)
	}

	subscription := app.Party("/api/subscription", authed...)
	{
		subscription.Post("/", routes.Subscribe)
		subscription.Get("/", routes.GetMySubscriptions)
		subscription.Post("/{id:uint}/cancel", routes.CancelSubscription)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Get("/bookings", routes.AdminListBookings)
		admin.Get("/bookings/{id:uint}", routes.AdminGetBooking)
		admin.Get("/disputes", routes.AdminListDisputes)
		admin.Post("/disputes/{id:uint}/resolve", routes.AdminResolveDispute)
	}

	cron := app.Party("/api/internal/cron", utils.CronSecretMiddleware)
	{
		cron.Post("/session-reminders", routes.CronSessionReminders)
		cron.Post("/review-reminders", routes.CronReviewReminders)
		cron.Post("/auto-confirm", routes.CronAutoConfirm)
		cron.Post("/release-payouts", routes.CronReleasePayouts)
	}

	app.Post("/api/webhooks/stripe", routes.StripeWebhook)

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	app.Listen(":" + port)
}
