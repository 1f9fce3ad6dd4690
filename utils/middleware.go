package utils

import (
	"os"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// UserIDFromTokenMiddleware extracts user ID from JWT token and stores it in context
func UserIDFromTokenMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*AccessToken)
	ctx.Values().Set("userID", claims.ID)
	ctx.Next()
}

// AdminOnlyMiddleware ensures the requester has admin or super_admin role
func AdminOnlyMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*AccessToken)
	role := claims.Role
	if role != "admin" && role != "super_admin" {
		ctx.StatusCode(iris.StatusForbidden)
		ctx.JSON(iris.Map{"ok": false, "error": "forbidden", "message": "admin access required"})
		return
	}
	// Ensure userID is available to downstream handlers
	ctx.Values().Set("userID", claims.ID)
	ctx.Next()
}

// CronSecretMiddleware guards the internal scan endpoints triggered by
// external cron. The shared secret travels in the X-Cron-Secret header.
func CronSecretMiddleware(ctx iris.Context) {
	secret := os.Getenv("CRON_SECRET")
	if secret == "" || ctx.GetHeader("X-Cron-Secret") != secret {
		ctx.StatusCode(iris.StatusUnauthorized)
		ctx.JSON(iris.Map{"ok": false, "error": "unauthorized", "message": "invalid cron secret"})
		return
	}
	ctx.Next()
}
