package routes

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bemymentor-server/models"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

func buildConfirmApp(studentID uint) *iris.Application {
	app := iris.New()
	app.Validator = validator.New()
	app.Post("/booking/{id:uint}/confirm", func(ctx iris.Context) {
		ctx.Values().Set("userID", studentID)
		ctx.Next()
	}, StudentConfirmBooking)
	if err := app.Build(); err != nil {
		panic(err)
	}
	return app
}

func TestReportFraudRejectedAfterCancellation(t *testing.T) {
	db := openTestDB(t)

	student := models.User{FirstName: "Ana", LastName: "Lee", Email: "ana@example.com", Password: "x"}
	mentorUser := models.User{FirstName: "Bo", LastName: "Chen", Email: "bo@example.com", Password: "x"}
	if err := db.Create(&student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}
	if err := db.Create(&mentorUser).Error; err != nil {
		t.Fatalf("seed mentor user: %v", err)
	}
	mentor := models.Mentor{UserID: mentorUser.ID, OfferType: models.OfferTypeSession, HourlyRate: 6000}
	if err := db.Create(&mentor).Error; err != nil {
		t.Fatalf("seed mentor: %v", err)
	}

	// The mentor marked complete, then the booking was cancelled and
	// refunded before the student acted. A late fraud report must not
	// re-freeze the refunded money.
	completed := time.Now().Add(-2 * time.Hour)
	booking := models.Booking{
		UserID:            student.ID,
		MentorID:          mentor.ID,
		Type:              models.BookingTypeSession,
		Status:            models.BookingStatusCancelled,
		TotalPrice:        9000,
		MentorPayout:      7650,
		PayoutStatus:      models.PayoutStatusRefunded,
		MentorCompletedAt: &completed,
	}
	if err := db.Create(&booking).Error; err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	app := buildConfirmApp(student.ID)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/booking/%d/confirm", booking.ID),
		strings.NewReader(`{"action":"report_fraud","fraudNotes":"session never happened"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for cancelled booking, got %d: %s", resp.Code, resp.Body.String())
	}

	var got models.Booking
	if err := db.First(&got, booking.ID).Error; err != nil {
		t.Fatalf("reload booking: %v", err)
	}
	if got.IsFraudReported {
		t.Fatal("cancelled booking must not gain a fraud report")
	}
	if got.PayoutStatus != models.PayoutStatusRefunded {
		t.Fatalf("payout status must stay REFUNDED, got %s", got.PayoutStatus)
	}
}
