package routes

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bemymentor-server/config"
	"bemymentor-server/models"
	"bemymentor-server/services"
	"bemymentor-server/storage"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB gives each test its own in-memory sqlite database, migrated
// with the full model set, and points the package-level handle at it.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Mentor{},
		&models.Booking{},
		&models.AvailableSlot{},
		&models.BlockedSlot{},
		&models.UserSubscription{},
		&models.Review{},
		&models.Message{},
		&models.Notification{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	storage.DB = db
	return db
}

// stubPayments is the test double behind services.Payments. Each leg can be
// forced to fail, and every attempted call is recorded.
type stubPayments struct {
	refundErr   error
	payoutErr   error
	reversalErr error

	refunds   []int64
	payouts   []int64
	reversals []string
}

func (s *stubPayments) IssueRefund(paymentIntentID string, amountCents int64, reason string) (string, error) {
	if s.refundErr != nil {
		return "", s.refundErr
	}
	s.refunds = append(s.refunds, amountCents)
	return "re_test", nil
}

func (s *stubPayments) CreatePayout(destinationAccountID string, amountCents int64, bookingID uint, memo string) (string, error) {
	if s.payoutErr != nil {
		return "", s.payoutErr
	}
	s.payouts = append(s.payouts, amountCents)
	return "tr_test", nil
}

func (s *stubPayments) ReverseTransfer(transferID string) error {
	s.reversals = append(s.reversals, transferID)
	return s.reversalErr
}

func (s *stubPayments) CheckAccountCapability(accountID string) (services.AccountCapability, error) {
	return services.AccountCapability{ChargesEnabled: true, PayoutsEnabled: true}, nil
}

// seedDisputedBooking creates a student, a payout-capable mentor and one
// fraud-reported CONFIRMED booking of $100.00.
func seedDisputedBooking(t *testing.T, db *gorm.DB) *models.Booking {
	t.Helper()

	student := models.User{FirstName: "Ana", LastName: "Lee", Email: "ana@example.com", Password: "x"}
	mentorUser := models.User{FirstName: "Bo", LastName: "Chen", Email: "bo@example.com", Password: "x"}
	if err := db.Create(&student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}
	if err := db.Create(&mentorUser).Error; err != nil {
		t.Fatalf("seed mentor user: %v", err)
	}

	mentor := models.Mentor{
		UserID:          mentorUser.ID,
		OfferType:       models.OfferTypeSession,
		HourlyRate:      6000,
		StripeConnectID: "acct_test",
		StripeOnboarded: true,
	}
	if err := db.Create(&mentor).Error; err != nil {
		t.Fatalf("seed mentor: %v", err)
	}

	now := time.Now()
	completed := now.Add(-2 * time.Hour)
	reported := now.Add(-time.Hour)
	booking := models.Booking{
		UserID:                student.ID,
		MentorID:              mentor.ID,
		Type:                  models.BookingTypeSession,
		Status:                models.BookingStatusConfirmed,
		TotalPrice:            10000,
		PlatformFee:           1500,
		MentorPayout:          8500,
		PayoutStatus:          models.PayoutStatusHeld,
		StripePaymentIntentID: "pi_test",
		MentorCompletedAt:     &completed,
		IsFraudReported:       true,
		FraudReportedAt:       &reported,
		FraudReason:           "mentor never showed up",
	}
	if err := db.Create(&booking).Error; err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return &booking
}

func buildResolveApp(adminID uint) *iris.Application {
	app := iris.New()
	app.Validator = validator.New()
	app.Post("/admin/disputes/{id:uint}/resolve", func(ctx iris.Context) {
		ctx.Values().Set("userID", adminID)
		ctx.Next()
	}, AdminResolveDispute)
	if err := app.Build(); err != nil {
		panic(err)
	}
	return app
}

func postResolve(t *testing.T, app *iris.Application, bookingID uint, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/admin/disputes/%d/resolve", bookingID), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func TestResolveDisputeRefundFailureAbortsUnchanged(t *testing.T) {
	db := openTestDB(t)
	booking := seedDisputedBooking(t, db)
	services.Payments = &stubPayments{refundErr: errors.New("card network down")}

	resp := postResolve(t, buildResolveApp(99), booking.ID, `{"decision":"REFUND_STUDENT_FULL"}`)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 on refund failure, got %d", resp.Code)
	}

	var got models.Booking
	if err := db.First(&got, booking.ID).Error; err != nil {
		t.Fatalf("reload booking: %v", err)
	}
	if got.AdminReviewedAt != nil || got.AdminDecision != "" {
		t.Fatal("failed refund must not persist a resolution")
	}
	if got.Status != models.BookingStatusConfirmed || got.PayoutStatus != models.PayoutStatusHeld {
		t.Fatalf("booking state must stay untouched, got status=%s payout=%s", got.Status, got.PayoutStatus)
	}
	if got.StripeRefundID != "" || got.RefundAmount != 0 {
		t.Fatal("no refund fields may be written when the refund failed")
	}
}

func TestResolveDisputePayoutFailureKeepsHold(t *testing.T) {
	db := openTestDB(t)
	booking := seedDisputedBooking(t, db)
	stub := &stubPayments{payoutErr: errors.New("destination account frozen")}
	services.Payments = stub

	resp := postResolve(t, buildResolveApp(99), booking.ID, `{"decision":"SPLIT_50_50"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var got models.Booking
	if err := db.First(&got, booking.ID).Error; err != nil {
		t.Fatalf("reload booking: %v", err)
	}
	// The refund half went through and is on record.
	if got.RefundAmount != 5000 || got.StripeRefundID != "re_test" {
		t.Fatalf("expected persisted refund of 5000, got amount=%d id=%q", got.RefundAmount, got.StripeRefundID)
	}
	// The payout half failed, so it stays HELD for the release cron instead
	// of being recorded as PAID_OUT.
	if got.PayoutStatus != models.PayoutStatusHeld {
		t.Fatalf("expected payout HELD after failure, got %s", got.PayoutStatus)
	}
	if got.PayoutReleasedAt != nil {
		t.Fatal("payout_released_at must not be set for a failed payout")
	}
	if got.AdminReviewedAt == nil || got.AdminDecision != models.DecisionSplit5050 {
		t.Fatal("the resolution itself must still be recorded")
	}
	if len(stub.refunds) != 1 {
		t.Fatalf("expected exactly one refund call, got %d", len(stub.refunds))
	}
}

func TestResolveDisputeReversalFailureContinues(t *testing.T) {
	db := openTestDB(t)
	booking := seedDisputedBooking(t, db)

	// The payout already went out before the fraud report.
	if err := db.Model(&models.Booking{}).Where("id = ?", booking.ID).
		Updates(map[string]interface{}{
			"payout_status": models.PayoutStatusPaidOut,
			"payout_id":     "tr_prior",
		}).Error; err != nil {
		t.Fatalf("seed payout: %v", err)
	}

	stub := &stubPayments{reversalErr: errors.New("transfer already spent")}
	services.Payments = stub

	resp := postResolve(t, buildResolveApp(99), booking.ID, `{"decision":"REFUND_STUDENT_FULL"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 despite reversal failure, got %d: %s", resp.Code, resp.Body.String())
	}

	if len(stub.reversals) != 1 || stub.reversals[0] != "tr_prior" {
		t.Fatalf("expected one reversal attempt for tr_prior, got %v", stub.reversals)
	}

	var got models.Booking
	if err := db.First(&got, booking.ID).Error; err != nil {
		t.Fatalf("reload booking: %v", err)
	}
	if got.Status != models.BookingStatusRefunded || got.PayoutStatus != models.PayoutStatusRefunded {
		t.Fatalf("refund must land despite the failed reversal, got status=%s payout=%s", got.Status, got.PayoutStatus)
	}
	if got.RefundAmount != 10000 || got.StripeRefundID != "re_test" {
		t.Fatalf("expected full refund persisted, got amount=%d id=%q", got.RefundAmount, got.StripeRefundID)
	}
}

func TestResolveDisputeNoActionResumesNormalFlow(t *testing.T) {
	db := openTestDB(t)
	config.C.AutoConfirmHours = 72
	booking := seedDisputedBooking(t, db)
	stub := &stubPayments{}
	services.Payments = stub

	resp := postResolve(t, buildResolveApp(99), booking.ID, `{"decision":"NO_ACTION","adminNotes":"report unfounded"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var got models.Booking
	if err := db.First(&got, booking.ID).Error; err != nil {
		t.Fatalf("reload booking: %v", err)
	}
	// The freeze is lifted and the confirmation clock restarted, so the
	// confirm/auto-confirm/hold-release machinery can reach the booking.
	if got.IsFraudReported {
		t.Fatal("NO_ACTION must clear the fraud flag")
	}
	if got.AutoConfirmAt == nil || !got.AutoConfirmAt.After(time.Now()) {
		t.Fatal("NO_ACTION must re-arm a future auto-confirm deadline")
	}
	if got.Status != models.BookingStatusConfirmed || got.PayoutStatus != models.PayoutStatusHeld {
		t.Fatalf("expected CONFIRMED/HELD, got status=%s payout=%s", got.Status, got.PayoutStatus)
	}
	if got.AdminReviewedAt == nil || got.AdminDecision != models.DecisionNoAction {
		t.Fatal("the resolution must be recorded")
	}
	if len(stub.refunds) != 0 || len(stub.payouts) != 0 || len(stub.reversals) != 0 {
		t.Fatal("NO_ACTION must not touch the payment provider")
	}
}
