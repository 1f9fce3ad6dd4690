package services

import (
	"testing"
	"time"

	"bemymentor-server/config"
	"bemymentor-server/models"
)

func TestResolveDisputeFullRefund(t *testing.T) {
	res, err := ResolveDispute(models.DecisionRefundStudentFull, 10000, 8500, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RefundAmount != 10000 || res.PayoutAmount != 0 {
		t.Fatalf("expected full refund of 10000 and no payout, got refund=%d payout=%d", res.RefundAmount, res.PayoutAmount)
	}
	if res.PayoutStatus != models.PayoutStatusRefunded {
		t.Fatalf("expected payout status REFUNDED, got %s", res.PayoutStatus)
	}
}

func TestResolveDisputePartialRefundDefault(t *testing.T) {
	res, err := ResolveDispute(models.DecisionRefundStudentPartial, 9000, 7650, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RefundAmount != 4500 || res.PayoutAmount != 4500 {
		t.Fatalf("expected 4500/4500 split, got refund=%d payout=%d", res.RefundAmount, res.PayoutAmount)
	}
}

func TestResolveDisputePartialRefundCustom(t *testing.T) {
	custom := int64(3000)
	res, err := ResolveDispute(models.DecisionRefundStudentPartial, 9000, 7650, &custom)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RefundAmount != 3000 || res.PayoutAmount != 6000 {
		t.Fatalf("expected refund 3000 payout 6000, got refund=%d payout=%d", res.RefundAmount, res.PayoutAmount)
	}
}

func TestResolveDisputeCustomRefundBounds(t *testing.T) {
	for _, bad := range []int64{0, -100, 9001} {
		amount := bad
		if _, err := ResolveDispute(models.DecisionRefundStudentPartial, 9000, 7650, &amount); err != ErrBadRefundAmount {
			t.Fatalf("custom refund %d: expected ErrBadRefundAmount, got %v", bad, err)
		}
	}
}

func TestResolveDisputePayoutMentorFull(t *testing.T) {
	res, err := ResolveDispute(models.DecisionPayoutMentorFull, 10000, 8500, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RefundAmount != 0 || res.PayoutAmount != 8500 {
		t.Fatalf("expected no refund and payout 8500, got refund=%d payout=%d", res.RefundAmount, res.PayoutAmount)
	}
	if res.PayoutStatus != models.PayoutStatusPaidOut {
		t.Fatalf("expected payout status PAID_OUT, got %s", res.PayoutStatus)
	}
}

func TestResolveDisputeSplitOddTotal(t *testing.T) {
	// 9999 cannot split evenly; refund rounds to 5000 and the payout picks
	// up the remainder so the two reconcile to the total.
	res, err := ResolveDispute(models.DecisionSplit5050, 9999, 8499, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RefundAmount+res.PayoutAmount != 9999 {
		t.Fatalf("split does not reconcile: refund=%d payout=%d", res.RefundAmount, res.PayoutAmount)
	}
	if res.RefundAmount != 5000 {
		t.Fatalf("expected refund 5000, got %d", res.RefundAmount)
	}
}

func TestResolveDisputeNoFinancialAction(t *testing.T) {
	for _, decision := range []string{models.DecisionUnderReview, models.DecisionNoAction} {
		res, err := ResolveDispute(decision, 10000, 8500, nil)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", decision, err)
		}
		if res.RefundAmount != 0 || res.PayoutAmount != 0 {
			t.Fatalf("%s: expected no money movement, got refund=%d payout=%d", decision, res.RefundAmount, res.PayoutAmount)
		}
		if res.PayoutStatus != models.PayoutStatusHeld {
			t.Fatalf("%s: expected payout to stay HELD, got %s", decision, res.PayoutStatus)
		}
	}
}

func TestReopenedDeadlineNoActionRearmsWindow(t *testing.T) {
	config.C.AutoConfirmHours = 72
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	completed := now.Add(-time.Hour)

	b := &models.Booking{MentorCompletedAt: &completed}

	deadline := ReopenedDeadline(models.DecisionNoAction, b, now)
	if deadline == nil {
		t.Fatal("NO_ACTION should re-arm the confirmation window")
	}
	if want := now.Add(72 * time.Hour); !deadline.Equal(want) {
		t.Fatalf("expected deadline %v, got %v", want, *deadline)
	}
}

func TestReopenedDeadlineOnlyForNoAction(t *testing.T) {
	config.C.AutoConfirmHours = 72
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	completed := now.Add(-time.Hour)

	for _, decision := range []string{
		models.DecisionUnderReview,
		models.DecisionRefundStudentFull,
		models.DecisionRefundStudentPartial,
		models.DecisionPayoutMentorFull,
		models.DecisionSplit5050,
	} {
		b := &models.Booking{MentorCompletedAt: &completed}
		if ReopenedDeadline(decision, b, now) != nil {
			t.Fatalf("%s must not lift the freeze", decision)
		}
	}

	// Nothing left to confirm, nothing to re-arm.
	confirmed := now.Add(-time.Minute)
	b := &models.Booking{MentorCompletedAt: &completed, StudentConfirmedAt: &confirmed}
	if ReopenedDeadline(models.DecisionNoAction, b, now) != nil {
		t.Fatal("confirmed booking has no window to reopen")
	}
}

func TestResolveDisputeUnknownDecision(t *testing.T) {
	if _, err := ResolveDispute("FLIP_A_COIN", 10000, 8500, nil); err != ErrUnknownDecision {
		t.Fatalf("expected ErrUnknownDecision, got %v", err)
	}
}

func TestFinalBookingStatus(t *testing.T) {
	cases := []struct {
		decision string
		current  string
		want     string
	}{
		{models.DecisionRefundStudentFull, models.BookingStatusConfirmed, models.BookingStatusRefunded},
		{models.DecisionRefundStudentPartial, models.BookingStatusConfirmed, models.BookingStatusCompleted},
		{models.DecisionPayoutMentorFull, models.BookingStatusConfirmed, models.BookingStatusCompleted},
		{models.DecisionSplit5050, models.BookingStatusConfirmed, models.BookingStatusCompleted},
		{models.DecisionUnderReview, models.BookingStatusConfirmed, models.BookingStatusConfirmed},
		{models.DecisionNoAction, models.BookingStatusConfirmed, models.BookingStatusConfirmed},
	}
	for _, tc := range cases {
		if got := FinalBookingStatus(tc.decision, tc.current); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.decision, tc.want, got)
		}
	}
}
