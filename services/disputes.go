package services

import (
	"errors"
	"math"
	"time"

	"bemymentor-server/config"
	"bemymentor-server/models"
)

var (
	ErrNoFraudReport   = errors.New("booking has no fraud report to resolve")
	ErrNoPayment       = errors.New("booking has no captured payment to act on")
	ErrUnknownDecision = errors.New("unknown dispute decision")
	ErrBadRefundAmount = errors.New("custom refund amount must be positive and at most the total price")
)

// Resolution is the financial outcome an admin decision maps to, before any
// provider call has been attempted.
type Resolution struct {
	RefundAmount int64
	PayoutAmount int64
	PayoutStatus string
}

// ResolveDispute computes the refund/payout split for an admin decision.
// All amounts are integer cents derived from the booking's totalPrice; for
// the splitting decisions refund + payout always reconciles to totalPrice
// exactly.
func ResolveDispute(decision string, totalPrice, mentorPayout int64, customRefundAmount *int64) (Resolution, error) {
	switch decision {
	case models.DecisionRefundStudentFull:
		return Resolution{
			RefundAmount: totalPrice,
			PayoutAmount: 0,
			PayoutStatus: models.PayoutStatusRefunded,
		}, nil

	case models.DecisionRefundStudentPartial:
		refundAmount := int64(math.Round(float64(totalPrice) * 0.5))
		if customRefundAmount != nil {
			if *customRefundAmount <= 0 || *customRefundAmount > totalPrice {
				return Resolution{}, ErrBadRefundAmount
			}
			refundAmount = *customRefundAmount
		}
		return Resolution{
			RefundAmount: refundAmount,
			PayoutAmount: totalPrice - refundAmount,
			PayoutStatus: models.PayoutStatusPaidOut,
		}, nil

	case models.DecisionPayoutMentorFull:
		payout := mentorPayout
		if payout <= 0 {
			payout = totalPrice
		}
		return Resolution{
			RefundAmount: 0,
			PayoutAmount: payout,
			PayoutStatus: models.PayoutStatusPaidOut,
		}, nil

	case models.DecisionSplit5050:
		refundAmount := int64(math.Round(float64(totalPrice) * 0.5))
		return Resolution{
			RefundAmount: refundAmount,
			PayoutAmount: totalPrice - refundAmount,
			PayoutStatus: models.PayoutStatusPaidOut,
		}, nil

	case models.DecisionUnderReview, models.DecisionNoAction:
		// No financial action. NO_ACTION lets the normal payout flow resume.
		return Resolution{
			RefundAmount: 0,
			PayoutAmount: 0,
			PayoutStatus: models.PayoutStatusHeld,
		}, nil

	default:
		return Resolution{}, ErrUnknownDecision
	}
}

// ReopenedDeadline returns the fresh auto-confirm deadline a NO_ACTION
// resolution re-arms. NO_ACTION lifts the fraud freeze and hands the booking
// back to the normal confirm/auto-confirm/hold-release flow with a full
// confirmation window; every other decision returns nil and the freeze (or
// its financial outcome) stands. UNDER_REVIEW in particular keeps the
// payout frozen.
func ReopenedDeadline(decision string, b *models.Booking, now time.Time) *time.Time {
	if decision != models.DecisionNoAction {
		return nil
	}
	if b.MentorCompletedAt == nil || b.StudentConfirmedAt != nil {
		return nil
	}
	deadline := now.Add(time.Duration(config.C.AutoConfirmHours) * time.Hour)
	return &deadline
}

// FinalBookingStatus maps a resolved decision to the booking status that
// should be persisted alongside the payout fields.
func FinalBookingStatus(decision string, current string) string {
	switch decision {
	case models.DecisionRefundStudentFull:
		return models.BookingStatusRefunded
	case models.DecisionRefundStudentPartial, models.DecisionPayoutMentorFull, models.DecisionSplit5050:
		return models.BookingStatusCompleted
	default:
		return current
	}
}
