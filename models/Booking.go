package models

import (
	"time"

	"gorm.io/gorm"
)

// Booking types.
const (
	BookingTypeAccess  = "ACCESS"
	BookingTypeSession = "SESSION"
)

// Booking lifecycle statuses.
const (
	BookingStatusPending   = "PENDING"
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCompleted = "COMPLETED"
	BookingStatusCancelled = "CANCELLED"
	BookingStatusRefunded  = "REFUNDED"
)

// Payout statuses for the mentor's share of a booking.
const (
	PayoutStatusHeld     = "HELD"
	PayoutStatusPaidOut  = "PAID_OUT"
	PayoutStatusReleased = "RELEASED" // nothing to transfer (free session)
	PayoutStatusRefunded = "REFUNDED"
)

// Admin dispute decisions.
const (
	DecisionRefundStudentFull    = "REFUND_STUDENT_FULL"
	DecisionRefundStudentPartial = "REFUND_STUDENT_PARTIAL"
	DecisionPayoutMentorFull     = "PAYOUT_MENTOR_FULL"
	DecisionSplit5050            = "SPLIT_50_50"
	DecisionUnderReview          = "UNDER_REVIEW"
	DecisionNoAction             = "NO_ACTION"
)

type Booking struct {
	gorm.Model
	UserID   uint   `json:"userID" gorm:"not null;index"`
	User     User   `json:"user" gorm:"foreignKey:UserID"`
	MentorID uint   `json:"mentorID" gorm:"not null;index"`
	Mentor   Mentor `json:"mentor" gorm:"foreignKey:MentorID"`

	Type   string `json:"type" gorm:"type:varchar(10);not null;index"`
	Status string `json:"status" gorm:"type:varchar(20);not null;default:PENDING;index"`

	// Session scheduling. Nil for ACCESS bookings. Stored in UTC.
	ScheduledAt     *time.Time `json:"scheduledAt" gorm:"index"`
	DurationMinutes *int       `json:"durationMinutes"`

	// Money, in integer cents. PlatformFee + MentorPayout == TotalPrice.
	TotalPrice   int64 `json:"totalPrice" gorm:"not null"`
	PlatformFee  int64 `json:"platformFee" gorm:"not null"`
	MentorPayout int64 `json:"mentorPayout" gorm:"not null"`

	// Payment capture.
	StripePaymentIntentID string     `json:"stripePaymentIntentID" gorm:"index"`
	StripePaidAt          *time.Time `json:"stripePaidAt"`
	StripeRefundID        string     `json:"stripeRefundID"`
	RefundAmount          int64      `json:"refundAmount"`

	// Payout tracking.
	PayoutStatus     string     `json:"payoutStatus" gorm:"type:varchar(20);not null;default:HELD;index"`
	PayoutID         string     `json:"payoutID"` // provider transfer ID
	PayoutReleasedAt *time.Time `json:"payoutReleasedAt"`

	// Completion phase. The mentor marks complete, then the student has
	// until AutoConfirmAt to confirm or report a problem.
	MentorCompletedAt  *time.Time `json:"mentorCompletedAt"`
	AutoConfirmAt      *time.Time `json:"autoConfirmAt" gorm:"index"`
	StudentConfirmedAt *time.Time `json:"studentConfirmedAt"`

	// Fraud reporting. A report freezes the payout until an admin decides.
	IsFraudReported bool       `json:"isFraudReported" gorm:"default:false;index"`
	FraudReportedAt *time.Time `json:"fraudReportedAt"`
	FraudReason     string     `json:"fraudReason" gorm:"type:text"`

	// Admin resolution.
	AdminReviewedAt *time.Time `json:"adminReviewedAt"`
	AdminReviewedBy uint       `json:"adminReviewedBy"`
	AdminDecision   string     `json:"adminDecision" gorm:"type:varchar(30)"`
	AdminNotes      string     `json:"adminNotes" gorm:"type:text"`

	// Reminder dedup markers, written only after the email went out.
	Reminder24hSentAt    *time.Time `json:"-" gorm:"column:reminder24h_sent_at"`
	Reminder15minSentAt  *time.Time `json:"-" gorm:"column:reminder15min_sent_at"`
	ReviewReminderSentAt *time.Time `json:"-"`

	Review *Review `json:"review,omitempty" gorm:"foreignKey:BookingID"`
}

// SessionEnd is the scheduled end instant, or nil for non-session bookings.
func (b *Booking) SessionEnd() *time.Time {
	if b.ScheduledAt == nil || b.DurationMinutes == nil {
		return nil
	}
	end := b.ScheduledAt.Add(time.Duration(*b.DurationMinutes) * time.Minute)
	return &end
}
