package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
)

// UserSubscription is an ongoing monthly mentorship between a student and a
// mentor, billed by the payment provider.
type UserSubscription struct {
	gorm.Model
	UserID   uint   `json:"userID" gorm:"not null;index"`
	User     User   `json:"user" gorm:"foreignKey:UserID"`
	MentorID uint   `json:"mentorID" gorm:"not null;index"`
	Mentor   Mentor `json:"mentor" gorm:"foreignKey:MentorID"`

	Status       string `json:"status" gorm:"type:varchar(20);not null;default:active;index"`
	PriceMonthly int64  `json:"priceMonthly"` // cents

	StripeSubscriptionID string `json:"stripeSubscriptionID"`

	StartedAt   time.Time  `json:"startedAt"`
	CancelledAt *time.Time `json:"cancelledAt"`

	ReviewReminderSentAt *time.Time `json:"-"`
}
