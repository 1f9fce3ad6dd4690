package models

import (
	"time"

	"gorm.io/gorm"
)

// Message belongs to a booking's thread between the student and the mentor.
type Message struct {
	gorm.Model
	BookingID  uint   `json:"bookingID" gorm:"not null;index"`
	SenderID   uint   `json:"senderID" gorm:"not null;index"`
	ReceiverID uint   `json:"receiverID" gorm:"not null;index"`
	Text       string `json:"text" gorm:"type:text"`

	SeenAt *time.Time `json:"seenAt"`
}
