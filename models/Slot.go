package models

import (
	"time"

	"gorm.io/gorm"
)

// AvailableSlot is an open window a mentor declared for sessions. Instants
// are stored in UTC; display conversion happens client-side.
type AvailableSlot struct {
	gorm.Model
	MentorID uint      `json:"mentorID" gorm:"not null;index"`
	StartAt  time.Time `json:"startAt" gorm:"not null;index"`
	EndAt    time.Time `json:"endAt" gorm:"not null"`
	Note     string    `json:"note" gorm:"size:200"`
}

// BlockedSlot carves time out of a mentor's open windows.
type BlockedSlot struct {
	gorm.Model
	MentorID uint      `json:"mentorID" gorm:"not null;index"`
	StartAt  time.Time `json:"startAt" gorm:"not null;index"`
	EndAt    time.Time `json:"endAt" gorm:"not null"`
	Reason   string    `json:"reason" gorm:"size:200"`
}
