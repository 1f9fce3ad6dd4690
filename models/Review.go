package models

import "gorm.io/gorm"

type Review struct {
	gorm.Model
	UserID    uint    `json:"userID" gorm:"not null;index"`
	User      User    `json:"user" gorm:"foreignKey:UserID"`
	MentorID  uint    `json:"mentorID" gorm:"not null;index"`
	Mentor    Mentor  `json:"mentor" gorm:"foreignKey:MentorID"`
	BookingID uint    `json:"bookingID" gorm:"not null;uniqueIndex"` // one review per booking
	Booking   Booking `json:"booking" gorm:"foreignKey:BookingID"`

	Title string `json:"title"`
	Body  string `json:"body" gorm:"type:text"`
	Stars int    `json:"stars" gorm:"not null;check:stars >= 1 AND stars <= 5"`

	IsVerified bool `json:"isVerified" gorm:"default:false"` // confirmed engagement
}
