package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// What a mentor sells.
const (
	OfferTypeAccess  = "ACCESS"
	OfferTypeSession = "SESSION"
	OfferTypeBoth    = "BOTH"
)

type Mentor struct {
	gorm.Model
	UserID uint `json:"userID" gorm:"not null;uniqueIndex"`
	User   User `json:"user" gorm:"foreignKey:UserID"`

	Headline  string         `json:"headline" gorm:"size:160"`
	Bio       string         `json:"bio" gorm:"type:text"`
	Expertise datatypes.JSON `json:"expertise"`

	// Rate card, in integer cents.
	OfferType   string `json:"offerType" gorm:"type:varchar(10);not null;default:SESSION"`
	AccessPrice int64  `json:"accessPrice"`
	HourlyRate  int64  `json:"hourlyRate"`

	// Trust standing. Trusted mentors are paid immediately on confirmation.
	IsTrusted             bool `json:"isTrusted" gorm:"default:false"`
	VerifiedBookingsCount int  `json:"verifiedBookingsCount" gorm:"default:0"`

	StripeConnectID string `json:"stripeConnectID"`
	StripeOnboarded bool   `json:"stripeOnboarded" gorm:"default:false"`
}

func (m *Mentor) SellsAccess() bool {
	return m.OfferType == OfferTypeAccess || m.OfferType == OfferTypeBoth
}

func (m *Mentor) SellsSessions() bool {
	return m.OfferType == OfferTypeSession || m.OfferType == OfferTypeBoth
}
