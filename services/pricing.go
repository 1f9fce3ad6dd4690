package services

import (
	"errors"
	"math"

	"bemymentor-server/config"
	"bemymentor-server/models"
)

// ErrInvalidOffer is returned when the mentor's offer type or rate card
// cannot price the requested booking.
var ErrInvalidOffer = errors.New("mentor offer does not cover the requested booking")

// QuotePrice derives the total price in integer cents from the mentor's rate
// card. ACCESS passes are priced verbatim; SESSION bookings are prorated from
// the hourly rate. A free session quotes zero and skips payment capture
// entirely (the booking is created directly in CONFIRMED status by the
// caller).
func QuotePrice(mentor *models.Mentor, bookingType string, durationMinutes int, isFreeSession bool) (int64, error) {
	switch bookingType {
	case models.BookingTypeAccess:
		if !mentor.SellsAccess() || mentor.AccessPrice <= 0 {
			return 0, ErrInvalidOffer
		}
		return mentor.AccessPrice, nil

	case models.BookingTypeSession:
		if !mentor.SellsSessions() {
			return 0, ErrInvalidOffer
		}
		if isFreeSession {
			return 0, nil
		}
		if mentor.HourlyRate <= 0 || durationMinutes <= 0 {
			return 0, ErrInvalidOffer
		}
		return int64(math.Round(float64(mentor.HourlyRate) / 60 * float64(durationMinutes))), nil

	default:
		return 0, ErrInvalidOffer
	}
}

// SplitPrice derives the platform fee and mentor payout from a total. The fee
// rounds down so platformFee + mentorPayout == totalPrice holds exactly.
func SplitPrice(totalPrice int64) (platformFee, mentorPayout int64) {
	platformFee = totalPrice * config.C.PlatformFeePercent / 100
	mentorPayout = totalPrice - platformFee
	return
}
