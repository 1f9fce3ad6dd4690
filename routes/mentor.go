package routes

import (
	"bemymentor-server/models"
	"bemymentor-server/services"
	"bemymentor-server/storage"
	"bemymentor-server/utils"
	"encoding/json"

	"github.com/kataras/iris/v12"
)

type MentorProfileInput struct {
	Headline    string   `json:"headline" validate:"max=160"`
	Bio         string   `json:"bio" validate:"max=4000"`
	Expertise   []string `json:"expertise"`
	OfferType   string   `json:"offerType" validate:"required,oneof=ACCESS SESSION BOTH"`
	AccessPrice int64    `json:"accessPrice" validate:"min=0"`
	HourlyRate  int64    `json:"hourlyRate" validate:"min=0"`
}

// CreateOrUpdateMentorProfile upserts the caller's seller profile.
func CreateOrUpdateMentorProfile(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input MentorProfileInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	// The rate card must cover what the offer sells.
	if (input.OfferType == models.OfferTypeAccess || input.OfferType == models.OfferTypeBoth) && input.AccessPrice <= 0 {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_rate_card", "accessPrice is required for ACCESS offers")
		return
	}
	if (input.OfferType == models.OfferTypeSession || input.OfferType == models.OfferTypeBoth) && input.HourlyRate <= 0 {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_rate_card", "hourlyRate is required for SESSION offers")
		return
	}

	expertise, err := json.Marshal(input.Expertise)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var mentor models.Mentor
	result := storage.DB.Where("user_id = ?", userID).First(&mentor)
	if result.Error == nil {
		mentor.Headline = input.Headline
		mentor.Bio = input.Bio
		mentor.Expertise = expertise
		mentor.OfferType = input.OfferType
		mentor.AccessPrice = input.AccessPrice
		mentor.HourlyRate = input.HourlyRate
		if err := storage.DB.Save(&mentor).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	} else {
		mentor = models.Mentor{
			UserID:      userID,
			Headline:    input.Headline,
			Bio:         input.Bio,
			Expertise:   expertise,
			OfferType:   input.OfferType,
			AccessPrice: input.AccessPrice,
			HourlyRate:  input.HourlyRate,
		}
		if err := storage.DB.Create(&mentor).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		storage.DB.Model(&models.User{}).Where("id = ? AND role = ?", userID, "user").Update("role", "mentor")
	}

	utils.JSONData(ctx, mentor)
}

func GetMentor(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)
	if id == 0 {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_id", "invalid mentor ID")
		return
	}

	var mentor models.Mentor
	if err := storage.DB.Preload("User").First(&mentor, id).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "mentor not found")
		return
	}
	utils.JSONData(ctx, mentor)
}

type ConnectAccountInput struct {
	StripeConnectID string `json:"stripeConnectID" validate:"required"`
}

// LinkConnectAccount stores the mentor's connected account and records
// whether it can already receive payouts.
func LinkConnectAccount(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input ConnectAccountInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var mentor models.Mentor
	if err := storage.DB.Where("user_id = ?", userID).First(&mentor).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "mentor profile not found")
		return
	}

	capability, err := services.Payments.CheckAccountCapability(input.StripeConnectID)
	if err != nil {
		utils.JSONError(ctx, iris.StatusBadGateway, "provider_error", "could not verify the connected account")
		return
	}

	mentor.StripeConnectID = input.StripeConnectID
	mentor.StripeOnboarded = capability.ChargesEnabled && capability.PayoutsEnabled
	if err := storage.DB.Save(&mentor).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"ok": true,
		"data": iris.Map{
			"mentor":     mentor,
			"capability": capability,
		},
	})
}

// GetOnboardingStatus re-checks the connected account's capabilities.
func GetOnboardingStatus(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var mentor models.Mentor
	if err := storage.DB.Where("user_id = ?", userID).First(&mentor).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "mentor profile not found")
		return
	}

	if mentor.StripeConnectID == "" {
		utils.JSONData(ctx, iris.Map{"onboarded": false})
		return
	}

	capability, err := services.Payments.CheckAccountCapability(mentor.StripeConnectID)
	if err != nil {
		utils.JSONError(ctx, iris.StatusBadGateway, "provider_error", "could not verify the connected account")
		return
	}

	if onboarded := capability.ChargesEnabled && capability.PayoutsEnabled; onboarded != mentor.StripeOnboarded {
		storage.DB.Model(&mentor).Update("stripe_onboarded", onboarded)
		mentor.StripeOnboarded = onboarded
	}

	utils.JSONData(ctx, iris.Map{"onboarded": mentor.StripeOnboarded, "capability": capability})
}
