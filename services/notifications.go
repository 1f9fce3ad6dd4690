package services

import (
	"encoding/json"
	"fmt"
	"log"

	"bemymentor-server/models"
	"bemymentor-server/storage"
	"bemymentor-server/utils"
)

// NotificationService handles all push notification logic
type NotificationService struct{}

// NewNotificationService creates a new notification service instance
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotificationData represents the data payload for notifications
type NotificationData struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	BookingID string `json:"bookingId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	MentorID  string `json:"mentorId,omitempty"`
	Link      string `json:"link,omitempty"`
}

// getUserPushTokens retrieves all push tokens for a user
func (ns *NotificationService) getUserPushTokens(userID uint) ([]string, error) {
	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %v", err)
	}

	if user.AllowsNotifications == nil || !*user.AllowsNotifications || user.PushTokens == nil {
		return nil, fmt.Errorf("user has notifications disabled or no tokens")
	}

	var tokens []string
	if err := json.Unmarshal(user.PushTokens, &tokens); err != nil {
		return nil, fmt.Errorf("failed to unmarshal push tokens: %v", err)
	}
	return tokens, nil
}

// SendNotificationToUser sends a push notification to a specific user
func (ns *NotificationService) SendNotificationToUser(userID uint, title, body string, data NotificationData) error {
	tokens, err := ns.getUserPushTokens(userID)
	if err != nil {
		log.Printf("Failed to get push tokens for user %d: %v", userID, err)
		return err
	}

	dataMap := map[string]string{
		"type":      data.Type,
		"id":        data.ID,
		"bookingId": data.BookingID,
		"userId":    data.UserID,
		"mentorId":  data.MentorID,
		"link":      data.Link,
	}

	var lastError error
	for _, token := range tokens {
		if err := utils.SendNotification(token, title, body, dataMap); err != nil {
			log.Printf("Failed to send notification to token %s: %v", token, err)
			lastError = err
		}
	}

	return lastError
}

// Notify persists an in-app notification row and fires the push
// best-effort. Failures are logged and never propagated to the caller's
// primary operation.
func (ns *NotificationService) Notify(userID uint, kind, title, message, link string, refType string, refID uint) {
	notification := models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Link:    link,
		RefType: refType,
		RefID:   refID,
	}
	if err := storage.DB.Create(&notification).Error; err != nil {
		log.Printf("❌ NOTIFY: failed to persist notification for user %d: %v", userID, err)
	}

	data := NotificationData{
		Type:   kind,
		ID:     fmt.Sprintf("%d", refID),
		UserID: fmt.Sprintf("%d", userID),
		Link:   link,
	}
	if refType == "booking" {
		data.BookingID = fmt.Sprintf("%d", refID)
	}
	go func() {
		if err := ns.SendNotificationToUser(userID, title, message, data); err != nil {
			log.Printf("Push delivery failed for user %d: %v", userID, err)
		}
	}()
}

// SendConfirmationNeededToStudent asks the student to confirm a completed
// engagement before the auto-confirm deadline.
func (ns *NotificationService) SendConfirmationNeededToStudent(studentID, bookingID uint, mentorName string) {
	title := "Did your session go well? ✅"
	body := fmt.Sprintf("%s marked your booking as complete. Confirm it or report a problem within 72 hours.", mentorName)
	ns.Notify(studentID, "booking_confirm_needed", title, body, fmt.Sprintf("/bookings/%d", bookingID), "booking", bookingID)
}

// SendFraudReportToMentor tells the mentor their booking is under dispute.
func (ns *NotificationService) SendFraudReportToMentor(mentorUserID, bookingID uint) {
	title := "A booking was reported ⚠️"
	body := fmt.Sprintf("Booking #%d was reported by the student and is under review. The payout is on hold.", bookingID)
	ns.Notify(mentorUserID, "fraud_reported", title, body, fmt.Sprintf("/bookings/%d", bookingID), "booking", bookingID)
}

// SendFraudReportToAdmins fans the report out to every admin account.
func (ns *NotificationService) SendFraudReportToAdmins(bookingID uint, reason string) {
	var admins []models.User
	if err := storage.DB.Where("role IN ?", []string{"admin", "super_admin"}).Find(&admins).Error; err != nil {
		log.Printf("❌ NOTIFY: failed to load admins for fraud report: %v", err)
		return
	}
	title := "New fraud report 🚨"
	body := fmt.Sprintf("Booking #%d was reported: %s", bookingID, reason)
	for _, admin := range admins {
		ns.Notify(admin.ID, "fraud_report_admin", title, body, fmt.Sprintf("/admin/disputes/%d", bookingID), "booking", bookingID)
	}
}

// SendDisputeOutcome summarizes the financial outcome for one party.
func (ns *NotificationService) SendDisputeOutcome(userID, bookingID uint, refundAmount, payoutAmount int64) {
	title := "Dispute resolved"
	body := fmt.Sprintf("Booking #%d has been reviewed. Refund: $%.2f, payout: $%.2f.",
		bookingID, float64(refundAmount)/100, float64(payoutAmount)/100)
	ns.Notify(userID, "dispute_resolved", title, body, fmt.Sprintf("/bookings/%d", bookingID), "booking", bookingID)
}

// Global notification service instance
var NotificationServiceInstance = NewNotificationService()
