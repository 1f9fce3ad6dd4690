package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"bemymentor-server/config"
)

const resendAPIURL = "https://api.resend.com/emails"

// Email template names used by the reminder scanner and lifecycle.
const (
	EmailSessionReminder24h   = "session-reminder-24h"
	EmailSessionReminder15min = "session-reminder-15min"
	EmailReviewPrompt         = "review-prompt"
	EmailConfirmationNeeded   = "confirmation-needed"
	EmailDisputeOutcome       = "dispute-outcome"
)

var emailSubjects = map[string]string{
	EmailSessionReminder24h:   "Your session is tomorrow",
	EmailSessionReminder15min: "Your session starts in 15 minutes",
	EmailReviewPrompt:         "How was your experience?",
	EmailConfirmationNeeded:   "Please confirm your booking",
	EmailDisputeOutcome:       "Your dispute has been resolved",
}

// SendEmail renders the named template with the given variables and delivers
// it through the Resend API. Callers treat a returned error as
// "do not mark as sent"; they never fail their primary operation over it.
func SendEmail(templateName, recipient string, variables map[string]string) error {
	if config.C.ResendAPIKey == "" {
		log.Printf("📧 EMAIL (dry-run) %s -> %s %v", templateName, recipient, variables)
		return nil
	}

	subject, ok := emailSubjects[templateName]
	if !ok {
		return fmt.Errorf("unknown email template %q", templateName)
	}

	body := map[string]interface{}{
		"from":    config.C.EmailFrom,
		"to":      []string{recipient},
		"subject": subject,
		"html":    renderTemplate(templateName, variables),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, resendAPIURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+config.C.ResendAPIKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("resend returned status %d", resp.StatusCode)
	}
	return nil
}

func renderTemplate(templateName string, variables map[string]string) string {
	var buf bytes.Buffer
	buf.WriteString("<p>" + emailSubjects[templateName] + "</p><ul>")
	for k, v := range variables {
		buf.WriteString("<li><strong>" + k + ":</strong> " + v + "</li>")
	}
	buf.WriteString("</ul>")
	return buf.String()
}
