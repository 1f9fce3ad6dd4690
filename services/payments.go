package services

import (
	"fmt"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/account"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/transfer"
	"github.com/stripe/stripe-go/v76/transferreversal"
)

// AccountCapability mirrors the connected account's charge/payout state.
type AccountCapability struct {
	ChargesEnabled bool `json:"chargesEnabled"`
	PayoutsEnabled bool `json:"payoutsEnabled"`
}

// PaymentProvider is the narrow contract the booking lifecycle and dispute
// resolution depend on. The production implementation talks to Stripe
// Connect; tests substitute a stub.
type PaymentProvider interface {
	// IssueRefund refunds amountCents of the captured payment and returns
	// the provider refund id.
	IssueRefund(paymentIntentID string, amountCents int64, reason string) (string, error)
	// CreatePayout transfers amountCents to the mentor's connected account
	// and returns the provider transfer id.
	CreatePayout(destinationAccountID string, amountCents int64, bookingID uint, memo string) (string, error)
	// ReverseTransfer pulls back a previously issued transfer.
	ReverseTransfer(transferID string) error
	CheckAccountCapability(accountID string) (AccountCapability, error)
}

// Payments is the process-wide provider, set at startup (Stripe) or by tests.
var Payments PaymentProvider

// StripeProvider implements PaymentProvider on Stripe Connect.
type StripeProvider struct{}

func NewStripeProvider(secretKey string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{}
}

func (sp *StripeProvider) IssueRefund(paymentIntentID string, amountCents int64, reason string) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
		Amount:        stripe.Int64(amountCents),
	}
	if reason != "" {
		params.Reason = stripe.String(reason)
	}
	// Stable key so a retried resolution cannot double-refund the student.
	params.SetIdempotencyKey(fmt.Sprintf("refund-%s-%d", paymentIntentID, amountCents))

	r, err := refund.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe refund failed: %w", err)
	}
	return r.ID, nil
}

func (sp *StripeProvider) CreatePayout(destinationAccountID string, amountCents int64, bookingID uint, memo string) (string, error) {
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(amountCents),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		Destination:   stripe.String(destinationAccountID),
		Description:   stripe.String(memo),
		TransferGroup: stripe.String(fmt.Sprintf("booking-%d", bookingID)),
	}
	// Stable key so a retried release cannot double-pay the mentor.
	params.SetIdempotencyKey(fmt.Sprintf("payout-booking-%d", bookingID))

	t, err := transfer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe transfer failed: %w", err)
	}
	return t.ID, nil
}

func (sp *StripeProvider) ReverseTransfer(transferID string) error {
	params := &stripe.TransferReversalParams{
		ID: stripe.String(transferID),
	}
	if _, err := transferreversal.New(params); err != nil {
		return fmt.Errorf("stripe transfer reversal failed: %w", err)
	}
	return nil
}

func (sp *StripeProvider) CheckAccountCapability(accountID string) (AccountCapability, error) {
	acct, err := account.GetByID(accountID, nil)
	if err != nil {
		return AccountCapability{}, fmt.Errorf("stripe account lookup failed: %w", err)
	}
	return AccountCapability{
		ChargesEnabled: acct.ChargesEnabled,
		PayoutsEnabled: acct.PayoutsEnabled,
	}, nil
}
