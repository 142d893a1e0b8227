// Package payment talks to the hosted checkout provider.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ErrUnverified is returned when the provider does not confirm a payment.
var ErrUnverified = errors.New("payment not verified")

// Session describes a one-line hosted checkout.
type Session struct {
	OrderID   string
	ItemLabel string
	Amount    int64
	ReturnURL string
}

// Checkout creates hosted checkout sessions and returns the redirect URL.
type Checkout interface {
	CreateSession(ctx context.Context, s Session) (string, error)
}

// Receipt is the provider's view of a transaction.
type Receipt struct {
	OrderID     string
	Status      string
	GrossAmount int64
}

// Settled reports whether the funds were actually captured.
func (r Receipt) Settled() bool {
	return r.Status == "settlement" || r.Status == "capture"
}

// Verifier looks up a transaction by order id.
type Verifier interface {
	Verify(ctx context.Context, orderID string) (Receipt, error)
}

// NewOrderID returns a unique order id, reusing the client's key when given.
func NewOrderID(uniqueKey string) string {
	if uniqueKey != "" {
		return "DONATION-" + uniqueKey
	}
	return fmt.Sprintf("DONATION-%d", time.Now().UnixNano())
}

// ReturnURL builds the success page link the provider redirects to. The page
// reads these parameters back to call /api/record-donation.
func ReturnURL(base, orderID, donorName string, amount int64, message, uniqueKey string) string {
	q := url.Values{}
	q.Set("donor_name", donorName)
	q.Set("donation_amount", strconv.FormatInt(amount, 10))
	q.Set("donationMessage", message)
	q.Set("uniqueKey", uniqueKey)
	q.Set("orderId", orderID)
	return base + "/success?" + q.Encode()
}

// CheckReceipt confirms a receipt is settled and matches the asserted amount.
func CheckReceipt(r Receipt, amount int64) error {
	if !r.Settled() {
		return fmt.Errorf("%w: order %s is %q", ErrUnverified, r.OrderID, r.Status)
	}
	if r.GrossAmount != amount {
		return fmt.Errorf("%w: order %s charged %d, asserted %d", ErrUnverified, r.OrderID, r.GrossAmount, amount)
	}
	return nil
}
