package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"go-foodshare/models"
	"go-foodshare/payment"
	"go-foodshare/store"
	"go-foodshare/validation"

	"go.mongodb.org/mongo-driver/bson"
)

const paymentTimeout = 15 * time.Second

// PaymentController creates hosted checkout sessions and records completed
// money donations.
type PaymentController struct {
	Store     store.Store
	Checkout  payment.Checkout
	Verifier  payment.Verifier
	PublicURL string
	// VerifyRecords makes RecordDonation confirm the order with the provider
	// before storing it.
	VerifyRecords bool
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(s store.Store, checkout payment.Checkout, verifier payment.Verifier, publicURL string, verify bool) *PaymentController {
	return &PaymentController{
		Store:         s,
		Checkout:      checkout,
		Verifier:      verifier,
		PublicURL:     publicURL,
		VerifyRecords: verify,
	}
}

// CreateCheckoutSession starts a one-item checkout and returns its URL.
func (pc *PaymentController) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req validation.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing eventName or eventPrice")
		return
	}
	req, err := validation.Checkout(req)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing eventName or eventPrice")
		return
	}
	if pc.Checkout == nil {
		writeMessage(w, http.StatusInternalServerError, "Payments are not configured")
		return
	}

	amount := int64(req.EventPrice)
	orderID := payment.NewOrderID(req.UniqueKey)
	session := payment.Session{
		OrderID:   orderID,
		ItemLabel: "Donation by " + req.EventName,
		Amount:    amount,
		ReturnURL: payment.ReturnURL(pc.PublicURL, orderID, req.EventName, amount, req.DonationMessage, req.UniqueKey),
	}

	ctx, cancel := context.WithTimeout(r.Context(), paymentTimeout)
	defer cancel()

	url, err := pc.Checkout.CreateSession(ctx, session)
	if err != nil {
		log.Printf("Error creating checkout session %s: %v", orderID, err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error: Unable to create checkout session.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// RecordDonation stores a completed money donation reported by the checkout
// return page.
func (pc *PaymentController) RecordDonation(w http.ResponseWriter, r *http.Request) {
	var req validation.MoneyRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing donorName or donationAmount")
		return
	}
	req, err := validation.MoneyRecord(req)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing donorName or donationAmount")
		return
	}
	amount := int64(req.DonationAmount)

	ctx, cancel := context.WithTimeout(r.Context(), paymentTimeout)
	defer cancel()

	if req.OrderID != "" {
		count, err := pc.Store.Count(ctx, store.DonateMoney, bson.M{"orderId": req.OrderID})
		if err != nil {
			log.Printf("Error checking order %s: %v", req.OrderID, err)
			writeMessage(w, http.StatusInternalServerError, "Internal Server Error: Unable to record donation.")
			return
		}
		if count > 0 {
			writeMessage(w, http.StatusConflict, "Donation already recorded")
			return
		}
	}

	verified := false
	if pc.VerifyRecords {
		if req.OrderID == "" || pc.Verifier == nil {
			writeMessage(w, http.StatusBadRequest, "Missing orderId")
			return
		}
		receipt, err := pc.Verifier.Verify(ctx, req.OrderID)
		if err == nil {
			err = payment.CheckReceipt(receipt, amount)
		}
		switch {
		case errors.Is(err, payment.ErrUnverified):
			log.Printf("Payment %s not verified: %v", req.OrderID, err)
			writeMessage(w, http.StatusPaymentRequired, "Payment could not be verified")
			return
		case err != nil:
			log.Printf("Error verifying payment %s: %v", req.OrderID, err)
			writeMessage(w, http.StatusBadGateway, "Unable to reach the payment provider")
			return
		}
		verified = true
	}

	record := models.MoneyDonation{
		DonorName:       req.DonorName,
		DonationAmount:  amount,
		DonationMessage: req.DonationMessage,
		OrderID:         req.OrderID,
		Verified:        verified,
		CreatedAt:       time.Now(),
	}
	id, err := pc.Store.Create(ctx, store.DonateMoney, record)
	if err != nil {
		log.Printf("Error recording donation: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error: Unable to record donation.")
		return
	}
	created(w, id, "Donation recorded successfully.")
}

// GetMoneyDonations lists recorded money donations (Admin only)
func (pc *PaymentController) GetMoneyDonations(w http.ResponseWriter, r *http.Request) {
	list[models.MoneyDonation](w, r, pc.Store, store.DonateMoney, bson.M{}, "")
}
