package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"unicode/utf8"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

// Midtrans implements Checkout with Snap and Verifier with the Core API.
type Midtrans struct {
	snap snap.Client
	core coreapi.Client
}

// NewMidtrans initialises both clients with the server key.
func NewMidtrans(serverKey string, production bool) (*Midtrans, error) {
	if serverKey == "" {
		return nil, errors.New("MIDTRANS_SERVER_KEY is required")
	}
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	m := &Midtrans{}
	m.snap.New(serverKey, env)
	m.core.New(serverKey, env)
	return m, nil
}

// Midtrans rejects item names longer than 50 characters.
const maxItemName = 50

// itemName cuts label to maxItemName characters without splitting a rune.
func itemName(label string) string {
	if utf8.RuneCountInString(label) <= maxItemName {
		return label
	}
	return string([]rune(label)[:maxItemName])
}

func (m *Midtrans) CreateSession(ctx context.Context, s Session) (string, error) {
	label := itemName(s.ItemLabel)
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  s.OrderID,
			GrossAmt: s.Amount,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    "donation",
			Name:  label,
			Price: s.Amount,
			Qty:   1,
		}},
		Callbacks: &snap.Callbacks{Finish: s.ReturnURL},
	}

	resp, merr := m.snap.CreateTransaction(req)
	if merr != nil {
		return "", fmt.Errorf("create checkout session: %w", merr)
	}
	return resp.RedirectURL, nil
}

func (m *Midtrans) Verify(ctx context.Context, orderID string) (Receipt, error) {
	res, merr := m.core.CheckTransaction(orderID)
	if merr != nil {
		if merr.StatusCode == http.StatusNotFound {
			return Receipt{}, fmt.Errorf("%w: order %s does not exist", ErrUnverified, orderID)
		}
		return Receipt{}, fmt.Errorf("check transaction %s: %w", orderID, merr)
	}
	gross, err := strconv.ParseFloat(res.GrossAmount, 64)
	if err != nil {
		return Receipt{}, fmt.Errorf("parse gross amount %q: %w", res.GrossAmount, err)
	}
	return Receipt{
		OrderID:     res.OrderID,
		Status:      res.TransactionStatus,
		GrossAmount: int64(gross),
	}, nil
}
