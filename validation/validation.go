// Package validation checks inbound fields before a record is created.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"go-foodshare/models"
)

// ValidationFailed names the first missing or invalid field.
type ValidationFailed struct {
	Field  string
	Reason string
}

func (e *ValidationFailed) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their wire name rather than the Go field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func check(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return &ValidationFailed{Field: fe.Field(), Reason: reason(fe)}
	}
	return err
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must have at least " + fe.Param() + " entries"
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

type RegisterRequest struct {
	Role        string `json:"role" validate:"required"`
	Salutation  string `json:"salutation" validate:"required"`
	EnglishName string `json:"english_name" validate:"required"`
	CompanyName string `json:"company_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	Phone       string `json:"phone"`
}

// Registration trims the request and checks every required field.
func Registration(req RegisterRequest) (RegisterRequest, error) {
	req.Role = strings.TrimSpace(req.Role)
	req.Salutation = strings.TrimSpace(req.Salutation)
	req.EnglishName = strings.TrimSpace(req.EnglishName)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	return req, check(req)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func Login(req LoginRequest) (LoginRequest, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	return req, check(req)
}

type donationCheck struct {
	Title     string            `json:"title" validate:"required"`
	FoodItems []models.FoodItem `json:"foodItems" validate:"required,min=1"`
}

// Donation parses foodItems, a JSON-encoded array from the multipart form, and
// checks title and items are present. The returned items keep the submitted order.
func Donation(title, foodItems string) ([]models.FoodItem, error) {
	var items []models.FoodItem
	if raw := strings.TrimSpace(foodItems); raw != "" {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, &ValidationFailed{Field: "foodItems", Reason: "must be a JSON array"}
		}
	}
	if err := check(donationCheck{Title: strings.TrimSpace(title), FoodItems: items}); err != nil {
		return nil, err
	}
	return items, nil
}

// Amount accepts a JSON number or a numeric string, since the checkout return
// page forwards amounts taken from its query string.
type Amount int64

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", s)
	}
	*a = Amount(n)
	return nil
}

type CheckoutRequest struct {
	EventName       string `json:"eventName" validate:"required"`
	EventPrice      Amount `json:"eventPrice" validate:"gt=0"`
	DonationMessage string `json:"donationMessage"`
	UniqueKey       string `json:"uniqueKey"`
}

func Checkout(req CheckoutRequest) (CheckoutRequest, error) {
	req.EventName = strings.TrimSpace(req.EventName)
	return req, check(req)
}

type MoneyRecordRequest struct {
	DonorName       string `json:"donorName" validate:"required"`
	DonationAmount  Amount `json:"donationAmount" validate:"gt=0"`
	DonationMessage string `json:"donationMessage"`
	UniqueKey       string `json:"uniqueKey"`
	OrderID         string `json:"orderId"`
}

func MoneyRecord(req MoneyRecordRequest) (MoneyRecordRequest, error) {
	req.DonorName = strings.TrimSpace(req.DonorName)
	return req, check(req)
}

type ResetPasswordRequest struct {
	ID string `json:"id" validate:"required"`
}

func ResetPassword(req ResetPasswordRequest) (ResetPasswordRequest, error) {
	req.ID = strings.TrimSpace(req.ID)
	return req, check(req)
}

type ResetConfirmRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func ResetConfirm(req ResetConfirmRequest) (ResetConfirmRequest, error) {
	req.Token = strings.TrimSpace(req.Token)
	return req, check(req)
}
