package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"go-foodshare/models"
	"go-foodshare/store"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
)

// DeliveryController handles delivery records
type DeliveryController struct {
	Store store.Store
}

// NewDeliveryController creates a new DeliveryController
func NewDeliveryController(s store.Store) *DeliveryController {
	return &DeliveryController{Store: s}
}

type deliveryRequest struct {
	OrderID     string `json:"orderId"`
	ApplicantID string `json:"applicantId"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Address     string `json:"address"`
}

// CreateDelivery records a pickup or delivery; every record starts waiting.
func (dc *DeliveryController) CreateDelivery(w http.ResponseWriter, r *http.Request) {
	var req deliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid input")
		return
	}

	now := time.Now()
	delivery := models.Delivery{
		OrderID:     req.OrderID,
		ApplicantID: req.ApplicantID,
		Type:        req.Type,
		Date:        req.Date,
		Time:        req.Time,
		Address:     req.Address,
		Status:      models.DeliveryStatusWait,
		CreatedAt:   now,
		ModifiedAt:  now,
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	id, err := dc.Store.Create(ctx, store.Delivery, delivery)
	if err != nil {
		log.Printf("Error creating delivery: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error: Unable to create delivery.")
		return
	}
	created(w, id, "Delivery record created successfully.")
}

// GetDeliveries returns every delivery record (Admin only)
func (dc *DeliveryController) GetDeliveries(w http.ResponseWriter, r *http.Request) {
	list[models.Delivery](w, r, dc.Store, store.Delivery, bson.M{}, "No deliveries found.")
}

// GetDeliveriesByApplicant returns the delivery records of one receiver
func (dc *DeliveryController) GetDeliveriesByApplicant(w http.ResponseWriter, r *http.Request) {
	list[models.Delivery](w, r, dc.Store, store.Delivery, applicantFilter(mux.Vars(r)["id"]), "No deliveries found.")
}

func applicantFilter(id string) bson.M {
	return bson.M{"applicantId": id}
}
