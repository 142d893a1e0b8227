package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"mime"
	"net/http"
	"time"

	"go-foodshare/models"
	"go-foodshare/store"
	"go-foodshare/workflow"

	"github.com/gorilla/mux"
)

// ApplicationController handles receiver applications
type ApplicationController struct {
	Store store.Store
}

// NewApplicationController creates a new ApplicationController
func NewApplicationController(s store.Store) *ApplicationController {
	return &ApplicationController{Store: s}
}

type applicationRequest struct {
	Title         string           `json:"title"`
	Applicant     string           `json:"applicant"`
	ApplicantID   string           `json:"applicantId"`
	PickupDate    string           `json:"pickupDate"`
	PickupTime    string           `json:"pickupTime"`
	PickupAddress string           `json:"pickupAddress"`
	Location      *models.GeoPoint `json:"location"`
	ContactInfo   string           `json:"contactInfo"`
	Remarks       string           `json:"remarks"`
	DonationID    string           `json:"donationId"`
}

// decodeApplication reads a JSON body or plain form fields.
func decodeApplication(r *http.Request) (applicationRequest, error) {
	var req applicationRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return req, err
		}
		if err := r.ParseForm(); err != nil {
			return req, err
		}
	}
	req = applicationRequest{
		Title:         r.FormValue("title"),
		Applicant:     r.FormValue("applicant"),
		ApplicantID:   r.FormValue("applicantId"),
		PickupDate:    r.FormValue("pickupDate"),
		PickupTime:    r.FormValue("pickupTime"),
		PickupAddress: r.FormValue("pickupAddress"),
		Location:      parseLocation(r.FormValue("lat"), r.FormValue("lng")),
		ContactInfo:   r.FormValue("contactInfo"),
		Remarks:       r.FormValue("remarks"),
		DonationID:    r.FormValue("donationId"),
	}
	return req, nil
}

// CreateApplication stores a receiver's application. The referenced donation
// is not checked; reviewers see the application either way.
func (ac *ApplicationController) CreateApplication(w http.ResponseWriter, r *http.Request) {
	req, err := decodeApplication(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid input")
		return
	}

	now := time.Now()
	application := models.Application{
		Title:         req.Title,
		Applicant:     req.Applicant,
		ApplicantID:   req.ApplicantID,
		PickupDate:    req.PickupDate,
		PickupTime:    req.PickupTime,
		PickupAddress: req.PickupAddress,
		Location:      req.Location,
		ContactInfo:   req.ContactInfo,
		Remarks:       req.Remarks,
		DonationID:    req.DonationID,
		Flags:         workflow.Initial(),
		CreatedAt:     now,
		ModifiedAt:    now,
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	id, err := ac.Store.Create(ctx, store.Receivers, application)
	if err != nil {
		log.Printf("Error creating application: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error: Unable to create application.")
		return
	}
	created(w, id, "Application submitted successfully.")
}

// GetApplicationsByApplicant returns one receiver's applications
func (ac *ApplicationController) GetApplicationsByApplicant(w http.ResponseWriter, r *http.Request) {
	list[models.Application](w, r, ac.Store, store.Receivers, applicantFilter(mux.Vars(r)["id"]), "No applications found.")
}

// GetPendingApplications returns applications awaiting review (Admin only)
func (ac *ApplicationController) GetPendingApplications(w http.ResponseWriter, r *http.Request) {
	list[models.Application](w, r, ac.Store, store.Receivers, workflow.Pending(), "")
}

// GetApplicationHistory returns reviewed applications (Admin only)
func (ac *ApplicationController) GetApplicationHistory(w http.ResponseWriter, r *http.Request) {
	list[models.Application](w, r, ac.Store, store.Receivers, workflow.History(), "")
}
