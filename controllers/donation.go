package controllers

import (
	"context"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-foodshare/models"
	"go-foodshare/storage"
	"go-foodshare/store"
	"go-foodshare/validation"
	"go-foodshare/workflow"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	maxPhotos     = 10
	maxFormMemory = 32 << 20
	photoField    = "foodPhotos[]"
	uploadTimeout = 60 * time.Second
)

// DonationController handles donation-related requests
type DonationController struct {
	Store   store.Store
	Storage *storage.Storage
}

// NewDonationController creates a new DonationController
func NewDonationController(s store.Store, files *storage.Storage) *DonationController {
	return &DonationController{
		Store:   s,
		Storage: files,
	}
}

// CreateDonation accepts a multipart form with the donation fields, a JSON
// encoded foodItems array and up to ten photos. Photo i belongs to item i.
func (dc *DonationController) CreateDonation(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			writeMessage(w, http.StatusBadRequest, "Bad Request: invalid form")
			return
		}
		if err := r.ParseForm(); err != nil {
			writeMessage(w, http.StatusBadRequest, "Bad Request: invalid form")
			return
		}
	}

	title := strings.TrimSpace(r.FormValue("title"))
	items, err := validation.Donation(title, r.FormValue("foodItems"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Bad Request: "+err.Error())
		return
	}

	var photos []*multipart.FileHeader
	if r.MultipartForm != nil {
		photos = r.MultipartForm.File[photoField]
	}
	if len(photos) > maxPhotos {
		writeMessage(w, http.StatusBadRequest, "Bad Request: at most 10 photos may be uploaded")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	var saved []string
	for i := range items {
		items[i].FoodPhoto = nil
		if i >= len(photos) {
			continue
		}
		name, err := dc.savePhoto(ctx, photos[i])
		if err != nil {
			log.Printf("Error saving photo %q: %v", photos[i].Filename, err)
			dc.discardPhotos(saved)
			writeMessage(w, http.StatusInternalServerError, "Internal Server Error: Unable to save photos.")
			return
		}
		saved = append(saved, name)
		items[i].FoodPhoto = &name
	}

	now := time.Now()
	donation := models.Donation{
		Title:         title,
		Date:          r.FormValue("date"),
		DonorID:       r.FormValue("donorId"),
		DonorName:     r.FormValue("donorName"),
		PickUpAddress: r.FormValue("pick_up_address"),
		Location:      parseLocation(r.FormValue("lat"), r.FormValue("lng")),
		CollectDate:   r.FormValue("collectDate"),
		CollectTime:   r.FormValue("collectTime"),
		FoodItems:     items,
		Flags:         workflow.Initial(),
		CreatedAt:     now,
		ModifiedAt:    now,
	}

	id, err := dc.Store.Create(ctx, store.Donations, donation)
	if err != nil {
		log.Printf("Error creating donation: %v", err)
		dc.discardPhotos(saved)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error: Unable to create donation.")
		return
	}
	created(w, id, "Donation submitted successfully.")
}

func (dc *DonationController) savePhoto(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return dc.Storage.Save(ctx, fh.Filename, f, fh.Size)
}

// discardPhotos removes uploads that no donation will reference. It runs on
// its own deadline since the request context may already be done.
func (dc *DonationController) discardPhotos(names []string) {
	if len(names) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	for _, name := range names {
		if err := dc.Storage.Delete(ctx, name); err != nil {
			log.Printf("Error removing orphaned photo %s: %v", name, err)
		}
	}
}

// parseLocation returns nil unless both coordinates parse.
func parseLocation(lat, lng string) *models.GeoPoint {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return nil
	}
	ln, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return nil
	}
	return &models.GeoPoint{Lat: la, Lng: ln}
}

// GetDonations returns approved donations
func (dc *DonationController) GetDonations(w http.ResponseWriter, r *http.Request) {
	list[models.Donation](w, r, dc.Store, store.Donations, workflow.Visible(), "No donations found.")
}

// GetDonationsByDonor returns every donation made by one donor
func (dc *DonationController) GetDonationsByDonor(w http.ResponseWriter, r *http.Request) {
	list[models.Donation](w, r, dc.Store, store.Donations, bson.M{"donorId": mux.Vars(r)["id"]}, "No donations found for this donor.")
}

// GetDonationByID retrieves a single donation
func (dc *DonationController) GetDonationByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	donation, err := store.FindByID[models.Donation](ctx, dc.Store, store.Donations, mux.Vars(r)["id"])
	switch {
	case errors.Is(err, store.ErrInvalidID):
		writeMessage(w, http.StatusBadRequest, "Invalid donation ID")
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Donation not found.")
	case err != nil:
		log.Printf("Error fetching donation: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error: Unable to fetch donation.")
	default:
		writeJSON(w, http.StatusOK, donation)
	}
}

// GetPendingDonations returns donations awaiting review (Admin only)
func (dc *DonationController) GetPendingDonations(w http.ResponseWriter, r *http.Request) {
	list[models.Donation](w, r, dc.Store, store.Donations, workflow.Pending(), "")
}

// GetDonationHistory returns reviewed donations (Admin only)
func (dc *DonationController) GetDonationHistory(w http.ResponseWriter, r *http.Request) {
	list[models.Donation](w, r, dc.Store, store.Donations, workflow.History(), "")
}

// ServePhoto streams a stored upload.
func (dc *DonationController) ServePhoto(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	body, contentType, err := dc.Storage.Open(ctx, mux.Vars(r)["name"])
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
		writeMessage(w, http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		log.Printf("Error opening upload: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error: Unable to read file.")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		log.Printf("Error streaming upload: %v", err)
	}
}
