package routes

import (
	"net/http"

	"go-foodshare/controllers"
	"go-foodshare/middleware"
	"go-foodshare/models"
	"go-foodshare/store"
	"go-foodshare/utils"
	"go-foodshare/workflow"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
)

// Controllers groups every handler the API exposes.
type Controllers struct {
	User        *controllers.UserController
	Donation    *controllers.DonationController
	Application *controllers.ApplicationController
	Delivery    *controllers.DeliveryController
	Payment     *controllers.PaymentController
	Review      *controllers.ReviewController
}

// NewRouter builds the HTTP handler: request logging and panic recovery
// wrap everything, and every /api request holds a store session.
func NewRouter(c Controllers, s store.Store, tokens *utils.TokenManager, origins []string) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", controllers.Health(s)).Methods("GET")
	router.HandleFunc("/uploads/{name}", c.Donation.ServePhoto).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.StoreSession(s))
	RegisterRoutes(api, c, tokens)

	return chi.Chain(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Logger,
		chimw.Recoverer,
		middleware.CORS(origins...),
	).Handler(router)
}

// RegisterRoutes sets up all the /api routes on router
func RegisterRoutes(router *mux.Router, c Controllers, tokens *utils.TokenManager) {
	auth := middleware.AuthMiddleware(tokens)
	admin := func(h http.HandlerFunc) http.Handler {
		return auth(middleware.AdminMiddleware(h))
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}

	// Accounts
	router.HandleFunc("/register", c.User.Register).Methods("POST")
	router.HandleFunc("/login", c.User.Login).Methods("POST")
	router.Handle("/profile", protected(c.User.GetProfile)).Methods("GET")
	router.HandleFunc("/reset-password", c.User.ResetPassword).Methods("POST")
	router.HandleFunc("/reset-password/confirm", c.User.ConfirmReset).Methods("POST")
	router.HandleFunc("/donordetail/{id}", c.User.GetDetail("Donor")).Methods("GET")
	router.Handle("/donordetail/{id}", protected(c.User.UpdateDetail("Donor"))).Methods("PUT")
	router.HandleFunc("/receiverdetail/{id}", c.User.GetDetail("Receiver")).Methods("GET")
	router.Handle("/receiverdetail/{id}", protected(c.User.UpdateDetail("Receiver"))).Methods("PUT")
	router.Handle("/donorcontent", admin(c.User.ListByRole(models.RoleDonor))).Methods("GET")
	router.Handle("/receivercontent", admin(c.User.ListByRole(models.RoleReceiver))).Methods("GET")
	router.Handle("/user_application", admin(c.User.ListPending)).Methods("GET")
	router.Handle("/user_history", admin(c.User.ListHistory)).Methods("GET")
	router.Handle("/users/{id}/approve", admin(c.Review.Decide(workflow.RegistrationKind, workflow.Approve))).Methods("PUT")
	router.Handle("/users/{id}/reject", admin(c.Review.Decide(workflow.RegistrationKind, workflow.Reject))).Methods("PUT")

	// Donations
	router.HandleFunc("/donationnew", c.Donation.CreateDonation).Methods("POST")
	router.HandleFunc("/donations", c.Donation.GetDonations).Methods("GET")
	router.HandleFunc("/donation/{id}", c.Donation.GetDonationsByDonor).Methods("GET")
	router.HandleFunc("/donationdetail/{id}", c.Donation.GetDonationByID).Methods("GET")
	router.Handle("/donation_application", admin(c.Donation.GetPendingDonations)).Methods("GET")
	router.Handle("/donation_history", admin(c.Donation.GetDonationHistory)).Methods("GET")
	router.Handle("/donation/{id}/approve", admin(c.Review.Decide(workflow.DonationKind, workflow.Approve))).Methods("PUT")
	router.Handle("/donation/{id}/reject", admin(c.Review.Decide(workflow.DonationKind, workflow.Reject))).Methods("PUT")

	// Applications
	router.HandleFunc("/applicationnew", c.Application.CreateApplication).Methods("POST")
	router.HandleFunc("/application/{id}", c.Application.GetApplicationsByApplicant).Methods("GET")
	router.Handle("/receiver_application", admin(c.Application.GetPendingApplications)).Methods("GET")
	router.Handle("/receivers_history", admin(c.Application.GetApplicationHistory)).Methods("GET")
	router.Handle("/receivers/{id}/approve", admin(c.Review.Decide(workflow.ApplicationKind, workflow.Approve))).Methods("PUT")
	router.Handle("/receivers/{id}/reject", admin(c.Review.Decide(workflow.ApplicationKind, workflow.Reject))).Methods("PUT")

	// Deliveries
	router.HandleFunc("/delivery", c.Delivery.CreateDelivery).Methods("POST")
	router.Handle("/delivery", admin(c.Delivery.GetDeliveries)).Methods("GET")
	router.HandleFunc("/delivery/{id}", c.Delivery.GetDeliveriesByApplicant).Methods("GET")

	// Money donations
	router.HandleFunc("/create-checkout-session", c.Payment.CreateCheckoutSession).Methods("POST")
	router.HandleFunc("/record-donation", c.Payment.RecordDonation).Methods("POST")
	router.Handle("/record-donation", admin(c.Payment.GetMoneyDonations)).Methods("GET")
}
