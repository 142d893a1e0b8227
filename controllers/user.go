package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-foodshare/middleware"
	"go-foodshare/models"
	"go-foodshare/notify"
	"go-foodshare/store"
	"go-foodshare/utils"
	"go-foodshare/validation"
	"go-foodshare/workflow"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
)

// protectedUserFields may not be changed through a profile update: the
// password goes through the reset flow, the flags through review and the
// role only through the admin CLI.
var protectedUserFields = []string{"_id", "password", "role", "ip_address", "approved", "rejected", "status", "createdAt"}

// UserController handles user-related requests
type UserController struct {
	Store     store.Store
	Tokens    *utils.TokenManager
	Outbox    notify.Outbox
	PublicURL string
}

// NewUserController creates a new UserController
func NewUserController(s store.Store, tokens *utils.TokenManager, outbox notify.Outbox, publicURL string) *UserController {
	return &UserController{
		Store:     s,
		Tokens:    tokens,
		Outbox:    outbox,
		PublicURL: publicURL,
	}
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req validation.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Bad Request")
		return
	}
	req, err := validation.Registration(req)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Bad Request: "+err.Error())
		return
	}
	// Administrators are only created from the command line.
	if strings.EqualFold(req.Role, models.RoleAdmin) {
		writeMessage(w, http.StatusBadRequest, "Bad Request: role cannot be admin")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	// Check if the email is already registered
	count, err := uc.Store.Count(ctx, store.Users, bson.M{"email": req.Email})
	if err != nil {
		log.Printf("Error checking email %s: %v", req.Email, err)
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}
	if count > 0 {
		writeMessage(w, http.StatusBadRequest, "Email already registered")
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Error hashing password")
		return
	}

	now := time.Now()
	user := models.User{
		Role:        req.Role,
		Salutation:  req.Salutation,
		EnglishName: req.EnglishName,
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Password:    hashed,
		Phone:       req.Phone,
		IPAddress:   r.RemoteAddr,
		Flags:       workflow.Initial(),
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	id, err := uc.Store.Create(ctx, store.Users, user)
	if errors.Is(err, store.ErrDuplicate) {
		writeMessage(w, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		log.Printf("Error creating user %s: %v", req.Email, err)
		writeMessage(w, http.StatusInternalServerError, "Error creating user")
		return
	}

	log.Printf("Registered %s user %s", user.Role, id.Hex())
	created(w, id, "")
}

// findByLoginEmail looks up the lowercased address first. Accounts stored
// before addresses were normalized are matched on the address as typed.
func (uc *UserController) findByLoginEmail(ctx context.Context, normalized, submitted string) (models.User, error) {
	user, err := store.FindFirst[models.User](ctx, uc.Store, store.Users, bson.M{"email": normalized})
	if errors.Is(err, store.ErrNotFound) && submitted != normalized {
		return store.FindFirst[models.User](ctx, uc.Store, store.Users, bson.M{"email": submitted})
	}
	return user, err
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req validation.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Bad Request")
		return
	}
	submitted := strings.TrimSpace(req.Email)
	req, err := validation.Login(req)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Bad Request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	user, err := uc.findByLoginEmail(ctx, req.Email, submitted)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("Error loading user %s: %v", req.Email, err)
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !utils.CheckPassword(user.Password, req.Password) {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !utils.IsHashed(user.Password) {
		uc.upgradePassword(ctx, user, req.Password)
	}

	token, err := uc.Tokens.GenerateJWT(user.ID.Hex(), user.Email, user.Role, user.EnglishName)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Error generating token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user.Sanitize(),
	})
}

// upgradePassword replaces a legacy plaintext password with its hash.
func (uc *UserController) upgradePassword(ctx context.Context, user models.User, password string) {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		log.Printf("Error hashing legacy password for %s: %v", user.ID.Hex(), err)
		return
	}
	if _, err := uc.Store.Update(ctx, store.Users, store.ByID(user.ID), bson.M{"password": hashed}); err != nil {
		log.Printf("Error upgrading legacy password for %s: %v", user.ID.Hex(), err)
	}
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Could not parse user from context")
		return
	}
	uc.writeUser(w, r, claims.UserID, "User not found")
}

// GetDetail returns a donor or receiver profile by id.
func (uc *UserController) GetDetail(label string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uc.writeUser(w, r, mux.Vars(r)["id"], label+" not found.")
	}
}

func (uc *UserController) writeUser(w http.ResponseWriter, r *http.Request, id, notFound string) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	user, err := store.FindByID[models.User](ctx, uc.Store, store.Users, id)
	switch {
	case errors.Is(err, store.ErrInvalidID):
		writeMessage(w, http.StatusBadRequest, "Invalid user ID")
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, notFound)
	case err != nil:
		log.Printf("Error fetching user %s: %v", id, err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error: Unable to fetch user.")
	default:
		writeJSON(w, http.StatusOK, user.Sanitize())
	}
}

// UpdateDetail merges the request body into a donor or receiver profile.
// Only the user themselves or an administrator may update a profile.
func (uc *UserController) UpdateDetail(label string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if claims.UserID != id && claims.Role != models.RoleAdmin {
			writeMessage(w, http.StatusForbidden, "Forbidden")
			return
		}
		userID, err := store.ParseID(id)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid user ID")
			return
		}

		var updatedData bson.M
		if err := json.NewDecoder(r.Body).Decode(&updatedData); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid input")
			return
		}
		for _, field := range protectedUserFields {
			delete(updatedData, field)
		}
		if len(updatedData) == 0 {
			writeMessage(w, http.StatusBadRequest, "Bad Request: nothing to update")
			return
		}
		updatedData["modifiedAt"] = time.Now()

		ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
		defer cancel()

		if email, ok := updatedData["email"].(string); ok {
			email = strings.ToLower(strings.TrimSpace(email))
			updatedData["email"] = email
			taken, err := uc.Store.Count(ctx, store.Users, bson.M{"email": email})
			if err != nil {
				log.Printf("Error checking email %s: %v", email, err)
				writeMessage(w, http.StatusInternalServerError, "Internal Server Error: Unable to update "+strings.ToLower(label)+".")
				return
			}
			if taken > 0 {
				current, err := store.FindFirst[models.User](ctx, uc.Store, store.Users, bson.M{"email": email})
				if err != nil || current.ID != userID {
					writeMessage(w, http.StatusBadRequest, "Email already registered")
					return
				}
			}
		}

		matched, err := uc.Store.Update(ctx, store.Users, store.ByID(userID), updatedData)
		if errors.Is(err, store.ErrDuplicate) {
			writeMessage(w, http.StatusBadRequest, "Email already registered")
			return
		}
		if err != nil {
			log.Printf("Error updating user %s: %v", id, err)
			writeMessage(w, http.StatusInternalServerError, "Internal Server Error: Unable to update "+strings.ToLower(label)+".")
			return
		}
		if matched == 0 {
			writeMessage(w, http.StatusNotFound, label+" not found.")
			return
		}
		writeMessage(w, http.StatusOK, label+" updated successfully.")
	}
}

// ListByRole returns every user registered with role.
func (uc *UserController) ListByRole(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list[models.User](w, r, uc.Store, store.Users, bson.M{"role": role}, "")
	}
}

// ListPending returns registrations awaiting review.
func (uc *UserController) ListPending(w http.ResponseWriter, r *http.Request) {
	list[models.User](w, r, uc.Store, store.Users, workflow.Pending(), "")
}

// ListHistory returns reviewed registrations.
func (uc *UserController) ListHistory(w http.ResponseWriter, r *http.Request) {
	list[models.User](w, r, uc.Store, store.Users, workflow.History(), "")
}

// ResetPassword emails a password reset link to the user with the given id.
func (uc *UserController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req validation.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Bad Request")
		return
	}
	req, err := validation.ResetPassword(req)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Bad Request: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	user, err := store.FindByID[models.User](ctx, uc.Store, store.Users, req.ID)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching user %s: %v", req.ID, err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error: Unable to reset password.")
		return
	}

	token, err := uc.Tokens.GenerateResetToken(user.ID.Hex(), user.Email)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Error generating token")
		return
	}
	link := uc.PublicURL + "/reset-password?token=" + url.QueryEscape(token)
	subject, body := notify.PasswordReset(user.EnglishName, link)
	if err := uc.Outbox.Publish(ctx, notify.New("password.reset", user.ID.Hex(), user.Email, subject, body)); err != nil {
		log.Printf("Error queueing reset email for %s: %v", user.ID.Hex(), err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error: Unable to send reset email.")
		return
	}
	writeMessage(w, http.StatusOK, "Password reset email sent.")
}

// ConfirmReset sets a new password using a token from the reset email.
func (uc *UserController) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req validation.ResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Bad Request")
		return
	}
	req, err := validation.ResetConfirm(req)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Bad Request: "+err.Error())
		return
	}

	claims, err := uc.Tokens.ParseJWT(req.Token, utils.PurposeReset)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	userID, err := store.ParseID(claims.UserID)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Error hashing password")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	// The token is bound to the email it was sent to.
	matched, err := uc.Store.Update(ctx, store.Users, bson.M{"_id": userID, "email": claims.Email}, bson.M{
		"password":   hashed,
		"modifiedAt": time.Now(),
	})
	if err != nil {
		log.Printf("Error resetting password for %s: %v", claims.UserID, err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error: Unable to reset password.")
		return
	}
	if matched == 0 {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeMessage(w, http.StatusOK, "Password updated successfully.")
}
