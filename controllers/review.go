package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"go-foodshare/workflow"

	"github.com/gorilla/mux"
)

// ReviewController applies admin decisions to pending donations,
// applications and registrations.
type ReviewController struct {
	Engine *workflow.Engine
}

// NewReviewController creates a new ReviewController
func NewReviewController(engine *workflow.Engine) *ReviewController {
	return &ReviewController{Engine: engine}
}

// Decide returns the handler that approves or rejects the {id} record of kind.
func (rc *ReviewController) Decide(kind workflow.Kind, d workflow.Decision) http.HandlerFunc {
	verb := "approve"
	past := "approved"
	if d == workflow.Reject {
		verb, past = "reject", "rejected"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
		defer cancel()

		err := rc.Engine.Transition(ctx, kind, id, d)
		if errors.Is(err, workflow.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, kind.Label+" not found or already reviewed.")
			return
		}
		if err != nil {
			log.Printf("Error trying to %s %s %s: %v", verb, kind.Name, id, err)
			writeMessage(w, http.StatusInternalServerError, "Internal Server Error: Unable to "+verb+" "+strings.ToLower(kind.Label)+".")
			return
		}
		writeMessage(w, http.StatusOK, kind.Label+" "+past+" successfully.")
	}
}
