package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"go-foodshare/store"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	queryTimeout = 5 * time.Second
	listTimeout  = 30 * time.Second
)

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeMessage is used for both success messages and errors; clients only
// ever get a short human-readable message.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func created(w http.ResponseWriter, id any, message string) {
	body := map[string]any{"id": id}
	if message != "" {
		body["message"] = message
	}
	writeJSON(w, http.StatusCreated, body)
}

// list writes every document of coll matching filter. When notFound is set an
// empty result is answered with 404 and that message.
func list[T any](w http.ResponseWriter, r *http.Request, s store.Store, coll store.Collection, filter bson.M, notFound string) {
	ctx, cancel := context.WithTimeout(r.Context(), listTimeout)
	defer cancel()

	docs, err := store.FindAll[T](ctx, s, coll, filter)
	if err != nil {
		log.Printf("Error fetching %s: %v", coll, err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error: Unable to fetch "+string(coll)+".")
		return
	}
	if len(docs) == 0 && notFound != "" {
		writeMessage(w, http.StatusNotFound, notFound)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}
