package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/jvorel/stockpilot/internal/activity"
	"github.com/jvorel/stockpilot/internal/favourites"
	"github.com/jvorel/stockpilot/pkg/logger"
)

// FavouritesHandler handles favourite-stock CRUD endpoints.
type FavouritesHandler struct {
	store    *favourites.Store
	activity *activity.Log
	logger   *logger.Logger
}

// NewFavouritesHandler creates a new favourites handler.
func NewFavouritesHandler(store *favourites.Store, act *activity.Log, log *logger.Logger) *FavouritesHandler {
	return &FavouritesHandler{
		store:    store,
		activity: act,
		logger:   log,
	}
}

// AddFavouriteRequest is the POST /api/favourites body.
type AddFavouriteRequest struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// List returns all favourites.
// GET /api/favourites
func (h *FavouritesHandler) List(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.store.List()
	if err != nil && !errors.Is(err, favourites.ErrNotFound) {
		h.logger.WithError(err).Error("Failed to list favourites")
		respondError(w, http.StatusInternalServerError, "Failed to list favourites")
		return
	}

	if stocks == nil {
		stocks = []favourites.Stock{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    stocks,
	})
}

// Add appends a favourite. The duplicate-ticker check lives here, at the
// orchestration boundary; the store itself does not enforce uniqueness.
// POST /api/favourites
func (h *FavouritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddFavouriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Ticker = strings.TrimSpace(req.Ticker)
	if req.Name == "" || req.Ticker == "" {
		respondError(w, http.StatusBadRequest, "Both name and ticker are required")
		return
	}

	existing, err := h.store.List()
	if err != nil && !errors.Is(err, favourites.ErrNotFound) {
		h.logger.WithError(err).Error("Failed to check existing favourites")
		respondError(w, http.StatusInternalServerError, "Failed to add favourite")
		return
	}
	for _, stock := range existing {
		if stock.Ticker == req.Ticker {
			respondError(w, http.StatusConflict, "Ticker already in favourites")
			return
		}
	}

	if err := h.store.Add(req.Name, req.Ticker); err != nil {
		h.logger.WithError(err).Error("Failed to add favourite")
		respondError(w, http.StatusInternalServerError, "Failed to add favourite")
		return
	}

	h.activity.Append("favourites", "Added "+req.Ticker)
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    favourites.Stock{Name: req.Name, Ticker: req.Ticker},
	})
}

// Remove deletes a favourite by ticker. Removing an unknown ticker succeeds.
// DELETE /api/favourites/{ticker}
func (h *FavouritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	if err := h.store.Remove(ticker); err != nil {
		h.logger.WithError(err).Error("Failed to remove favourite")
		respondError(w, http.StatusInternalServerError, "Failed to remove favourite")
		return
	}

	h.activity.Append("favourites", "Removed "+ticker)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
