// Package handlers implements the HTTP handlers for card and maintenance routes.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/ramonehamilton/commander-rater/internal/api/response"
	"github.com/ramonehamilton/commander-rater/internal/cardsync"
	"github.com/ramonehamilton/commander-rater/internal/storage/models"
	"github.com/ramonehamilton/commander-rater/internal/storage/repository"
)

// CardService is the subset of *cardsync.Service the handlers use.
type CardService interface {
	InitializeDatabase(ctx context.Context) cardsync.Result
	SyncCommanderCards(ctx context.Context, hook cardsync.ProgressFunc) cardsync.SyncResult
	RateCard(ctx context.Context, id string, rating *models.Rating) cardsync.Result
	GetRandomCard(ctx context.Context, filter models.RatingFilter) (*models.Card, error)
	GetCardStats(ctx context.Context) (*models.CardStats, error)
	GetCardsByRating(ctx context.Context, rating models.Rating) ([]*models.Card, error)
	CountCards(ctx context.Context) (int, error)
	ClearAllCards(ctx context.Context) cardsync.Result
	ClearAllRatings(ctx context.Context) cardsync.Result
	ExportRatings(ctx context.Context) ([]models.RatingRecord, error)
	ImportRatings(ctx context.Context, records []models.RatingRecord) cardsync.ImportResult
}

// SyncNotifier receives sync progress for push delivery.
type SyncNotifier interface {
	OnProgress(cardsync.Progress)
	OnComplete(cardsync.SyncResult)
}

// CardHandler handles card-related API requests.
type CardHandler struct {
	svc      CardService
	notifier SyncNotifier

	// Held for the duration of a sync; a second request gets 409.
	syncMu sync.Mutex
}

// NewCardHandler creates a new CardHandler. notifier may be nil.
func NewCardHandler(svc CardService, notifier SyncNotifier) *CardHandler {
	return &CardHandler{svc: svc, notifier: notifier}
}

// overview is the body of GET /cards.
type overview struct {
	Count int               `json:"count"`
	Stats *models.CardStats `json:"stats"`
}

// GetOverview returns the commander card count and rating stats.
func (h *CardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.CountCards(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to count cards")
		response.InternalError(w)
		return
	}

	stats, err := h.svc.GetCardStats(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to get card stats")
		response.InternalError(w)
		return
	}

	response.Success(w, overview{Count: count, Stats: stats})
}

// Initialize creates the schema if it is missing.
func (h *CardHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	result := h.svc.InitializeDatabase(r.Context())
	response.Result(w, result.Success, result.Message, nil, http.StatusInternalServerError)
}

// Sync initializes the store and runs a full commander sync. Only one sync runs at a time.
func (h *CardHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if !h.syncMu.TryLock() {
		response.Conflict(w, "A sync is already running")
		return
	}
	defer h.syncMu.Unlock()

	if init := h.svc.InitializeDatabase(r.Context()); !init.Success {
		response.Error(w, http.StatusInternalServerError, init.Message)
		return
	}

	var hook cardsync.ProgressFunc
	if h.notifier != nil {
		hook = h.notifier.OnProgress
	}

	result := h.svc.SyncCommanderCards(r.Context(), hook)
	if h.notifier != nil {
		h.notifier.OnComplete(result)
	}

	response.Result(w, result.Success, result.Message, result.Stats, syncFailureStatus(result.Err))
}

// syncFailureStatus maps a failed sync to 503 when the request ended first, 502 otherwise.
func syncFailureStatus(err error) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

// RateCard sets or clears one card's rating. The body is {"rating": "interesting" | "not_interesting" | null}.
func (h *CardHandler) RateCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	raw, ok := body["rating"]
	if !ok {
		response.BadRequest(w, "rating is required")
		return
	}

	var rating *models.Rating
	if err := json.Unmarshal(raw, &rating); err != nil {
		response.BadRequest(w, "Invalid rating value")
		return
	}

	if err := cardsync.ValidateRateRequest(cardID, rating); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result := h.svc.RateCard(r.Context(), cardID, rating)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(result.Err, repository.ErrCardNotFound):
		status = http.StatusNotFound
	case cardsync.IsValidationError(result.Err):
		status = http.StatusBadRequest
	}
	response.Result(w, result.Success, result.Message, nil, status)
}

// GetRandomCard returns a random commander card, optionally filtered by ?rating=.
func (h *CardHandler) GetRandomCard(w http.ResponseWriter, r *http.Request) {
	filter := models.RatingFilter(r.URL.Query().Get("rating"))

	card, err := h.svc.GetRandomCard(r.Context(), filter)
	if err != nil {
		if cardsync.IsValidationError(err) {
			response.BadRequest(w, err.Error())
			return
		}
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to get random card")
		response.InternalError(w)
		return
	}

	if card == nil {
		if filter == models.FilterAny {
			response.NotFound(w, "No commander cards found in database. Please sync cards first.")
		} else {
			response.NotFound(w, fmt.Sprintf("No commander cards found with rating: %s", filter))
		}
		return
	}

	response.Success(w, card)
}

// GetStats returns rating counts.
func (h *CardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetCardStats(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to get card stats")
		response.InternalError(w)
		return
	}
	response.Success(w, stats)
}

// GetByRating lists cards with ?rating=, ordered by name.
func (h *CardHandler) GetByRating(w http.ResponseWriter, r *http.Request) {
	rating := models.Rating(r.URL.Query().Get("rating"))
	if !rating.Valid() {
		response.BadRequest(w, `Invalid rating parameter. Must be "interesting" or "not_interesting".`)
		return
	}

	cards, err := h.svc.GetCardsByRating(r.Context(), rating)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to list cards by rating")
		response.InternalError(w)
		return
	}
	response.Success(w, cards)
}
