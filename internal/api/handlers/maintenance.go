package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/ramonehamilton/commander-rater/internal/api/response"
	"github.com/ramonehamilton/commander-rater/internal/export"
)

// MaintenanceHandler handles bulk clear, export and import requests.
type MaintenanceHandler struct {
	svc CardService
}

// NewMaintenanceHandler creates a new MaintenanceHandler.
func NewMaintenanceHandler(svc CardService) *MaintenanceHandler {
	return &MaintenanceHandler{svc: svc}
}

// ClearDatabase deletes every card.
func (h *MaintenanceHandler) ClearDatabase(w http.ResponseWriter, r *http.Request) {
	result := h.svc.ClearAllCards(r.Context())
	response.Result(w, result.Success, result.Message, nil, http.StatusInternalServerError)
}

// ClearProgress removes every rating and keeps the cards.
func (h *MaintenanceHandler) ClearProgress(w http.ResponseWriter, r *http.Request) {
	result := h.svc.ClearAllRatings(r.Context())
	response.Result(w, result.Success, result.Message, nil, http.StatusInternalServerError)
}

// ExportRatings returns every rated card id.
func (h *MaintenanceHandler) ExportRatings(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.ExportRatings(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to export ratings")
		response.Error(w, http.StatusInternalServerError, "Failed to export ratings")
		return
	}
	response.Success(w, export.NewDocument(records))
}

// importSummary is the data of an import response.
type importSummary struct {
	Imported int `json:"imported"`
	Errors   int `json:"errors"`
}

// ImportRatings applies {"ratings": [...]} to cards already in the store.
// Entries that do not decode are counted as errors rather than rejecting the batch.
func (h *MaintenanceHandler) ImportRatings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ratings json.RawMessage `json:"ratings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	records, err := export.DecodeRatings(body.Ratings)
	if err != nil {
		response.BadRequest(w, "Invalid ratings format. Expected an array.")
		return
	}

	result := h.svc.ImportRatings(r.Context(), records)
	response.Result(w, result.Success, result.Message,
		importSummary{Imported: result.Imported, Errors: result.Errors}, http.StatusInternalServerError)
}
