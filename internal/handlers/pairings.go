package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/metrics"
	"github.com/shrimpsizemoose/semla/internal/models"
)

// AdminHandler serves the allocation and pairing tooling. Everything here
// is single-writer admin territory; the required-headers check gates it.
type AdminHandler struct {
	service *app.Service
	tokens  *app.TokenManager
}

func NewAdminHandler(service *app.Service, tokens *app.TokenManager) *AdminHandler {
	return &AdminHandler{
		service: service,
		tokens:  tokens,
	}
}

func (h *AdminHandler) round(w http.ResponseWriter, r *http.Request) (int, bool) {
	round, err := strconv.Atoi(r.PathValue("round"))
	if err != nil {
		logger.Error.Printf("Failed to extract round from path: %s", r.URL.Path)
		http.Error(w, "Invalid round", http.StatusBadRequest)
		return 0, false
	}
	return round, true
}

func (h *AdminHandler) guard(w http.ResponseWriter, r *http.Request) bool {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return false
	}
	return true
}

func (h *AdminHandler) HandleAllocate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.guard(w, r) {
		return
	}
	round, ok := h.round(w, r)
	if !ok {
		return
	}

	var batch []models.Allocation
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	count, err := h.service.Allocator.AllocateTeamOptions(round, batch)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	metrics.AllocationsTotal.WithLabelValues(
		strconv.Itoa(round),
		string(models.AssignmentTeam),
	).Add(float64(count))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"allocated": count,
	})
}

func (h *AdminHandler) HandleListPairings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.guard(w, r) {
		return
	}
	round, ok := h.round(w, r)
	if !ok {
		return
	}

	state, err := h.service.Pairings.ListState(round)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	metrics.PairingsActive.WithLabelValues(strconv.Itoa(round)).Set(float64(state.PairedCount))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		logger.Error.Printf("Failed to encode pairing state: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (h *AdminHandler) HandleCreatePairing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.guard(w, r) {
		return
	}
	round, ok := h.round(w, r)
	if !ok {
		return
	}

	var req models.PairingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		logger.Debug.Printf("Invalid pairing request: %v", err)
		http.Error(w, "Invalid pairing request", http.StatusBadRequest)
		return
	}

	pairingID, err := h.service.Pairings.Create(round, req.TeamA, req.TeamB)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if err := h.service.Pairings.AssignOptions(round, pairingID, req.TrimmedOptions()); err != nil {
		writeEngineError(w, err)
		return
	}

	metrics.AllocationsTotal.WithLabelValues(
		strconv.Itoa(round),
		string(models.AssignmentPair),
	).Add(2)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"pairing_id": pairingID,
	})
}

func (h *AdminHandler) HandleDeletePairing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.guard(w, r) {
		return
	}
	round, ok := h.round(w, r)
	if !ok {
		return
	}

	pairingID := r.PathValue("pairing")
	if pairingID == "" {
		http.Error(w, "Invalid pairing id", http.StatusBadRequest)
		return
	}

	if err := h.service.Pairings.Delete(round, pairingID); err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"deleted": pairingID,
	})
}

// HandleTeamToken provisions (or returns) the bearer token a team uses on
// the selection surface.
func (h *AdminHandler) HandleTeamToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.guard(w, r) {
		return
	}
	if h.tokens == nil {
		http.Error(w, "Token provisioning disabled", http.StatusNotImplemented)
		return
	}

	team := r.PathValue("team")
	if team == "" {
		http.Error(w, "Invalid team id", http.StatusBadRequest)
		return
	}

	info, created, err := h.tokens.FetchOrCreateTeamToken(r.Context(), team)
	if err != nil {
		logger.Error.Printf("Failed to provision token for %s: %v", team, err)
		http.Error(w, "Failed to provision token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token":   info,
		"created": created,
	})
}
