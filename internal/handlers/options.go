package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/metrics"
)

// OptionHandler serves the team-facing ledger surface: reading the offered
// options and locking in a choice.
type OptionHandler struct {
	service *app.Service
}

func NewOptionHandler(service *app.Service) *OptionHandler {
	return &OptionHandler{
		service: service,
	}
}

func (h *OptionHandler) roundAndTeam(w http.ResponseWriter, r *http.Request) (int, string, bool) {
	round, err := strconv.Atoi(r.PathValue("round"))
	if err != nil {
		logger.Error.Printf("Failed to extract round from path: %s", r.URL.Path)
		http.Error(w, "Invalid round", http.StatusBadRequest)
		return 0, "", false
	}

	team := r.Header.Get(h.service.Config.API.TeamIDHeader)
	if team == "" {
		http.Error(w, "Invalid team id specified", http.StatusUnauthorized)
		return 0, "", false
	}

	if err := h.service.ValidateAuthAndTeam(r, team); err != nil {
		logger.Error.Printf("Auth failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return 0, "", false
	}

	return round, team, true
}

func (h *OptionHandler) HandleGetOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	round, team, ok := h.roundAndTeam(w, r)
	if !ok {
		return
	}

	set, err := h.service.Selector.Get(team, round)
	if err != nil {
		logger.Error.Printf("Failed to fetch options for %s/%d: %v", team, round, err)
		http.Error(w, "Failed to fetch options", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"option_set": set,
	}); err != nil {
		logger.Error.Printf("Failed to encode options: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (h *OptionHandler) HandleSelectOption(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		metrics.APIRequestDuration.WithLabelValues(
			r.URL.Path,
			r.Method,
			"200",
		).Observe(duration)
	}()
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	round, team, ok := h.roundAndTeam(w, r)
	if !ok {
		return
	}

	var req struct {
		OptionID string `json:"option_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OptionID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	set, err := h.service.Selector.Select(team, round, req.OptionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	metrics.SelectionsTotal.WithLabelValues(
		strconv.Itoa(round),
		string(set.AssignmentMode),
		strconv.FormatBool(set.AutoAssigned),
	).Inc()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"option_set": set,
	}); err != nil {
		logger.Error.Printf("Failed to encode selection: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}
