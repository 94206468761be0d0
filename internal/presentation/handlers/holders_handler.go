package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/bimakw/top-holders-frame/internal/application/services"
	"github.com/bimakw/top-holders-frame/internal/domain/repositories"
)

// HoldersHandler handles HTTP requests for fan token holders
type HoldersHandler struct {
	service *services.HoldersService
	logger  *zap.Logger
}

// NewHoldersHandler creates a new holders handler
func NewHoldersHandler(service *services.HoldersService, logger *zap.Logger) *HoldersHandler {
	return &HoldersHandler{
		service: service,
		logger:  logger,
	}
}

// ListHolders handles GET /api/list-holder?userId={fid}
func (h *HoldersHandler) ListHolders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.URL.Query().Get("userId")

	if userID == "" {
		respondError(w, http.StatusBadRequest, "userId parameter is required")
		return
	}

	fid, ok := services.ParseFID(userID)
	if !ok {
		respondError(w, http.StatusBadRequest, "userId must be a numeric fid")
		return
	}

	holders, err := h.service.GetTopHolders(ctx, fid)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, holders)
	case errors.Is(err, services.ErrNoHolders):
		// A token nobody holds is not an error
		respondJSON(w, http.StatusOK, nil)
	case errors.Is(err, services.ErrNoMatchedHolders):
		respondError(w, http.StatusNotFound, "No valid portfolio data found.")
	case errors.Is(err, repositories.ErrResolutionUnavailable):
		h.logger.Error("Resolution data unavailable", zap.Error(err), zap.Int64("fid", fid))
		respondError(w, http.StatusInternalServerError, "Resolution data is unavailable.")
	default:
		h.logger.Error("Failed to list holders", zap.Error(err), zap.Int64("fid", fid))
		respondError(w, http.StatusInternalServerError, "Failed to fetch data.")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
