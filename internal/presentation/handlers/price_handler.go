package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/bimakw/top-holders-frame/internal/application/services"
)

// PriceHandler handles HTTP requests for the reserve asset price
type PriceHandler struct {
	service *services.PriceService
	logger  *zap.Logger
}

// NewPriceHandler creates a new price handler
func NewPriceHandler(service *services.PriceService, logger *zap.Logger) *PriceHandler {
	return &PriceHandler{
		service: service,
		logger:  logger,
	}
}

// GetPrice handles GET /api/price
func (h *PriceHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	response, err := h.service.GetPrice(r.Context())
	if err != nil {
		h.logger.Error("Failed to get price", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch price.")
		return
	}

	respondJSON(w, http.StatusOK, response)
}
