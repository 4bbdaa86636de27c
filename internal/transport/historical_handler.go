package transport

import (
	"errors"
	"net/http"
	"time"

	"temporal-warehouse/internal/middleware"
	"temporal-warehouse/internal/repository"
	"temporal-warehouse/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockAtResponse is the answer to a point-in-time stock query
type StockAtResponse struct {
	ProductID  string    `json:"product_id"`
	At         time.Time `json:"at"`
	StockLevel int       `json:"stock_level"`
}

// HistoricalHandler handles point-in-time stock queries
type HistoricalHandler struct {
	historyService service.HistoryService
	logger         *zap.Logger
}

// NewHistoricalHandler creates a new HistoricalHandler
func NewHistoricalHandler(historyService service.HistoryService, logger *zap.Logger) *HistoricalHandler {
	return &HistoricalHandler{
		historyService: historyService,
		logger:         logger,
	}
}

// RegisterRoutes registers the historical routes
func (h *HistoricalHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/historical", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/stock", h.StockAt)
	})
}

// StockAt answers "what was the stock level at this instant" from the
// ledger. Query parameters: product_id (UUID) and at (RFC 3339).
func (h *HistoricalHandler) StockAt(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(r.URL.Query().Get("product_id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	at, err := time.Parse(time.RFC3339, r.URL.Query().Get("at"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid timestamp, expected RFC 3339")
		return
	}

	level, err := h.historyService.StockAt(r.Context(), productID, at)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product was never created")
			return
		}
		h.logger.Error("Historical stock query failed",
			zap.Error(err),
			zap.String("product_id", productID.String()),
		)
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to query historical stock")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, StockAtResponse{
		ProductID:  productID.String(),
		At:         at,
		StockLevel: level,
	})
}
