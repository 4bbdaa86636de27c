package transport

import (
	"context"
	"errors"
	"net/http"

	"temporal-warehouse/internal/middleware"
	"temporal-warehouse/internal/repository"
	"temporal-warehouse/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockAdjustmentRequest represents an add or remove request
type StockAdjustmentRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// StockHandler handles HTTP requests for stock adjustments
type StockHandler struct {
	stockService service.StockService
	logger       *zap.Logger
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService service.StockService, logger *zap.Logger) *StockHandler {
	return &StockHandler{
		stockService: stockService,
		logger:       logger,
	}
}

// RegisterRoutes registers all stock routes
func (h *StockHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler, rateLimit func(http.Handler) http.Handler) {
	r.Route("/api/stock", func(r chi.Router) {
		r.Use(authMiddleware)
		if rateLimit != nil {
			r.Use(rateLimit)
		}
		r.Post("/add", h.Add)
		r.Post("/remove", h.Remove)
	})
}

// Add handles stock increases
func (h *StockHandler) Add(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.stockService.Add)
}

// Remove handles stock decreases
func (h *StockHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.stockService.Remove)
}

func (h *StockHandler) adjust(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, productID uuid.UUID, quantity int) (*service.AdjustmentResult, error)) {
	var req StockAdjustmentRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	result, err := op(r.Context(), productID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidQuantity):
			middleware.RespondWithError(w, http.StatusBadRequest, "quantity must be positive")
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, service.ErrInsufficientStock):
			middleware.RespondWithError(w, http.StatusConflict, "insufficient stock, cannot go below zero")
		case errors.Is(err, repository.ErrVersionConflict):
			middleware.RespondWithError(w, http.StatusConflict, "concurrent modification detected, please retry")
		default:
			h.logger.Error("Stock adjustment failed",
				zap.Error(err),
				zap.String("product_id", req.ProductID),
			)
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to adjust stock")
		}
		return
	}

	h.logger.Info("Stock adjusted",
		zap.String("product_id", result.ProductID.String()),
		zap.Int("new_quantity", result.NewQuantity),
	)
	middleware.RespondWithJSON(w, http.StatusOK, result)
}
