package transport

import (
	"errors"
	"net/http"

	"temporal-warehouse/internal/middleware"
	"temporal-warehouse/internal/repository"
	"temporal-warehouse/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name            string  `json:"name" validate:"required,max=100"`
	SKU             string  `json:"sku" validate:"required,max=50"`
	Price           float64 `json:"price" validate:"required,gt=0"`
	InitialQuantity int     `json:"initial_quantity" validate:"gte=0"`
}

// UpdateProductRequest represents the metadata update payload
type UpdateProductRequest struct {
	Name  string  `json:"name" validate:"required,max=100"`
	SKU   string  `json:"sku" validate:"required,max=50"`
	Price float64 `json:"price" validate:"required,gt=0"`
}

// ProductHandler handles HTTP requests for catalog operations
type ProductHandler struct {
	productService service.ProductService
	historyService service.HistoryService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, historyService service.HistoryService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		historyService: historyService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Get("/{id}/history", h.History)

			r.Group(func(r chi.Router) {
				r.Use(adminMiddleware)
				r.Delete("/{id}", h.Delete)
			})
		})
	})
}

func parseProductID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// List returns all active products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// Get returns one active product
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to get product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product creation validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.Create(r.Context(), req.Name, req.SKU, req.Price, req.InitialQuantity)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSKUAlreadyExists):
			middleware.RespondWithError(w, http.StatusConflict, "SKU must be unique")
		case errors.Is(err, service.ErrNameRequired),
			errors.Is(err, service.ErrSKURequired),
			errors.Is(err, service.ErrPriceOutOfRange),
			errors.Is(err, service.ErrNegativeInitialQuantity):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to create product", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		}
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
		zap.Int("initial_quantity", product.CurrentQuantity),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update handles metadata updates; quantity is never changed here
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.UpdateMetadata(r.Context(), id, req.Name, req.SKU, req.Price)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, repository.ErrSKUAlreadyExists):
			middleware.RespondWithError(w, http.StatusConflict, "SKU must be unique")
		case errors.Is(err, repository.ErrVersionConflict):
			middleware.RespondWithError(w, http.StatusConflict, "product was modified concurrently, please refresh and retry")
		case errors.Is(err, service.ErrNameRequired),
			errors.Is(err, service.ErrSKURequired),
			errors.Is(err, service.ErrPriceOutOfRange):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to update product", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete handles soft deletion; the row and its ledger history remain
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.productService.SoftDelete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to delete product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	h.logger.Info("Product soft-deleted", zap.String("product_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// History returns a product's full stock ledger, including for
// soft-deleted products
func (h *ProductHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	entries, err := h.historyService.History(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to get product history", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product history")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, entries)
}
