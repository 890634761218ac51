package transport

import (
	"net/http"

	"shop-catalog/internal/config"
	"shop-catalog/internal/domain"
	"shop-catalog/internal/middleware"
	"shop-catalog/internal/repository"
	"shop-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductRequest represents the create and update product payload
type ProductRequest struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"gte=0"`
	ShopID      *int64  `json:"shopId" validate:"omitempty,gt=0"`
	CategoryID  *int64  `json:"categoryId" validate:"omitempty,gt=0"`
}

func (req ProductRequest) toDomain() *domain.Product {
	return &domain.Product{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ShopID:      req.ShopID,
		CategoryID:  req.CategoryID,
	}
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	pagination     config.PaginationConfig
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, pagination config.PaginationConfig, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		pagination:     pagination,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/", h.Update)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)
	})
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	req.ID = 0

	product, err := h.productService.Create(r.Context(), req.toDomain())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	if req.ID < 1 {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: "id", Message: "This field is required"},
		})
		return
	}

	product, err := h.productService.Update(r.Context(), req.toDomain())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondInvalidID(w)
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete product")
		return
	}

	middleware.RespondNoContent(w)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondInvalidID(w)
		return
	}

	product, err := h.productService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// List handles the paginated product listing, optionally narrowed to one
// shop and one category
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	filter := repository.ProductFilter{
		ShopID:     q.Int64("shopId"),
		CategoryID: q.Int64("categoryId"),
	}
	page := q.Page(h.pagination)

	if errs := q.Errors(); len(errs) > 0 {
		middleware.RespondWithValidationErrors(w, errs)
		return
	}

	result, err := h.productService.List(r.Context(), filter, page)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}
