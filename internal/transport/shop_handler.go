package transport

import (
	"net/http"

	"shop-catalog/internal/config"
	"shop-catalog/internal/domain"
	"shop-catalog/internal/middleware"
	"shop-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OpeningHoursRequest is one opening slot of a shop request
type OpeningHoursRequest struct {
	Day     domain.Weekday   `json:"day" validate:"gte=1,lte=7"`
	OpenAt  domain.TimeOfDay `json:"openAt" validate:"gte=0"`
	CloseAt domain.TimeOfDay `json:"closeAt" validate:"gtfield=OpenAt"`
}

// ShopRequest represents the create and update shop payload. ID is ignored
// on create and required on update.
type ShopRequest struct {
	ID           int64                 `json:"id"`
	Name         string                `json:"name" validate:"required,max=255"`
	CreatedAt    domain.Date           `json:"createdAt"`
	InVacations  bool                  `json:"inVacations"`
	OpeningHours []OpeningHoursRequest `json:"openingHours" validate:"dive"`
}

func (req ShopRequest) toDomain() *domain.Shop {
	hours := make([]domain.OpeningHours, 0, len(req.OpeningHours))
	for _, h := range req.OpeningHours {
		hours = append(hours, domain.OpeningHours{Day: h.Day, OpenAt: h.OpenAt, CloseAt: h.CloseAt})
	}

	return &domain.Shop{
		ID:           req.ID,
		Name:         req.Name,
		CreatedAt:    req.CreatedAt,
		InVacations:  req.InVacations,
		OpeningHours: hours,
	}
}

// ShopHandler handles HTTP requests for shop operations
type ShopHandler struct {
	shopService service.ShopService
	pagination  config.PaginationConfig
	logger      *zap.Logger
}

// NewShopHandler creates a new ShopHandler
func NewShopHandler(shopService service.ShopService, pagination config.PaginationConfig, logger *zap.Logger) *ShopHandler {
	return &ShopHandler{
		shopService: shopService,
		pagination:  pagination,
		logger:      logger,
	}
}

// RegisterRoutes registers all shop routes
func (h *ShopHandler) RegisterRoutes(r chi.Router) {
	r.Route("/shops", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/", h.Update)
		r.Get("/search", h.Search)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)
	})
}

// Create handles shop creation
func (h *ShopHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ShopRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	req.ID = 0

	shop, err := h.shopService.Create(r.Context(), req.toDomain())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create shop")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, shop)
}

// Update handles overwriting an existing shop
func (h *ShopHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ShopRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	if req.ID < 1 {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: "id", Message: "This field is required"},
		})
		return
	}

	shop, err := h.shopService.Update(r.Context(), req.toDomain())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update shop")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, shop)
}

// Delete handles shop deletion
func (h *ShopHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondInvalidID(w)
		return
	}

	if err := h.shopService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete shop")
		return
	}

	middleware.RespondNoContent(w)
}

// Get handles fetching one shop
func (h *ShopHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondInvalidID(w)
		return
	}

	shop, err := h.shopService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get shop")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, shop)
}

// List handles the paginated shop listing. At most one of sorting, name
// search or the vacation and date filters applies, in that priority.
func (h *ShopHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	params := service.ShopListParams{
		SortBy:        q.String("sortBy"),
		InVacations:   q.Bool("inVacations"),
		CreatedAfter:  q.Date("createdAfter"),
		CreatedBefore: q.Date("createdBefore"),
		Search:        q.String("search"),
	}
	page := q.Page(h.pagination)

	if errs := q.Errors(); len(errs) > 0 {
		middleware.RespondWithValidationErrors(w, errs)
		return
	}

	result, err := h.shopService.List(r.Context(), params, page)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list shops")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// Search handles full-text search on shop names, narrowed by the optional
// vacation and inclusive date filters
func (h *ShopHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	query := r.URL.Query().Get("query")
	filter := service.ShopSearchFilter{
		InVacations:   q.Bool("inVacations"),
		CreatedAfter:  q.Date("createdAfter"),
		CreatedBefore: q.Date("createdBefore"),
	}

	if errs := q.Errors(); len(errs) > 0 {
		middleware.RespondWithValidationErrors(w, errs)
		return
	}

	shops, err := h.shopService.Search(r.Context(), query, filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to search shops")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, shops)
}
