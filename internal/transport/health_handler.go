package transport

import (
	"context"
	"net/http"
	"time"

	"shop-catalog/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// DatabaseHealth reports connectivity of the catalog store
type DatabaseHealth interface {
	Health(ctx context.Context) map[string]string
}

// IndexStats reports the size of the search index
type IndexStats interface {
	Count(ctx context.Context) (int64, error)
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string            `json:"status"`
	Database map[string]string `json:"database"`
	Index    IndexHealth       `json:"index"`
}

type IndexHealth struct {
	Status    string `json:"status"`
	Documents int64  `json:"documents"`
	Error     string `json:"error,omitempty"`
}

// HealthHandler reports the state of the database and the search index
type HealthHandler struct {
	db    DatabaseHealth
	index IndexStats
}

func NewHealthHandler(db DatabaseHealth, index IndexStats) *HealthHandler {
	return &HealthHandler{db: db, index: index}
}

func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
}

// Health answers 503 when the database is down. A broken index only
// degrades search, so it is reported without failing the check.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:   "up",
		Database: h.db.Health(ctx),
		Index:    IndexHealth{Status: "up"},
	}

	count, err := h.index.Count(ctx)
	if err != nil {
		response.Status = "degraded"
		response.Index = IndexHealth{Status: "down", Error: err.Error()}
	} else {
		response.Index.Documents = count
	}

	status := http.StatusOK
	if response.Database["status"] != "up" {
		response.Status = "down"
		status = http.StatusServiceUnavailable
	}

	middleware.RespondWithJSON(w, status, response)
}
