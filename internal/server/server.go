package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"shop-catalog/internal/config"
	"shop-catalog/internal/database"
	custommiddleware "shop-catalog/internal/middleware"
	"shop-catalog/internal/repository"
	"shop-catalog/internal/search"
	"shop-catalog/internal/service"
	"shop-catalog/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const reindexBatch = 500

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	index  search.Index
	rdb    *redis.Client

	shops        repository.ShopRepository
	synchronizer *search.Synchronizer

	stopSync context.CancelFunc
	syncDone sync.WaitGroup
}

// NewServer wires the catalog store, the search index and its Redis stream
// into the HTTP API
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, index search.Index, rdb *redis.Client) *Server {
	dbx := sqlx.NewDb(db.DB(), "pgx")

	// Initialize repositories
	shopRepo := repository.NewShopRepository(dbx)
	productRepo := repository.NewProductRepository(dbx)
	categoryRepo := repository.NewCategoryRepository(dbx)
	transactor := repository.NewTransactor(dbx)

	// Initialize services
	publisher := search.NewStreamPublisher(rdb, cfg.Search.Stream, cfg.Search.StreamMaxLen)
	searcher := service.NewShopSearcher(index, shopRepo)
	shopService := service.NewShopService(shopRepo, productRepo, transactor, searcher, publisher, logger)
	productService := service.NewProductService(productRepo, logger)
	categoryService := service.NewCategoryService(categoryRepo)

	// Initialize handlers
	shopHandler := transport.NewShopHandler(shopService, cfg.Pagination, logger)
	productHandler := transport.NewProductHandler(productService, cfg.Pagination, logger)
	categoryHandler := transport.NewCategoryHandler(categoryService, logger)
	healthHandler := transport.NewHealthHandler(db, index)

	router := chi.NewRouter()
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.IsDevelopment()))

	healthHandler.RegisterRoutes(router)

	router.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit.Requests > 0 {
			r.Use(custommiddleware.RateLimitMiddleware(rdb, rateLimitConfig(cfg.RateLimit), logger))
		}

		shopHandler.RegisterRoutes(r)
		productHandler.RegisterRoutes(r)
		categoryHandler.RegisterRoutes(r)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:       cfg,
		logger:       logger,
		db:           db,
		index:        index,
		rdb:          rdb,
		shops:        shopRepo,
		synchronizer: search.NewSynchronizer(rdb, index, shopRepo, cfg.Search, logger),
	}

	return server
}

// rateLimitConfig counts shop search apart from the rest of the API
func rateLimitConfig(cfg config.RateLimitConfig) custommiddleware.RateLimitConfig {
	rl := custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.Requests,
		Window:            cfg.Window,
		KeyPrefix:         "rate_limit",
	}
	if cfg.SearchRequests > 0 {
		rl.Routes = append(rl.Routes, custommiddleware.RouteLimit{
			Name:              "search",
			PathPrefix:        "/api/v1/shops/search",
			RequestsPerWindow: cfg.SearchRequests,
		})
	}
	return rl
}

// RebuildIndex replaces the search index content with every stored shop
func (s *Server) RebuildIndex(ctx context.Context) error {
	start := time.Now()

	n, err := search.Rebuild(ctx, s.shops, s.index, reindexBatch)
	if err != nil {
		return err
	}

	s.logger.Info("Search index rebuilt",
		zap.Int("documents", n),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// StartIndexSync consumes index events in the background until Close
func (s *Server) StartIndexSync() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopSync = cancel

	s.syncDone.Add(1)
	go func() {
		defer s.syncDone.Done()
		if err := s.synchronizer.Run(ctx); err != nil {
			s.logger.Error("Index synchronizer failed", zap.Error(err))
		}
	}()
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.stopSync != nil {
		s.stopSync()
		s.syncDone.Wait()
	}

	if err := s.index.Close(); err != nil {
		s.logger.Error("Failed to close search index", zap.Error(err))
	}

	if err := s.rdb.Close(); err != nil {
		s.logger.Error("Failed to close redis client", zap.Error(err))
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database connection", zap.Error(err))
	}

	s.logger.Sync()
	return nil
}
