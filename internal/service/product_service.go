package service

import (
	"context"
	"fmt"
	"time"

	"shop-catalog/internal/domain"
	"shop-catalog/internal/repository"

	"go.uber.org/zap"
)

// ProductService defines the interface for product business logic
type ProductService interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, filter repository.ProductFilter, page domain.PageRequest) (*domain.Page[domain.Product], error)
}

type productService struct {
	products repository.ProductRepository
	logger   *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(products repository.ProductRepository, logger *zap.Logger) ProductService {
	return &productService{
		products: products,
		logger:   logger,
	}
}

func (s *productService) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created", zap.Int64("product_id", product.ID))
	return product, nil
}

// Update overwrites the product. Moving it to another shop changes the
// product count of both shops.
func (s *productService) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	current, err := s.products.FindByID(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	product.CreatedAt = current.CreatedAt
	product.UpdatedAt = time.Now()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info("Product updated", zap.Int64("product_id", product.ID))
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

func (s *productService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *productService) List(ctx context.Context, filter repository.ProductFilter, page domain.PageRequest) (*domain.Page[domain.Product], error) {
	result, err := s.products.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return result, nil
}
