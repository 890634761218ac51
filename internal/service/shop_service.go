package service

import (
	"context"
	"fmt"

	"shop-catalog/internal/domain"
	"shop-catalog/internal/repository"

	"go.uber.org/zap"
)

// IndexNotifier is told about committed shop changes so the search index can
// catch up
type IndexNotifier interface {
	ShopChanged(ctx context.Context, shopID int64) error
	ShopRemoved(ctx context.Context, shopID int64) error
}

// ShopService defines the interface for shop business logic
type ShopService interface {
	Create(ctx context.Context, shop *domain.Shop) (*domain.Shop, error)
	Update(ctx context.Context, shop *domain.Shop) (*domain.Shop, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Shop, error)
	List(ctx context.Context, params ShopListParams, page domain.PageRequest) (*domain.Page[domain.Shop], error)
	Search(ctx context.Context, query string, filter ShopSearchFilter) ([]domain.Shop, error)
}

type shopService struct {
	shops    repository.ShopRepository
	products repository.ProductRepository
	tx       repository.Transactor
	searcher *ShopSearcher
	notifier IndexNotifier
	logger   *zap.Logger
}

// NewShopService creates a new instance of ShopService
func NewShopService(
	shops repository.ShopRepository,
	products repository.ProductRepository,
	tx repository.Transactor,
	searcher *ShopSearcher,
	notifier IndexNotifier,
	logger *zap.Logger,
) ShopService {
	return &shopService{
		shops:    shops,
		products: products,
		tx:       tx,
		searcher: searcher,
		notifier: notifier,
		logger:   logger,
	}
}

// Create validates and stores a new shop and returns it as read back from
// the store
func (s *shopService) Create(ctx context.Context, shop *domain.Shop) (*domain.Shop, error) {
	if err := ValidateOpeningHours(shop.OpeningHours); err != nil {
		return nil, err
	}

	if shop.CreatedAt.IsZero() {
		shop.CreatedAt = domain.Today()
	}

	var saved *domain.Shop
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.shops.Create(ctx, shop); err != nil {
			return err
		}

		var err error
		saved, err = s.shops.FindByID(ctx, shop.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create shop: %w", err)
	}

	s.logger.Info("Shop created", zap.Int64("shop_id", saved.ID))
	s.notifyChanged(ctx, saved.ID)

	return saved, nil
}

// Update overwrites an existing shop and its opening hours. It never
// creates a shop.
func (s *shopService) Update(ctx context.Context, shop *domain.Shop) (*domain.Shop, error) {
	var saved *domain.Shop
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.shops.FindByID(ctx, shop.ID)
		if err != nil {
			return err
		}

		if err := ValidateOpeningHours(shop.OpeningHours); err != nil {
			return err
		}

		if shop.CreatedAt.IsZero() {
			shop.CreatedAt = current.CreatedAt
		}

		if err := s.shops.Update(ctx, shop); err != nil {
			return err
		}

		saved, err = s.shops.FindByID(ctx, shop.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update shop: %w", err)
	}

	s.logger.Info("Shop updated", zap.Int64("shop_id", saved.ID))
	s.notifyChanged(ctx, saved.ID)

	return saved, nil
}

// Delete unlinks every product of the shop, one at a time, then removes the
// shop together with its opening hours
func (s *shopService) Delete(ctx context.Context, id int64) error {
	var unlinked int
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.shops.FindByID(ctx, id); err != nil {
			return err
		}

		productIDs, err := s.products.FindIDsByShop(ctx, id)
		if err != nil {
			return err
		}

		for _, productID := range productIDs {
			if err := s.products.SetShop(ctx, productID, nil); err != nil {
				return err
			}
		}
		unlinked = len(productIDs)

		return s.shops.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete shop: %w", err)
	}

	s.logger.Info("Shop deleted",
		zap.Int64("shop_id", id),
		zap.Int("unlinked_products", unlinked),
	)

	if err := s.notifier.ShopRemoved(ctx, id); err != nil {
		s.logger.Warn("Failed to notify search index", zap.Int64("shop_id", id), zap.Error(err))
	}

	return nil
}

func (s *shopService) GetByID(ctx context.Context, id int64) (*domain.Shop, error) {
	shop, err := s.shops.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return shop, nil
}

// List resolves the listing parameters to one query and runs it
func (s *shopService) List(ctx context.Context, params ShopListParams, page domain.PageRequest) (*domain.Page[domain.Shop], error) {
	listing := ResolveShopListing(params)

	s.logger.Debug("Listing shops",
		zap.Stringer("strategy", listing.Strategy),
		zap.Int("page", page.Page),
		zap.Int("size", page.Size),
	)

	result, err := s.shops.Find(ctx, listing.Criteria, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	return result, nil
}

func (s *shopService) Search(ctx context.Context, query string, filter ShopSearchFilter) ([]domain.Shop, error) {
	return s.searcher.Search(ctx, query, filter)
}

// notifyChanged never fails the request; the synchronizer or a reindex
// repairs a missed event
func (s *shopService) notifyChanged(ctx context.Context, id int64) {
	if err := s.notifier.ShopChanged(ctx, id); err != nil {
		s.logger.Warn("Failed to notify search index", zap.Int64("shop_id", id), zap.Error(err))
	}
}
