package service

import (
	"context"
	"fmt"

	"shop-catalog/internal/domain"
	"shop-catalog/internal/repository"
)

// TextMatcher finds shop IDs by name, best match first. search.Index
// implements it.
type TextMatcher interface {
	Match(ctx context.Context, query string) ([]int64, error)
}

// ShopSearchFilter narrows full-text hits in memory. Date bounds are
// inclusive; nil fields are ignored.
type ShopSearchFilter struct {
	InVacations   *bool
	CreatedAfter  *domain.Date
	CreatedBefore *domain.Date
}

// Keep reports whether shop passes every present bound
func (f ShopSearchFilter) Keep(shop domain.Shop) bool {
	if f.InVacations != nil && shop.InVacations != *f.InVacations {
		return false
	}
	if f.CreatedAfter != nil && shop.CreatedAt.Before(f.CreatedAfter.Time) {
		return false
	}
	if f.CreatedBefore != nil && shop.CreatedAt.After(f.CreatedBefore.Time) {
		return false
	}
	return true
}

// ShopSearcher runs a full-text match and filters the hits against the
// catalog store.
//
// Every hit is hydrated and filtered in memory, so a search costs O(hits)
// regardless of how selective the filter is.
type ShopSearcher struct {
	index TextMatcher
	shops repository.ShopRepository
}

// NewShopSearcher creates a searcher over index backed by shops
func NewShopSearcher(index TextMatcher, shops repository.ShopRepository) *ShopSearcher {
	return &ShopSearcher{index: index, shops: shops}
}

// Search returns the shops matching query that pass filter, best match
// first. Hits for shops no longer in the store are skipped.
func (s *ShopSearcher) Search(ctx context.Context, query string, filter ShopSearchFilter) ([]domain.Shop, error) {
	ids, err := s.index.Match(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query search index: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Shop{}, nil
	}

	found, err := s.shops.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load matched shops: %w", err)
	}

	byID := make(map[int64]domain.Shop, len(found))
	for _, shop := range found {
		byID[shop.ID] = shop
	}

	result := make([]domain.Shop, 0, len(ids))
	for _, id := range ids {
		shop, ok := byID[id]
		if !ok || !filter.Keep(shop) {
			continue
		}
		result = append(result, shop)
	}

	return result, nil
}
