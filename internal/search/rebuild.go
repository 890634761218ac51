package search

import (
	"context"
	"fmt"

	"shop-catalog/internal/domain"
	"shop-catalog/internal/repository"
)

// Rebuild replaces the index content with every shop of the store, read in
// pages of batch shops. It returns the number of indexed documents.
func Rebuild(ctx context.Context, shops ShopSource, index Index, batch int) (int, error) {
	if batch <= 0 {
		batch = 500
	}

	docs := []Document{}
	for page := 0; ; page++ {
		result, err := shops.Find(ctx, repository.ShopCriteria{}, domain.PageRequest{Page: page, Size: batch})
		if err != nil {
			return 0, fmt.Errorf("failed to read shops for reindex: %w", err)
		}

		for _, shop := range result.Content {
			docs = append(docs, Document{ID: shop.ID, Name: shop.Name})
		}

		if result.Last || result.Empty {
			break
		}
	}

	if err := index.Replace(ctx, docs); err != nil {
		return 0, fmt.Errorf("failed to replace index content: %w", err)
	}

	return len(docs), nil
}
