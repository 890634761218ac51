package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"shop-catalog/internal/domain"
	"shop-catalog/internal/repository"
)

// mockProductRepository keeps products in memory
type mockProductRepository struct {
	mu       sync.Mutex
	products map[int64]*domain.Product
	nextID   int64
	setShops []int64
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[int64]*domain.Product),
	}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	product.ID = m.nextID
	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	found := *product
	return &found, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter, page domain.PageRequest) (*domain.Page[domain.Product], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content := []domain.Product{}
	for _, p := range m.products {
		if filter.ShopID != nil && (p.ShopID == nil || *p.ShopID != *filter.ShopID) {
			continue
		}
		if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
			continue
		}
		content = append(content, *p)
	}
	sort.Slice(content, func(i, j int) bool { return content[i].ID < content[j].ID })
	return domain.NewPage(content, page, int64(len(content))), nil
}

func (m *mockProductRepository) FindIDsByShop(ctx context.Context, shopID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idsByShop(shopID), nil
}

func (m *mockProductRepository) SetShop(ctx context.Context, productID int64, shopID *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[productID]
	if !ok {
		return repository.ErrProductNotFound
	}
	product.ShopID = shopID
	m.setShops = append(m.setShops, productID)
	return nil
}

func (m *mockProductRepository) idsByShop(shopID int64) []int64 {
	ids := []int64{}
	for id, p := range m.products {
		if p.ShopID != nil && *p.ShopID == shopID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// mockShopRepository keeps shops in memory and derives nbProducts from the
// product mock
type mockShopRepository struct {
	mu           sync.Mutex
	shops        map[int64]domain.Shop
	nextID       int64
	products     *mockProductRepository
	lastCriteria *repository.ShopCriteria
	createErr    error
}

func newMockShopRepository(products *mockProductRepository) *mockShopRepository {
	return &mockShopRepository{
		shops:    make(map[int64]domain.Shop),
		products: products,
	}
}

func (m *mockShopRepository) Create(ctx context.Context, shop *domain.Shop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	shop.ID = m.nextID
	m.shops[shop.ID] = copyShop(*shop)
	return nil
}

func (m *mockShopRepository) Update(ctx context.Context, shop *domain.Shop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shops[shop.ID]; !ok {
		return repository.ErrShopNotFound
	}
	m.shops[shop.ID] = copyShop(*shop)
	return nil
}

func (m *mockShopRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shops[id]; !ok {
		return repository.ErrShopNotFound
	}
	delete(m.shops, id)
	return nil
}

func (m *mockShopRepository) FindByID(ctx context.Context, id int64) (*domain.Shop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	shop, ok := m.shops[id]
	if !ok {
		return nil, repository.ErrShopNotFound
	}
	found := m.hydrate(shop)
	return &found, nil
}

func (m *mockShopRepository) FindByIDs(ctx context.Context, ids []int64) ([]domain.Shop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := []domain.Shop{}
	for _, id := range ids {
		if shop, ok := m.shops[id]; ok {
			found = append(found, m.hydrate(shop))
		}
	}
	// the store gives no ordering guarantee
	sort.Slice(found, func(i, j int) bool { return found[i].ID > found[j].ID })
	return found, nil
}

func (m *mockShopRepository) Find(ctx context.Context, criteria repository.ShopCriteria, page domain.PageRequest) (*domain.Page[domain.Shop], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCriteria = &criteria

	content := []domain.Shop{}
	for _, shop := range m.shops {
		if criteria.NameContains != nil && !strings.Contains(strings.ToLower(shop.Name), strings.ToLower(*criteria.NameContains)) {
			continue
		}
		content = append(content, m.hydrate(shop))
	}
	sort.Slice(content, func(i, j int) bool { return content[i].ID < content[j].ID })
	return domain.NewPage(content, page, int64(len(content))), nil
}

func (m *mockShopRepository) hydrate(shop domain.Shop) domain.Shop {
	out := copyShop(shop)
	if m.products != nil {
		m.products.mu.Lock()
		out.NbProducts = int64(len(m.products.idsByShop(shop.ID)))
		m.products.mu.Unlock()
	}
	return out
}

func copyShop(shop domain.Shop) domain.Shop {
	hours := make([]domain.OpeningHours, len(shop.OpeningHours))
	copy(hours, shop.OpeningHours)
	shop.OpeningHours = hours
	return shop
}

// mockTransactor runs fn directly and records whether it failed
type mockTransactor struct {
	calls      int
	rolledBack int
}

func (m *mockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	err := fn(ctx)
	if err != nil {
		m.rolledBack++
	}
	return err
}

// mockNotifier records index notifications
type mockNotifier struct {
	mu      sync.Mutex
	changed []int64
	removed []int64
	err     error
}

func (m *mockNotifier) ShopChanged(ctx context.Context, shopID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changed = append(m.changed, shopID)
	return m.err
}

func (m *mockNotifier) ShopRemoved(ctx context.Context, shopID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, shopID)
	return m.err
}

// mockIndex returns fixed hits in a fixed order
type mockIndex struct {
	hits    []int64
	queries []string
	err     error
}

func (m *mockIndex) Match(ctx context.Context, query string) ([]int64, error) {
	m.queries = append(m.queries, query)
	return m.hits, m.err
}
