package transport

import (
	"context"
	"errors"
	"sort"

	"shop-catalog/internal/domain"
	"shop-catalog/internal/repository"
	"shop-catalog/internal/service"
)

// fakeShopService keeps shops in memory and records the arguments of
// listing and search calls
type fakeShopService struct {
	shops        map[int64]domain.Shop
	nextID       int64
	listParams   *service.ShopListParams
	listPage     domain.PageRequest
	searchQuery  string
	searchFilter service.ShopSearchFilter
	searchResult []domain.Shop
	err          error
}

func newFakeShopService() *fakeShopService {
	return &fakeShopService{shops: make(map[int64]domain.Shop)}
}

func (f *fakeShopService) Create(ctx context.Context, shop *domain.Shop) (*domain.Shop, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := service.ValidateOpeningHours(shop.OpeningHours); err != nil {
		return nil, err
	}
	f.nextID++
	shop.ID = f.nextID
	f.shops[shop.ID] = *shop
	return shop, nil
}

func (f *fakeShopService) Update(ctx context.Context, shop *domain.Shop) (*domain.Shop, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.shops[shop.ID]; !ok {
		return nil, repository.ErrShopNotFound
	}
	if err := service.ValidateOpeningHours(shop.OpeningHours); err != nil {
		return nil, err
	}
	f.shops[shop.ID] = *shop
	return shop, nil
}

func (f *fakeShopService) Delete(ctx context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.shops[id]; !ok {
		return repository.ErrShopNotFound
	}
	delete(f.shops, id)
	return nil
}

func (f *fakeShopService) GetByID(ctx context.Context, id int64) (*domain.Shop, error) {
	if f.err != nil {
		return nil, f.err
	}
	shop, ok := f.shops[id]
	if !ok {
		return nil, repository.ErrShopNotFound
	}
	return &shop, nil
}

func (f *fakeShopService) List(ctx context.Context, params service.ShopListParams, page domain.PageRequest) (*domain.Page[domain.Shop], error) {
	f.listParams = &params
	f.listPage = page
	if f.err != nil {
		return nil, f.err
	}

	content := []domain.Shop{}
	for _, shop := range f.shops {
		content = append(content, shop)
	}
	sort.Slice(content, func(i, j int) bool { return content[i].ID < content[j].ID })
	return domain.NewPage(content, page, int64(len(content))), nil
}

func (f *fakeShopService) Search(ctx context.Context, query string, filter service.ShopSearchFilter) ([]domain.Shop, error) {
	f.searchQuery = query
	f.searchFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	if f.searchResult == nil {
		return []domain.Shop{}, nil
	}
	return f.searchResult, nil
}

// fakeProductService keeps products in memory
type fakeProductService struct {
	products   map[int64]domain.Product
	nextID     int64
	lastFilter repository.ProductFilter
	lastPage   domain.PageRequest
}

func newFakeProductService() *fakeProductService {
	return &fakeProductService{products: make(map[int64]domain.Product)}
}

func (f *fakeProductService) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product.ShopID != nil && *product.ShopID == 404 {
		return nil, repository.ErrProductInvalidLink
	}
	f.nextID++
	product.ID = f.nextID
	f.products[product.ID] = *product
	return product, nil
}

func (f *fakeProductService) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if _, ok := f.products[product.ID]; !ok {
		return nil, repository.ErrProductNotFound
	}
	f.products[product.ID] = *product
	return product, nil
}

func (f *fakeProductService) Delete(ctx context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &product, nil
}

func (f *fakeProductService) List(ctx context.Context, filter repository.ProductFilter, page domain.PageRequest) (*domain.Page[domain.Product], error) {
	f.lastFilter = filter
	f.lastPage = page
	content := []domain.Product{}
	for _, p := range f.products {
		content = append(content, p)
	}
	sort.Slice(content, func(i, j int) bool { return content[i].ID < content[j].ID })
	return domain.NewPage(content, page, int64(len(content))), nil
}

// fakeCategoryService keeps categories in memory and rejects duplicate names
type fakeCategoryService struct {
	categories []domain.Category
}

func (f *fakeCategoryService) Create(ctx context.Context, name, description string) (*domain.Category, error) {
	for _, c := range f.categories {
		if c.Name == name {
			return nil, repository.ErrCategoryAlreadyExists
		}
	}
	category := domain.Category{ID: int64(len(f.categories) + 1), Name: name, Description: description}
	f.categories = append(f.categories, category)
	return &category, nil
}

func (f *fakeCategoryService) List(ctx context.Context) ([]domain.Category, error) {
	return append([]domain.Category{}, f.categories...), nil
}

func (f *fakeCategoryService) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	for _, c := range f.categories {
		if c.ID == id {
			found := c
			return &found, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

type fakeDatabase struct {
	status string
}

func (f fakeDatabase) Health(ctx context.Context) map[string]string {
	return map[string]string{"status": f.status}
}

type fakeIndexStats struct {
	count int64
	err   error
}

func (f fakeIndexStats) Count(ctx context.Context) (int64, error) {
	return f.count, f.err
}

var errStoreDown = errors.New("connection refused")
