package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shop-catalog/internal/domain"
	"shop-catalog/internal/repository"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type shopServiceFixture struct {
	svc      ShopService
	shops    *mockShopRepository
	products *mockProductRepository
	tx       *mockTransactor
	notifier *mockNotifier
}

func newShopServiceFixture() *shopServiceFixture {
	products := newMockProductRepository()
	shops := newMockShopRepository(products)
	tx := &mockTransactor{}
	notifier := &mockNotifier{}

	return &shopServiceFixture{
		svc:      NewShopService(shops, products, tx, NewShopSearcher(&mockIndex{}, shops), notifier, zap.NewNop()),
		shops:    shops,
		products: products,
		tx:       tx,
		notifier: notifier,
	}
}

func (f *shopServiceFixture) linkProducts(t *testing.T, shopID int64, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		product := &domain.Product{Name: "Item", Price: 3, ShopID: &shopID}
		require.NoError(t, f.products.Create(context.Background(), product))
		ids = append(ids, product.ID)
	}
	return ids
}

func TestShopService_CreateReadsBack(t *testing.T) {
	f := newShopServiceFixture()

	created, err := f.svc.Create(context.Background(), &domain.Shop{
		Name:         "Corner Shop",
		CreatedAt:    domain.NewDate(2024, time.May, 5),
		OpeningHours: []domain.OpeningHours{hoursAt(domain.Monday, 540, 720)},
	})
	require.NoError(t, err)

	assert.NotZero(t, created.ID)
	assert.Equal(t, "Corner Shop", created.Name)
	assert.Equal(t, int64(0), created.NbProducts)
	assert.Len(t, created.OpeningHours, 1)
	assert.Equal(t, []int64{created.ID}, f.notifier.changed)
	assert.Equal(t, 1, f.tx.calls)
}

func TestShopService_CreateDefaultsCreationDate(t *testing.T) {
	f := newShopServiceFixture()

	created, err := f.svc.Create(context.Background(), &domain.Shop{Name: "Today", OpeningHours: []domain.OpeningHours{}})
	require.NoError(t, err)
	assert.Equal(t, domain.Today(), created.CreatedAt)
}

func TestShopService_CreateRejectsConflicts(t *testing.T) {
	f := newShopServiceFixture()

	_, err := f.svc.Create(context.Background(), &domain.Shop{
		Name: "Overlapping",
		OpeningHours: []domain.OpeningHours{
			hoursAt(domain.Monday, 540, 720),
			hoursAt(domain.Monday, 600, 800),
		},
	})
	assert.ErrorIs(t, err, ErrOpeningHoursConflict)
	assert.Empty(t, f.shops.shops)
	assert.Empty(t, f.notifier.changed)
}

func TestShopService_CreateSurvivesNotifierFailure(t *testing.T) {
	f := newShopServiceFixture()
	f.notifier.err = errors.New("redis down")

	created, err := f.svc.Create(context.Background(), &domain.Shop{Name: "Offline", OpeningHours: []domain.OpeningHours{}})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
}

func TestShopService_CreateStoreFailure(t *testing.T) {
	f := newShopServiceFixture()
	failure := errors.New("db down")
	f.shops.createErr = failure

	_, err := f.svc.Create(context.Background(), &domain.Shop{Name: "Broken", OpeningHours: []domain.OpeningHours{}})
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 1, f.tx.rolledBack)
	assert.Empty(t, f.notifier.changed)
}

func TestShopService_UpdateOverwrites(t *testing.T) {
	f := newShopServiceFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, &domain.Shop{
		Name:         "Before",
		CreatedAt:    domain.NewDate(2020, time.March, 3),
		OpeningHours: []domain.OpeningHours{hoursAt(domain.Monday, 540, 720), hoursAt(domain.Tuesday, 540, 720)},
	})
	require.NoError(t, err)
	f.linkProducts(t, created.ID, 2)

	updated, err := f.svc.Update(ctx, &domain.Shop{
		ID:           created.ID,
		Name:         "After",
		InVacations:  true,
		OpeningHours: []domain.OpeningHours{hoursAt(domain.Sunday, 600, 660)},
	})
	require.NoError(t, err)

	assert.Equal(t, "After", updated.Name)
	assert.True(t, updated.InVacations)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt, "creation date is kept when omitted")
	assert.Equal(t, []domain.OpeningHours{hoursAt(domain.Sunday, 600, 660)}, updated.OpeningHours)
	assert.Equal(t, int64(2), updated.NbProducts)
	assert.Equal(t, []int64{created.ID, created.ID}, f.notifier.changed)
}

func TestShopService_UpdateMissingShopNeverCreates(t *testing.T) {
	f := newShopServiceFixture()

	_, err := f.svc.Update(context.Background(), &domain.Shop{
		ID:           77,
		Name:         "Ghost",
		OpeningHours: []domain.OpeningHours{hoursAt(domain.Monday, 540, 720), hoursAt(domain.Monday, 540, 720)},
	})
	assert.ErrorIs(t, err, repository.ErrShopNotFound, "not found wins over invalid hours")
	assert.Empty(t, f.shops.shops)
	assert.Empty(t, f.notifier.changed)
}

func TestShopService_UpdateRejectsConflicts(t *testing.T) {
	f := newShopServiceFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, &domain.Shop{Name: "Valid", OpeningHours: []domain.OpeningHours{}})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, &domain.Shop{
		ID:           created.ID,
		Name:         "Invalid",
		OpeningHours: []domain.OpeningHours{hoursAt(domain.Friday, 540, 720), hoursAt(domain.Friday, 700, 800)},
	})
	assert.ErrorIs(t, err, ErrOpeningHoursConflict)

	current, err := f.svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Valid", current.Name)
}

func TestShopService_DeleteUnlinksProducts(t *testing.T) {
	f := newShopServiceFixture()
	ctx := context.Background()

	doomed, err := f.svc.Create(ctx, &domain.Shop{Name: "Doomed", OpeningHours: []domain.OpeningHours{}})
	require.NoError(t, err)
	other, err := f.svc.Create(ctx, &domain.Shop{Name: "Other", OpeningHours: []domain.OpeningHours{}})
	require.NoError(t, err)

	linked := f.linkProducts(t, doomed.ID, 3)
	kept := f.linkProducts(t, other.ID, 1)

	require.NoError(t, f.svc.Delete(ctx, doomed.ID))

	assert.Equal(t, linked, f.products.setShops, "one unlink per product")
	for _, id := range linked {
		product, err := f.products.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, product.ShopID)
	}

	product, err := f.products.FindByID(ctx, kept[0])
	require.NoError(t, err)
	assert.Equal(t, other.ID, *product.ShopID)

	_, err = f.svc.GetByID(ctx, doomed.ID)
	assert.ErrorIs(t, err, repository.ErrShopNotFound)
	assert.Equal(t, []int64{doomed.ID}, f.notifier.removed)
}

func TestShopService_DeleteMissingShop(t *testing.T) {
	f := newShopServiceFixture()

	err := f.svc.Delete(context.Background(), 5)
	assert.ErrorIs(t, err, repository.ErrShopNotFound)
	assert.Empty(t, f.notifier.removed)
}

func TestShopService_GetByIDMissing(t *testing.T) {
	f := newShopServiceFixture()

	_, err := f.svc.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, repository.ErrShopNotFound)
}

// A created shop reads back with the submitted fields and no products
func TestProperty_CreateRoundTrip(t *testing.T) {
	f := newShopServiceFixture()

	properties := gopter.NewProperties(nil)

	properties.Property("create then get returns the submitted shop", prop.ForAll(
		func(name string, vacation bool, days int, open int) bool {
			ctx := context.Background()
			createdAt := domain.NewDate(2000, time.January, 1).AddDays(days)
			hours := []domain.OpeningHours{
				hoursAt(domain.Monday, open, open+60),
				hoursAt(domain.Monday, open+60, open+120),
			}

			created, err := f.svc.Create(ctx, &domain.Shop{
				Name:         name,
				CreatedAt:    createdAt,
				InVacations:  vacation,
				OpeningHours: hours,
			})
			if err != nil {
				t.Logf("FAIL: Failed to create shop: %v", err)
				return false
			}

			got, err := f.svc.GetByID(ctx, created.ID)
			if err != nil {
				t.Logf("FAIL: Failed to get shop: %v", err)
				return false
			}

			return got.Name == name &&
				got.InVacations == vacation &&
				got.CreatedAt.Equal(createdAt.Time) &&
				got.NbProducts == 0 &&
				len(got.OpeningHours) == 2 &&
				got.OpeningHours[0] == hours[0] &&
				got.OpeningHours[1] == hours[1]
		},
		gen.RegexMatch(`[A-Z][a-z]{2,20}`),
		gen.Bool(),
		gen.IntRange(0, 9000),
		gen.IntRange(0, 1200),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Deleting a shop leaves every product in place, without a shop
func TestProperty_DeleteKeepsProducts(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("products outlive their shop", prop.ForAll(
		func(count int) bool {
			f := newShopServiceFixture()
			ctx := context.Background()

			shop, err := f.svc.Create(ctx, &domain.Shop{Name: "Temp", OpeningHours: []domain.OpeningHours{}})
			if err != nil {
				return false
			}
			ids := f.linkProducts(t, shop.ID, count)

			if err := f.svc.Delete(ctx, shop.ID); err != nil {
				return false
			}

			for _, id := range ids {
				product, err := f.products.FindByID(ctx, id)
				if err != nil || product.ShopID != nil {
					return false
				}
			}
			return len(f.products.products) == count
		},
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
