package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shop-catalog/internal/domain"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
)

var (
	ErrShopNotFound = errors.New("shop not found")
)

const (
	dialectPostgres   = "postgres"
	tableShops        = "shops"
	tableOpeningHours = "opening_hours"
	shopAlias         = "s"
	colNbProducts     = "nb_products"

	// nbProducts is derived from the live product links on every read
	nbProductsExpr = "(SELECT COUNT(*) FROM products p WHERE p.shop_id = s.id)"
)

// ShopOrder is the sort applied to a shop listing; ties are broken by id
type ShopOrder int

const (
	ShopOrderByID ShopOrder = iota
	ShopOrderByName
	ShopOrderByCreatedAt
	ShopOrderByProductCount
)

func (o ShopOrder) String() string {
	switch o {
	case ShopOrderByName:
		return "name"
	case ShopOrderByCreatedAt:
		return "createdAt"
	case ShopOrderByProductCount:
		return "nbProducts"
	default:
		return "id"
	}
}

// DateRange is an inclusive range of creation dates
type DateRange struct {
	From domain.Date
	To   domain.Date
}

// ShopCriteria is a conjunction of optional predicates over shops plus an
// ordering. CreatedAfter and CreatedBefore are exclusive bounds,
// CreatedBetween is inclusive on both ends.
type ShopCriteria struct {
	InVacations    *bool
	CreatedAfter   *domain.Date
	CreatedBefore  *domain.Date
	CreatedBetween *DateRange
	NameContains   *string
	OrderBy        ShopOrder
}

// ShopRepository defines the interface for shop data access
type ShopRepository interface {
	// Create inserts the shop and its opening hours and sets shop.ID
	Create(ctx context.Context, shop *domain.Shop) error
	// Update overwrites the shop row and replaces its opening hours
	Update(ctx context.Context, shop *domain.Shop) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Shop, error)
	// FindByIDs returns the existing shops among ids, in no particular order
	FindByIDs(ctx context.Context, ids []int64) ([]domain.Shop, error)
	Find(ctx context.Context, criteria ShopCriteria, page domain.PageRequest) (*domain.Page[domain.Shop], error)
}

type shopRepository struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

// NewShopRepository creates a new instance of ShopRepository
func NewShopRepository(db *sqlx.DB) ShopRepository {
	return &shopRepository{
		db:      db,
		dialect: goqu.Dialect(dialectPostgres),
	}
}

type openingHoursRow struct {
	ShopID int64 `db:"shop_id"`
	domain.OpeningHours
}

func (r *shopRepository) Create(ctx context.Context, shop *domain.Shop) error {
	query, args, err := r.dialect.Insert(tableShops).
		Rows(goqu.Record{
			"name":         shop.Name,
			"created_at":   shop.CreatedAt.Time,
			"in_vacations": shop.InVacations,
		}).
		Returning("id").
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build shop insert: %w", err)
	}

	ext := executor(ctx, r.db)
	if err := sqlx.GetContext(ctx, ext, &shop.ID, query, args...); err != nil {
		return fmt.Errorf("failed to create shop: %w", err)
	}

	return r.insertOpeningHours(ctx, ext, shop.ID, shop.OpeningHours)
}

func (r *shopRepository) Update(ctx context.Context, shop *domain.Shop) error {
	query, args, err := r.dialect.Update(tableShops).
		Set(goqu.Record{
			"name":         shop.Name,
			"created_at":   shop.CreatedAt.Time,
			"in_vacations": shop.InVacations,
		}).
		Where(goqu.C("id").Eq(shop.ID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build shop update: %w", err)
	}

	ext := executor(ctx, r.db)
	result, err := ext.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update shop: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrShopNotFound
	}

	deleteQuery, deleteArgs, err := r.dialect.Delete(tableOpeningHours).
		Where(goqu.C("shop_id").Eq(shop.ID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build opening hours delete: %w", err)
	}
	if _, err := ext.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("failed to replace opening hours: %w", err)
	}

	return r.insertOpeningHours(ctx, ext, shop.ID, shop.OpeningHours)
}

// Delete removes the shop; its opening hours cascade at the database level
func (r *shopRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.dialect.Delete(tableShops).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build shop delete: %w", err)
	}

	result, err := executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete shop: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrShopNotFound
	}

	return nil
}

func (r *shopRepository) FindByID(ctx context.Context, id int64) (*domain.Shop, error) {
	shops, err := r.FindByIDs(ctx, []int64{id})
	if err != nil {
		return nil, fmt.Errorf("failed to find shop by ID: %w", err)
	}
	if len(shops) == 0 {
		return nil, ErrShopNotFound
	}
	return &shops[0], nil
}

func (r *shopRepository) FindByIDs(ctx context.Context, ids []int64) ([]domain.Shop, error) {
	if len(ids) == 0 {
		return []domain.Shop{}, nil
	}

	query, args, err := r.selectShops().
		Where(goqu.I(shopAlias + ".id").In(ids)).
		Order(goqu.I(shopAlias + ".id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build shop select: %w", err)
	}

	ext := executor(ctx, r.db)
	shops := []domain.Shop{}
	if err := sqlx.SelectContext(ctx, ext, &shops, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select shops: %w", err)
	}

	if err := r.attachOpeningHours(ctx, ext, shops); err != nil {
		return nil, err
	}
	return shops, nil
}

// Find returns one page of the shops matching criteria
func (r *shopRepository) Find(ctx context.Context, criteria ShopCriteria, page domain.PageRequest) (*domain.Page[domain.Shop], error) {
	conditions := criteria.conditions()
	ext := executor(ctx, r.db)

	countQuery, countArgs, err := r.dialect.From(goqu.T(tableShops).As(shopAlias)).
		Select(goqu.COUNT(goqu.Star())).
		Where(conditions...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build shop count: %w", err)
	}

	var total int64
	if err := sqlx.GetContext(ctx, ext, &total, countQuery, countArgs...); err != nil {
		return nil, fmt.Errorf("failed to count shops: %w", err)
	}

	query, args, err := r.selectShops().
		Where(conditions...).
		Order(criteria.ordering()...).
		Limit(uint(page.Size)).
		Offset(uint(page.Offset())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build shop select: %w", err)
	}

	shops := []domain.Shop{}
	if err := sqlx.SelectContext(ctx, ext, &shops, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}

	if err := r.attachOpeningHours(ctx, ext, shops); err != nil {
		return nil, err
	}

	return domain.NewPage(shops, page, total), nil
}

func (r *shopRepository) selectShops() *goqu.SelectDataset {
	return r.dialect.From(goqu.T(tableShops).As(shopAlias)).
		Select(
			goqu.I(shopAlias+".id"),
			goqu.I(shopAlias+".name"),
			goqu.I(shopAlias+".created_at"),
			goqu.I(shopAlias+".in_vacations"),
			goqu.L(nbProductsExpr).As(colNbProducts),
		)
}

func (r *shopRepository) insertOpeningHours(ctx context.Context, ext sqlx.ExtContext, shopID int64, hours []domain.OpeningHours) error {
	if len(hours) == 0 {
		return nil
	}

	rows := make([]interface{}, 0, len(hours))
	for i, h := range hours {
		rows = append(rows, goqu.Record{
			"shop_id":  shopID,
			"position": i,
			"day":      int(h.Day),
			"open_at":  h.OpenAt.String(),
			"close_at": h.CloseAt.String(),
		})
	}

	query, args, err := r.dialect.Insert(tableOpeningHours).Rows(rows...).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build opening hours insert: %w", err)
	}

	if _, err := ext.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert opening hours: %w", err)
	}

	return nil
}

// attachOpeningHours loads the opening hours of every shop in one query
func (r *shopRepository) attachOpeningHours(ctx context.Context, ext sqlx.ExtContext, shops []domain.Shop) error {
	if len(shops) == 0 {
		return nil
	}

	ids := make([]int64, len(shops))
	for i := range shops {
		ids[i] = shops[i].ID
		shops[i].OpeningHours = []domain.OpeningHours{}
	}

	query, args, err := r.dialect.From(tableOpeningHours).
		Select(
			goqu.C("shop_id"),
			goqu.C("day"),
			goqu.L("open_at::text").As("open_at"),
			goqu.L("close_at::text").As("close_at"),
		).
		Where(goqu.C("shop_id").In(ids)).
		Order(goqu.C("shop_id").Asc(), goqu.C("position").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build opening hours select: %w", err)
	}

	rows := []openingHoursRow{}
	if err := sqlx.SelectContext(ctx, ext, &rows, query, args...); err != nil {
		return fmt.Errorf("failed to load opening hours: %w", err)
	}

	index := make(map[int64]int, len(shops))
	for i := range shops {
		index[shops[i].ID] = i
	}
	for _, row := range rows {
		if i, ok := index[row.ShopID]; ok {
			shops[i].OpeningHours = append(shops[i].OpeningHours, row.OpeningHours)
		}
	}

	return nil
}

func (c ShopCriteria) conditions() []exp.Expression {
	conditions := []exp.Expression{}

	createdAt := goqu.I(shopAlias + ".created_at")

	if c.InVacations != nil {
		conditions = append(conditions, goqu.I(shopAlias+".in_vacations").Eq(*c.InVacations))
	}
	if c.CreatedAfter != nil {
		conditions = append(conditions, createdAt.Gt(c.CreatedAfter.Time))
	}
	if c.CreatedBefore != nil {
		conditions = append(conditions, createdAt.Lt(c.CreatedBefore.Time))
	}
	if c.CreatedBetween != nil {
		conditions = append(conditions, createdAt.Between(goqu.Range(c.CreatedBetween.From.Time, c.CreatedBetween.To.Time)))
	}
	if c.NameContains != nil {
		conditions = append(conditions, goqu.I(shopAlias+".name").ILike("%"+escapeLike(*c.NameContains)+"%"))
	}

	return conditions
}

func (c ShopCriteria) ordering() []exp.OrderedExpression {
	byID := goqu.I(shopAlias + ".id").Asc()

	switch c.OrderBy {
	case ShopOrderByName:
		return []exp.OrderedExpression{goqu.I(shopAlias + ".name").Asc(), byID}
	case ShopOrderByCreatedAt:
		return []exp.OrderedExpression{goqu.I(shopAlias + ".created_at").Asc(), byID}
	case ShopOrderByProductCount:
		return []exp.OrderedExpression{goqu.I(colNbProducts).Asc(), byID}
	default:
		return []exp.OrderedExpression{byID}
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes term match literally inside a LIKE pattern
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
