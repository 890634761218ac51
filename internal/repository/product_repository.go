package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shop-catalog/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductInvalidLink = errors.New("product references an unknown shop or category")
)

// PostgreSQL error codes
const (
	errForeignKeyViolation = "23503"
	errUniqueViolation     = "23505"
)

const productColumns = `id, name, description, price, shop_id, category_id, created_at, updated_at`

// ProductFilter narrows a product listing; nil fields are ignored
type ProductFilter struct {
	ShopID     *int64
	CategoryID *int64
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter, page domain.PageRequest) (*domain.Page[domain.Product], error)
	// FindIDsByShop returns the ids of the products linked to shopID
	FindIDsByShop(ctx context.Context, shopID int64) ([]int64, error)
	// SetShop links the product to shopID, or unlinks it when shopID is nil
	SetShop(ctx context.Context, productID int64, shopID *int64) error
}

type productRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sqlx.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, description, price, shop_id, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := sqlx.GetContext(
		ctx,
		executor(ctx, r.db),
		&product.ID,
		query,
		product.Name,
		product.Description,
		product.Price,
		product.ShopID,
		product.CategoryID,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isPgError(err, errForeignKeyViolation) {
			return ErrProductInvalidLink
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update updates an existing product in the database using parameterized queries
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, shop_id = $5,
		    category_id = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := executor(ctx, r.db).ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.ShopID,
		product.CategoryID,
		product.UpdatedAt,
	)

	if err != nil {
		if isPgError(err, errForeignKeyViolation) {
			return ErrProductInvalidLink
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return expectOneRow(result, ErrProductNotFound)
}

// Delete removes a product from the database using parameterized queries
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return expectOneRow(result, ErrProductNotFound)
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product := &domain.Product{}
	err := sqlx.GetContext(ctx, executor(ctx, r.db), product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List retrieves products with optional shop and category filtering, ordered by id
func (r *productRepository) List(ctx context.Context, filter ProductFilter, page domain.PageRequest) (*domain.Page[domain.Product], error) {
	whereClause := "WHERE 1 = 1"
	args := []interface{}{}
	argIndex := 1

	if filter.ShopID != nil {
		whereClause += fmt.Sprintf(" AND shop_id = $%d", argIndex)
		args = append(args, *filter.ShopID)
		argIndex++
	}
	if filter.CategoryID != nil {
		whereClause += fmt.Sprintf(" AND category_id = $%d", argIndex)
		args = append(args, *filter.CategoryID)
		argIndex++
	}

	ext := executor(ctx, r.db)

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	if err := sqlx.GetContext(ctx, ext, &total, countQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY id ASC
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, argIndex, argIndex+1)

	args = append(args, page.Size, page.Offset())

	products := []domain.Product{}
	if err := sqlx.SelectContext(ctx, ext, &products, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return domain.NewPage(products, page, total), nil
}

func (r *productRepository) FindIDsByShop(ctx context.Context, shopID int64) ([]int64, error) {
	query := `SELECT id FROM products WHERE shop_id = $1 ORDER BY id ASC`

	ids := []int64{}
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &ids, query, shopID); err != nil {
		return nil, fmt.Errorf("failed to find products of shop: %w", err)
	}

	return ids, nil
}

func (r *productRepository) SetShop(ctx context.Context, productID int64, shopID *int64) error {
	query := `UPDATE products SET shop_id = $2, updated_at = NOW() WHERE id = $1`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, productID, shopID)
	if err != nil {
		if isPgError(err, errForeignKeyViolation) {
			return ErrProductInvalidLink
		}
		return fmt.Errorf("failed to set product shop: %w", err)
	}

	return expectOneRow(result, ErrProductNotFound)
}

func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return notFound
	}

	return nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
