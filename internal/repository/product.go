package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/apperr"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/model"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/storage/db"
)

type UpdateProductParams struct {
	Name            *string
	Brand           *string
	Category        *string
	Quantity        *int
	MinQuantity     *int
	PurchasePrice   *string
	SalePrice       *string
	UnitType        *string
	PackageQuantity *int
	Description     *string
}

type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	CreateProduct(ctx context.Context, product model.Product) error
	UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (model.Product, error)
	ListProducts(ctx context.Context, brandFilter, categoryFilter string) ([]model.Product, error)
	ListLowStockProducts(ctx context.Context) ([]model.Product, error)
	ListBrandsAndCategories(ctx context.Context) ([]string, []string, error)
	CountProducts(ctx context.Context) (int64, error)
	CountLowStockProducts(ctx context.Context) (int64, error)

	// DecrementQuantity atomically subtracts n from the product's on-hand
	// quantity, refusing to go below zero. Returns apperr.InsufficientStockErr
	// when stock is too low and apperr.ProductNotFoundErr when the product
	// does not exist. Never reads then writes.
	DecrementQuantity(ctx context.Context, id uuid.UUID, n int) (remaining int, err error)

	// IncrementQuantity atomically adds n back, compensating a decrement
	// that must be undone.
	IncrementQuantity(ctx context.Context, id uuid.UUID, n int) error
}

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, barcode, name, brand, category, quantity, min_quantity,
	purchase_price, sale_price, unit_type, package_quantity, description, created_at, updated_at`

func (r productRepository) CreateProduct(ctx context.Context, product model.Product) error {
	purchasePrice, err := numericFromDecimal(product.PurchasePrice)
	if err != nil {
		return err
	}
	salePrice, err := numericFromDecimal(product.SalePrice)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		product.ID, product.Barcode, product.Name, product.Brand, product.Category,
		product.Quantity, product.MinQuantity, purchasePrice, salePrice,
		product.UnitType, product.PackageQuantity, product.Description,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.DuplicateBarcodeErr.WrapParent(err)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func (r productRepository) UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (model.Product, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE products SET
			name             = COALESCE($2, name),
			brand            = COALESCE($3, brand),
			category         = COALESCE($4, category),
			quantity         = COALESCE($5, quantity),
			min_quantity     = COALESCE($6, min_quantity),
			purchase_price   = COALESCE($7::numeric, purchase_price),
			sale_price       = COALESCE($8::numeric, sale_price),
			unit_type        = COALESCE($9, unit_type),
			package_quantity = COALESCE($10, package_quantity),
			description      = COALESCE($11, description),
			updated_at       = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		id, params.Name, params.Brand, params.Category, params.Quantity,
		params.MinQuantity, params.PurchasePrice, params.SalePrice,
		params.UnitType, params.PackageQuantity, params.Description,
	)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, apperr.ProductNotFoundErr
		}
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

func (r productRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.ProductReferencedErr.WrapParent(err)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ProductNotFoundErr
	}
	return nil
}

func (r productRepository) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, apperr.ProductNotFoundErr
		}
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func (r productRepository) GetProductByBarcode(ctx context.Context, barcode string) (model.Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE barcode = $1`, barcode)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, apperr.ProductNotFoundErr
		}
		return model.Product{}, fmt.Errorf("get product by barcode: %w", err)
	}

	return product, nil
}

func (r productRepository) ListProducts(ctx context.Context, brandFilter, categoryFilter string) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE ($1 = '' OR brand ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR category ILIKE '%' || $2 || '%')
		ORDER BY name ASC`,
		brandFilter, categoryFilter,
	)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (r productRepository) ListLowStockProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE quantity <= min_quantity
		ORDER BY quantity ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list low stock products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (r productRepository) ListBrandsAndCategories(ctx context.Context) ([]string, []string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT brand, category FROM products
		WHERE brand <> '' OR category <> ''`,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("list brands and categories: %w", err)
	}
	defer rows.Close()

	brandSet := map[string]struct{}{}
	categorySet := map[string]struct{}{}
	for rows.Next() {
		var brand, category string
		if err := rows.Scan(&brand, &category); err != nil {
			return nil, nil, fmt.Errorf("scan brand/category: %w", err)
		}
		if brand != "" {
			brandSet[brand] = struct{}{}
		}
		if category != "" {
			categorySet[category] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate brands and categories: %w", err)
	}

	return sortedKeys(brandSet), sortedKeys(categorySet), nil
}

func (r productRepository) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

func (r productRepository) CountLowStockProducts(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE quantity <= min_quantity`,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count low stock products: %w", err)
	}
	return count, nil
}

func (r productRepository) DecrementQuantity(ctx context.Context, id uuid.UUID, n int) (int, error) {
	var remaining int
	err := r.db.QueryRow(ctx, `
		UPDATE products
		SET quantity = quantity - $2, updated_at = NOW()
		WHERE id = $1 AND quantity >= $2
		RETURNING quantity`,
		id, n,
	).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		// The WHERE guard should prevent this, but the quantity >= 0 check
		// constraint is the backstop under concurrent writers.
		if isCheckViolation(err) {
			return 0, apperr.InsufficientStockErr
		}
		if isTransient(err) {
			return 0, apperr.TransientStoreErr.WrapParent(err)
		}
		return 0, fmt.Errorf("decrement product quantity: %w", err)
	}

	// Zero rows updated: distinguish a missing product from insufficient stock.
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check product existence: %w", err)
	}
	if !exists {
		return 0, apperr.ProductNotFoundErr
	}
	return 0, apperr.InsufficientStockErr
}

func (r productRepository) IncrementQuantity(ctx context.Context, id uuid.UUID, n int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1`,
		id, n,
	)
	if err != nil {
		return fmt.Errorf("increment product quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ProductNotFoundErr
	}
	return nil
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var (
		p                        model.Product
		purchasePrice, salePrice pgtype.Numeric
	)
	if err := row.Scan(
		&p.ID, &p.Barcode, &p.Name, &p.Brand, &p.Category,
		&p.Quantity, &p.MinQuantity, &purchasePrice, &salePrice,
		&p.UnitType, &p.PackageQuantity, &p.Description,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return model.Product{}, err
	}

	var err error
	if p.PurchasePrice, err = decimalFromNumeric(purchasePrice); err != nil {
		return model.Product{}, err
	}
	if p.SalePrice, err = decimalFromNumeric(salePrice); err != nil {
		return model.Product{}, err
	}

	return p, nil
}

func scanProducts(rows pgx.Rows) ([]model.Product, error) {
	var products []model.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}
