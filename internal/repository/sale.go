package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/apperr"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/model"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/storage/db"
)

type ListSalesParams struct {
	Start *time.Time
	End   *time.Time
}

type SaleRepository interface {
	WithDB(db db.DB) SaleRepository

	// CreateSale inserts the immutable sale record and its line items.
	CreateSale(ctx context.Context, sale model.Sale) error
	GetSale(ctx context.Context, id uuid.UUID) (model.Sale, error)
	ListSales(ctx context.Context, params ListSalesParams) ([]model.Sale, error)
	ListSalesByCustomer(ctx context.Context, customerID uuid.UUID, limit int32) ([]model.Sale, error)

	// ListPendingSales locks and returns sales whose stock effects have not
	// been applied yet. Rows are locked with SKIP LOCKED so concurrent
	// reconcilers never pick the same sale.
	ListPendingSales(ctx context.Context, batchSize int32) ([]model.Sale, error)
	MarkSaleApplied(ctx context.Context, id uuid.UUID) error

	CountAndRevenueSince(ctx context.Context, since time.Time) (count int64, revenue decimal.Decimal, err error)
}

type saleRepository struct {
	db db.DB
}

func NewSaleRepository(db db.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r saleRepository) WithDB(db db.DB) SaleRepository {
	return &saleRepository{db: db}
}

const saleColumns = `id, customer_id, final_amount, discount, stock_state, reconciled_at, created_at`

func (r saleRepository) CreateSale(ctx context.Context, sale model.Sale) error {
	finalAmount, err := numericFromDecimal(sale.FinalAmount)
	if err != nil {
		return err
	}
	discount, err := numericFromDecimal(sale.Discount)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO sales (`+saleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sale.ID, sale.CustomerID, finalAmount, discount,
		string(sale.StockState), sale.ReconciledAt, sale.CreatedAt,
	)

	for _, item := range sale.Items {
		unitPrice, err := numericFromDecimal(item.UnitPrice)
		if err != nil {
			return err
		}
		lineTotal, err := numericFromDecimal(item.LineTotal)
		if err != nil {
			return err
		}

		batch.Queue(`
			INSERT INTO sale_items (id, sale_id, product_id, name, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, sale.ID, item.ProductID, item.Name, item.Quantity, unitPrice, lineTotal,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			if isForeignKeyViolation(err) {
				return apperr.ProductNotFoundErr.WrapParent(err)
			}
			if isTransient(err) {
				return apperr.TransientStoreErr.WrapParent(err)
			}
			return fmt.Errorf("insert sale batch statement %d: %w", i, err)
		}
	}

	return nil
}

func (r saleRepository) GetSale(ctx context.Context, id uuid.UUID) (model.Sale, error) {
	row := r.db.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)

	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Sale{}, apperr.SaleNotFoundErr
		}
		return model.Sale{}, fmt.Errorf("get sale: %w", err)
	}

	if err := r.attachItems(ctx, []*model.Sale{&sale}); err != nil {
		return model.Sale{}, err
	}

	return sale, nil
}

func (r saleRepository) ListSales(ctx context.Context, params ListSalesParams) ([]model.Sale, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+saleColumns+` FROM sales
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at <= $2)
		ORDER BY created_at DESC`,
		params.Start, params.End,
	)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales, err := scanSales(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachItemsToAll(ctx, sales); err != nil {
		return nil, err
	}

	return sales, nil
}

func (r saleRepository) ListSalesByCustomer(ctx context.Context, customerID uuid.UUID, limit int32) ([]model.Sale, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+saleColumns+` FROM sales
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		customerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sales by customer: %w", err)
	}
	defer rows.Close()

	sales, err := scanSales(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachItemsToAll(ctx, sales); err != nil {
		return nil, err
	}

	return sales, nil
}

func (r saleRepository) ListPendingSales(ctx context.Context, batchSize int32) ([]model.Sale, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+saleColumns+` FROM sales
		WHERE stock_state = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED`,
		batchSize,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending sales: %w", err)
	}
	defer rows.Close()

	sales, err := scanSales(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachItemsToAll(ctx, sales); err != nil {
		return nil, err
	}

	return sales, nil
}

func (r saleRepository) MarkSaleApplied(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sales
		SET stock_state = 'applied', reconciled_at = NOW()
		WHERE id = $1 AND stock_state = 'pending'`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark sale applied: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.SaleNotFoundErr
	}
	return nil
}

func (r saleRepository) CountAndRevenueSince(ctx context.Context, since time.Time) (int64, decimal.Decimal, error) {
	var (
		count   int64
		revenue pgtype.Numeric
	)
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(final_amount), 0)
		FROM sales
		WHERE created_at >= $1`,
		since,
	).Scan(&count, &revenue)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("count and revenue since: %w", err)
	}
	revenueDec, err := decimalFromNumeric(revenue)
	if err != nil {
		return 0, decimal.Zero, err
	}
	return count, revenueDec, nil
}

func (r saleRepository) attachItemsToAll(ctx context.Context, sales []model.Sale) error {
	refs := make([]*model.Sale, len(sales))
	for i := range sales {
		refs[i] = &sales[i]
	}
	return r.attachItems(ctx, refs)
}

func (r saleRepository) attachItems(ctx context.Context, sales []*model.Sale) error {
	if len(sales) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(sales))
	byID := make(map[uuid.UUID]*model.Sale, len(sales))
	for _, sale := range sales {
		ids = append(ids, sale.ID)
		byID[sale.ID] = sale
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, sale_id, product_id, name, quantity, unit_price, line_total
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY id`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item                 model.SaleItem
			unitPrice, lineTotal pgtype.Numeric
		)
		if err := rows.Scan(
			&item.ID, &item.SaleID, &item.ProductID, &item.Name,
			&item.Quantity, &unitPrice, &lineTotal,
		); err != nil {
			return fmt.Errorf("scan sale item: %w", err)
		}
		if item.UnitPrice, err = decimalFromNumeric(unitPrice); err != nil {
			return err
		}
		if item.LineTotal, err = decimalFromNumeric(lineTotal); err != nil {
			return err
		}

		if sale, ok := byID[item.SaleID]; ok {
			sale.Items = append(sale.Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate sale items: %w", err)
	}

	return nil
}

func scanSale(row pgx.Row) (model.Sale, error) {
	var (
		s                     model.Sale
		finalAmount, discount pgtype.Numeric
		stockState            string
	)
	if err := row.Scan(
		&s.ID, &s.CustomerID, &finalAmount, &discount,
		&stockState, &s.ReconciledAt, &s.CreatedAt,
	); err != nil {
		return model.Sale{}, err
	}

	var err error
	if s.FinalAmount, err = decimalFromNumeric(finalAmount); err != nil {
		return model.Sale{}, err
	}
	if s.Discount, err = decimalFromNumeric(discount); err != nil {
		return model.Sale{}, err
	}
	s.StockState = model.StockState(stockState)

	return s, nil
}

func scanSales(rows pgx.Rows) ([]model.Sale, error) {
	var sales []model.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return sales, nil
}
