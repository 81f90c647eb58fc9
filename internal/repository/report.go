package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/storage/db"
)

type ProductSalesAggregate struct {
	ProductID     uuid.UUID
	ProductName   string
	TotalQuantity int64
	TotalRevenue  decimal.Decimal
}

type ProductProfitAggregate struct {
	ProductID     uuid.UUID
	ProductName   string
	TotalQuantity int64
	TotalProfit   decimal.Decimal
}

type ReportRepository interface {
	WithDB(db db.DB) ReportRepository

	// TopSellingProducts aggregates sale line items by product over the given
	// range, ordered by total quantity sold.
	TopSellingProducts(ctx context.Context, start, end time.Time, limit int32) ([]ProductSalesAggregate, error)

	// TopProfitProducts ranks products by (unit price snapshot minus current
	// purchase price) times quantity over the given range.
	TopProfitProducts(ctx context.Context, start, end time.Time, limit int32) ([]ProductProfitAggregate, error)
}

type reportRepository struct {
	db db.DB
}

func NewReportRepository(db db.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r reportRepository) WithDB(db db.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r reportRepository) TopSellingProducts(ctx context.Context, start, end time.Time, limit int32) ([]ProductSalesAggregate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT si.product_id, si.name, SUM(si.quantity), SUM(si.line_total)
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE s.created_at >= $1 AND s.created_at <= $2
		GROUP BY si.product_id, si.name
		ORDER BY SUM(si.quantity) DESC
		LIMIT $3`,
		start, end, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("top selling products: %w", err)
	}
	defer rows.Close()

	var aggregates []ProductSalesAggregate
	for rows.Next() {
		var (
			agg     ProductSalesAggregate
			revenue pgtype.Numeric
		)
		if err := rows.Scan(&agg.ProductID, &agg.ProductName, &agg.TotalQuantity, &revenue); err != nil {
			return nil, fmt.Errorf("scan sales aggregate: %w", err)
		}
		if agg.TotalRevenue, err = decimalFromNumeric(revenue); err != nil {
			return nil, err
		}
		aggregates = append(aggregates, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales aggregates: %w", err)
	}

	return aggregates, nil
}

func (r reportRepository) TopProfitProducts(ctx context.Context, start, end time.Time, limit int32) ([]ProductProfitAggregate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT si.product_id, si.name, SUM(si.quantity),
		       SUM((si.unit_price - COALESCE(p.purchase_price, 0)) * si.quantity) AS profit
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		LEFT JOIN products p ON p.id = si.product_id
		WHERE s.created_at >= $1 AND s.created_at <= $2
		GROUP BY si.product_id, si.name
		ORDER BY profit DESC
		LIMIT $3`,
		start, end, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("top profit products: %w", err)
	}
	defer rows.Close()

	var aggregates []ProductProfitAggregate
	for rows.Next() {
		var (
			agg    ProductProfitAggregate
			profit pgtype.Numeric
		)
		if err := rows.Scan(&agg.ProductID, &agg.ProductName, &agg.TotalQuantity, &profit); err != nil {
			return nil, fmt.Errorf("scan profit aggregate: %w", err)
		}
		if agg.TotalProfit, err = decimalFromNumeric(profit); err != nil {
			return nil, err
		}
		aggregates = append(aggregates, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profit aggregates: %w", err)
	}

	return aggregates, nil
}
