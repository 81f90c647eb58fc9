package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/repository"
)

type DashboardStats struct {
	TotalProducts int64           `json:"total_products"`
	LowStockCount int64           `json:"low_stock_count"`
	TodaySales    int64           `json:"today_sales"`
	TodayRevenue  decimal.Decimal `json:"today_revenue"`
	WeekSales     int64           `json:"week_sales"`
	WeekRevenue   decimal.Decimal `json:"week_revenue"`
}

type StockReportRow struct {
	ProductID   string          `json:"product_id"`
	Barcode     string          `json:"barcode"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
	MinQuantity int             `json:"min_quantity"`
	StockValue  decimal.Decimal `json:"stock_value"`
	LowStock    bool            `json:"low_stock"`
}

type StockReport struct {
	Rows            []StockReportRow `json:"rows"`
	TotalItems      int64            `json:"total_items"`
	TotalStockValue decimal.Decimal  `json:"total_stock_value"`
	LowStockCount   int64            `json:"low_stock_count"`
}

type StockReportParams struct {
	Brand    string
	Category string
}

type TopProductsParams struct {
	Start time.Time `validate:"required"`
	End   time.Time `validate:"required"`
	Limit int32     `validate:"omitempty,min=1,max=100"`
}

type ReportService interface {
	DashboardStats(ctx context.Context) (DashboardStats, error)
	StockReport(ctx context.Context, params StockReportParams) (StockReport, error)
	TopSellingProducts(ctx context.Context, params TopProductsParams) ([]repository.ProductSalesAggregate, error)
	TopProfitProducts(ctx context.Context, params TopProductsParams) ([]repository.ProductProfitAggregate, error)
}

type reportService struct {
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	reportRepo  repository.ReportRepository
}

func NewReportService(
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	reportRepo repository.ReportRepository,
) ReportService {
	return &reportService{
		productRepo: productRepo,
		saleRepo:    saleRepo,
		reportRepo:  reportRepo,
	}
}

func (s *reportService) DashboardStats(ctx context.Context) (DashboardStats, error) {
	totalProducts, err := s.productRepo.CountProducts(ctx)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("product repository count products: %w", err)
	}

	lowStockCount, err := s.productRepo.CountLowStockProducts(ctx)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("product repository count low stock products: %w", err)
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfWeek := startOfDay.AddDate(0, 0, -6)

	todaySales, todayRevenue, err := s.saleRepo.CountAndRevenueSince(ctx, startOfDay)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("sale repository count and revenue since: %w", err)
	}

	weekSales, weekRevenue, err := s.saleRepo.CountAndRevenueSince(ctx, startOfWeek)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("sale repository count and revenue since: %w", err)
	}

	return DashboardStats{
		TotalProducts: totalProducts,
		LowStockCount: lowStockCount,
		TodaySales:    todaySales,
		TodayRevenue:  todayRevenue,
		WeekSales:     weekSales,
		WeekRevenue:   weekRevenue,
	}, nil
}

func (s *reportService) StockReport(ctx context.Context, params StockReportParams) (StockReport, error) {
	products, err := s.productRepo.ListProducts(ctx, params.Brand, params.Category)
	if err != nil {
		return StockReport{}, fmt.Errorf("product repository list products: %w", err)
	}

	report := StockReport{
		Rows:            make([]StockReportRow, 0, len(products)),
		TotalStockValue: decimal.Zero,
	}
	for _, p := range products {
		value := p.StockValue()
		low := p.LowStock()

		report.Rows = append(report.Rows, StockReportRow{
			ProductID:   p.ID.String(),
			Barcode:     p.Barcode,
			Name:        p.Name,
			Brand:       p.Brand,
			Category:    p.Category,
			Quantity:    p.Quantity,
			MinQuantity: p.MinQuantity,
			StockValue:  value,
			LowStock:    low,
		})
		report.TotalItems += int64(p.Quantity)
		report.TotalStockValue = report.TotalStockValue.Add(value)
		if low {
			report.LowStockCount++
		}
	}

	return report, nil
}

func (s *reportService) TopSellingProducts(ctx context.Context, params TopProductsParams) ([]repository.ProductSalesAggregate, error) {
	limit := params.Limit
	if limit == 0 {
		limit = 10
	}

	aggregates, err := s.reportRepo.TopSellingProducts(ctx, params.Start, params.End, limit)
	if err != nil {
		return nil, fmt.Errorf("report repository top selling products: %w", err)
	}
	return aggregates, nil
}

func (s *reportService) TopProfitProducts(ctx context.Context, params TopProductsParams) ([]repository.ProductProfitAggregate, error) {
	limit := params.Limit
	if limit == 0 {
		limit = 10
	}

	aggregates, err := s.reportRepo.TopProfitProducts(ctx, params.Start, params.End, limit)
	if err != nil {
		return nil, fmt.Errorf("report repository top profit products: %w", err)
	}
	return aggregates, nil
}
