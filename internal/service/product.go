package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/model"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/repository"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/pkg/validator"
)

type CreateProductParams struct {
	Barcode         string `validate:"required,barcode"`
	Name            string `validate:"required"`
	Brand           string
	Category        string
	Quantity        int `validate:"gte=0"`
	MinQuantity     int `validate:"gte=0"`
	PurchasePrice   decimal.Decimal
	SalePrice       decimal.Decimal
	UnitType        string
	PackageQuantity int
	Description     string
}

type UpdateProductParams struct {
	Name            *string
	Brand           *string
	Category        *string
	Quantity        *int `validate:"omitempty,gte=0"`
	MinQuantity     *int `validate:"omitempty,gte=0"`
	PurchasePrice   *decimal.Decimal
	SalePrice       *decimal.Decimal
	UnitType        *string
	PackageQuantity *int
	Description     *string
}

type ProductService interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListLowStockProducts(ctx context.Context) ([]model.Product, error)
	GetProductFilters(ctx context.Context) (brands, categories []string, err error)
}

type productService struct {
	productRepo repository.ProductRepository
	validator   validator.Validator
}

func NewProductService(productRepo repository.ProductRepository, v validator.Validator) ProductService {
	return &productService{
		productRepo: productRepo,
		validator:   v,
	}
}

func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	if err := s.validator.Validate(params); err != nil {
		return model.Product{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.Product{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	unitType := params.UnitType
	if unitType == "" {
		unitType = "adet"
	}
	packageQuantity := params.PackageQuantity
	if packageQuantity <= 0 {
		packageQuantity = 1
	}

	now := time.Now()
	product := model.Product{
		ID:              id,
		Barcode:         params.Barcode,
		Name:            params.Name,
		Brand:           params.Brand,
		Category:        params.Category,
		Quantity:        params.Quantity,
		MinQuantity:     params.MinQuantity,
		PurchasePrice:   params.PurchasePrice,
		SalePrice:       params.SalePrice,
		UnitType:        unitType,
		PackageQuantity: packageQuantity,
		Description:     params.Description,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.productRepo.CreateProduct(ctx, product); err != nil {
		return model.Product{}, fmt.Errorf("product repository create product: %w", err)
	}

	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (model.Product, error) {
	if err := s.validator.Validate(params); err != nil {
		return model.Product{}, err
	}

	repoParams := repository.UpdateProductParams{
		Name:            params.Name,
		Brand:           params.Brand,
		Category:        params.Category,
		Quantity:        params.Quantity,
		MinQuantity:     params.MinQuantity,
		UnitType:        params.UnitType,
		PackageQuantity: params.PackageQuantity,
		Description:     params.Description,
	}
	if params.PurchasePrice != nil {
		price := params.PurchasePrice.String()
		repoParams.PurchasePrice = &price
	}
	if params.SalePrice != nil {
		price := params.SalePrice.String()
		repoParams.SalePrice = &price
	}

	product, err := s.productRepo.UpdateProduct(ctx, id, repoParams)
	if err != nil {
		return model.Product{}, fmt.Errorf("product repository update product: %w", err)
	}

	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("product repository delete product: %w", err)
	}
	return nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	product, err := s.productRepo.GetProduct(ctx, id)
	if err != nil {
		return model.Product{}, fmt.Errorf("product repository get product: %w", err)
	}
	return product, nil
}

func (s *productService) GetProductByBarcode(ctx context.Context, barcode string) (model.Product, error) {
	product, err := s.productRepo.GetProductByBarcode(ctx, barcode)
	if err != nil {
		return model.Product{}, fmt.Errorf("product repository get product by barcode: %w", err)
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.ListProducts(ctx, "", "")
	if err != nil {
		return nil, fmt.Errorf("product repository list products: %w", err)
	}
	return products, nil
}

func (s *productService) ListLowStockProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.ListLowStockProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("product repository list low stock products: %w", err)
	}
	return products, nil
}

func (s *productService) GetProductFilters(ctx context.Context) ([]string, []string, error) {
	brands, categories, err := s.productRepo.ListBrandsAndCategories(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("product repository list brands and categories: %w", err)
	}
	return brands, categories, nil
}
