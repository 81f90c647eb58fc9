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

type CreateCustomerParams struct {
	Name  string `validate:"required"`
	Phone string `validate:"omitempty,phone"`
}

type UpdateCustomerParams struct {
	Name  *string `validate:"omitempty,min=1"`
	Phone *string `validate:"omitempty,phone"`
}

type CustomerService interface {
	CreateCustomer(ctx context.Context, params CreateCustomerParams) (model.Customer, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, params UpdateCustomerParams) (model.Customer, error)

	// DeleteCustomer soft-deletes; sales history keeps pointing at the row.
	DeleteCustomer(ctx context.Context, id uuid.UUID) error
	GetCustomer(ctx context.Context, id uuid.UUID) (model.Customer, error)
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	SearchCustomers(ctx context.Context, query string) ([]model.Customer, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
	validator    validator.Validator
}

func NewCustomerService(customerRepo repository.CustomerRepository, v validator.Validator) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		validator:    v,
	}
}

func (s *customerService) CreateCustomer(ctx context.Context, params CreateCustomerParams) (model.Customer, error) {
	if err := s.validator.Validate(params); err != nil {
		return model.Customer{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.Customer{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now()
	customer := model.Customer{
		ID:         id,
		Name:       params.Name,
		Phone:      params.Phone,
		TotalSpent: decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.customerRepo.CreateCustomer(ctx, customer); err != nil {
		return model.Customer{}, fmt.Errorf("customer repository create customer: %w", err)
	}

	return customer, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id uuid.UUID, params UpdateCustomerParams) (model.Customer, error) {
	if err := s.validator.Validate(params); err != nil {
		return model.Customer{}, err
	}

	customer, err := s.customerRepo.UpdateCustomer(ctx, id, repository.UpdateCustomerParams{
		Name:  params.Name,
		Phone: params.Phone,
	})
	if err != nil {
		return model.Customer{}, fmt.Errorf("customer repository update customer: %w", err)
	}

	return customer, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	if err := s.customerRepo.SoftDeleteCustomer(ctx, id); err != nil {
		return fmt.Errorf("customer repository soft delete customer: %w", err)
	}
	return nil
}

func (s *customerService) GetCustomer(ctx context.Context, id uuid.UUID) (model.Customer, error) {
	customer, err := s.customerRepo.GetCustomer(ctx, id)
	if err != nil {
		return model.Customer{}, fmt.Errorf("customer repository get customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	customers, err := s.customerRepo.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("customer repository list customers: %w", err)
	}
	return customers, nil
}

func (s *customerService) SearchCustomers(ctx context.Context, query string) ([]model.Customer, error) {
	customers, err := s.customerRepo.SearchCustomers(ctx, query, 100)
	if err != nil {
		return nil, fmt.Errorf("customer repository search customers: %w", err)
	}
	return customers, nil
}
