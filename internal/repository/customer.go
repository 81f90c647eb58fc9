package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/apperr"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/model"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/storage/db"
)

type UpdateCustomerParams struct {
	Name  *string
	Phone *string
}

type CustomerRepository interface {
	WithDB(db db.DB) CustomerRepository
	CreateCustomer(ctx context.Context, customer model.Customer) error
	UpdateCustomer(ctx context.Context, id uuid.UUID, params UpdateCustomerParams) (model.Customer, error)

	// SoftDeleteCustomer marks the customer deleted; rows are never removed so
	// sales history keeps its reference.
	SoftDeleteCustomer(ctx context.Context, id uuid.UUID) error
	GetCustomer(ctx context.Context, id uuid.UUID) (model.Customer, error)
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	SearchCustomers(ctx context.Context, query string, limit int32) ([]model.Customer, error)

	// AddToTotalSpent atomically adds amount to the customer's cumulative
	// spend. A single arithmetic UPDATE, never read-modify-write.
	AddToTotalSpent(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}

type customerRepository struct {
	db db.DB
}

func NewCustomerRepository(db db.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r customerRepository) WithDB(db db.DB) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, name, phone, total_spent, deleted, created_at, updated_at`

func (r customerRepository) CreateCustomer(ctx context.Context, customer model.Customer) error {
	totalSpent, err := numericFromDecimal(customer.TotalSpent)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		customer.ID, customer.Name, customer.Phone, totalSpent,
		customer.Deleted, customer.CreatedAt, customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}

	return nil
}

func (r customerRepository) UpdateCustomer(ctx context.Context, id uuid.UUID, params UpdateCustomerParams) (model.Customer, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE customers SET
			name       = COALESCE($2, name),
			phone      = COALESCE($3, phone),
			updated_at = NOW()
		WHERE id = $1 AND NOT deleted
		RETURNING `+customerColumns,
		id, params.Name, params.Phone,
	)

	customer, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Customer{}, apperr.CustomerNotFoundErr
		}
		return model.Customer{}, fmt.Errorf("update customer: %w", err)
	}

	return customer, nil
}

func (r customerRepository) SoftDeleteCustomer(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE customers SET deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT deleted`,
		id,
	)
	if err != nil {
		return fmt.Errorf("soft delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.CustomerNotFoundErr
	}
	return nil
}

func (r customerRepository) GetCustomer(ctx context.Context, id uuid.UUID) (model.Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)

	customer, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Customer{}, apperr.CustomerNotFoundErr
		}
		return model.Customer{}, fmt.Errorf("get customer: %w", err)
	}

	return customer, nil
}

func (r customerRepository) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE NOT deleted
		ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	return scanCustomers(rows)
}

func (r customerRepository) SearchCustomers(ctx context.Context, query string, limit int32) ([]model.Customer, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE NOT deleted
		  AND (name ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%')
		ORDER BY name ASC
		LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	defer rows.Close()

	return scanCustomers(rows)
}

func (r customerRepository) AddToTotalSpent(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	delta, err := numericFromDecimal(amount)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE customers
		SET total_spent = total_spent + $2, updated_at = NOW()
		WHERE id = $1 AND NOT deleted`,
		id, delta,
	)
	if err != nil {
		if isTransient(err) {
			return apperr.TransientStoreErr.WrapParent(err)
		}
		return fmt.Errorf("add to total spent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.CustomerNotFoundErr
	}

	return nil
}

func scanCustomer(row pgx.Row) (model.Customer, error) {
	var (
		c          model.Customer
		totalSpent pgtype.Numeric
	)
	if err := row.Scan(
		&c.ID, &c.Name, &c.Phone, &totalSpent, &c.Deleted, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return model.Customer{}, err
	}

	var err error
	if c.TotalSpent, err = decimalFromNumeric(totalSpent); err != nil {
		return model.Customer{}, err
	}

	return c, nil
}

func scanCustomers(rows pgx.Rows) ([]model.Customer, error) {
	var customers []model.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return customers, nil
}
