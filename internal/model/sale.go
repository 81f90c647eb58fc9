package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockState tracks whether a sale's downstream stock and ledger effects
// have been applied.
type StockState string

const (
	// StockStateApplied means stock decrements and the customer ledger update
	// were committed together with the sale record.
	StockStateApplied StockState = "applied"

	// StockStatePending means only the sale record exists; the reconciler is
	// responsible for applying the remaining effects.
	StockStatePending StockState = "pending"
)

// Sale is an immutable record of a completed transaction. There is no update
// or delete path once it is created.
type Sale struct {
	ID           uuid.UUID       `json:"id"`
	CustomerID   *uuid.UUID      `json:"customer_id,omitempty"`
	Items        []SaleItem      `json:"items"`
	FinalAmount  decimal.Decimal `json:"final_amount"`
	Discount     decimal.Decimal `json:"discount"`
	StockState   StockState      `json:"stock_state"`
	ReconciledAt *time.Time      `json:"reconciled_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SaleItem snapshots the product's name and price at sale time. Later product
// edits must not change it.
type SaleItem struct {
	ID        uuid.UUID       `json:"id"`
	SaleID    uuid.UUID       `json:"sale_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// ItemsTotal sums the line totals of all items.
func (s Sale) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.LineTotal)
	}
	return total
}
