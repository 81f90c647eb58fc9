package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/apperr"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/event"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/model"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/repository"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/storage/db"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/pkg/validator"
)

type CommitSaleItemParams struct {
	ProductID uuid.UUID `validate:"required"`
	Quantity  int       `validate:"required,gt=0"`
}

type CommitSaleParams struct {
	CustomerID *uuid.UUID
	Items      []CommitSaleItemParams `validate:"omitempty,dive"`
	Discount   decimal.Decimal

	// FinalAmount is the caller-computed total. When set it must equal the
	// server-side sum of line totals minus discount; a mismatch rejects the
	// sale before anything is written.
	FinalAmount *decimal.Decimal
}

type ListSalesParams struct {
	Start *time.Time
	End   *time.Time
}

type SaleService interface {
	// CommitSale runs the whole sale workflow in a single transaction:
	// immutable sale record, per-product stock decrements, customer ledger
	// increment, outbox events. Either everything commits or nothing does.
	CommitSale(ctx context.Context, params CommitSaleParams) (model.Sale, error)

	// CommitSaleDeferred records the sale only, leaving stock and ledger
	// effects to the reconciler. For callers that must not block on stock
	// application.
	CommitSaleDeferred(ctx context.Context, params CommitSaleParams) (model.Sale, error)

	GetSale(ctx context.Context, id uuid.UUID) (model.Sale, error)
	ListSales(ctx context.Context, params ListSalesParams) ([]model.Sale, error)
	ListSalesByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Sale, error)

	// ReconcilePendingSales repairs sales recorded without their downstream
	// effects. Each locked pending sale gets its stock decrements and ledger
	// increment applied and is marked applied; a sale whose stock cannot be
	// decremented yet stays pending and is reported in skipped. Idempotent
	// per sale id: the applied marker guards against double application.
	ReconcilePendingSales(ctx context.Context, batchSize int32) (applied, skipped []uuid.UUID, err error)
}

type saleService struct {
	db           db.DB
	saleRepo     repository.SaleRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	outboxRepo   repository.OutboxMsgRepository
	validator    validator.Validator
}

func NewSaleService(
	db db.DB,
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	outboxRepo repository.OutboxMsgRepository,
	v validator.Validator,
) SaleService {
	return &saleService{
		db:           db,
		saleRepo:     saleRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		outboxRepo:   outboxRepo,
		validator:    v,
	}
}

func (s *saleService) CommitSale(ctx context.Context, params CommitSaleParams) (model.Sale, error) {
	if err := s.validateParams(params); err != nil {
		return model.Sale{}, err
	}

	var sale model.Sale
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		var err error
		sale, err = s.buildSale(ctx, tx, params, model.StockStateApplied)
		if err != nil {
			return err
		}

		if err := s.saleRepo.WithDB(tx).CreateSale(ctx, sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		// An error anywhere below aborts the transaction: the sale record,
		// decrements and ledger update commit together or not at all.
		lowStock, _, err := s.applyStockDeltas(ctx, tx, sale)
		if err != nil {
			return err
		}

		if sale.CustomerID != nil {
			if err := s.customerRepo.WithDB(tx).AddToTotalSpent(ctx, *sale.CustomerID, sale.FinalAmount); err != nil {
				return fmt.Errorf("add to total spent: %w", err)
			}
		}

		if err := s.queueSaleEvents(ctx, tx, sale, lowStock); err != nil {
			return err
		}

		return nil
	}); err != nil {
		return model.Sale{}, err
	}

	return sale, nil
}

func (s *saleService) CommitSaleDeferred(ctx context.Context, params CommitSaleParams) (model.Sale, error) {
	if err := s.validateParams(params); err != nil {
		return model.Sale{}, err
	}

	var sale model.Sale
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		var err error
		sale, err = s.buildSale(ctx, tx, params, model.StockStatePending)
		if err != nil {
			return err
		}

		if err := s.saleRepo.WithDB(tx).CreateSale(ctx, sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		return nil
	}); err != nil {
		return model.Sale{}, err
	}

	return sale, nil
}

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (model.Sale, error) {
	sale, err := s.saleRepo.GetSale(ctx, id)
	if err != nil {
		return model.Sale{}, fmt.Errorf("sale repository get sale: %w", err)
	}
	return sale, nil
}

func (s *saleService) ListSales(ctx context.Context, params ListSalesParams) ([]model.Sale, error) {
	sales, err := s.saleRepo.ListSales(ctx, repository.ListSalesParams{
		Start: params.Start,
		End:   params.End,
	})
	if err != nil {
		return nil, fmt.Errorf("sale repository list sales: %w", err)
	}
	return sales, nil
}

func (s *saleService) ListSalesByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Sale, error) {
	sales, err := s.saleRepo.ListSalesByCustomer(ctx, customerID, 100)
	if err != nil {
		return nil, fmt.Errorf("sale repository list sales by customer: %w", err)
	}
	return sales, nil
}

func (s *saleService) ReconcilePendingSales(ctx context.Context, batchSize int32) ([]uuid.UUID, []uuid.UUID, error) {
	var applied, skipped []uuid.UUID

	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		pending, err := s.saleRepo.WithDB(tx).ListPendingSales(ctx, batchSize)
		if err != nil {
			return fmt.Errorf("list pending sales: %w", err)
		}

		for _, sale := range pending {
			lowStock, appliedDeltas, err := s.applyStockDeltas(ctx, tx, sale)
			if err != nil {
				// A conditional decrement that finds no row does not abort the
				// transaction, so the sale can be skipped and retried on the
				// next pass once its partial decrements are compensated.
				for id, n := range appliedDeltas {
					if compErr := s.productRepo.WithDB(tx).IncrementQuantity(ctx, id, n); compErr != nil {
						return fmt.Errorf("compensate decrement for sale %s: %w", sale.ID, compErr)
					}
				}
				skipped = append(skipped, sale.ID)
				continue
			}

			if sale.CustomerID != nil {
				if err := s.customerRepo.WithDB(tx).AddToTotalSpent(ctx, *sale.CustomerID, sale.FinalAmount); err != nil {
					// A customer soft-deleted after the sale was recorded is a
					// zero-row update, which does not abort the transaction
					// either. Undo the decrements and leave the sale pending
					// rather than blocking the rest of the batch.
					if errors.Is(err, apperr.CustomerNotFoundErr) {
						for id, n := range appliedDeltas {
							if compErr := s.productRepo.WithDB(tx).IncrementQuantity(ctx, id, n); compErr != nil {
								return fmt.Errorf("compensate decrement for sale %s: %w", sale.ID, compErr)
							}
						}
						skipped = append(skipped, sale.ID)
						continue
					}
					return fmt.Errorf("add to total spent for sale %s: %w", sale.ID, err)
				}
			}

			if err := s.saleRepo.WithDB(tx).MarkSaleApplied(ctx, sale.ID); err != nil {
				return fmt.Errorf("mark sale applied %s: %w", sale.ID, err)
			}

			if err := s.queueSaleEvents(ctx, tx, sale, lowStock); err != nil {
				return err
			}

			applied = append(applied, sale.ID)
		}

		return nil
	}); err != nil {
		return nil, nil, err
	}

	return applied, skipped, nil
}

func (s *saleService) validateParams(params CommitSaleParams) error {
	if len(params.Items) == 0 {
		return apperr.EmptySaleErr
	}
	if err := s.validator.Validate(params); err != nil {
		return err
	}
	if params.Discount.IsNegative() {
		return apperr.ValidationErr.WithMsg("discount cannot be negative")
	}
	return nil
}

// buildSale snapshots product names and sale prices into line items and
// computes totals. Runs inside the commit transaction so snapshots and
// decrements see the same state.
func (s *saleService) buildSale(ctx context.Context, tx db.DB, params CommitSaleParams, state model.StockState) (model.Sale, error) {
	saleID, err := uuid.NewV7()
	if err != nil {
		return model.Sale{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	if params.CustomerID != nil {
		customer, err := s.customerRepo.WithDB(tx).GetCustomer(ctx, *params.CustomerID)
		if err != nil {
			return model.Sale{}, fmt.Errorf("get customer: %w", err)
		}
		if customer.Deleted {
			return model.Sale{}, apperr.CustomerDeletedErr
		}
	}

	productRepo := s.productRepo.WithDB(tx)
	items := make([]model.SaleItem, 0, len(params.Items))
	total := decimal.Zero
	for _, itemParams := range params.Items {
		product, err := productRepo.GetProduct(ctx, itemParams.ProductID)
		if err != nil {
			return model.Sale{}, fmt.Errorf("get product: %w", err)
		}

		itemID, err := uuid.NewV7()
		if err != nil {
			return model.Sale{}, fmt.Errorf("generate uuid v7: %w", err)
		}

		lineTotal := product.SalePrice.Mul(decimal.NewFromInt(int64(itemParams.Quantity)))
		items = append(items, model.SaleItem{
			ID:        itemID,
			SaleID:    saleID,
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  itemParams.Quantity,
			UnitPrice: product.SalePrice,
			LineTotal: lineTotal,
		})
		total = total.Add(lineTotal)
	}

	finalAmount := total.Sub(params.Discount)
	if finalAmount.IsNegative() {
		return model.Sale{}, apperr.ValidationErr.WithMsg("discount cannot exceed items total")
	}
	if params.FinalAmount != nil && !params.FinalAmount.Equal(finalAmount) {
		return model.Sale{}, apperr.AmountMismatchErr
	}

	return model.Sale{
		ID:          saleID,
		CustomerID:  params.CustomerID,
		Items:       items,
		FinalAmount: finalAmount,
		Discount:    params.Discount,
		StockState:  state,
		CreatedAt:   time.Now(),
	}, nil
}

type lowStockProduct struct {
	product   model.Product
	remaining int
}

// applyStockDeltas accumulates per-product quantities across line items and
// issues one conditional decrement per product. Product ids are processed in
// byte order so concurrent multi-product sales lock rows in the same order.
// On failure the deltas already applied are returned so the caller can
// compensate when it does not abort the whole transaction.
func (s *saleService) applyStockDeltas(ctx context.Context, tx db.DB, sale model.Sale) ([]lowStockProduct, map[uuid.UUID]int, error) {
	deltas := make(map[uuid.UUID]int, len(sale.Items))
	for _, item := range sale.Items {
		deltas[item.ProductID] += item.Quantity
	}

	ids := make([]uuid.UUID, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})

	productRepo := s.productRepo.WithDB(tx)
	appliedDeltas := make(map[uuid.UUID]int, len(ids))
	var lowStock []lowStockProduct
	for _, id := range ids {
		remaining, err := productRepo.DecrementQuantity(ctx, id, deltas[id])
		if err != nil {
			return nil, appliedDeltas, fmt.Errorf("decrement quantity for product %s: %w", id, err)
		}
		appliedDeltas[id] = deltas[id]

		product, err := productRepo.GetProduct(ctx, id)
		if err != nil {
			return nil, appliedDeltas, fmt.Errorf("get product after decrement: %w", err)
		}
		if remaining <= product.MinQuantity {
			lowStock = append(lowStock, lowStockProduct{product: product, remaining: remaining})
		}
	}

	return lowStock, appliedDeltas, nil
}

func (s *saleService) queueSaleEvents(ctx context.Context, tx db.DB, sale model.Sale, lowStock []lowStockProduct) error {
	outboxRepo := s.outboxRepo.WithDB(tx)

	ev := event.SaleCompletedEvent{
		SaleID:      sale.ID.String(),
		FinalAmount: sale.FinalAmount.String(),
	}
	if sale.CustomerID != nil {
		customerID := sale.CustomerID.String()
		ev.CustomerID = &customerID
	}
	for _, item := range sale.Items {
		ev.Items = append(ev.Items, event.SaleCompletedItem{
			ProductID: item.ProductID.String(),
			Name:      item.Name,
			Quantity:  item.Quantity,
		})
	}

	evBytes, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal sale completed event: %w", err)
	}

	saleID := sale.ID.String()
	if err := outboxRepo.CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
		Topic:        event.TopicSaleCompleted,
		Payload:      evBytes,
		PartitionKey: &saleID,
	}); err != nil {
		return fmt.Errorf("create sale completed outbox msg: %w", err)
	}

	for _, ls := range lowStock {
		lsEv := event.ProductLowStockEvent{
			ProductID:   ls.product.ID.String(),
			Name:        ls.product.Name,
			Quantity:    ls.remaining,
			MinQuantity: ls.product.MinQuantity,
		}
		lsBytes, err := json.Marshal(lsEv)
		if err != nil {
			return fmt.Errorf("marshal low stock event: %w", err)
		}

		productID := ls.product.ID.String()
		if err := outboxRepo.CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
			Topic:        event.TopicProductLowStock,
			Payload:      lsBytes,
			PartitionKey: &productID,
		}); err != nil {
			return fmt.Errorf("create low stock outbox msg: %w", err)
		}
	}

	return nil
}
