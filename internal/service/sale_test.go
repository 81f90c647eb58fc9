package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/apperr"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/event"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/model"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/repository"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/service"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/pkg/validator"
)

type saleFixture struct {
	store   *fakeStore
	svc     service.SaleService
	product *fakeProductRepo
}

func newSaleFixture(t *testing.T) *saleFixture {
	t.Helper()

	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)

	store := newFakeStore()
	productRepo := &fakeProductRepo{store: store}
	svc := service.NewSaleService(
		newFakeDB(store),
		&fakeSaleRepo{store: store},
		productRepo,
		&fakeCustomerRepo{store: store},
		&fakeOutboxRepo{store: store},
		v,
	)

	return &saleFixture{store: store, svc: svc, product: productRepo}
}

func (f *saleFixture) seedProduct(t *testing.T, quantity int, salePrice string) model.Product {
	t.Helper()

	product := model.Product{
		ID:          uuid.Must(uuid.NewV7()),
		Barcode:     uuid.NewString()[:12],
		Name:        "test product",
		Quantity:    quantity,
		MinQuantity: 1,
		SalePrice:   decimal.RequireFromString(salePrice),
	}
	require.NoError(t, f.product.CreateProduct(context.Background(), product))
	return product
}

func (f *saleFixture) seedCustomer(t *testing.T) model.Customer {
	t.Helper()

	customer := model.Customer{
		ID:   uuid.Must(uuid.NewV7()),
		Name: "test customer",
	}
	repo := &fakeCustomerRepo{store: f.store}
	require.NoError(t, repo.CreateCustomer(context.Background(), customer))
	return customer
}

func TestCommitSale(t *testing.T) {
	ctx := context.Background()

	t.Run("Should decrement stock and record the sale atomically", func(t *testing.T) {
		f := newSaleFixture(t)
		product := f.seedProduct(t, 10, "25.50")

		sale, err := f.svc.CommitSale(ctx, service.CommitSaleParams{
			Items: []service.CommitSaleItemParams{
				{ProductID: product.ID, Quantity: 4},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, model.StockStateApplied, sale.StockState)
		assert.True(t, sale.FinalAmount.Equal(decimal.RequireFromString("102")))

		got, err := f.product.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, got.Quantity)

		assert.Contains(t, f.store.outboxTopics(), event.TopicSaleCompleted)
	})

	t.Run("Should reject the whole sale when stock is insufficient", func(t *testing.T) {
		f := newSaleFixture(t)
		product := f.seedProduct(t, 2, "10")

		_, err := f.svc.CommitSale(ctx, service.CommitSaleParams{
			Items: []service.CommitSaleItemParams{
				{ProductID: product.ID, Quantity: 4},
			},
		})
		require.ErrorIs(t, err, apperr.InsufficientStockErr)

		got, err := f.product.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Quantity, "stock must be untouched")
		assert.Empty(t, f.store.sales, "no sale row may exist")
		assert.Empty(t, f.store.outbox, "no events may be queued")
	})

	t.Run("Should roll back earlier decrements when a later line fails", func(t *testing.T) {
		f := newSaleFixture(t)
		first := f.seedProduct(t, 10, "5")
		second := f.seedProduct(t, 1, "5")

		_, err := f.svc.CommitSale(ctx, service.CommitSaleParams{
			Items: []service.CommitSaleItemParams{
				{ProductID: first.ID, Quantity: 3},
				{ProductID: second.ID, Quantity: 2},
			},
		})
		require.ErrorIs(t, err, apperr.InsufficientStockErr)

		gotFirst, err := f.product.GetProduct(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, gotFirst.Quantity)

		gotSecond, err := f.product.GetProduct(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, gotSecond.Quantity)
	})

	t.Run("Should aggregate repeated lines for the same product", func(t *testing.T) {
		f := newSaleFixture(t)
		product := f.seedProduct(t, 10, "10")

		_, err := f.svc.CommitSale(ctx, service.CommitSaleParams{
			Items: []service.CommitSaleItemParams{
				{ProductID: product.ID, Quantity: 3},
				{ProductID: product.ID, Quantity: 2},
			},
		})
		require.NoError(t, err)

		got, err := f.product.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Quantity)
	})

	t.Run("Should reject an empty sale without touching the store", func(t *testing.T) {
		f := newSaleFixture(t)

		_, err := f.svc.CommitSale(ctx, service.CommitSaleParams{})
		require.ErrorIs(t, err, apperr.EmptySaleErr)
		assert.Empty(t, f.store.sales)
		assert.Empty(t, f.store.outbox)
	})

	t.Run("Should reject a mismatched final amount", func(t *testing.T) {
		f := newSaleFixture(t)
		product := f.seedProduct(t, 10, "10")

		wrong := decimal.RequireFromString("99")
		_, err := f.svc.CommitSale(ctx, service.CommitSaleParams{
			Items: []service.CommitSaleItemParams{
				{ProductID: product.ID, Quantity: 2},
			},
			FinalAmount: &wrong,
		})
		require.ErrorIs(t, err, apperr.AmountMismatchErr)

		got, err := f.product.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, got.Quantity)
		assert.Empty(t, f.store.sales)
	})

	t.Run("Should reject a negative discount", func(t *testing.T) {
		f := newSaleFixture(t)
		product := f.seedProduct(t, 10, "10")

		_, err := f.svc.CommitSale(ctx, service.CommitSaleParams{
			Items: []service.CommitSaleItemParams{
				{ProductID: product.ID, Quantity: 1},
			},
			Discount: decimal.RequireFromString("-5"),
		})
		require.Error(t, err)
	})

	t.Run("Should reject a discount larger than the items total", func(t *testing.T) {
		f := newSaleFixture(t)
		product := f.seedProduct(t, 10, "10")
		customer := f.seedCustomer(t)

		_, err := f.svc.CommitSale(ctx, service.CommitSaleParams{
			CustomerID: &customer.ID,
			Items: []service.CommitSaleItemParams{
				{ProductID: product.ID, Quantity: 1},
			},
			Discount: decimal.RequireFromString("15"),
		})
		require.ErrorIs(t, err, apperr.ValidationErr)

		got, err := f.product.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, got.Quantity)
		assert.Empty(t, f.store.sales)

		repo := &fakeCustomerRepo{store: f.store}
		gotCustomer, err := repo.GetCustomer(ctx, customer.ID)
		require.NoError(t, err)
		assert.True(t, gotCustomer.TotalSpent.IsZero(), "ledger must never go negative")
	})

	t.Run("Should reject a sale for a deleted customer", func(t *testing.T) {
		f := newSaleFixture(t)
		product := f.seedProduct(t, 10, "10")
		customer := f.seedCustomer(t)

		repo := &fakeCustomerRepo{store: f.store}
		require.NoError(t, repo.SoftDeleteCustomer(ctx, customer.ID))

		_, err := f.svc.CommitSale(ctx, service.CommitSaleParams{
			CustomerID: &customer.ID,
			Items: []service.CommitSaleItemParams{
				{ProductID: product.ID, Quantity: 1},
			},
		})
		require.ErrorIs(t, err, apperr.CustomerDeletedErr)
	})

	t.Run("Should update the customer ledger with the sale amount", func(t *testing.T) {
		f := newSaleFixture(t)
		product := f.seedProduct(t, 100, "50")
		customer := f.seedCustomer(t)

		var wg sync.WaitGroup
		for _, qty := range []int{2, 1, 1} { // 100 + 50 + 50
			wg.Go(func() {
				_, err := f.svc.CommitSale(ctx, service.CommitSaleParams{
					CustomerID: &customer.ID,
					Items: []service.CommitSaleItemParams{
						{ProductID: product.ID, Quantity: qty},
					},
				})
				assert.NoError(t, err)
			})
		}
		wg.Wait()

		repo := &fakeCustomerRepo{store: f.store}
		got, err := repo.GetCustomer(ctx, customer.ID)
		require.NoError(t, err)
		assert.True(t, got.TotalSpent.Equal(decimal.RequireFromString("200")),
			"total spent is %s", got.TotalSpent)
	})

	t.Run("Should snapshot product name and price at sale time", func(t *testing.T) {
		f := newSaleFixture(t)
		product := f.seedProduct(t, 10, "10")

		sale, err := f.svc.CommitSale(ctx, service.CommitSaleParams{
			Items: []service.CommitSaleItemParams{
				{ProductID: product.ID, Quantity: 1},
			},
		})
		require.NoError(t, err)

		newName := "renamed"
		newPrice := "999"
		_, err = f.product.UpdateProduct(ctx, product.ID, repositoryUpdate(newName, newPrice))
		require.NoError(t, err)

		require.Len(t, sale.Items, 1)
		assert.Equal(t, "test product", sale.Items[0].Name)
		assert.True(t, sale.Items[0].UnitPrice.Equal(decimal.RequireFromString("10")))
	})

	t.Run("Should apply every sale exactly once under concurrency", func(t *testing.T) {
		f := newSaleFixture(t)
		product := f.seedProduct(t, 5, "10")

		const attempts = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for range attempts {
			wg.Go(func() {
				_, err := f.svc.CommitSale(ctx, service.CommitSaleParams{
					Items: []service.CommitSaleItemParams{
						{ProductID: product.ID, Quantity: 1},
					},
				})
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				} else {
					assert.ErrorIs(t, err, apperr.InsufficientStockErr)
				}
			})
		}
		wg.Wait()

		assert.Equal(t, 5, succeeded)

		got, err := f.product.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Quantity, "stock must never go negative")
		assert.Len(t, f.store.sales, 5)
	})
}

func TestCommitSaleDeferred(t *testing.T) {
	ctx := context.Background()

	t.Run("Should record the sale without touching stock", func(t *testing.T) {
		f := newSaleFixture(t)
		product := f.seedProduct(t, 10, "10")

		sale, err := f.svc.CommitSaleDeferred(ctx, service.CommitSaleParams{
			Items: []service.CommitSaleItemParams{
				{ProductID: product.ID, Quantity: 4},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, model.StockStatePending, sale.StockState)

		got, err := f.product.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, got.Quantity)
	})
}

func TestReconcilePendingSales(t *testing.T) {
	ctx := context.Background()

	t.Run("Should apply pending sales and mark them applied", func(t *testing.T) {
		f := newSaleFixture(t)
		product := f.seedProduct(t, 10, "10")
		customer := f.seedCustomer(t)

		sale, err := f.svc.CommitSaleDeferred(ctx, service.CommitSaleParams{
			CustomerID: &customer.ID,
			Items: []service.CommitSaleItemParams{
				{ProductID: product.ID, Quantity: 4},
			},
		})
		require.NoError(t, err)

		applied, skipped, err := f.svc.ReconcilePendingSales(ctx, 50)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{sale.ID}, applied)
		assert.Empty(t, skipped)

		got, err := f.product.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, got.Quantity)

		reconciled, err := f.svc.GetSale(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StockStateApplied, reconciled.StockState)

		repo := &fakeCustomerRepo{store: f.store}
		gotCustomer, err := repo.GetCustomer(ctx, customer.ID)
		require.NoError(t, err)
		assert.True(t, gotCustomer.TotalSpent.Equal(decimal.RequireFromString("40")))
	})

	t.Run("Should be idempotent across passes", func(t *testing.T) {
		f := newSaleFixture(t)
		product := f.seedProduct(t, 10, "10")

		_, err := f.svc.CommitSaleDeferred(ctx, service.CommitSaleParams{
			Items: []service.CommitSaleItemParams{
				{ProductID: product.ID, Quantity: 4},
			},
		})
		require.NoError(t, err)

		applied, _, err := f.svc.ReconcilePendingSales(ctx, 50)
		require.NoError(t, err)
		require.Len(t, applied, 1)

		applied, skipped, err := f.svc.ReconcilePendingSales(ctx, 50)
		require.NoError(t, err)
		assert.Empty(t, applied)
		assert.Empty(t, skipped)

		got, err := f.product.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, got.Quantity, "decrement must not be applied twice")
	})

	t.Run("Should skip a sale that cannot be applied and keep it pending", func(t *testing.T) {
		f := newSaleFixture(t)
		scarce := f.seedProduct(t, 1, "10")
		plenty := f.seedProduct(t, 10, "10")

		blocked, err := f.svc.CommitSaleDeferred(ctx, service.CommitSaleParams{
			Items: []service.CommitSaleItemParams{
				{ProductID: scarce.ID, Quantity: 5},
			},
		})
		require.NoError(t, err)

		ok, err := f.svc.CommitSaleDeferred(ctx, service.CommitSaleParams{
			Items: []service.CommitSaleItemParams{
				{ProductID: plenty.ID, Quantity: 2},
			},
		})
		require.NoError(t, err)

		applied, skipped, err := f.svc.ReconcilePendingSales(ctx, 50)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{ok.ID}, applied)
		assert.Equal(t, []uuid.UUID{blocked.ID}, skipped)

		gotScarce, err := f.product.GetProduct(ctx, scarce.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, gotScarce.Quantity)

		gotPlenty, err := f.product.GetProduct(ctx, plenty.ID)
		require.NoError(t, err)
		assert.Equal(t, 8, gotPlenty.Quantity)

		pending, err := f.svc.GetSale(ctx, blocked.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StockStatePending, pending.StockState)
	})

	t.Run("Should compensate partial decrements of a skipped sale", func(t *testing.T) {
		f := newSaleFixture(t)
		first := f.seedProduct(t, 10, "10")
		second := f.seedProduct(t, 1, "10")

		_, err := f.svc.CommitSaleDeferred(ctx, service.CommitSaleParams{
			Items: []service.CommitSaleItemParams{
				{ProductID: first.ID, Quantity: 3},
				{ProductID: second.ID, Quantity: 5},
			},
		})
		require.NoError(t, err)

		applied, skipped, err := f.svc.ReconcilePendingSales(ctx, 50)
		require.NoError(t, err)
		assert.Empty(t, applied)
		require.Len(t, skipped, 1)

		gotFirst, err := f.product.GetProduct(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, gotFirst.Quantity, "partial decrement must be undone")

		gotSecond, err := f.product.GetProduct(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, gotSecond.Quantity)
	})

	t.Run("Should skip a sale whose customer was deleted and apply the rest", func(t *testing.T) {
		f := newSaleFixture(t)
		product := f.seedProduct(t, 10, "10")
		customer := f.seedCustomer(t)

		orphaned, err := f.svc.CommitSaleDeferred(ctx, service.CommitSaleParams{
			CustomerID: &customer.ID,
			Items: []service.CommitSaleItemParams{
				{ProductID: product.ID, Quantity: 3},
			},
		})
		require.NoError(t, err)

		healthy, err := f.svc.CommitSaleDeferred(ctx, service.CommitSaleParams{
			Items: []service.CommitSaleItemParams{
				{ProductID: product.ID, Quantity: 2},
			},
		})
		require.NoError(t, err)

		repo := &fakeCustomerRepo{store: f.store}
		require.NoError(t, repo.SoftDeleteCustomer(ctx, customer.ID))

		applied, skipped, err := f.svc.ReconcilePendingSales(ctx, 50)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{healthy.ID}, applied)
		assert.Equal(t, []uuid.UUID{orphaned.ID}, skipped)

		got, err := f.product.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 8, got.Quantity, "only the healthy sale's decrement must stick")

		pending, err := f.svc.GetSale(ctx, orphaned.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StockStatePending, pending.StockState)
	})
}

func TestListSales(t *testing.T) {
	ctx := context.Background()

	t.Run("Should list sales newest first", func(t *testing.T) {
		f := newSaleFixture(t)
		repo := &fakeSaleRepo{store: f.store}

		older := model.Sale{
			ID:          uuid.New(),
			FinalAmount: decimal.Zero,
			Discount:    decimal.Zero,
			StockState:  model.StockStateApplied,
			CreatedAt:   time.Now().Add(-time.Hour),
		}
		newer := older
		newer.ID = uuid.New()
		newer.CreatedAt = time.Now()
		require.NoError(t, repo.CreateSale(ctx, older))
		require.NoError(t, repo.CreateSale(ctx, newer))

		sales, err := f.svc.ListSales(ctx, service.ListSalesParams{})
		require.NoError(t, err)
		require.Len(t, sales, 2)
		assert.Equal(t, newer.ID, sales[0].ID)
		assert.Equal(t, older.ID, sales[1].ID)
	})
}

func repositoryUpdate(name, salePrice string) repository.UpdateProductParams {
	return repository.UpdateProductParams{
		Name:      &name,
		SalePrice: &salePrice,
	}
}
