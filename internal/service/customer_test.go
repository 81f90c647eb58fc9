package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/apperr"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/service"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/pkg/validator"
)

func newCustomerService(t *testing.T) (service.CustomerService, *fakeStore) {
	t.Helper()

	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)

	store := newFakeStore()
	return service.NewCustomerService(&fakeCustomerRepo{store: store}, v), store
}

func TestCustomerService(t *testing.T) {
	ctx := context.Background()

	t.Run("Should create a customer with a zero ledger", func(t *testing.T) {
		svc, _ := newCustomerService(t)

		customer, err := svc.CreateCustomer(ctx, service.CreateCustomerParams{
			Name:  "Ali Veli",
			Phone: "+90 555 000 0001",
		})
		require.NoError(t, err)
		assert.True(t, customer.TotalSpent.IsZero())
		assert.False(t, customer.Deleted)
	})

	t.Run("Should reject an invalid phone number", func(t *testing.T) {
		svc, _ := newCustomerService(t)

		_, err := svc.CreateCustomer(ctx, service.CreateCustomerParams{
			Name:  "Ali Veli",
			Phone: "not-a-phone!",
		})
		require.Error(t, err)
	})

	t.Run("Should soft delete and hide the customer from lists", func(t *testing.T) {
		svc, store := newCustomerService(t)

		customer, err := svc.CreateCustomer(ctx, service.CreateCustomerParams{Name: "Ali Veli"})
		require.NoError(t, err)

		require.NoError(t, svc.DeleteCustomer(ctx, customer.ID))

		customers, err := svc.ListCustomers(ctx)
		require.NoError(t, err)
		assert.Empty(t, customers)

		// the row itself survives for sales history
		store.mu.Lock()
		kept, ok := store.customers[customer.ID]
		store.mu.Unlock()
		require.True(t, ok)
		assert.True(t, kept.Deleted)
	})

	t.Run("Should not delete twice", func(t *testing.T) {
		svc, _ := newCustomerService(t)

		customer, err := svc.CreateCustomer(ctx, service.CreateCustomerParams{Name: "Ali Veli"})
		require.NoError(t, err)

		require.NoError(t, svc.DeleteCustomer(ctx, customer.ID))
		require.ErrorIs(t, svc.DeleteCustomer(ctx, customer.ID), apperr.CustomerNotFoundErr)
	})

	t.Run("Should search by name and phone", func(t *testing.T) {
		svc, _ := newCustomerService(t)

		_, err := svc.CreateCustomer(ctx, service.CreateCustomerParams{Name: "Ayse Yilmaz", Phone: "+90 532 111 2233"})
		require.NoError(t, err)
		_, err = svc.CreateCustomer(ctx, service.CreateCustomerParams{Name: "Mehmet Demir", Phone: "+90 542 444 5566"})
		require.NoError(t, err)

		byName, err := svc.SearchCustomers(ctx, "ayse")
		require.NoError(t, err)
		require.Len(t, byName, 1)
		assert.Equal(t, "Ayse Yilmaz", byName[0].Name)

		byPhone, err := svc.SearchCustomers(ctx, "542")
		require.NoError(t, err)
		require.Len(t, byPhone, 1)
		assert.Equal(t, "Mehmet Demir", byPhone[0].Name)
	})
}
