package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/apperr"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/model"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/repository"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/storage/db"
)

// fakeStore is a mutex-guarded in-memory stand-in for the database shared by
// the fake repositories. Transactions run under txMu so a rollback can
// restore the pre-transaction snapshot.
type fakeStore struct {
	mu        sync.Mutex
	txMu      sync.Mutex
	products  map[uuid.UUID]model.Product
	customers map[uuid.UUID]model.Customer
	sales     map[uuid.UUID]model.Sale
	users     map[uuid.UUID]model.User
	outbox    []repository.CreateOutboxMsgParams
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:  map[uuid.UUID]model.Product{},
		customers: map[uuid.UUID]model.Customer{},
		sales:     map[uuid.UUID]model.Sale{},
		users:     map[uuid.UUID]model.User{},
	}
}

type storeSnapshot struct {
	products  map[uuid.UUID]model.Product
	customers map[uuid.UUID]model.Customer
	sales     map[uuid.UUID]model.Sale
	users     map[uuid.UUID]model.User
	outbox    []repository.CreateOutboxMsgParams
}

func (s *fakeStore) snapshot() storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := storeSnapshot{
		products:  make(map[uuid.UUID]model.Product, len(s.products)),
		customers: make(map[uuid.UUID]model.Customer, len(s.customers)),
		sales:     make(map[uuid.UUID]model.Sale, len(s.sales)),
		users:     make(map[uuid.UUID]model.User, len(s.users)),
		outbox:    append([]repository.CreateOutboxMsgParams(nil), s.outbox...),
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.customers {
		snap.customers[k] = v
	}
	for k, v := range s.sales {
		v.Items = append([]model.SaleItem(nil), v.Items...)
		snap.sales[k] = v
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	return snap
}

func (s *fakeStore) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = snap.products
	s.customers = snap.customers
	s.sales = snap.sales
	s.users = snap.users
	s.outbox = snap.outbox
}

// fakeDB satisfies db.DB. The raw query methods are never reached because the
// fake repositories operate on the store directly.
type fakeDB struct {
	store *fakeStore
}

func newFakeDB(store *fakeStore) *fakeDB {
	return &fakeDB{store: store}
}

func (f *fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("fakeDB: Exec not implemented")
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("fakeDB: Query not implemented")
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("fakeDB: QueryRow not implemented")
}

func (f *fakeDB) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("fakeDB: CopyFrom not implemented")
}

func (f *fakeDB) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("fakeDB: SendBatch not implemented")
}

func (f *fakeDB) WithTx(_ context.Context, txFunc func(db.DB) error) error {
	f.store.txMu.Lock()
	defer f.store.txMu.Unlock()

	snap := f.store.snapshot()
	if err := txFunc(f); err != nil {
		f.store.restore(snap)
		return err
	}
	return nil
}

type fakeProductRepo struct {
	store *fakeStore
}

var _ repository.ProductRepository = (*fakeProductRepo)(nil)

func (r *fakeProductRepo) WithDB(db.DB) repository.ProductRepository { return r }

func (r *fakeProductRepo) CreateProduct(_ context.Context, product model.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, p := range r.store.products {
		if p.Barcode == product.Barcode {
			return apperr.DuplicateBarcodeErr
		}
	}
	r.store.products[product.ID] = product
	return nil
}

func (r *fakeProductRepo) UpdateProduct(_ context.Context, id uuid.UUID, params repository.UpdateProductParams) (model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.products[id]
	if !ok {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	if params.Name != nil {
		p.Name = *params.Name
	}
	if params.Brand != nil {
		p.Brand = *params.Brand
	}
	if params.Category != nil {
		p.Category = *params.Category
	}
	if params.Quantity != nil {
		p.Quantity = *params.Quantity
	}
	if params.MinQuantity != nil {
		p.MinQuantity = *params.MinQuantity
	}
	if params.PurchasePrice != nil {
		d, err := decimal.NewFromString(*params.PurchasePrice)
		if err != nil {
			return model.Product{}, err
		}
		p.PurchasePrice = d
	}
	if params.SalePrice != nil {
		d, err := decimal.NewFromString(*params.SalePrice)
		if err != nil {
			return model.Product{}, err
		}
		p.SalePrice = d
	}
	if params.UnitType != nil {
		p.UnitType = *params.UnitType
	}
	if params.PackageQuantity != nil {
		p.PackageQuantity = *params.PackageQuantity
	}
	if params.Description != nil {
		p.Description = *params.Description
	}
	r.store.products[id] = p
	return p, nil
}

func (r *fakeProductRepo) DeleteProduct(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.products[id]; !ok {
		return apperr.ProductNotFoundErr
	}
	for _, sale := range r.store.sales {
		for _, item := range sale.Items {
			if item.ProductID == id {
				return apperr.ProductReferencedErr
			}
		}
	}
	delete(r.store.products, id)
	return nil
}

func (r *fakeProductRepo) GetProduct(_ context.Context, id uuid.UUID) (model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.products[id]
	if !ok {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	return p, nil
}

func (r *fakeProductRepo) GetProductByBarcode(_ context.Context, barcode string) (model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, p := range r.store.products {
		if p.Barcode == barcode {
			return p, nil
		}
	}
	return model.Product{}, apperr.ProductNotFoundErr
}

func (r *fakeProductRepo) ListProducts(_ context.Context, brandFilter, categoryFilter string) ([]model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var products []model.Product
	for _, p := range r.store.products {
		if brandFilter != "" && !strings.Contains(strings.ToLower(p.Brand), strings.ToLower(brandFilter)) {
			continue
		}
		if categoryFilter != "" && !strings.Contains(strings.ToLower(p.Category), strings.ToLower(categoryFilter)) {
			continue
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (r *fakeProductRepo) ListLowStockProducts(_ context.Context) ([]model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var products []model.Product
	for _, p := range r.store.products {
		if p.LowStock() {
			products = append(products, p)
		}
	}
	return products, nil
}

func (r *fakeProductRepo) ListBrandsAndCategories(_ context.Context) ([]string, []string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	brandSet := map[string]struct{}{}
	categorySet := map[string]struct{}{}
	for _, p := range r.store.products {
		if p.Brand != "" {
			brandSet[p.Brand] = struct{}{}
		}
		if p.Category != "" {
			categorySet[p.Category] = struct{}{}
		}
	}
	var brands, categories []string
	for b := range brandSet {
		brands = append(brands, b)
	}
	for c := range categorySet {
		categories = append(categories, c)
	}
	sort.Strings(brands)
	sort.Strings(categories)
	return brands, categories, nil
}

func (r *fakeProductRepo) CountProducts(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.products)), nil
}

func (r *fakeProductRepo) CountLowStockProducts(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var n int64
	for _, p := range r.store.products {
		if p.LowStock() {
			n++
		}
	}
	return n, nil
}

func (r *fakeProductRepo) DecrementQuantity(_ context.Context, id uuid.UUID, n int) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.products[id]
	if !ok {
		return 0, apperr.ProductNotFoundErr
	}
	if p.Quantity < n {
		return 0, apperr.InsufficientStockErr
	}
	p.Quantity -= n
	r.store.products[id] = p
	return p.Quantity, nil
}

func (r *fakeProductRepo) IncrementQuantity(_ context.Context, id uuid.UUID, n int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.products[id]
	if !ok {
		return apperr.ProductNotFoundErr
	}
	p.Quantity += n
	r.store.products[id] = p
	return nil
}

type fakeCustomerRepo struct {
	store *fakeStore
}

var _ repository.CustomerRepository = (*fakeCustomerRepo)(nil)

func (r *fakeCustomerRepo) WithDB(db.DB) repository.CustomerRepository { return r }

func (r *fakeCustomerRepo) CreateCustomer(_ context.Context, customer model.Customer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.customers[customer.ID] = customer
	return nil
}

func (r *fakeCustomerRepo) UpdateCustomer(_ context.Context, id uuid.UUID, params repository.UpdateCustomerParams) (model.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c, ok := r.store.customers[id]
	if !ok || c.Deleted {
		return model.Customer{}, apperr.CustomerNotFoundErr
	}
	if params.Name != nil {
		c.Name = *params.Name
	}
	if params.Phone != nil {
		c.Phone = *params.Phone
	}
	r.store.customers[id] = c
	return c, nil
}

func (r *fakeCustomerRepo) SoftDeleteCustomer(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c, ok := r.store.customers[id]
	if !ok || c.Deleted {
		return apperr.CustomerNotFoundErr
	}
	c.Deleted = true
	r.store.customers[id] = c
	return nil
}

func (r *fakeCustomerRepo) GetCustomer(_ context.Context, id uuid.UUID) (model.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c, ok := r.store.customers[id]
	if !ok {
		return model.Customer{}, apperr.CustomerNotFoundErr
	}
	return c, nil
}

func (r *fakeCustomerRepo) ListCustomers(_ context.Context) ([]model.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var customers []model.Customer
	for _, c := range r.store.customers {
		if !c.Deleted {
			customers = append(customers, c)
		}
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].Name < customers[j].Name })
	return customers, nil
}

func (r *fakeCustomerRepo) SearchCustomers(_ context.Context, query string, _ int32) ([]model.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	q := strings.ToLower(query)
	var customers []model.Customer
	for _, c := range r.store.customers {
		if c.Deleted {
			continue
		}
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(c.Phone, query) {
			customers = append(customers, c)
		}
	}
	return customers, nil
}

func (r *fakeCustomerRepo) AddToTotalSpent(_ context.Context, id uuid.UUID, amount decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c, ok := r.store.customers[id]
	if !ok || c.Deleted {
		return apperr.CustomerNotFoundErr
	}
	c.TotalSpent = c.TotalSpent.Add(amount)
	r.store.customers[id] = c
	return nil
}

type fakeSaleRepo struct {
	store *fakeStore
}

var _ repository.SaleRepository = (*fakeSaleRepo)(nil)

func (r *fakeSaleRepo) WithDB(db.DB) repository.SaleRepository { return r }

func (r *fakeSaleRepo) CreateSale(_ context.Context, sale model.Sale) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sale.Items = append([]model.SaleItem(nil), sale.Items...)
	r.store.sales[sale.ID] = sale
	return nil
}

func (r *fakeSaleRepo) GetSale(_ context.Context, id uuid.UUID) (model.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sale, ok := r.store.sales[id]
	if !ok {
		return model.Sale{}, apperr.SaleNotFoundErr
	}
	return sale, nil
}

func (r *fakeSaleRepo) ListSales(_ context.Context, params repository.ListSalesParams) ([]model.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var sales []model.Sale
	for _, s := range r.store.sales {
		if params.Start != nil && s.CreatedAt.Before(*params.Start) {
			continue
		}
		if params.End != nil && s.CreatedAt.After(*params.End) {
			continue
		}
		sales = append(sales, s)
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].CreatedAt.After(sales[j].CreatedAt) })
	return sales, nil
}

func (r *fakeSaleRepo) ListSalesByCustomer(_ context.Context, customerID uuid.UUID, _ int32) ([]model.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var sales []model.Sale
	for _, s := range r.store.sales {
		if s.CustomerID != nil && *s.CustomerID == customerID {
			sales = append(sales, s)
		}
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].CreatedAt.After(sales[j].CreatedAt) })
	return sales, nil
}

func (r *fakeSaleRepo) ListPendingSales(_ context.Context, batchSize int32) ([]model.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var sales []model.Sale
	for _, s := range r.store.sales {
		if s.StockState == model.StockStatePending {
			sales = append(sales, s)
		}
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].CreatedAt.Before(sales[j].CreatedAt) })
	if int32(len(sales)) > batchSize {
		sales = sales[:batchSize]
	}
	return sales, nil
}

func (r *fakeSaleRepo) MarkSaleApplied(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, ok := r.store.sales[id]
	if !ok || s.StockState != model.StockStatePending {
		return apperr.SaleNotFoundErr
	}
	s.StockState = model.StockStateApplied
	r.store.sales[id] = s
	return nil
}

func (r *fakeSaleRepo) CountAndRevenueSince(_ context.Context, since time.Time) (int64, decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var count int64
	revenue := decimal.Zero
	for _, s := range r.store.sales {
		if s.CreatedAt.Before(since) {
			continue
		}
		count++
		revenue = revenue.Add(s.FinalAmount)
	}
	return count, revenue, nil
}

type fakeOutboxRepo struct {
	store *fakeStore
}

var _ repository.OutboxMsgRepository = (*fakeOutboxRepo)(nil)

func (r *fakeOutboxRepo) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (r *fakeOutboxRepo) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.outbox = append(r.store.outbox, params)
	return nil
}

func (r *fakeOutboxRepo) ListUnprocessedOutboxMsgs(context.Context, repository.ListUnprocessedOutboxMsgsParams) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) BulkUpdateOutboxMsgs(context.Context, repository.BulkUpdateOutboxMsgsParams) error {
	return nil
}

func (s *fakeStore) outboxTopics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	topics := make([]string, 0, len(s.outbox))
	for _, msg := range s.outbox {
		topics = append(topics, msg.Topic)
	}
	return topics
}

type fakeUserRepo struct {
	store *fakeStore
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func (r *fakeUserRepo) WithDB(db.DB) repository.UserRepository { return r }

func (r *fakeUserRepo) CreateUser(_ context.Context, user model.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, u := range r.store.users {
		if u.Username == user.Username {
			return apperr.DuplicateUsernameErr
		}
	}
	r.store.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetUser(_ context.Context, id uuid.UUID) (model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok {
		return model.User{}, apperr.UserNotFoundErr
	}
	return u, nil
}

func (r *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, u := range r.store.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, apperr.UserNotFoundErr
}

func (r *fakeUserRepo) ListUsers(_ context.Context) ([]model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var users []model.User
	for _, u := range r.store.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (r *fakeUserRepo) UpdateUser(_ context.Context, id uuid.UUID, params repository.UpdateUserParams) (model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok {
		return model.User{}, apperr.UserNotFoundErr
	}
	if params.Username != nil {
		u.Username = *params.Username
	}
	if params.Email != nil {
		u.Email = *params.Email
	}
	if params.Role != nil {
		u.Role = *params.Role
	}
	if params.PasswordHash != nil {
		u.PasswordHash = *params.PasswordHash
	}
	r.store.users[id] = u
	return u, nil
}

func (r *fakeUserRepo) DeleteUser(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[id]; !ok {
		return apperr.UserNotFoundErr
	}
	delete(r.store.users, id)
	return nil
}
