package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/brioso-market/internal/model"
	"github.com/flicky/brioso-market/internal/storage"
)

type failingBackend struct{ *storage.MemoryBackend }

func (failingBackend) Commit(context.Context, []storage.Write) error {
	return errors.New("disk full")
}

func seededStore(t *testing.T) *storage.Store {
	t.Helper()
	store := storage.New(storage.NewMemoryBackend(), "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, _, err := store.SeedIfEmpty(context.Background())
	require.NoError(t, err)
	return store
}

func ptr[T any](v T) *T { return &v }

// ---------- users ----------

func TestUserRepository_CreateAssignsNextID(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(seededStore(t))

	u := &model.User{Name: "Ana", Email: "ana@example.com", Password: "secret1"}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, int64(5), u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := repo.GetByEmail(ctx, "  ANA@example.com ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
}

func TestUserRepository_GetMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(seededStore(t))

	u, err := repo.GetByID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserRepository_UpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(seededStore(t))

	u, err := repo.Update(ctx, 2, UserPatch{Phone: ptr("555-9999")})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "555-9999", u.Phone)
	assert.Equal(t, "Juan Pérez", u.Name)

	missing, err := repo.Update(ctx, 99, UserPatch{Name: ptr("x")})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// ---------- products ----------

func TestProductRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	repo := NewProductRepository(store)

	_, err := repo.SetStock(ctx, 7, 3)
	require.NoError(t, err)
	_, err = repo.SetStock(ctx, 6, 0)
	require.NoError(t, err)

	all, err := repo.List(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 9)

	mine, err := repo.List(ctx, ProductFilter{SellerID: 2})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	low, err := repo.List(ctx, ProductFilter{Availability: AvailabilityLowStock})
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, int64(7), low[0].ID)

	out, err := repo.List(ctx, ProductFilter{Availability: AvailabilityOutOfStock})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(6), out[0].ID)

	avail, err := repo.List(ctx, ProductFilter{Availability: AvailabilityInStock})
	require.NoError(t, err)
	assert.Len(t, avail, 8)

	found, err := repo.List(ctx, ProductFilter{Search: "italian"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Espresso Italiano", found[0].Name)
}

func TestProductRepository_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(seededStore(t))

	p := &model.Product{Name: "Geisha", Price: decimal.RequireFromString("48.00"), SellerID: 3, Stock: 4}
	require.NoError(t, repo.Create(ctx, p))
	assert.Equal(t, int64(10), p.ID)

	updated, err := repo.Update(ctx, p.ID, ProductPatch{Price: ptr(decimal.RequireFromString("45.50"))})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("45.50")))
	assert.Equal(t, "Geisha", updated.Name)

	missing, err := repo.Update(ctx, 404, ProductPatch{Name: ptr("x")})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProductRepository_DeleteCascadesToEveryCart(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	products := NewProductRepository(store)
	carts := NewCartRepository(store)

	_, err := carts.AddItem(ctx, 2, 4, 1)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, 3, 4, 2)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, 3, 1, 1)
	require.NoError(t, err)

	ok, err := products.Delete(ctx, 4)
	require.NoError(t, err)
	assert.True(t, ok)

	p, err := products.GetByID(ctx, 4)
	require.NoError(t, err)
	assert.Nil(t, p)

	c2, err := carts.Get(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, c2)

	c3, err := carts.Get(ctx, 3)
	require.NoError(t, err)
	require.Len(t, c3, 1)
	assert.Equal(t, int64(1), c3[0].ProductID)

	ok, err = products.Delete(ctx, 4)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductRepository_DeletedIDIsNotReissued(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	products := NewProductRepository(store)
	carts := NewCartRepository(store)
	transactions := NewTransactionRepository(store)

	_, err := carts.AddItem(ctx, 2, 9, 1)
	require.NoError(t, err)
	sold, err := transactions.ProcessCartPurchase(ctx, 2, "Efectivo")
	require.NoError(t, err)
	require.Len(t, sold, 1)
	assert.Equal(t, int64(9), sold[0].ProductID)

	ok, err := products.Delete(ctx, 9)
	require.NoError(t, err)
	require.True(t, ok)

	blend := &model.Product{Name: "Nuevo Blend", Price: decimal.RequireFromString("99.00"), SellerID: 3, Stock: 5}
	require.NoError(t, products.Create(ctx, blend))
	assert.Equal(t, int64(10), blend.ID)

	// the old sale must not resolve to the new product
	p, err := products.GetByID(ctx, sold[0].ProductID)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProductRepository_IDsSurviveDeletingEverything(t *testing.T) {
	ctx := context.Background()
	store := storage.New(storage.NewMemoryBackend(), "test", nil)
	products := NewProductRepository(store)

	first := &model.Product{Name: "Uno", Price: decimal.NewFromInt(1)}
	require.NoError(t, products.Create(ctx, first))
	assert.Equal(t, int64(1), first.ID)
	_, err := products.Delete(ctx, first.ID)
	require.NoError(t, err)

	second := &model.Product{Name: "Dos", Price: decimal.NewFromInt(2)}
	require.NoError(t, products.Create(ctx, second))
	assert.Equal(t, int64(2), second.ID)
}

func TestProductRepository_CheckStock(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(seededStore(t))

	check, err := repo.CheckStock(ctx, 2, 30)
	require.NoError(t, err)
	assert.Equal(t, StockCheck{Available: true, CurrentStock: 30}, check)

	check, err = repo.CheckStock(ctx, 2, 31)
	require.NoError(t, err)
	assert.False(t, check.Available)

	check, err = repo.CheckStock(ctx, 404, 1)
	require.NoError(t, err)
	assert.Equal(t, StockCheck{}, check)
}

func TestProductRepository_ReduceStock(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(seededStore(t))

	p, err := repo.ReduceStock(ctx, 7, 5)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)

	_, err = repo.ReduceStock(ctx, 7, 11)
	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 10, stockErr.Available)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	again, err := repo.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 10, again.Stock)

	_, err = repo.ReduceStock(ctx, 404, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

// ---------- cart ----------

func TestCartRepository_AddMergesAndChecksCombinedStock(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	_, err := NewProductRepository(store).SetStock(ctx, 5, 10)
	require.NoError(t, err)
	carts := NewCartRepository(store)

	_, err = carts.AddItem(ctx, 2, 5, 3)
	require.NoError(t, err)
	items, err := carts.AddItem(ctx, 2, 5, 4)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)

	_, err = carts.AddItem(ctx, 2, 5, 5)
	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 7, stockErr.InCart)
	assert.Equal(t, "not enough stock: only 10 units left and you already have 7 in your cart", err.Error())

	items, err = carts.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 7, items[0].Quantity)
}

func TestCartRepository_AddRejects(t *testing.T) {
	ctx := context.Background()
	carts := NewCartRepository(seededStore(t))

	_, err := carts.AddItem(ctx, 2, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = carts.AddItem(ctx, 2, 404, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = carts.AddItem(ctx, 2, 2, 31)
	assert.EqualError(t, err, "not enough stock: only 30 units left")

	items, err := carts.Get(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartRepository_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	carts := NewCartRepository(seededStore(t))

	_, err := carts.AddItem(ctx, 2, 1, 1)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, 2, 2, 2)
	require.NoError(t, err)

	items, err := carts.RemoveItem(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = carts.RemoveItem(ctx, 2, 404)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, carts.Clear(ctx, 2))
	items, err = carts.Get(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, items)
}

// ---------- transactions ----------

func TestProcessCartPurchase_Success(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	products := NewProductRepository(store)
	carts := NewCartRepository(store)
	txs := NewTransactionRepository(store)

	_, err := carts.AddItem(ctx, 2, 2, 2)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, 2, 8, 1)
	require.NoError(t, err)

	created, err := txs.ProcessCartPurchase(ctx, 2, "Efectivo")
	require.NoError(t, err)
	require.Len(t, created, 2)

	assert.Equal(t, int64(1), created[0].ID)
	assert.Equal(t, int64(2), created[1].ID)
	assert.Equal(t, int64(1), created[0].SellerID)
	assert.Equal(t, int64(4), created[1].SellerID)
	assert.True(t, created[0].TotalPrice.Equal(decimal.RequireFromString("65.00")))
	assert.Equal(t, "Efectivo", created[1].PaymentMethod)

	p2, err := products.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 28, p2.Stock)
	p8, err := products.GetByID(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, 44, p8.Stock)

	cart, err := carts.Get(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, cart)

	bought, err := txs.ListByBuyer(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, bought, 2)
	sold, err := txs.ListBySeller(ctx, 4)
	require.NoError(t, err)
	assert.Len(t, sold, 1)

	one, err := txs.GetByID(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, int64(8), one.ProductID)
}

func TestProcessCartPurchase_EmptyCart(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	txs := NewTransactionRepository(store)

	_, err := txs.ProcessCartPurchase(ctx, 2, "Efectivo")
	assert.ErrorIs(t, err, ErrEmptyCart)

	list, err := txs.ListByBuyer(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProcessCartPurchase_FailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	products := NewProductRepository(store)
	carts := NewCartRepository(store)
	txs := NewTransactionRepository(store)

	_, err := carts.AddItem(ctx, 2, 1, 5)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, 2, 7, 10)
	require.NoError(t, err)
	// Someone else bought most of product 7 after it went into the cart.
	_, err = products.SetStock(ctx, 7, 4)
	require.NoError(t, err)

	_, err = txs.ProcessCartPurchase(ctx, 2, "Efectivo")
	var purchaseErr *PurchaseError
	require.ErrorAs(t, err, &purchaseErr)
	assert.Equal(t, []string{"Orgánico Premium (insufficient stock: 4 available, 10 requested)"}, purchaseErr.FailedItems)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	p1, err := products.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 50, p1.Stock)

	cart, err := carts.Get(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, cart, 2)

	list, err := txs.ListByBuyer(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProcessCartPurchase_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	require.NoError(t, store.Update(ctx, func(tx *storage.Tx) error {
		return tx.SetCart(2, []model.CartItem{{ProductID: 77, Quantity: 1}})
	}))

	_, err := NewTransactionRepository(store).ProcessCartPurchase(ctx, 2, "Efectivo")
	var purchaseErr *PurchaseError
	require.ErrorAs(t, err, &purchaseErr)
	assert.Equal(t, []string{"unknown product #77 (insufficient stock: 0 available, 1 requested)"}, purchaseErr.FailedItems)
}

func TestStorageErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	store := storage.New(failingBackend{storage.NewMemoryBackend()}, "test", nil)

	err := NewUserRepository(store).Create(ctx, &model.User{Name: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create user: ")
	assert.Contains(t, err.Error(), "disk full")
}

// ---------- sessions ----------

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(seededStore(t))

	u, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, u)

	require.NoError(t, repo.Set(ctx, "s1", &model.User{ID: 2, Name: "Juan Pérez"}))
	u, err = repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(2), u.ID)

	other, err := repo.Get(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, repo.Set(ctx, "s1", nil))
	u, err = repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, u)
}
