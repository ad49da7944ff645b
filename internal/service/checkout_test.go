package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/brioso-market/internal/repository"
)

func TestProcessPurchase(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sf := env.juan(t)
	require.NoError(t, sf.AddToCart(ctx, mustProduct(t, sf, 2), 2))
	require.NoError(t, sf.AddToCart(ctx, mustProduct(t, sf, 8), 1))
	cartTotal := sf.CartTotal()

	created, err := sf.ProcessPurchase(ctx, "cash")
	require.NoError(t, err)
	require.Len(t, created, 2)

	sum := decimal.Zero
	for _, tx := range created {
		sum = sum.Add(tx.TotalPrice)
		assert.Equal(t, "Efectivo", tx.PaymentMethod)
		assert.Equal(t, int64(2), tx.BuyerID)
	}
	assert.True(t, sum.Equal(cartTotal), "sum %s != cart %s", sum, cartTotal)

	assert.Empty(t, sf.Cart())
	assert.Equal(t, 28, mustProduct(t, sf, 2).Stock)
	assert.Equal(t, 44, mustProduct(t, sf, 8).Stock)
	assert.Len(t, sf.Purchases(), 2)
	assert.Empty(t, sf.Sales())

	require.Len(t, env.publisher.sent, 2)
	assert.Equal(t, created[0].ID, env.publisher.sent[0].TransactionID)
	assert.Equal(t, int64(1), env.publisher.sent[0].SellerID)
	assert.NotEmpty(t, env.publisher.sent[0].MessageID)

	admin := env.signedIn(t, "admin", "admin@nexus.com", "admin123")
	require.Len(t, admin.Sales(), 1)
	assert.Equal(t, "Juan Pérez", admin.Sales()[0].Buyer.Name)
	summary := admin.SalesSummary()
	assert.Equal(t, "65.00", summary.Revenue.StringFixed(2))
	assert.Equal(t, 2, summary.ItemsSold)
	assert.Equal(t, 1, summary.Orders)
}

func TestProcessPurchase_EmptyCart(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sf := env.juan(t)

	_, err := sf.ProcessPurchase(ctx, "Efectivo")
	assert.ErrorIs(t, err, repository.ErrEmptyCart)
	assert.Equal(t, "cart is empty", sf.Err())
	assert.Empty(t, sf.Purchases())
	assert.Empty(t, env.publisher.sent)
}

func TestProcessPurchase_UnknownPaymentMethod(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sf := env.juan(t)
	require.NoError(t, sf.AddToCart(ctx, mustProduct(t, sf, 2), 1))

	_, err := sf.ProcessPurchase(ctx, "bitcoin")
	assert.ErrorIs(t, err, ErrUnknownPaymentMethod)
	assert.Len(t, sf.Cart(), 1)
}

func TestProcessPurchase_InsufficientStockWritesNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sf := env.juan(t)
	require.NoError(t, sf.AddToCart(ctx, mustProduct(t, sf, 2), 3))
	require.NoError(t, sf.AddToCart(ctx, mustProduct(t, sf, 7), 10))

	// Another buyer took most of product 7 in the meantime.
	_, err := env.repos.Products.SetStock(ctx, 7, 4)
	require.NoError(t, err)

	_, err = sf.ProcessPurchase(ctx, "card")
	var purchaseErr *repository.PurchaseError
	require.ErrorAs(t, err, &purchaseErr)
	assert.Len(t, purchaseErr.FailedItems, 1)
	assert.Contains(t, sf.Err(), "Orgánico Premium (insufficient stock: 4 available, 10 requested)")

	p, err := env.repos.Products.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 30, p.Stock)
	list, err := env.repos.Transactions.ListByBuyer(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Len(t, sf.Cart(), 2)
}

func TestProcessPurchase_PublishFailureDoesNotFailCheckout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.publisher.err = errors.New("channel closed")
	sf := env.juan(t)
	require.NoError(t, sf.AddToCart(ctx, mustProduct(t, sf, 9), 1))

	created, err := sf.ProcessPurchase(ctx, "transfer")
	require.NoError(t, err)
	assert.Len(t, created, 1)
	assert.Empty(t, sf.Err())
}

func TestProcessPurchase_RequiresSession(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.open(t, "").ProcessPurchase(context.Background(), "cash")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}
