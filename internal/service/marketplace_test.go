package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/brioso-market/internal/metrics"
	"github.com/flicky/brioso-market/internal/model"
	"github.com/flicky/brioso-market/internal/repository"
	"github.com/flicky/brioso-market/internal/storage"
)

type fakePublisher struct {
	mu   sync.Mutex
	sent []model.SaleMessage
	err  error
}

func (p *fakePublisher) PublishSale(_ context.Context, msg model.SaleMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, msg)
	return nil
}

type fakeImages struct{ saved []string }

func (f *fakeImages) Save(_ context.Context, folder, uri string) (string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return uri, nil
	}
	f.saved = append(f.saved, uri)
	return "https://img.example.com/" + folder + "/stored.png", nil
}

type testEnv struct {
	store     *storage.Store
	repos     repository.Repositories
	market    *Marketplace
	publisher *fakePublisher
	images    *fakeImages
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.New(storage.NewMemoryBackend(), "brioso", log)
	_, _, err := store.SeedIfEmpty(context.Background())
	require.NoError(t, err)

	env := &testEnv{store: store, repos: repository.NewRepositories(store), publisher: &fakePublisher{}, images: &fakeImages{}}
	env.market = NewMarketplace(env.repos, env.images, env.publisher, metrics.New(), log, bcrypt.MinCost)
	return env
}

func (e *testEnv) open(t *testing.T, sessionID string) *Storefront {
	t.Helper()
	sf, err := e.market.Open(context.Background(), sessionID)
	require.NoError(t, err)
	return sf
}

// signedIn opens a session and logs a seed user in.
func (e *testEnv) signedIn(t *testing.T, sessionID, email, password string) *Storefront {
	t.Helper()
	sf := e.open(t, sessionID)
	require.NoError(t, sf.Login(context.Background(), email, password))
	return sf
}

func (e *testEnv) juan(t *testing.T) *Storefront {
	return e.signedIn(t, "juan", "juan.perez@email.com", "password123")
}

func mustProduct(t *testing.T, sf *Storefront, id int64) model.ProductWithSeller {
	t.Helper()
	p, ok := sf.Product(id)
	require.True(t, ok, "product %d not in view", id)
	return p
}

func TestOpen_AnonymousLoadsCatalog(t *testing.T) {
	env := newTestEnv(t)
	sf := env.open(t, "")

	assert.False(t, sf.Authenticated())
	assert.Len(t, sf.Products(), 9)
	assert.Nil(t, sf.Cart())
	assert.Nil(t, sf.Sales())
	assert.Nil(t, sf.Purchases())

	p := mustProduct(t, sf, 2)
	assert.Equal(t, "Arábica Premium", p.Name)
	assert.Equal(t, 30, p.Stock)
	assert.Equal(t, "NEXUS Admin", p.Seller.Name)
	assert.Equal(t, "555-0100", p.Seller.Phone)
}

func TestOpen_StorageFailure(t *testing.T) {
	store := storage.New(brokenBackend{}, "brioso", nil)
	m := NewMarketplace(repository.NewRepositories(store), nil, nil, nil, nil, bcrypt.MinCost)

	_, err := m.Open(context.Background(), "s")
	require.Error(t, err)
	assert.False(t, IsUserError(err))
}

type brokenBackend struct{}

func (brokenBackend) Get(context.Context, string) ([]byte, error)   { return nil, errors.New("connection refused") }
func (brokenBackend) Commit(context.Context, []storage.Write) error { return errors.New("connection refused") }
func (brokenBackend) Ping(context.Context) error                    { return errors.New("connection refused") }
func (brokenBackend) Close() error                                  { return nil }

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "invalid email format", Message(ErrInvalidEmail))
	assert.Equal(t, "cart is empty", Message(repository.ErrEmptyCart))
	assert.Equal(t, "not enough stock: only 2 units left",
		Message(&repository.StockError{Available: 2, Requested: 3}))
	assert.Equal(t, ErrUnexpected.Error(), Message(errors.New("dial tcp: refused")))
}

func TestCatalogOptions(t *testing.T) {
	env := newTestEnv(t)
	opts := env.market.CatalogOptions()
	assert.Contains(t, opts.Categories, "Arábica")
	assert.Contains(t, opts.GrindTypes, "Molido Fino")
	require.Len(t, opts.PaymentMethods, 3)
	assert.Equal(t, "Efectivo", opts.PaymentMethods[1].Label)
}

func TestPasswordMatches(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, passwordMatches(string(hashed), "secret1"))
	assert.False(t, passwordMatches(string(hashed), "secret2"))
	assert.True(t, passwordMatches("admin123", "admin123"))
	assert.False(t, passwordMatches("admin123", "admin124"))
}

func TestFindProducts_UsesVisibleStock(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sf := env.juan(t)

	// Product 7 has 15 units; holding 12 leaves 3 visible, which is low stock.
	require.NoError(t, sf.AddToCart(ctx, mustProduct(t, sf, 7), 12))

	low := sf.FindProducts(repository.ProductFilter{Availability: repository.AvailabilityLowStock})
	require.Len(t, low, 1)
	assert.Equal(t, int64(7), low[0].ID)

	found := sf.FindProducts(repository.ProductFilter{Search: "ORGÁNICO"})
	require.Len(t, found, 1)

	assert.Len(t, sf.MyProducts(), 2)
	assert.Empty(t, env.open(t, "").MyProducts())
}
