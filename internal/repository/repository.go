package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/flicky/brioso-market/internal/storage"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
)

// StockError reports a stock check that failed. It matches ErrInsufficientStock.
type StockError struct {
	ProductID int64
	Requested int
	Available int
	InCart    int
}

func (e *StockError) Error() string {
	if e.InCart > 0 {
		return fmt.Sprintf("not enough stock: only %d units left and you already have %d in your cart", e.Available, e.InCart)
	}
	return fmt.Sprintf("not enough stock: only %d units left", e.Available)
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }

// PurchaseError lists every cart line that failed validation. Nothing was
// written when it is returned. It matches ErrInsufficientStock.
type PurchaseError struct {
	FailedItems []string
}

func (e *PurchaseError) Error() string {
	return "some products do not have enough stock: " + strings.Join(e.FailedItems, "; ")
}

func (e *PurchaseError) Is(target error) bool { return target == ErrInsufficientStock }

// nextID draws the next id for collection from the store's counter.
func nextID[T any](tx *storage.Tx, collection string, items []T, id func(T) int64) (int64, error) {
	return tx.NextID(collection, maxID(items, id))
}

func maxID[T any](items []T, id func(T) int64) int64 {
	var max int64
	for _, it := range items {
		if v := id(it); v > max {
			max = v
		}
	}
	return max
}

// wrap annotates storage failures with op and passes domain errors through
// untouched so their messages reach the caller as is.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, domain := range []error{ErrProductNotFound, ErrInsufficientStock, ErrEmptyCart, ErrInvalidQuantity} {
		if errors.Is(err, domain) {
			return err
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Repositories bundles every repository backed by one store.
type Repositories struct {
	Users        UserRepository
	Products     ProductRepository
	Carts        CartRepository
	Transactions TransactionRepository
	Sessions     SessionRepository
}

func NewRepositories(store *storage.Store) Repositories {
	return Repositories{
		Users:        NewUserRepository(store),
		Products:     NewProductRepository(store),
		Carts:        NewCartRepository(store),
		Transactions: NewTransactionRepository(store),
		Sessions:     NewSessionRepository(store),
	}
}
