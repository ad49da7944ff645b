package repository

import (
	"context"
	"time"

	"github.com/flicky/brioso-market/internal/model"
	"github.com/flicky/brioso-market/internal/storage"
)

type CartRepository interface {
	Get(ctx context.Context, userID int64) ([]model.CartItem, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) ([]model.CartItem, error)
	RemoveItem(ctx context.Context, userID, productID int64) ([]model.CartItem, error)
	Clear(ctx context.Context, userID int64) error
}

type kvCartRepo struct{ store *storage.Store }

func NewCartRepository(store *storage.Store) CartRepository {
	return &kvCartRepo{store: store}
}

func (r *kvCartRepo) Get(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.store.View(ctx, func(tx *storage.Tx) error {
		var err error
		items, err = tx.Cart(userID)
		return err
	})
	if err != nil {
		return nil, wrap("get cart", err)
	}
	return items, nil
}

// AddItem checks the requested quantity plus whatever the user already holds
// against live stock, then merges it into the existing line or appends one.
func (r *kvCartRepo) AddItem(ctx context.Context, userID, productID int64, quantity int) ([]model.CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	var out []model.CartItem
	err := r.store.Update(ctx, func(tx *storage.Tx) error {
		products, err := tx.Products()
		if err != nil {
			return err
		}
		i := indexOfProduct(products, productID)
		if i < 0 {
			return ErrProductNotFound
		}
		stock := products[i].Stock

		items, err := tx.Cart(userID)
		if err != nil {
			return err
		}
		j := indexOfLine(items, productID)
		inCart := 0
		if j >= 0 {
			inCart = items[j].Quantity
		}
		if inCart+quantity > stock {
			return &StockError{ProductID: productID, Requested: quantity, Available: stock, InCart: inCart}
		}

		if j >= 0 {
			items[j].Quantity += quantity
		} else {
			items = append(items, model.CartItem{ProductID: productID, Quantity: quantity, AddedAt: time.Now().UTC()})
		}
		out = items
		return tx.SetCart(userID, items)
	})
	if err != nil {
		return nil, wrap("add cart item", err)
	}
	return out, nil
}

// RemoveItem drops the whole line. Removing a product that is not in the cart
// is not an error.
func (r *kvCartRepo) RemoveItem(ctx context.Context, userID, productID int64) ([]model.CartItem, error) {
	var out []model.CartItem
	err := r.store.Update(ctx, func(tx *storage.Tx) error {
		items, err := tx.Cart(userID)
		if err != nil {
			return err
		}
		out = removeLine(items, productID)
		if len(out) == len(items) {
			return nil
		}
		return tx.SetCart(userID, out)
	})
	if err != nil {
		return nil, wrap("remove cart item", err)
	}
	return out, nil
}

func (r *kvCartRepo) Clear(ctx context.Context, userID int64) error {
	err := r.store.Update(ctx, func(tx *storage.Tx) error {
		return tx.SetCart(userID, nil)
	})
	return wrap("clear cart", err)
}

func indexOfLine(items []model.CartItem, productID int64) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func removeLine(items []model.CartItem, productID int64) []model.CartItem {
	out := make([]model.CartItem, 0, len(items))
	for _, it := range items {
		if it.ProductID != productID {
			out = append(out, it)
		}
	}
	return out
}
