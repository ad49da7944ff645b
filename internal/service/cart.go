package service

import (
	"context"

	"github.com/flicky/brioso-market/internal/model"
	"github.com/flicky/brioso-market/internal/repository"
)

// AddToCart adds quantity units of product. The quantity is first checked
// against product.Stock as the caller saw it, then against live stock plus
// what the cart already holds. A failed call changes nothing.
func (s *Storefront) AddToCart(ctx context.Context, product model.ProductWithSeller, quantity int) error {
	s.begin()
	if s.user == nil {
		return s.fail("add to cart", ErrNotAuthenticated)
	}
	if quantity <= 0 {
		s.m.metrics.RecordCartAdd(false)
		return s.fail("add to cart", repository.ErrInvalidQuantity)
	}
	if quantity > product.Stock {
		s.m.metrics.RecordCartAdd(false)
		return s.fail("add to cart", &repository.StockError{
			ProductID: product.ID, Requested: quantity, Available: product.Stock,
		})
	}

	if _, err := s.m.carts.AddItem(ctx, s.user.ID, product.ID, quantity); err != nil {
		s.m.metrics.RecordCartAdd(false)
		return s.fail("add to cart", err)
	}
	s.m.metrics.RecordCartAdd(true)

	if err := s.reloadCartAndProducts(ctx); err != nil {
		return s.fail("add to cart", err)
	}
	return nil
}

// RemoveFromCart drops the whole line for productID.
func (s *Storefront) RemoveFromCart(ctx context.Context, productID int64) error {
	s.begin()
	if s.user == nil {
		return s.fail("remove from cart", ErrNotAuthenticated)
	}
	if _, err := s.m.carts.RemoveItem(ctx, s.user.ID, productID); err != nil {
		return s.fail("remove from cart", err)
	}
	if err := s.reloadCartAndProducts(ctx); err != nil {
		return s.fail("remove from cart", err)
	}
	return nil
}

func (s *Storefront) ClearCart(ctx context.Context) error {
	s.begin()
	if s.user == nil {
		return s.fail("clear cart", ErrNotAuthenticated)
	}
	if err := s.m.carts.Clear(ctx, s.user.ID); err != nil {
		return s.fail("clear cart", err)
	}
	if err := s.reloadCartAndProducts(ctx); err != nil {
		return s.fail("clear cart", err)
	}
	return nil
}

func (s *Storefront) reloadCartAndProducts(ctx context.Context) error {
	if err := s.LoadCart(ctx); err != nil {
		return err
	}
	return s.LoadProducts(ctx)
}
