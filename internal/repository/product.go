package repository

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flicky/brioso-market/internal/model"
	"github.com/flicky/brioso-market/internal/storage"
)

type Availability string

const (
	AvailabilityAll        Availability = ""
	AvailabilityInStock    Availability = "available"
	AvailabilityLowStock   Availability = "low_stock"
	AvailabilityOutOfStock Availability = "out_of_stock"
)

// ProductFilter narrows List. Zero values match everything.
type ProductFilter struct {
	SellerID     int64
	Availability Availability
	Search       string
}

func (f ProductFilter) Match(p model.Product) bool {
	if f.SellerID != 0 && p.SellerID != f.SellerID {
		return false
	}
	switch f.Availability {
	case AvailabilityInStock:
		if p.Stock <= 0 {
			return false
		}
	case AvailabilityLowStock:
		if p.Stock <= 0 || p.Stock > model.LowStockThreshold {
			return false
		}
	case AvailabilityOutOfStock:
		if p.Stock != 0 {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Category), q) ||
			strings.Contains(strings.ToLower(p.Brand), q)
	}
	return true
}

type ProductPatch struct {
	Name        *string
	Price       *decimal.Decimal
	Category    *string
	Brand       *string
	Grind       *string
	Description *string
	Image       *string
	Stock       *int
}

type StockCheck struct {
	Available    bool
	CurrentStock int
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	Update(ctx context.Context, id int64, patch ProductPatch) (*model.Product, error)
	SetStock(ctx context.Context, id int64, stock int) (*model.Product, error)
	Delete(ctx context.Context, id int64) (bool, error)
	CheckStock(ctx context.Context, id int64, quantity int) (StockCheck, error)
	ReduceStock(ctx context.Context, id int64, quantity int) (*model.Product, error)
}

type kvProductRepo struct{ store *storage.Store }

func NewProductRepository(store *storage.Store) ProductRepository {
	return &kvProductRepo{store: store}
}

func (r *kvProductRepo) Create(ctx context.Context, product *model.Product) error {
	err := r.store.Update(ctx, func(tx *storage.Tx) error {
		products, err := tx.Products()
		if err != nil {
			return err
		}
		id, err := nextID(tx, storage.SeqProducts, products, func(p model.Product) int64 { return p.ID })
		if err != nil {
			return err
		}
		product.ID = id
		product.CreatedAt = time.Now().UTC()
		return tx.SetProducts(append(products, *product))
	})
	return wrap("create product", err)
}

func (r *kvProductRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var found *model.Product
	err := r.store.View(ctx, func(tx *storage.Tx) error {
		products, err := tx.Products()
		if err != nil {
			return err
		}
		if i := indexOfProduct(products, id); i >= 0 {
			found = &products[i]
		}
		return nil
	})
	if err != nil {
		return nil, wrap("get product", err)
	}
	return found, nil
}

func (r *kvProductRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	var out []model.Product
	err := r.store.View(ctx, func(tx *storage.Tx) error {
		products, err := tx.Products()
		if err != nil {
			return err
		}
		out = make([]model.Product, 0, len(products))
		for _, p := range products {
			if filter.Match(p) {
				out = append(out, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrap("list products", err)
	}
	return out, nil
}

// Update returns (nil, nil) when no product has the id.
func (r *kvProductRepo) Update(ctx context.Context, id int64, patch ProductPatch) (*model.Product, error) {
	return r.mutate(ctx, "update product", id, func(p *model.Product) error {
		patch.apply(p)
		return nil
	})
}

func (r *kvProductRepo) SetStock(ctx context.Context, id int64, stock int) (*model.Product, error) {
	return r.mutate(ctx, "set stock", id, func(p *model.Product) error {
		p.Stock = stock
		return nil
	})
}

// ReduceStock fails with ErrProductNotFound or a *StockError and leaves the
// product untouched when stock would go below zero.
func (r *kvProductRepo) ReduceStock(ctx context.Context, id int64, quantity int) (*model.Product, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	p, err := r.mutate(ctx, "reduce stock", id, func(p *model.Product) error {
		if p.Stock < quantity {
			return &StockError{ProductID: id, Requested: quantity, Available: p.Stock}
		}
		p.Stock -= quantity
		return nil
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (r *kvProductRepo) mutate(ctx context.Context, op string, id int64, fn func(p *model.Product) error) (*model.Product, error) {
	var updated *model.Product
	err := r.store.Update(ctx, func(tx *storage.Tx) error {
		products, err := tx.Products()
		if err != nil {
			return err
		}
		i := indexOfProduct(products, id)
		if i < 0 {
			return nil
		}
		if err := fn(&products[i]); err != nil {
			return err
		}
		p := products[i]
		updated = &p
		return tx.SetProducts(products)
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	return updated, nil
}

// Delete removes the product and every cart line pointing at it.
func (r *kvProductRepo) Delete(ctx context.Context, id int64) (bool, error) {
	deleted := false
	err := r.store.Update(ctx, func(tx *storage.Tx) error {
		products, err := tx.Products()
		if err != nil {
			return err
		}
		i := indexOfProduct(products, id)
		if i < 0 {
			return nil
		}
		// keep the counter above the id being freed
		if _, err := tx.RaiseSeq(storage.SeqProducts, maxID(products, func(p model.Product) int64 { return p.ID })); err != nil {
			return err
		}
		if err := tx.SetProducts(append(products[:i:i], products[i+1:]...)); err != nil {
			return err
		}

		users, err := tx.Users()
		if err != nil {
			return err
		}
		for _, u := range users {
			cart, err := tx.Cart(u.ID)
			if err != nil {
				return err
			}
			kept := removeLine(cart, id)
			if len(kept) == len(cart) {
				continue
			}
			if err := tx.SetCart(u.ID, kept); err != nil {
				return err
			}
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, wrap("delete product", err)
	}
	return deleted, nil
}

// CheckStock reports an unknown product as unavailable with zero stock.
func (r *kvProductRepo) CheckStock(ctx context.Context, id int64, quantity int) (StockCheck, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return StockCheck{}, err
	}
	if p == nil {
		return StockCheck{}, nil
	}
	return StockCheck{Available: p.Stock >= quantity, CurrentStock: p.Stock}, nil
}

func (p ProductPatch) apply(dst *model.Product) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Category != nil {
		dst.Category = *p.Category
	}
	if p.Brand != nil {
		dst.Brand = *p.Brand
	}
	if p.Grind != nil {
		dst.Grind = *p.Grind
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Image != nil {
		dst.Image = *p.Image
	}
	if p.Stock != nil {
		dst.Stock = *p.Stock
	}
}

func indexOfProduct(products []model.Product, id int64) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}
