package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/flicky/brioso-market/internal/model"
	"github.com/flicky/brioso-market/internal/repository"
	"github.com/flicky/brioso-market/internal/sanitize"
)

type ProductInput struct {
	Name        string
	Price       decimal.Decimal
	Category    string
	Brand       string
	Grind       string
	Description string
	Image       string
	Stock       int
}

// ProductUpdate changes only the fields that are set. Empty strings are
// treated as not set, except for Name which must not be blank.
type ProductUpdate struct {
	Name        *string
	Price       *decimal.Decimal
	Category    *string
	Brand       *string
	Grind       *string
	Description *string
	Image       *string
	Stock       *int
}

// AddProduct lists a new product owned by the signed-in user.
func (s *Storefront) AddProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	s.begin()
	if s.user == nil {
		return nil, s.fail("add product", ErrNotAuthenticated)
	}
	p := &model.Product{
		Name:        sanitize.Text(in.Name),
		Price:       in.Price,
		Category:    sanitize.Text(in.Category),
		Brand:       sanitize.Text(in.Brand),
		Grind:       sanitize.Text(in.Grind),
		Description: sanitize.Text(in.Description),
		Stock:       in.Stock,
		SellerID:    s.user.ID,
	}
	if p.Name == "" || p.Category == "" || p.Brand == "" || p.Grind == "" {
		return nil, s.fail("add product", ErrMissingProductData)
	}
	if !p.Price.IsPositive() {
		return nil, s.fail("add product", ErrInvalidPrice)
	}
	if p.Stock < 0 {
		return nil, s.fail("add product", ErrInvalidStock)
	}

	image, err := s.productImage(ctx, in.Image)
	if err != nil {
		return nil, s.fail("add product", err)
	}
	p.Image = image

	if err := s.m.products.Create(ctx, p); err != nil {
		return nil, s.fail("add product", err)
	}
	s.m.log.Info("product added", "product_id", p.ID, "seller_id", p.SellerID)

	if err := s.LoadProducts(ctx); err != nil {
		return nil, s.fail("add product", err)
	}
	return p, nil
}

func (s *Storefront) productImage(ctx context.Context, image string) (string, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return model.DefaultProductImage, nil
	}
	saved, err := s.m.images.Save(ctx, "products", image)
	if err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return saved, nil
}

// UpdateProduct applies in to a product the signed-in user owns.
func (s *Storefront) UpdateProduct(ctx context.Context, id int64, in ProductUpdate) (*model.Product, error) {
	s.begin()
	if s.user == nil {
		return nil, s.fail("update product", ErrNotAuthenticated)
	}

	var patch repository.ProductPatch
	if in.Name != nil {
		name := sanitize.Text(*in.Name)
		if name == "" {
			return nil, s.fail("update product", ErrEmptyProductName)
		}
		patch.Name = &name
	}
	if in.Price != nil {
		if !in.Price.IsPositive() {
			return nil, s.fail("update product", ErrInvalidPrice)
		}
		patch.Price = in.Price
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, s.fail("update product", ErrInvalidStock)
		}
		patch.Stock = in.Stock
	}
	patch.Category = nonEmpty(in.Category)
	patch.Brand = nonEmpty(in.Brand)
	patch.Grind = nonEmpty(in.Grind)
	patch.Description = nonEmpty(in.Description)

	if err := s.checkOwner(ctx, id); err != nil {
		return nil, s.fail("update product", err)
	}
	if in.Image != nil && strings.TrimSpace(*in.Image) != "" {
		image, err := s.productImage(ctx, *in.Image)
		if err != nil {
			return nil, s.fail("update product", err)
		}
		patch.Image = &image
	}

	updated, err := s.m.products.Update(ctx, id, patch)
	if err != nil {
		return nil, s.fail("update product", err)
	}
	if updated == nil {
		return nil, s.fail("update product", repository.ErrProductNotFound)
	}

	// Price and name show up in cart lines too.
	if err := s.reloadCartAndProducts(ctx); err != nil {
		return nil, s.fail("update product", err)
	}
	return updated, nil
}

// DeleteProduct removes a product the signed-in user owns from the catalog
// and from every cart.
func (s *Storefront) DeleteProduct(ctx context.Context, id int64) error {
	s.begin()
	if s.user == nil {
		return s.fail("delete product", ErrNotAuthenticated)
	}
	if err := s.checkOwner(ctx, id); err != nil {
		return s.fail("delete product", err)
	}

	ok, err := s.m.products.Delete(ctx, id)
	if err != nil {
		return s.fail("delete product", err)
	}
	if !ok {
		return s.fail("delete product", repository.ErrProductNotFound)
	}
	s.m.log.Info("product deleted", "product_id", id, "seller_id", s.user.ID)

	if err := s.reloadCartAndProducts(ctx); err != nil {
		return s.fail("delete product", err)
	}
	return nil
}

func (s *Storefront) checkOwner(ctx context.Context, id int64) error {
	p, err := s.m.products.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return repository.ErrProductNotFound
	}
	if p.SellerID != s.user.ID {
		return ErrNotProductOwner
	}
	return nil
}

func nonEmpty(v *string) *string {
	if v == nil {
		return nil
	}
	clean := sanitize.Text(*v)
	if clean == "" {
		return nil
	}
	return &clean
}
