package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/flicky/brioso-market/internal/model"
	"github.com/flicky/brioso-market/internal/storage"
)

type TransactionRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Transaction, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]model.Transaction, error)
	ListByBuyer(ctx context.Context, buyerID int64) ([]model.Transaction, error)
	ProcessCartPurchase(ctx context.Context, userID int64, paymentMethod string) ([]model.Transaction, error)
}

type kvTransactionRepo struct{ store *storage.Store }

func NewTransactionRepository(store *storage.Store) TransactionRepository {
	return &kvTransactionRepo{store: store}
}

func (r *kvTransactionRepo) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	list, err := r.filter(ctx, func(t model.Transaction) bool { return t.ID == id })
	if err != nil {
		return nil, wrap("get transaction", err)
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (r *kvTransactionRepo) ListBySeller(ctx context.Context, sellerID int64) ([]model.Transaction, error) {
	list, err := r.filter(ctx, func(t model.Transaction) bool { return t.SellerID == sellerID })
	return list, wrap("list sales", err)
}

func (r *kvTransactionRepo) ListByBuyer(ctx context.Context, buyerID int64) ([]model.Transaction, error) {
	list, err := r.filter(ctx, func(t model.Transaction) bool { return t.BuyerID == buyerID })
	return list, wrap("list purchases", err)
}

func (r *kvTransactionRepo) filter(ctx context.Context, keep func(model.Transaction) bool) ([]model.Transaction, error) {
	var out []model.Transaction
	err := r.store.View(ctx, func(tx *storage.Tx) error {
		list, err := tx.Transactions()
		if err != nil {
			return err
		}
		out = make([]model.Transaction, 0, len(list))
		for _, t := range list {
			if keep(t) {
				out = append(out, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ProcessCartPurchase checks every cart line against live stock before
// touching anything. If any line fails it returns a *PurchaseError and writes
// nothing. Otherwise it decrements stock, records one transaction per line
// and empties the cart, all in a single commit.
func (r *kvTransactionRepo) ProcessCartPurchase(ctx context.Context, userID int64, paymentMethod string) ([]model.Transaction, error) {
	var created []model.Transaction
	err := r.store.Update(ctx, func(tx *storage.Tx) error {
		cart, err := tx.Cart(userID)
		if err != nil {
			return err
		}
		if len(cart) == 0 {
			return ErrEmptyCart
		}
		products, err := tx.Products()
		if err != nil {
			return err
		}

		var failed []string
		for _, it := range cart {
			i := indexOfProduct(products, it.ProductID)
			if i < 0 {
				failed = append(failed, fmt.Sprintf("unknown product #%d (insufficient stock: 0 available, %d requested)", it.ProductID, it.Quantity))
				continue
			}
			if p := products[i]; p.Stock < it.Quantity {
				failed = append(failed, fmt.Sprintf("%s (insufficient stock: %d available, %d requested)", p.Name, p.Stock, it.Quantity))
			}
		}
		if len(failed) > 0 {
			return &PurchaseError{FailedItems: failed}
		}

		list, err := tx.Transactions()
		if err != nil {
			return err
		}
		floor := maxID(list, func(t model.Transaction) int64 { return t.ID })
		now := time.Now().UTC()
		created = make([]model.Transaction, 0, len(cart))
		for _, it := range cart {
			p := &products[indexOfProduct(products, it.ProductID)]
			p.Stock -= it.Quantity
			id, err := tx.NextID(storage.SeqTransactions, floor)
			if err != nil {
				return err
			}
			t := model.Transaction{
				ID:            id,
				ProductID:     p.ID,
				SellerID:      p.SellerID,
				BuyerID:       userID,
				Quantity:      it.Quantity,
				UnitPrice:     p.Price,
				TotalPrice:    model.LineTotal(p.Price, it.Quantity),
				PaymentMethod: paymentMethod,
				Date:          now,
			}
			created = append(created, t)
		}

		if err := tx.SetProducts(products); err != nil {
			return err
		}
		if err := tx.SetTransactions(append(list, created...)); err != nil {
			return err
		}
		return tx.SetCart(userID, nil)
	})
	if err != nil {
		return nil, wrap("process purchase", err)
	}
	return created, nil
}
