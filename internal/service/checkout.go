package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/flicky/brioso-market/internal/model"
)

// ProcessPurchase buys everything in the cart. Stock for every line is
// checked before anything is written; on success each line becomes one
// transaction, stock drops by the bought quantity and the cart is emptied.
func (s *Storefront) ProcessPurchase(ctx context.Context, paymentMethod string) ([]model.Transaction, error) {
	s.begin()
	if s.user == nil {
		return nil, s.fail("process purchase", ErrNotAuthenticated)
	}
	method, ok := model.LookupPaymentMethod(paymentMethod)
	if !ok {
		return nil, s.fail("process purchase", ErrUnknownPaymentMethod)
	}

	created, err := s.m.transactions.ProcessCartPurchase(ctx, s.user.ID, method.Label)
	if err != nil {
		s.m.metrics.RecordCheckout(false, 0, 0)
		return nil, s.fail("process purchase", err)
	}

	items := 0
	var revenue float64
	for _, t := range created {
		items += t.Quantity
		revenue += t.TotalPrice.InexactFloat64()
	}
	s.m.metrics.RecordCheckout(true, items, revenue)
	s.m.log.Info("purchase completed", "user_id", s.user.ID, "transactions", len(created), "payment_method", method.ID)

	s.publishSales(ctx, created)

	if err := s.Refresh(ctx); err != nil {
		return created, s.fail("process purchase", err)
	}
	return created, nil
}

// publishSales never fails the purchase; the transactions are already
// committed.
func (s *Storefront) publishSales(ctx context.Context, created []model.Transaction) {
	if s.m.publisher == nil {
		return
	}
	for _, t := range created {
		msg := model.SaleMessage{
			MessageID:     uuid.NewString(),
			TransactionID: t.ID,
			SellerID:      t.SellerID,
			BuyerID:       t.BuyerID,
		}
		if err := s.m.publisher.PublishSale(ctx, msg); err != nil {
			s.m.log.Error("publish sale", "transaction_id", t.ID, "error", err)
		}
	}
}
