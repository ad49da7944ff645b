package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/flicky/brioso-market/internal/model"
	"github.com/flicky/brioso-market/internal/repository"
)

// Fallbacks shown when a product's seller record is missing.
const (
	fallbackSellerName  = "Vendedor"
	fallbackSellerPhone = "No disponible"
)

// Storefront is one client's view of the marketplace: the signed-in user,
// the joined views built from storage and the message of the last failed
// operation. Views are rebuilt from storage after every mutation.
//
// A Storefront is not safe for concurrent use.
type Storefront struct {
	m         *Marketplace
	sessionID string

	user      *model.User
	products  []model.ProductWithSeller
	cart      []model.CartLine
	sales     []model.Sale
	purchases []model.Purchase
	lastErr   string
}

func (s *Storefront) SessionID() string { return s.sessionID }

// User returns nil while anonymous.
func (s *Storefront) User() *model.User { return s.user }

func (s *Storefront) Authenticated() bool { return s.user != nil }

// Products is the whole catalog. Stock is what is left for this session:
// persisted stock minus the quantity already in the user's cart.
func (s *Storefront) Products() []model.ProductWithSeller { return s.products }

func (s *Storefront) Cart() []model.CartLine { return s.cart }

func (s *Storefront) Sales() []model.Sale { return s.sales }

func (s *Storefront) Purchases() []model.Purchase { return s.purchases }

// Err is the message recorded by the last failed operation, or "".
func (s *Storefront) Err() string { return s.lastErr }

// fail records err's message and returns err.
func (s *Storefront) fail(op string, err error) error {
	s.lastErr = Message(err)
	if !IsUserError(err) {
		s.m.log.Error(op, "session_id", s.sessionID, "error", err)
	}
	return err
}

func (s *Storefront) begin() { s.lastErr = "" }

// Refresh reloads every view. Per-user views are emptied while anonymous.
func (s *Storefront) Refresh(ctx context.Context) error {
	if err := s.LoadProducts(ctx); err != nil {
		return err
	}
	if err := s.LoadCart(ctx); err != nil {
		return err
	}
	if err := s.LoadSales(ctx); err != nil {
		return err
	}
	return s.LoadPurchases(ctx)
}

func (s *Storefront) LoadProducts(ctx context.Context) error {
	products, err := s.m.products.List(ctx, repository.ProductFilter{})
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	sellers, err := s.userIndex(ctx)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	held, err := s.heldQuantities(ctx)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}

	out := make([]model.ProductWithSeller, 0, len(products))
	for _, p := range products {
		out = append(out, withSeller(p, sellers, held))
	}
	s.products = out
	return nil
}

func (s *Storefront) LoadCart(ctx context.Context) error {
	if s.user == nil {
		s.cart = nil
		return nil
	}
	items, err := s.m.carts.Get(ctx, s.user.ID)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	index, err := s.productIndex(ctx)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	sellers, err := s.userIndex(ctx)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	held := quantities(items)

	lines := make([]model.CartLine, 0, len(items))
	for _, it := range items {
		p, ok := index[it.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, model.CartLine{Product: withSeller(p, sellers, held), Quantity: it.Quantity})
	}
	s.cart = lines
	return nil
}

// LoadSales lists the user's sales. Transactions whose product or buyer no
// longer exists are left out.
func (s *Storefront) LoadSales(ctx context.Context) error {
	if s.user == nil {
		s.sales = nil
		return nil
	}
	list, err := s.m.transactions.ListBySeller(ctx, s.user.ID)
	if err != nil {
		return fmt.Errorf("load sales: %w", err)
	}
	index, err := s.productIndex(ctx)
	if err != nil {
		return fmt.Errorf("load sales: %w", err)
	}
	users, err := s.userIndex(ctx)
	if err != nil {
		return fmt.Errorf("load sales: %w", err)
	}

	sales := make([]model.Sale, 0, len(list))
	for _, t := range list {
		p, ok := index[t.ProductID]
		buyer, found := users[t.BuyerID]
		if !ok || !found {
			continue
		}
		sales = append(sales, model.Sale{Transaction: t, Product: withSeller(p, users, nil), Buyer: buyer})
	}
	s.sales = sales
	return nil
}

// LoadPurchases lists the user's purchases. Transactions whose product or
// seller no longer exists are left out.
func (s *Storefront) LoadPurchases(ctx context.Context) error {
	if s.user == nil {
		s.purchases = nil
		return nil
	}
	list, err := s.m.transactions.ListByBuyer(ctx, s.user.ID)
	if err != nil {
		return fmt.Errorf("load purchases: %w", err)
	}
	index, err := s.productIndex(ctx)
	if err != nil {
		return fmt.Errorf("load purchases: %w", err)
	}
	users, err := s.userIndex(ctx)
	if err != nil {
		return fmt.Errorf("load purchases: %w", err)
	}

	purchases := make([]model.Purchase, 0, len(list))
	for _, t := range list {
		p, ok := index[t.ProductID]
		seller, found := users[t.SellerID]
		if !ok || !found {
			continue
		}
		purchases = append(purchases, model.Purchase{Transaction: t, Product: withSeller(p, users, nil), Seller: seller})
	}
	s.purchases = purchases
	return nil
}

func (s *Storefront) userIndex(ctx context.Context) (map[int64]model.User, error) {
	users, err := s.m.users.List(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[int64]model.User, len(users))
	for _, u := range users {
		index[u.ID] = u
	}
	return index, nil
}

func (s *Storefront) productIndex(ctx context.Context) (map[int64]model.Product, error) {
	products, err := s.m.products.List(ctx, repository.ProductFilter{})
	if err != nil {
		return nil, err
	}
	index := make(map[int64]model.Product, len(products))
	for _, p := range products {
		index[p.ID] = p
	}
	return index, nil
}

// heldQuantities is the session user's cart as product id -> quantity.
func (s *Storefront) heldQuantities(ctx context.Context) (map[int64]int, error) {
	if s.user == nil {
		return nil, nil
	}
	items, err := s.m.carts.Get(ctx, s.user.ID)
	if err != nil {
		return nil, err
	}
	return quantities(items), nil
}

func quantities(items []model.CartItem) map[int64]int {
	held := make(map[int64]int, len(items))
	for _, it := range items {
		held[it.ProductID] += it.Quantity
	}
	return held
}

// withSeller joins p with its seller and subtracts held from the stock.
func withSeller(p model.Product, users map[int64]model.User, held map[int64]int) model.ProductWithSeller {
	info := model.SellerInfo{Name: fallbackSellerName, Phone: fallbackSellerPhone, Avatar: model.DefaultAvatar}
	if u, ok := users[p.SellerID]; ok {
		if u.Name != "" {
			info.Name = u.Name
		}
		if u.Phone != "" {
			info.Phone = u.Phone
		}
		if u.Avatar != "" {
			info.Avatar = u.Avatar
		}
	}
	if n := held[p.ID]; n > 0 {
		p.Stock = max(p.Stock-n, 0)
	}
	return model.ProductWithSeller{Product: p, Seller: info}
}

// ---------- read-only queries over the loaded views ----------

// Product looks id up in the products view.
func (s *Storefront) Product(id int64) (model.ProductWithSeller, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return model.ProductWithSeller{}, false
}

// FindProducts filters the products view. Availability is judged on the
// session's visible stock.
func (s *Storefront) FindProducts(f repository.ProductFilter) []model.ProductWithSeller {
	out := make([]model.ProductWithSeller, 0, len(s.products))
	for _, p := range s.products {
		if f.Match(p.Product) {
			out = append(out, p)
		}
	}
	return out
}

// MyProducts is the signed-in user's own catalog, empty while anonymous.
func (s *Storefront) MyProducts() []model.ProductWithSeller {
	if s.user == nil {
		return nil
	}
	return s.FindProducts(repository.ProductFilter{SellerID: s.user.ID})
}

func (s *Storefront) CartTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.cart {
		total = total.Add(l.Total())
	}
	return total
}

// CartCount is the number of units in the cart, not the number of lines.
func (s *Storefront) CartCount() int {
	n := 0
	for _, l := range s.cart {
		n += l.Quantity
	}
	return n
}

type SalesSummary struct {
	Revenue   decimal.Decimal
	ItemsSold int
	Orders    int
}

func (s *Storefront) SalesSummary() SalesSummary {
	sum := SalesSummary{Revenue: decimal.Zero, Orders: len(s.sales)}
	for _, sale := range s.sales {
		sum.Revenue = sum.Revenue.Add(sale.TotalPrice)
		sum.ItemsSold += sale.Quantity
	}
	return sum
}
