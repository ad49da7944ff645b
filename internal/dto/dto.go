package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/flicky/brioso-market/internal/model"
	"github.com/flicky/brioso-market/internal/service"
)

// --- Auth ---

// Field rules beyond presence are enforced by the service so that the API
// and the storefront report the same messages.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Address  string `json:"address"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}

type UpdateProfileRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Avatar   string `json:"avatar"`
	Password string `json:"password"`
}

// --- Product ---

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	Grind       string          `json:"grind"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Brand       *string          `json:"brand"`
	Grind       *string          `json:"grind"`
	Description *string          `json:"description"`
	Image       *string          `json:"image"`
	Stock       *int             `json:"stock"`
}

type ListProductsRequest struct {
	Search   string `form:"search"`
	Filter   string `form:"filter" binding:"omitempty,oneof=available low_stock out_of_stock"`
	SellerID int64  `form:"seller_id" binding:"min=0"`
}

type SellerResponse struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Avatar string `json:"avatar"`
}

type ProductResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	Grind       string          `json:"grind"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock"`
	SellerID    int64           `json:"seller_id"`
	Seller      SellerResponse  `json:"seller"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
}

type CatalogOptionsResponse struct {
	Categories     []string              `json:"categories"`
	GrindTypes     []string              `json:"grind_types"`
	PaymentMethods []model.PaymentMethod `json:"payment_methods"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required"`
}

type CartItemResponse struct {
	Product  ProductResponse `json:"product"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
	Count int                `json:"count"`
}

// --- Checkout ---

type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

type TransactionResponse struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"product_id"`
	SellerID      int64           `json:"seller_id"`
	BuyerID       int64           `json:"buyer_id"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	PaymentMethod string          `json:"payment_method"`
	Date          time.Time       `json:"date"`
}

type CheckoutResponse struct {
	Message      string                `json:"message"`
	Transactions []TransactionResponse `json:"transactions"`
	Total        decimal.Decimal       `json:"total"`
}

type SaleResponse struct {
	TransactionResponse
	Product ProductResponse `json:"product"`
	Buyer   UserResponse    `json:"buyer"`
}

type SalesResponse struct {
	Sales     []SaleResponse  `json:"sales"`
	Revenue   decimal.Decimal `json:"revenue"`
	ItemsSold int             `json:"items_sold"`
	Orders    int             `json:"orders"`
}

type PurchaseResponse struct {
	TransactionResponse
	Product ProductResponse `json:"product"`
	Seller  UserResponse    `json:"seller"`
}

type PurchasesResponse struct {
	Purchases []PurchaseResponse `json:"purchases"`
}

// --- Mapping ---

func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone,
		Address: u.Address, Avatar: u.Avatar, CreatedAt: u.CreatedAt,
	}
}

func ToProductResponse(p model.ProductWithSeller) ProductResponse {
	return ProductResponse{
		ID: p.ID, Name: p.Name, Price: p.Price, Category: p.Category, Brand: p.Brand,
		Grind: p.Grind, Description: p.Description, Image: p.Image, Stock: p.Stock,
		SellerID: p.SellerID, CreatedAt: p.CreatedAt,
		Seller: SellerResponse{Name: p.Seller.Name, Phone: p.Seller.Phone, Avatar: p.Seller.Avatar},
	}
}

func ToProductList(products []model.ProductWithSeller) ProductListResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, ToProductResponse(p))
	}
	return ProductListResponse{Products: out, Total: len(out)}
}

func ToTransactionResponse(t model.Transaction) TransactionResponse {
	return TransactionResponse{
		ID: t.ID, ProductID: t.ProductID, SellerID: t.SellerID, BuyerID: t.BuyerID,
		Quantity: t.Quantity, UnitPrice: t.UnitPrice, TotalPrice: t.TotalPrice,
		PaymentMethod: t.PaymentMethod, Date: t.Date,
	}
}

func ToCartResponse(sf *service.Storefront) CartResponse {
	items := make([]CartItemResponse, 0, len(sf.Cart()))
	for _, l := range sf.Cart() {
		items = append(items, CartItemResponse{Product: ToProductResponse(l.Product), Quantity: l.Quantity, Total: l.Total()})
	}
	return CartResponse{Items: items, Total: sf.CartTotal(), Count: sf.CartCount()}
}

func ToSalesResponse(sf *service.Storefront) SalesResponse {
	sales := make([]SaleResponse, 0, len(sf.Sales()))
	for _, s := range sf.Sales() {
		buyer := s.Buyer
		sales = append(sales, SaleResponse{
			TransactionResponse: ToTransactionResponse(s.Transaction),
			Product:             ToProductResponse(s.Product),
			Buyer:               ToUserResponse(&buyer),
		})
	}
	sum := sf.SalesSummary()
	return SalesResponse{Sales: sales, Revenue: sum.Revenue, ItemsSold: sum.ItemsSold, Orders: sum.Orders}
}

func ToPurchasesResponse(sf *service.Storefront) PurchasesResponse {
	purchases := make([]PurchaseResponse, 0, len(sf.Purchases()))
	for _, p := range sf.Purchases() {
		seller := p.Seller
		purchases = append(purchases, PurchaseResponse{
			TransactionResponse: ToTransactionResponse(p.Transaction),
			Product:             ToProductResponse(p.Product),
			Seller:              ToUserResponse(&seller),
		})
	}
	return PurchasesResponse{Purchases: purchases}
}
