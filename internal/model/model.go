package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultAvatar       = "/placeholder.svg?height=40&width=40"
	DefaultProductImage = "/placeholder.svg?height=300&width=300"

	// LowStockThreshold is the highest stock still reported as low.
	LowStockThreshold = 5
)

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	Grind       string          `json:"grind"`
	Description string          `json:"description"`
	SellerID    int64           `json:"sellerId"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type CartItem struct {
	ProductID int64     `json:"productId"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}

type Transaction struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"productId"`
	SellerID      int64           `json:"sellerId"`
	BuyerID       int64           `json:"buyerId"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	PaymentMethod string          `json:"paymentMethod"`
	Date          time.Time       `json:"date"`
}

// LineTotal is UnitPrice × quantity.
func LineTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

// SellerInfo is the public part of a seller shown next to a product.
type SellerInfo struct {
	Name   string
	Phone  string
	Avatar string
}

type ProductWithSeller struct {
	Product
	Seller SellerInfo
}

type CartLine struct {
	Product  ProductWithSeller
	Quantity int
}

func (l CartLine) Total() decimal.Decimal {
	return LineTotal(l.Product.Price, l.Quantity)
}

type Sale struct {
	Transaction
	Product ProductWithSeller
	Buyer   User
}

type Purchase struct {
	Transaction
	Product ProductWithSeller
	Seller  User
}

// SaleMessage is published once per transaction after a checkout commits.
type SaleMessage struct {
	MessageID     string `json:"message_id"`
	TransactionID int64  `json:"transaction_id"`
	SellerID      int64  `json:"seller_id"`
	BuyerID       int64  `json:"buyer_id"`
}
