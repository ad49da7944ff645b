package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/flicky/brioso-market/internal/dto"
)

type CheckoutHandler struct{}

func NewCheckoutHandler() *CheckoutHandler {
	return &CheckoutHandler{}
}

func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := storefront(c).ProcessPurchase(c.Request.Context(), req.PaymentMethod)
	if err != nil && created == nil {
		respondError(c, err)
		return
	}

	resp := dto.CheckoutResponse{
		Message:      fmt.Sprintf("Purchase processed successfully. %d products purchased.", len(created)),
		Transactions: make([]dto.TransactionResponse, 0, len(created)),
		Total:        decimal.Zero,
	}
	for _, t := range created {
		resp.Transactions = append(resp.Transactions, dto.ToTransactionResponse(t))
		resp.Total = resp.Total.Add(t.TotalPrice)
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CheckoutHandler) Sales(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToSalesResponse(storefront(c)))
}

func (h *CheckoutHandler) Purchases(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToPurchasesResponse(storefront(c)))
}
