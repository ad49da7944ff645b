package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/brioso-market/internal/dto"
	"github.com/flicky/brioso-market/internal/repository"
)

type CartHandler struct{}

func NewCartHandler() *CartHandler {
	return &CartHandler{}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToCartResponse(storefront(c)))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sf := storefront(c)
	product, ok := sf.Product(req.ProductID)
	if !ok {
		respondError(c, repository.ErrProductNotFound)
		return
	}
	if err := sf.AddToCart(c.Request.Context(), product, req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToCartResponse(sf))
}

func (h *CartHandler) DeleteItem(c *gin.Context) {
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}
	sf := storefront(c)
	if err := sf.RemoveFromCart(c.Request.Context(), productID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCartResponse(sf))
}

func (h *CartHandler) Clear(c *gin.Context) {
	sf := storefront(c)
	if err := sf.ClearCart(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCartResponse(sf))
}
