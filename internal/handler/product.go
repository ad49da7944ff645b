package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/flicky/brioso-market/internal/dto"
	"github.com/flicky/brioso-market/internal/repository"
	"github.com/flicky/brioso-market/internal/service"
)

type ProductHandler struct {
	market *service.Marketplace
}

func NewProductHandler(market *service.Marketplace) *ProductHandler {
	return &ProductHandler{market: market}
}

func (h *ProductHandler) List(c *gin.Context) {
	var req dto.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	products := storefront(c).FindProducts(repository.ProductFilter{
		SellerID:     req.SellerID,
		Availability: repository.Availability(req.Filter),
		Search:       req.Search,
	})
	c.JSON(http.StatusOK, dto.ToProductList(products))
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, found := storefront(c).Product(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, dto.ToProductResponse(p))
}

func (h *ProductHandler) Mine(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToProductList(storefront(c).MyProducts()))
}

func (h *ProductHandler) Options(c *gin.Context) {
	opts := h.market.CatalogOptions()
	c.JSON(http.StatusOK, dto.CatalogOptionsResponse{
		Categories: opts.Categories, GrindTypes: opts.GrindTypes, PaymentMethods: opts.PaymentMethods,
	})
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sf := storefront(c)
	p, err := sf.AddProduct(c.Request.Context(), service.ProductInput{
		Name: req.Name, Price: req.Price, Category: req.Category, Brand: req.Brand,
		Grind: req.Grind, Description: req.Description, Image: req.Image, Stock: req.Stock,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	view, _ := sf.Product(p.ID)
	c.JSON(http.StatusCreated, dto.ToProductResponse(view))
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sf := storefront(c)
	_, err := sf.UpdateProduct(c.Request.Context(), id, service.ProductUpdate{
		Name: req.Name, Price: req.Price, Category: req.Category, Brand: req.Brand,
		Grind: req.Grind, Description: req.Description, Image: req.Image, Stock: req.Stock,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	view, _ := sf.Product(id)
	c.JSON(http.StatusOK, dto.ToProductResponse(view))
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := storefront(c).DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
