package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/brioso-market/internal/dto"
	"github.com/flicky/brioso-market/internal/middleware"
	"github.com/flicky/brioso-market/internal/service"
)

type AuthHandler struct {
	market    *service.Marketplace
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthHandler(market *service.Marketplace, jwtSecret string, jwtExpiry time.Duration) *AuthHandler {
	return &AuthHandler{market: market, jwtSecret: jwtSecret, jwtExpiry: jwtExpiry}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sf, err := h.market.Open(c.Request.Context(), uuid.NewString())
	if err != nil {
		respondError(c, err)
		return
	}
	err = sf.Register(c.Request.Context(), service.RegisterInput{
		Name: req.Name, Email: req.Email, Password: req.Password, Phone: req.Phone, Address: req.Address,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, sf)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sf, err := h.market.Open(c.Request.Context(), uuid.NewString())
	if err != nil {
		respondError(c, err)
		return
	}
	if err := sf.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		respondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, sf)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, sf *service.Storefront) {
	token, err := middleware.IssueToken(h.jwtSecret, h.jwtExpiry, sf.User().ID, sf.SessionID())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, dto.AuthResponse{Token: token, User: dto.ToUserResponse(sf.User())})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := storefront(c).Logout(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToUserResponse(storefront(c).User()))
}

func (h *AuthHandler) UpdateMe(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sf := storefront(c)
	err := sf.UpdateUser(c.Request.Context(), service.ProfileInput{
		Name: req.Name, Email: req.Email, Phone: req.Phone,
		Address: req.Address, Avatar: req.Avatar, Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(sf.User()))
}
