package handler

import (
	"log/slog"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/flicky/brioso-market/internal/metrics"
	"github.com/flicky/brioso-market/internal/middleware"
	"github.com/flicky/brioso-market/internal/service"
)

type RouterConfig struct {
	JWTSecret      string
	JWTExpiry      time.Duration
	AllowedOrigins []string
}

// NewRouter wires every endpoint. Mutating routes require a token whose
// session still holds the signed-in user.
func NewRouter(
	cfg RouterConfig,
	market *service.Marketplace,
	health *HealthHandler,
	m *metrics.Metrics,
	log *slog.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.Metrics(m), cors.New(corsConfig(cfg.AllowedOrigins)))

	router.GET("/healthz", health.Healthz)
	router.GET("/readyz", health.Readyz)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	authH := NewAuthHandler(market, cfg.JWTSecret, cfg.JWTExpiry)
	productH := NewProductHandler(market)
	cartH := NewCartHandler()
	checkoutH := NewCheckoutHandler()

	signedIn := []gin.HandlerFunc{middleware.AuthMiddleware(cfg.JWTSecret), RequireSession(market)}
	browsing := []gin.HandlerFunc{middleware.OptionalAuth(cfg.JWTSecret), OptionalSession(market)}

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.POST("/logout", append(signedIn, authH.Logout)...)

		me := v1.Group("/me", signedIn...)
		me.GET("", authH.Me)
		me.PUT("", authH.UpdateMe)
		me.GET("/sales", checkoutH.Sales)
		me.GET("/purchases", checkoutH.Purchases)

		v1.GET("/catalog/options", productH.Options)

		products := v1.Group("/products")
		products.GET("", append(browsing, productH.List)...)
		products.GET("/:id", append(browsing, productH.GetByID)...)
		products.GET("/mine", append(signedIn, productH.Mine)...)
		products.POST("", append(signedIn, productH.Create)...)
		products.PUT("/:id", append(signedIn, productH.Update)...)
		products.DELETE("/:id", append(signedIn, productH.Delete)...)

		cart := v1.Group("/cart", signedIn...)
		cart.GET("", cartH.GetCart)
		cart.POST("/items", cartH.AddItem)
		cart.DELETE("/items/:productId", cartH.DeleteItem)
		cart.DELETE("", cartH.Clear)

		v1.POST("/checkout", append(signedIn, checkoutH.Checkout)...)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
