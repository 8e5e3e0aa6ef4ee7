package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/flicky/cardmarket-api/internal/logger"
	"github.com/flicky/cardmarket-api/internal/middleware"
)

type Handlers struct {
	Users    *UserHandler
	Products *ProductHandler
	Carts    *CartHandler
	Orders   *OrderHandler
	Health   *HealthHandler
}

type RouterConfig struct {
	JWTSecret    string
	AllowOrigins []string
	Log          *logger.Logger
}

func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(cfg.Log))
	if len(cfg.AllowOrigins) > 0 {
		router.Use(middleware.CORS(cfg.AllowOrigins))
	}

	if h.Health != nil {
		router.GET("/healthz", h.Health.Healthz)
		router.GET("/readyz", h.Health.Readyz)
	}

	auth := middleware.AuthMiddleware(cfg.JWTSecret)
	self := middleware.RequireSelf("userId")
	selfByID := middleware.RequireSelf("id")
	admin := middleware.AdminOnly()

	v1 := router.Group("/api/v1")

	users := v1.Group("/users")
	users.POST("", h.Users.Create)
	users.POST("/signin", h.Users.SignIn)
	users.GET("", auth, admin, h.Users.List)
	users.GET("/:id", auth, selfByID, h.Users.Get)
	users.PUT("/:id", auth, selfByID, h.Users.Update)
	users.PUT("/:id/role", auth, admin, h.Users.SetRole)
	users.DELETE("/:id", auth, selfByID, h.Users.Delete)

	products := v1.Group("/products")
	products.GET("", h.Products.List)
	products.GET("/:id", h.Products.GetByID)
	products.GET("/user/:userId/listings", h.Products.ListListings)
	products.POST("/user/:userId/listings", auth, self, h.Products.CreateListing)
	products.PUT("/user/:userId/listings/:listingId", auth, self, h.Products.UpdateListing)
	products.DELETE("/user/:userId/listings/:listingId", auth, self, h.Products.DeleteListing)

	carts := v1.Group("/carts", auth)
	carts.GET("/customer/:userId", self, h.Carts.GetForCustomer)
	carts.POST("/customer/:userId/items", self, h.Carts.AddItemForCustomer)
	carts.GET("/:cartId", h.Carts.Get)
	carts.POST("/:cartId/items", h.Carts.AddItem)
	carts.PUT("/:cartId/items/:itemId", h.Carts.UpdateItem)
	carts.DELETE("/:cartId/items/:itemId", h.Carts.DeleteItem)
	carts.DELETE("/:cartId/clear", h.Carts.Clear)

	orders := v1.Group("/orders", auth)
	orders.GET("", admin, h.Orders.List)
	orders.GET("/user/:userId", self, h.Orders.ListForCustomer)
	orders.GET("/seller/:userId", self, h.Orders.ListForSeller)
	orders.GET("/:id", h.Orders.Get)
	orders.POST("/user/:userId", self, h.Orders.Create)

	return router
}
