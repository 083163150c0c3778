package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"storefront/internal/auth"
	"storefront/internal/service"
)

// Services bundles the business layer the API exposes
type Services struct {
	Orders     *service.OrderService
	Reviews    *service.ReviewService
	Products   *service.ProductService
	Categories *service.CategoryService
	Users      *service.UserService
	Carts      *service.CartService
	Dashboard  *service.DashboardService
}

type Server struct {
	engine *gin.Engine
	svc    Services
	tokens *auth.Tokens
	logger *slog.Logger
	ping   func(ctx context.Context) error
}

type Option func(*Server)

// WithHealthCheck makes /healthz report the result of ping.
func WithHealthCheck(ping func(ctx context.Context) error) Option {
	return func(s *Server) { s.ping = ping }
}

func NewServer(svc Services, tokens *auth.Tokens, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery())
	s := &Server{engine: r, svc: svc, tokens: tokens, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/healthz", s.healthz)

	api := s.engine.Group("/api")
	{
		api.GET("/reviews/stats/:productId", s.reviewStats)
		api.GET("/reviews/:id", s.getReview)
	}

	authed := api.Group("", s.authRequired())
	{
		authed.GET("/auth/me", s.me)

		orders := authed.Group("/orders")
		orders.POST("", s.createOrder)
		orders.GET("", s.listMyOrders)
		orders.GET("/:id", s.getMyOrder)

		reviews := authed.Group("/reviews")
		reviews.POST("", s.createReview)
		reviews.DELETE("/:id", s.deleteReview)

		cart := authed.Group("/cart")
		cart.GET("", s.getCart)
		cart.DELETE("", s.clearCart)
		cart.PUT("/items", s.setCartItem)
		cart.DELETE("/items/:productId", s.removeCartItem)
	}

	admin := authed.Group("/admin", s.adminOnly())
	{
		admin.GET("/dashboard", s.dashboard)

		orders := admin.Group("/orders")
		orders.GET("", s.adminListOrders)
		orders.GET("/:id", s.adminGetOrder)
		orders.PUT("/:id", s.adminUpdateOrderStatus)

		products := admin.Group("/products")
		products.POST("", s.createProduct)
		products.GET("/:id", s.getProduct)
		products.PUT("/:id", s.updateProduct)
		products.DELETE("/:id", s.deleteProduct)
		products.POST("/:id/restore", s.restoreProduct)

		categories := admin.Group("/categories")
		categories.POST("", s.createCategory)
		categories.GET("/:id", s.getCategory)
		categories.PUT("/:id", s.updateCategory)
		categories.DELETE("/:id", s.deleteCategory)
		categories.POST("/:id/restore", s.restoreCategory)

		users := admin.Group("/users")
		users.GET("/:id", s.getUser)
		users.PUT("/:id", s.updateUser)
		users.DELETE("/:id", s.deleteUser)
		users.POST("/:id/restore", s.restoreUser)
	}
}

// healthz answers 200 while the backing store is reachable.
func (s *Server) healthz(c *gin.Context) {
	if s.ping != nil {
		if err := s.ping(c.Request.Context()); err != nil {
			s.logger.ErrorContext(c, "health check failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
