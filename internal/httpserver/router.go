package httpserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

// Deps carries the services the handlers need.
type Deps struct {
	Catalog catalogService
	Ratings ratingService
	Carts   cartService
	Orders  orderService
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.Catalog == nil || deps.Ratings == nil || deps.Carts == nil || deps.Orders == nil {
		return nil, errors.New("httpserver: missing service dependency")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.Default())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.GET("/products", listProductsHandler(deps.Catalog))
	router.GET("/products/:id", getProductHandler(deps.Catalog))
	router.POST("/products/:id/reviews", addReviewHandler(deps.Ratings))

	router.POST("/carts", createCartHandler(deps.Carts))
	router.GET("/carts/:id", getCartHandler(deps.Carts))
	router.POST("/carts/:id", updateCartHandler(deps.Carts))
	router.GET("/carts/:id/totals", cartTotalsHandler(deps.Carts))
	router.POST("/carts/:id/checkout", checkoutHandler(deps.Orders))

	router.GET("/orders", listOrdersHandler(deps.Orders))
	router.GET("/orders/:id", getOrderHandler(deps.Orders))
	router.POST("/orders/:id/cancel", cancelOrderHandler(deps.Orders))
	router.POST("/orders/:id/payment", paymentHandler(deps.Orders))

	admin := router.Group("/admin", adminRequired())
	admin.GET("/products", adminListProductsHandler(deps.Catalog))
	admin.POST("/products", adminCreateProductHandler(deps.Catalog))
	admin.PUT("/products/:id", adminUpdateProductHandler(deps.Catalog))
	admin.DELETE("/products/:id", adminDeactivateProductHandler(deps.Catalog))
	admin.PUT("/products/:id/stock", adminSetStockHandler(deps.Catalog))
	admin.POST("/orders/:id/status", adminOrderStatusHandler(deps.Orders))

	return router, nil
}

// adminRequired checks the acting user id supplied by the auth collaborator.
// The id itself is opaque to this service.
func adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Admin-User") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-Admin-User header"})
			return
		}
		c.Next()
	}
}

// renderError maps the domain error taxonomy onto HTTP status codes.
func renderError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPricingMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
