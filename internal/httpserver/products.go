package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type catalogService interface {
	List(ctx context.Context, includeInactive bool) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Deactivate(ctx context.Context, id string) error
	SetStock(ctx context.Context, id string, stock int) (*domain.Product, error)
}

type ratingService interface {
	AddReview(ctx context.Context, productID string, stars int) (*domain.Ratings, error)
}

func listProductsHandler(svc catalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svc.List(c.Request.Context(), false)
		if err != nil {
			renderError(c, err)
			return
		}
		if products == nil {
			products = []domain.Product{}
		}
		c.JSON(http.StatusOK, gin.H{"results": products, "total": len(products)})
	}
}

func getProductHandler(svc catalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

type reviewRequest struct {
	Stars int `json:"stars"`
}

func addReviewHandler(svc ratingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		ratings, err := svc.AddReview(c.Request.Context(), c.Param("id"), req.Stars)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ratings)
	}
}
