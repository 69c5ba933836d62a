package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/pricing"
	cartsvc "storefront/internal/service/cart"
)

type cartService interface {
	Create(ctx context.Context, in cartsvc.CreateInput) (*domain.Cart, error)
	Get(ctx context.Context, id string) (*domain.Cart, error)
	Update(ctx context.Context, cartID string, in cartsvc.UpdateInput) (*domain.Cart, error)
	Totals(ctx context.Context, cartID string, discount pricing.Discount) (*domain.Pricing, error)
}

func createCartHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cartsvc.CreateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		cart, err := svc.Create(c.Request.Context(), req)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, cart)
	}
}

func getCartHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func updateCartHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cartsvc.UpdateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		cart, err := svc.Update(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func cartTotalsHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		totals, err := svc.Totals(c.Request.Context(), c.Param("id"), pricing.Discount{})
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, totals)
	}
}
