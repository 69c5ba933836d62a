package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

func adminListProductsHandler(svc catalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svc.List(c.Request.Context(), true)
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

func adminCreateProductHandler(svc catalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req domain.Product
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		product, err := svc.Create(c.Request.Context(), req)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}

func adminUpdateProductHandler(svc catalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req domain.Product
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		req.ID = c.Param("id")
		product, err := svc.Update(c.Request.Context(), req)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func adminDeactivateProductHandler(svc catalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
			renderError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type stockRequest struct {
	Stock int `json:"stock"`
}

func adminSetStockHandler(svc catalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req stockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		product, err := svc.SetStock(c.Request.Context(), c.Param("id"), req.Stock)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
