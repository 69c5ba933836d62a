package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	ordersvc "storefront/internal/service/order"
)

type orderService interface {
	Checkout(ctx context.Context, in ordersvc.CheckoutInput) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	Cancel(ctx context.Context, id string) (*domain.Order, error)
	RecordPayment(ctx context.Context, id string, res ordersvc.PaymentResult) (*domain.Order, error)
	Transition(ctx context.Context, id string, to domain.OrderStatus, tracking *domain.Tracking) (*domain.Order, error)
}

func checkoutHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ordersvc.CheckoutInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		req.CartID = c.Param("id")
		order, err := svc.Checkout(c.Request.Context(), req)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

func listOrdersHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID := c.Query("customerId")
		if customerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "customerId query parameter is required"})
			return
		}
		orders, err := svc.ListByCustomer(c.Request.Context(), customerID)
		if err != nil {
			renderError(c, err)
			return
		}
		if orders == nil {
			orders = []domain.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"results": orders, "total": len(orders)})
	}
}

func getOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func cancelOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Cancel(c.Request.Context(), c.Param("id"))
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func paymentHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ordersvc.PaymentResult
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		order, err := svc.RecordPayment(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

type orderStatusRequest struct {
	Status   domain.OrderStatus `json:"status"`
	Tracking *domain.Tracking   `json:"tracking,omitempty"`
}

func adminOrderStatusHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req orderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		order, err := svc.Transition(c.Request.Context(), c.Param("id"), req.Status, req.Tracking)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
