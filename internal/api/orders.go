package api

import (
	"net/http"

	"textile-backoffice/internal/models"
	"textile-backoffice/internal/policy"
	"textile-backoffice/internal/service"
	"textile-backoffice/internal/store"

	"github.com/gin-gonic/gin"
)

func (h *Handler) registerOrderRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders", requireArea(policy.RouteOrders))
	orders.GET("", h.listOrders)
	orders.GET("/:id", h.getOrder)
	orders.POST("", requireAction(policy.ActionCreateOrder), h.createOrder)
	orders.PATCH("/:id/status", requireAction(policy.ActionShipOrder), h.updateOrderStatus)
	orders.POST("/:id/ship", requireAction(policy.ActionShipOrder), h.shipOrder)
	orders.DELETE("/:id", requireAction(policy.ActionDelete), h.deleteOrder)
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.svc.Orders.ListOrders(c.Request.Context(), store.OrderFilter{
		Status:     models.OrderStatus(c.Query("status")),
		CustomerID: c.Query("customer_id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.svc.Orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// createOrder handles order creation
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.IdempotencyKey = c.GetHeader("Idempotency-Key")

	order, err := h.svc.Orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.svc.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) shipOrder(c *gin.Context) {
	order, err := h.svc.Orders.ShipOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) deleteOrder(c *gin.Context) {
	if err := h.svc.Orders.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
