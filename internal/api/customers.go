package api

import (
	"net/http"

	"textile-backoffice/internal/policy"
	"textile-backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) registerCustomerRoutes(rg *gin.RouterGroup) {
	customers := rg.Group("/customers", requireArea(policy.RouteCustomers))
	customers.GET("", h.listCustomers)
	customers.GET("/:id", h.getCustomer)
	customers.POST("", requireAction(policy.ActionCreateCustomer), h.createCustomer)
	customers.DELETE("/:id", requireAction(policy.ActionDelete), h.deleteCustomer)
}

func (h *Handler) listCustomers(c *gin.Context) {
	customers, err := h.svc.Customers.ListCustomers(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *Handler) getCustomer(c *gin.Context) {
	detail, err := h.svc.Customers.GetCustomerDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) createCustomer(c *gin.Context) {
	var in service.CustomerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	customer, err := h.svc.Customers.CreateCustomer(c.Request.Context(), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *Handler) deleteCustomer(c *gin.Context) {
	if err := h.svc.Customers.DeleteCustomer(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
