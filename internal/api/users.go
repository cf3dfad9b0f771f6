package api

import (
	"net/http"

	"textile-backoffice/internal/policy"
	"textile-backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) registerUserRoutes(rg *gin.RouterGroup) {
	// settings are reachable by every role
	rg.PATCH("/users/:id/preferences", requireArea(policy.RouteSettings), requireAction(policy.ActionUpdatePreferences), h.updatePreferences)

	users := rg.Group("/users", requireArea(policy.RoutePersonnel))
	users.GET("", h.listUsers)
	users.GET("/:id", h.getUser)
	users.POST("", requireAction(policy.ActionManageUsers), h.createUser)
	users.PATCH("/:id", requireAction(policy.ActionManageUsers), h.updateUser)
	users.DELETE("/:id", requireAction(policy.ActionDelete), h.deleteUser)
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.svc.Users.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.svc.Users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) createUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.svc.Users.CreateUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) updateUser(c *gin.Context) {
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.svc.Users.UpdateUser(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) updatePreferences(c *gin.Context) {
	var req struct {
		Language string `json:"language" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.svc.Users.UpdatePreferences(c.Request.Context(), claimsFrom(c), c.Param("id"), req.Language)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.svc.Users.DeleteUser(c.Request.Context(), claimsFrom(c).UserID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
