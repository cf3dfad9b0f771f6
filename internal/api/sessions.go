package api

import (
	"net/http"

	"textile-backoffice/internal/models"
	"textile-backoffice/internal/policy"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Password string `json:"password"`
}

func (h *Handler) registerSessionRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/logout", h.logout)
	rg.GET("/auth/me", h.me)
	rg.GET("/access/routes", h.accessRoutes)
	rg.GET("/access/resolve", h.resolveRoute)
	rg.GET("/changes", h.streamChanges)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.Users.Login(c.Request.Context(), req.UserID, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.svc.Users.Logout(c.Request.Context(), claimsFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": policy.RouteLogin})
}

func (h *Handler) me(c *gin.Context) {
	claims := claimsFrom(c)
	user, err := h.svc.Users.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	def, _ := policy.DefaultRoute(user.Role)
	c.JSON(http.StatusOK, gin.H{
		"user":          user,
		"default_route": def,
		"routes":        policy.AllowedRoutes(user.Role),
		"actions":       policy.Capabilities(user.Role),
	})
}

func (h *Handler) accessRoutes(c *gin.Context) {
	role := claimsFrom(c).Role
	def, _ := policy.DefaultRoute(role)
	c.JSON(http.StatusOK, gin.H{
		"role":          role,
		"default_route": def,
		"routes":        policy.AllowedRoutes(role),
		"actions":       policy.Capabilities(role),
	})
}

func (h *Handler) resolveRoute(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		respondError(c, models.ErrValidation)
		return
	}
	c.JSON(http.StatusOK, policy.Resolve(claimsFrom(c).Role, path))
}
