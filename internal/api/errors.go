package api

import (
	"errors"
	"net/http"

	"textile-backoffice/internal/models"
	"textile-backoffice/internal/policy"
	"textile-backoffice/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps domain errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidTransition), errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "redirect": policy.RouteLogin})
	case errors.Is(err, models.ErrForbidden):
		redirect, _ := policy.DefaultRoute(claimsFrom(c).Role)
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "redirect": redirect})
	default:
		util.WithTrace(c.Request.Context()).Error("Request failed",
			zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}
