package api

import (
	"errors"
	"net/http"
	"strings"

	"textile-backoffice/internal/auth"
	"textile-backoffice/internal/models"
	"textile-backoffice/internal/policy"
	"textile-backoffice/internal/util"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// authenticate resolves the bearer token into session claims. A session
// whose role has no access policy is told to log out.
func (h *Handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abortUnauthorized(c, "missing bearer token", false)
			return
		}

		claims, err := h.svc.Users.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, models.ErrUnauthorized) {
				abortUnauthorized(c, "invalid or expired session", false)
				return
			}
			respondError(c, err)
			c.Abort()
			return
		}

		if _, known := policy.DefaultRoute(claims.Role); !known {
			util.AccessDeniedTotal.WithLabelValues(string(claims.Role), "unknown_role").Inc()
			abortUnauthorized(c, "role has no access policy", true)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// requireArea admits roles whose allow-list covers route
func requireArea(route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFrom(c)
		if !policy.IsAllowed(claims.Role, route) {
			util.AccessDeniedTotal.WithLabelValues(string(claims.Role), "area").Inc()
			abortForbidden(c, claims.Role, "area not available to your role")
			return
		}
		c.Next()
	}
}

// requireAction admits roles holding the capability
func requireAction(action policy.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFrom(c)
		if !policy.Can(claims.Role, action) {
			util.AccessDeniedTotal.WithLabelValues(string(claims.Role), "action").Inc()
			abortForbidden(c, claims.Role, "action not available to your role")
			return
		}
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return &auth.Claims{}
	}
	return v.(*auth.Claims)
}

func abortUnauthorized(c *gin.Context, msg string, logout bool) {
	body := gin.H{"error": msg, "redirect": policy.RouteLogin}
	if logout {
		body["logout"] = true
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, body)
}

func abortForbidden(c *gin.Context, role models.Role, msg string) {
	redirect, _ := policy.DefaultRoute(role)
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msg, "redirect": redirect})
}
