package api

import (
	"net/http"

	"textile-backoffice/internal/models"
	"textile-backoffice/internal/policy"
	"textile-backoffice/internal/store"

	"github.com/gin-gonic/gin"
)

func (h *Handler) registerHistoryRoutes(rg *gin.RouterGroup) {
	history := rg.Group("/history", requireArea(policy.RouteHistory))
	history.GET("", h.listHistory)
	history.POST("/:id/restore", requireAction(policy.ActionRestore), h.restoreRecord)
}

func (h *Handler) registerDashboardRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard", requireArea(policy.RouteHome), h.dashboard)
}

func (h *Handler) listHistory(c *gin.Context) {
	filter := store.ActivityFilter{Search: c.Query("q")}
	if t := c.Query("type"); t != "" {
		typ, err := models.ParseEntityType(t)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.Type = typ
	}

	items, err := h.svc.Activity.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) restoreRecord(c *gin.Context) {
	item, err := h.svc.Activity.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) dashboard(c *gin.Context) {
	summary, err := h.svc.Dashboard.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
