package api

import (
	"net/http"

	"textile-backoffice/internal/policy"
	"textile-backoffice/internal/service"
	"textile-backoffice/internal/store"

	"github.com/gin-gonic/gin"
)

func (h *Handler) registerProductRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products", requireArea(policy.RouteProducts))
	products.GET("", h.listProducts)
	products.GET("/:id", h.getProduct)
	products.POST("", requireAction(policy.ActionEditProducts), h.createProduct)
	products.PUT("/:id", requireAction(policy.ActionEditProducts), h.updateProduct)
	products.PATCH("/:id/notes", requireAction(policy.ActionEditProducts), h.updateProductNotes)
	products.POST("/:id/restock", requireAction(policy.ActionRestock), h.restockProduct)
	products.DELETE("/:id", requireAction(policy.ActionDelete), h.deleteProduct)

	categories := rg.Group("/categories", requireArea(policy.RouteProducts))
	categories.GET("", h.listCategories)
	categories.POST("", requireAction(policy.ActionEditCatalog), h.addCategory)

	brands := rg.Group("/brands", requireArea(policy.RouteProducts))
	brands.GET("", h.listBrands)
	brands.POST("", requireAction(policy.ActionEditCatalog), h.addBrand)
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.svc.Catalog.ListProducts(c.Request.Context(), store.ProductFilter{
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		Search:   c.Query("q"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.svc.Catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) createProduct(c *gin.Context) {
	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.svc.Catalog.CreateProduct(c.Request.Context(), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.svc.Catalog.UpdateProduct(c.Request.Context(), c.Param("id"), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) updateProductNotes(c *gin.Context) {
	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.Catalog.UpdateProductNotes(c.Request.Context(), c.Param("id"), req.Notes); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) restockProduct(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	change, err := h.svc.Catalog.Restock(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, change)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.svc.Catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.svc.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) addCategory(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	category, err := h.svc.Catalog.AddCategory(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) listBrands(c *gin.Context) {
	brands, err := h.svc.Catalog.ListBrands(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, brands)
}

func (h *Handler) addBrand(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	brand, err := h.svc.Catalog.AddBrand(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, brand)
}
