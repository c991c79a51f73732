package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/narzo/internal/audit/domain"
	productdomain "github.com/smallbiznis/narzo/internal/product/domain"
)

const targetProduct = "product"

// ListProducts serves the catalog. all=true includes inactive products and
// needs the admin key; slug= returns a single product.
func (s *Server) ListProducts(c *gin.Context) {
	includeInactive, err := s.adminFlag(c, "all")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	ctx := c.Request.Context()

	if slug := strings.TrimSpace(c.Query("slug")); slug != "" {
		product, err := s.products.GetBySlug(ctx, slug, includeInactive)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": product})
		return
	}

	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}
	products, err := s.products.List(ctx, productdomain.ListRequest{
		IncludeInactive: includeInactive,
		CategoryID:      strings.TrimSpace(c.Query("category")),
		Limit:           limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products})
}

func (s *Server) UpsertProduct(c *gin.Context) {
	var req productdomain.UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	product, created, err := s.products.Upsert(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAdminAction(c, auditdomain.ActionProductUpsert, targetProduct, product.ID, map[string]any{
		"slug":    product.Slug,
		"created": created,
		"price":   product.Price,
	})
	c.JSON(upsertStatus(created), gin.H{"data": product})
}

func (s *Server) DeleteProduct(c *gin.Context) {
	req := productdomain.DeleteRequest{
		ID:   strings.TrimSpace(c.Query("id")),
		Slug: strings.TrimSpace(c.Query("slug")),
	}
	if err := s.products.Delete(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAdminAction(c, auditdomain.ActionProductDelete, targetProduct, req.ID, map[string]any{
		"slug": req.Slug,
	})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// adminFlag reads a boolean query flag that only an admin may set.
func (s *Server) adminFlag(c *gin.Context, name string) (bool, error) {
	flag, err := parseOptionalBool(c.Query(name))
	if err != nil {
		return false, newValidationError(name, "invalid_"+name, "invalid "+name)
	}
	if flag == nil || !*flag {
		return false, nil
	}
	if !s.isAdmin(c) {
		return false, ErrUnauthorized
	}
	return true, nil
}

func upsertStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
