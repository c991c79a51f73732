package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/narzo/internal/audit/domain"
	categorydomain "github.com/smallbiznis/narzo/internal/category/domain"
)

const targetCategory = "category"

// ListCategories returns the category tree by default; flat=true,
// parents=true and parent=<id> select the other shapes.
func (s *Server) ListCategories(c *gin.Context) {
	ctx := c.Request.Context()

	if parentID := strings.TrimSpace(c.Query("parent")); parentID != "" {
		children, err := s.categories.Children(ctx, parentID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": children})
		return
	}

	flat, err := parseOptionalBool(c.Query("flat"))
	if err != nil {
		AbortWithError(c, newValidationError("flat", "invalid_flat", "invalid flat"))
		return
	}
	parents, err := parseOptionalBool(c.Query("parents"))
	if err != nil {
		AbortWithError(c, newValidationError("parents", "invalid_parents", "invalid parents"))
		return
	}

	var data any
	switch {
	case parents != nil && *parents:
		data, err = s.categories.Parents(ctx)
	case flat != nil && *flat:
		data, err = s.categories.Flat(ctx)
	default:
		data, err = s.categories.Tree(ctx)
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func (s *Server) UpsertCategory(c *gin.Context) {
	var req categorydomain.UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	category, err := s.categories.Upsert(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAdminAction(c, auditdomain.ActionCategoryUpsert, targetCategory, category.ID, map[string]any{
		"slug": category.Slug,
	})
	c.JSON(http.StatusOK, gin.H{"data": category})
}

func (s *Server) DeleteCategory(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if err := s.categories.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAdminAction(c, auditdomain.ActionCategoryDelete, targetCategory, id, nil)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
