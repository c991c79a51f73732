package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/narzo/internal/audit/domain"
	postdomain "github.com/smallbiznis/narzo/internal/post/domain"
)

const targetPost = "post"

func (s *Server) ListPosts(c *gin.Context) {
	includeUnpublished, err := s.adminFlag(c, "all")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	ctx := c.Request.Context()

	if slug := strings.TrimSpace(c.Query("slug")); slug != "" {
		post, err := s.posts.GetBySlug(ctx, slug, includeUnpublished)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": post})
		return
	}

	featured, err := parseOptionalBool(c.Query("featured"))
	if err != nil {
		AbortWithError(c, newValidationError("featured", "invalid_featured", "invalid featured"))
		return
	}
	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil {
		AbortWithError(c, postdomain.ErrInvalidLimit)
		return
	}

	posts, err := s.posts.List(ctx, postdomain.ListRequest{
		IncludeUnpublished: includeUnpublished,
		Category:           strings.TrimSpace(c.Query("category")),
		Featured:           featured,
		Limit:              limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": posts})
}

func (s *Server) UpsertPost(c *gin.Context) {
	var req postdomain.UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	post, created, err := s.posts.Upsert(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAdminAction(c, auditdomain.ActionPostUpsert, targetPost, post.ID, map[string]any{
		"slug":      post.Slug,
		"created":   created,
		"published": post.Published,
	})
	c.JSON(upsertStatus(created), gin.H{"data": post})
}

func (s *Server) DeletePost(c *gin.Context) {
	req := postdomain.DeleteRequest{
		ID:   strings.TrimSpace(c.Query("id")),
		Slug: strings.TrimSpace(c.Query("slug")),
	}
	if err := s.posts.Delete(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAdminAction(c, auditdomain.ActionPostDelete, targetPost, req.ID, map[string]any{
		"slug": req.Slug,
	})
	c.JSON(http.StatusOK, gin.H{"success": true})
}
