package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/narzo/internal/audit/domain"
	storagedomain "github.com/smallbiznis/narzo/internal/storage/domain"
)

const (
	targetFile = "file"

	// multipart framing on top of the file itself
	uploadOverheadBytes = 64 << 10
)

// UploadImage stores a multipart image under a generated key.
func (s *Server) UploadImage(c *gin.Context) {
	if limit := s.cfg.Storage.MaxUploadBytes; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+uploadOverheadBytes)
	}

	header, err := c.FormFile("file")
	if err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			AbortWithError(c, storagedomain.ErrFileTooLarge)
			return
		}
		AbortWithError(c, newValidationError("file", "invalid_file", "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer file.Close()

	obj, err := s.storage.Upload(c.Request.Context(), storagedomain.UploadRequest{
		Filename: header.Filename,
		Body:     file,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAdminAction(c, auditdomain.ActionFileUpload, targetFile, obj.Key, map[string]any{
		"filename":     header.Filename,
		"size":         obj.Size,
		"content_type": obj.ContentType,
	})
	c.JSON(http.StatusCreated, gin.H{"data": obj, "url": obj.URL})
}

func (s *Server) ListFiles(c *gin.Context) {
	objects, err := s.storage.List(c.Request.Context(), strings.TrimSpace(c.Query("prefix")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": objects})
}

func (s *Server) HeadFile(c *gin.Context) {
	obj, err := s.storage.Head(c.Request.Context(), fileKey(c))
	if err != nil {
		status, _ := mapError(err)
		_ = c.Error(err)
		c.AbortWithStatus(status)
		return
	}

	c.Header("Content-Length", strconv.FormatInt(obj.Size, 10))
	if obj.ContentType != "" {
		c.Header("Content-Type", obj.ContentType)
	}
	if obj.ETag != "" {
		c.Header("ETag", obj.ETag)
	}
	if obj.LastModified != nil {
		c.Header("Last-Modified", obj.LastModified.UTC().Format(http.TimeFormat))
	}
	if obj.URL != "" {
		c.Header("Location", obj.URL)
	}
	c.Status(http.StatusOK)
}

// PutFile writes the raw request body to the object at key.
func (s *Server) PutFile(c *gin.Context) {
	key := fileKey(c)
	obj, err := s.storage.Put(c.Request.Context(), storagedomain.PutRequest{
		Key:         key,
		ContentType: c.GetHeader("Content-Type"),
		Size:        c.Request.ContentLength,
		Body:        c.Request.Body,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAdminAction(c, auditdomain.ActionFilePut, targetFile, obj.Key, map[string]any{
		"size":         obj.Size,
		"content_type": obj.ContentType,
	})
	c.JSON(http.StatusOK, gin.H{"data": obj})
}

func fileKey(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("key"), "/")
}
