package handler

import (
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/armoryshop/armory-backend/pkg/logger"
)

const presignedURLTTL = 7 * 24 * time.Hour

// UploadImage accepts a multipart image and stores it in the configured
// bucket, returning the object key and a presigned URL the admin panel can
// paste into a category or weapon image field.
func (h *CatalogHandler) UploadImage(c *gin.Context) {
	if h.images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Uploads not configured"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return
	}
	defer file.Close()

	key := uuid.NewString() + path.Ext(header.Filename)
	contentType := header.Header.Get("Content-Type")

	ctx := c.Request.Context()
	if err := h.images.Upload(ctx, key, file, header.Size, contentType); err != nil {
		logger.Errorf("upload image: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	url, err := h.images.PresignedURL(ctx, key, presignedURLTTL)
	if err != nil {
		logger.Errorf("presign image url: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key, "url": url})
}
