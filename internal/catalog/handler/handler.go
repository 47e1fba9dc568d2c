package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/armoryshop/armory-backend/internal/catalog"
	"github.com/armoryshop/armory-backend/internal/catalog/service"
	"github.com/armoryshop/armory-backend/internal/storage"
	"github.com/armoryshop/armory-backend/pkg/logger"
)

const (
	defaultCategoryImage = "/images/categories/default.jpg"
	defaultWeaponImage   = "/images/weapons/default.jpg"
)

var whitespace = regexp.MustCompile(`\s+`)

// slugify derives a URL slug from a display name: lowercase, whitespace
// collapsed to single dashes.
func slugify(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// priceValue accepts a JSON number or a numeric string; admin forms submit
// either depending on the input widget.
type priceValue float64

func (p *priceValue) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		if str == "" {
			*p = 0
			return nil
		}
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("invalid price %q", str)
		}
		*p = priceValue(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*p = priceValue(f)
	return nil
}

// CatalogHandler exposes the catalog HTTP surface consumed by the storefront
// and the admin panel.
type CatalogHandler struct {
	svc    service.Catalog
	images *storage.ImageStore
}

// RegisterCatalogRoutes wires the catalog endpoints. images may be nil when
// no upload bucket is configured; the uploads endpoint then answers 503.
func RegisterCatalogRoutes(r *gin.Engine, svc service.Catalog, images *storage.ImageStore) {
	h := &CatalogHandler{svc: svc, images: images}

	api := r.Group("/api")
	api.GET("/categories", h.ListCategories)
	api.POST("/categories", h.CreateCategory)
	api.PUT("/categories", h.UpdateCategory)
	api.DELETE("/categories", h.DeleteCategory)
	api.GET("/categories/:slug", h.GetCategoryBySlug)
	api.GET("/categories/:slug/weapons", h.ListCategoryWeapons)

	api.GET("/weapons", h.ListWeapons)
	api.POST("/weapons", h.CreateWeapon)
	api.PUT("/weapons", h.UpdateWeapon)
	api.DELETE("/weapons", h.DeleteWeapon)
	api.GET("/weapons/:slug", h.GetWeaponBySlug)

	api.GET("/settings", h.GetSettings)
	api.PUT("/settings", h.UpdateSettings)

	api.POST("/uploads", h.UploadImage)
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	cats, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		logger.Errorf("list categories: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}
	if cats == nil {
		cats = []catalog.Category{}
	}
	c.JSON(http.StatusOK, cats)
}

type createCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cat := catalog.Category{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Image:       req.Image,
	}
	if cat.Slug == "" {
		cat.Slug = slugify(cat.Name)
	}
	if cat.Image == "" {
		cat.Image = defaultCategoryImage
	}

	if err := h.svc.AddCategory(c.Request.Context(), cat); err != nil {
		logger.Errorf("create category: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}
	c.JSON(http.StatusCreated, cat)
}

type updateCategoryRequest struct {
	ID string `json:"id" binding:"required"`
	catalog.CategoryUpdate
}

func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	var req updateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.UpdateCategory(c.Request.Context(), req.ID, req.CategoryUpdate); err != nil {
		logger.Errorf("update category %s: %v", req.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category ID required"})
		return
	}
	if err := h.svc.DeleteCategory(c.Request.Context(), id); err != nil {
		logger.Errorf("delete category %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CatalogHandler) GetCategoryBySlug(c *gin.Context) {
	cat, err := h.svc.CategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		logger.Errorf("category by slug: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch category"})
		return
	}
	if cat == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *CatalogHandler) ListCategoryWeapons(c *gin.Context) {
	ctx := c.Request.Context()
	cat, err := h.svc.CategoryBySlug(ctx, c.Param("slug"))
	if err != nil {
		logger.Errorf("category weapons: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch weapons"})
		return
	}
	if cat == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}
	ws, err := h.svc.WeaponsByCategory(ctx, cat.ID)
	if err != nil {
		logger.Errorf("category weapons: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch weapons"})
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (h *CatalogHandler) ListWeapons(c *gin.Context) {
	ws, err := h.svc.Weapons(c.Request.Context())
	if err != nil {
		logger.Errorf("list weapons: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch weapons"})
		return
	}
	if ws == nil {
		ws = []catalog.Weapon{}
	}
	c.JSON(http.StatusOK, ws)
}

type createWeaponRequest struct {
	Name             string        `json:"name" binding:"required"`
	Slug             string        `json:"slug"`
	CategoryID       string        `json:"categoryId"`
	Price            priceValue    `json:"price"`
	Images           []string      `json:"images"`
	VideoURL         string        `json:"videoUrl"`
	ShortDescription string        `json:"shortDescription"`
	FullDescription  string        `json:"fullDescription"`
	Specifications   catalog.Specs `json:"specifications"`
}

func (h *CatalogHandler) CreateWeapon(c *gin.Context) {
	var req createWeaponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w := catalog.Weapon{
		ID:               uuid.NewString(),
		Name:             req.Name,
		Slug:             req.Slug,
		CategoryID:       req.CategoryID,
		Price:            float64(req.Price),
		Images:           req.Images,
		VideoURL:         req.VideoURL,
		ShortDescription: req.ShortDescription,
		FullDescription:  req.FullDescription,
		Specifications:   req.Specifications,
	}
	if w.Slug == "" {
		w.Slug = slugify(w.Name)
	}
	if w.Images == nil {
		w.Images = []string{defaultWeaponImage}
	}
	if w.Specifications == nil {
		w.Specifications = catalog.Specs{}
	}

	if err := h.svc.AddWeapon(c.Request.Context(), w); err != nil {
		logger.Errorf("create weapon: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create weapon"})
		return
	}
	c.JSON(http.StatusCreated, w)
}

type updateWeaponRequest struct {
	ID string `json:"id" binding:"required"`
	catalog.WeaponUpdate
}

func (h *CatalogHandler) UpdateWeapon(c *gin.Context) {
	var req updateWeaponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.UpdateWeapon(c.Request.Context(), req.ID, req.WeaponUpdate); err != nil {
		logger.Errorf("update weapon %s: %v", req.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update weapon"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CatalogHandler) DeleteWeapon(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Weapon ID required"})
		return
	}
	if err := h.svc.DeleteWeapon(c.Request.Context(), id); err != nil {
		logger.Errorf("delete weapon %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete weapon"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetWeaponBySlug serves product detail pages; the slug may arrive still
// percent-encoded depending on the caller.
func (h *CatalogHandler) GetWeaponBySlug(c *gin.Context) {
	w, err := h.svc.WeaponBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		logger.Errorf("weapon by slug: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch weapon"})
		return
	}
	if w == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Weapon not found"})
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *CatalogHandler) GetSettings(c *gin.Context) {
	s, err := h.svc.Settings(c.Request.Context())
	if err != nil {
		logger.Errorf("get settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch settings"})
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *CatalogHandler) UpdateSettings(c *gin.Context) {
	var upd catalog.SettingsUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.UpdateSettings(c.Request.Context(), upd); err != nil {
		logger.Errorf("update settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
