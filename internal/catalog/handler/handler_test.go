package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/armoryshop/armory-backend/internal/catalog"
	"github.com/armoryshop/armory-backend/internal/catalog/repository"
	"github.com/armoryshop/armory-backend/internal/catalog/service"
)

func newTestRouter(t *testing.T, doc string) *gin.Engine {
	t.Helper()
	g := gin.New()
	svc := service.NewCachedStore(repository.NewMemoryStore([]byte(doc)), 10*time.Second)
	RegisterCatalogRoutes(g, svc, nil)
	return g
}

func doJSON(g *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func TestCatalogEndToEnd(t *testing.T) {
	g := newTestRouter(t, `{"categories":[],"weapons":[],"settings":{}}`)

	// add a category
	w := doJSON(g, http.MethodPost, "/api/categories",
		`{"name":"Pistols","slug":"pistols","description":"d","image":"i"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var cat catalog.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cat))
	require.NotEmpty(t, cat.ID)
	require.Equal(t, "pistols", cat.Slug)

	// add a weapon in that category
	w = doJSON(g, http.MethodPost, "/api/weapons",
		`{"name":"Glock","slug":"glock","categoryId":"`+cat.ID+`","price":500,
		  "images":["a.jpg"],"shortDescription":"s","fullDescription":"f","specifications":{}}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var wp catalog.Weapon
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wp))
	require.Equal(t, 500.0, wp.Price)

	// the category page lists exactly that weapon
	w = doJSON(g, http.MethodGet, "/api/categories/pistols/weapons", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ws []catalog.Weapon
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ws))
	require.Len(t, ws, 1)
	require.Equal(t, wp.ID, ws[0].ID)

	// settings round-trip
	w = doJSON(g, http.MethodPut, "/api/settings", `{"orderButtonUrl":"https://t.me/x"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(g, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var s catalog.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	require.Equal(t, "https://t.me/x", s.OrderButtonURL)

	// delete the category: the weapon is orphaned, not cascaded
	w = doJSON(g, http.MethodDelete, "/api/categories?id="+cat.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(g, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	var cats []catalog.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cats))
	require.Empty(t, cats)

	w = doJSON(g, http.MethodGet, "/api/weapons", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ws))
	require.Len(t, ws, 1)
	require.Equal(t, cat.ID, ws[0].CategoryID)
}

func TestCreateCategory_Defaults(t *testing.T) {
	g := newTestRouter(t, `{"categories":[],"weapons":[]}`)

	w := doJSON(g, http.MethodPost, "/api/categories", `{"name":"Sniper Rifles"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var cat catalog.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cat))
	require.Equal(t, "sniper-rifles", cat.Slug)
	require.Equal(t, "/images/categories/default.jpg", cat.Image)
}

func TestCreateWeapon_Defaults(t *testing.T) {
	g := newTestRouter(t, `{"categories":[],"weapons":[]}`)

	// price arrives as a string from the admin form
	w := doJSON(g, http.MethodPost, "/api/weapons", `{"name":"AK 47","price":"899.99"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var wp catalog.Weapon
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wp))
	require.Equal(t, "ak-47", wp.Slug)
	require.Equal(t, 899.99, wp.Price)
	require.Equal(t, []string{"/images/weapons/default.jpg"}, wp.Images)
	require.NotNil(t, wp.Specifications)
}

func TestUpdateCategory_PartialBody(t *testing.T) {
	g := newTestRouter(t, `{
	  "categories":[{"id":"1","name":"Pistols","slug":"pistols","description":"d","image":"i"}],
	  "weapons":[]}`)

	w := doJSON(g, http.MethodPut, "/api/categories", `{"id":"1","description":"X"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true}`, w.Body.String())

	w = doJSON(g, http.MethodGet, "/api/categories", "")
	var cats []catalog.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cats))
	require.Equal(t, "X", cats[0].Description)
	require.Equal(t, "Pistols", cats[0].Name)
}

func TestUpdate_MissingIDStillSucceeds(t *testing.T) {
	g := newTestRouter(t, `{"categories":[],"weapons":[]}`)

	w := doJSON(g, http.MethodPut, "/api/weapons", `{"id":"nope","name":"x"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestDelete_RequiresID(t *testing.T) {
	g := newTestRouter(t, `{"categories":[],"weapons":[]}`)

	w := doJSON(g, http.MethodDelete, "/api/categories", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(g, http.MethodDelete, "/api/weapons", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetWeaponBySlug_Encoded(t *testing.T) {
	g := newTestRouter(t, `{
	  "categories":[],
	  "weapons":[{"id":"11","name":"AK 47","slug":"ak 47","categoryId":"2","price":900,
	    "images":[],"shortDescription":"s","fullDescription":"f","specifications":{}}]}`)

	w := doJSON(g, http.MethodGet, "/api/weapons/ak%2047", "")
	require.Equal(t, http.StatusOK, w.Code)
	var wp catalog.Weapon
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wp))
	require.Equal(t, "11", wp.ID)

	w = doJSON(g, http.MethodGet, "/api/weapons/no-such", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestFetchFailureMapsTo500(t *testing.T) {
	g := gin.New()
	// backend with no document at all
	svc := service.NewCachedStore(&emptyBackend{}, 10*time.Second)
	RegisterCatalogRoutes(g, svc, nil)

	w := doJSON(g, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "Failed to fetch categories")
}

func TestUploads_UnconfiguredAnswers503(t *testing.T) {
	g := newTestRouter(t, `{"categories":[],"weapons":[]}`)

	w := doJSON(g, http.MethodPost, "/api/uploads", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

type emptyBackend struct{}

func (emptyBackend) Fetch(ctx context.Context) ([]byte, string, error) {
	return nil, "", repository.ErrRemoteUnavailable
}

func (emptyBackend) Write(ctx context.Context, data []byte, version string) (string, error) {
	return "", repository.ErrRemoteUnavailable
}
