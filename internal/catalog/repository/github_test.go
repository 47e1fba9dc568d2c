package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/armoryshop/armory-backend/internal/catalog"
)

func newTestGitHubStore(t *testing.T, handler http.Handler) *GitHubStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGitHubStore(GitHubOptions{
		Token:    "test-token",
		Owner:    "armoryshop",
		Repo:     "store-data",
		Branch:   "main",
		FilePath: "data/store.json",
		BaseURL:  srv.URL,
	})
}

func TestGitHubStore_Fetch(t *testing.T) {
	doc := `{"categories":[],"weapons":[]}`
	// GitHub wraps base64 content with newlines
	content := base64.StdEncoding.EncodeToString([]byte(doc))
	wrapped := content[:10] + "\n" + content[10:] + "\n"

	store := newTestGitHubStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/repos/armoryshop/store-data/contents/data/store.json", r.URL.Path)
		require.Equal(t, "main", r.URL.Query().Get("ref"))
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{"content": wrapped, "sha": "abc123"})
	}))

	raw, version, err := store.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, doc, string(raw))
	require.Equal(t, "abc123", version)
}

func TestGitHubStore_FetchRemoteError(t *testing.T) {
	store := newTestGitHubStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, _, err := store.Fetch(context.Background())
	require.ErrorIs(t, err, ErrRemoteUnavailable)
}

func TestGitHubStore_FetchBadBase64(t *testing.T) {
	store := newTestGitHubStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"content": "!!not-base64!!", "sha": "abc"})
	}))

	_, _, err := store.Fetch(context.Background())
	require.ErrorIs(t, err, catalog.ErrMalformedDocument)
}

func TestGitHubStore_Write(t *testing.T) {
	doc := []byte(`{"categories":[],"weapons":[]}`)

	store := newTestGitHubStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/repos/armoryshop/store-data/contents/data/store.json", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Update store data from admin panel", body["message"])
		require.Equal(t, "main", body["branch"])
		require.Equal(t, "prev-sha", body["sha"])

		decoded, err := base64.StdEncoding.DecodeString(body["content"])
		require.NoError(t, err)
		require.Equal(t, doc, decoded)

		json.NewEncoder(w).Encode(map[string]any{"content": map[string]string{"sha": "next-sha"}})
	}))

	version, err := store.Write(context.Background(), doc, "prev-sha")
	require.NoError(t, err)
	require.Equal(t, "next-sha", version)
}

func TestGitHubStore_WriteConflict(t *testing.T) {
	store := newTestGitHubStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	_, err := store.Write(context.Background(), []byte("{}"), "stale")
	require.ErrorIs(t, err, ErrVersionConflict)
}

func TestGitHubStore_WriteRemoteError(t *testing.T) {
	store := newTestGitHubStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := store.Write(context.Background(), []byte("{}"), "v")
	require.ErrorIs(t, err, ErrRemoteUnavailable)
}
