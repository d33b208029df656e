package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/Cybeaster/BlogWebsite/internal/auth"
	"github.com/Cybeaster/BlogWebsite/internal/models"
	"github.com/Cybeaster/BlogWebsite/internal/store"
	"github.com/Cybeaster/BlogWebsite/internal/web"
)

const testPassword = "test-password"

func testStore(t *testing.T) *store.Store {
	t.Helper()
	return store.NewStore(filepath.Join(t.TempDir(), "posts"), store.WithListingCache())
}

func testViews(t *testing.T) *web.Renderer {
	t.Helper()
	views, err := web.NewRenderer("Test Blog")
	require.NoError(t, err)
	return views
}

func seedPost(t *testing.T, s *store.Store, post models.Post) {
	t.Helper()
	_, err := s.CreatePost(context.Background(), post)
	require.NoError(t, err)
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withSession(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: testPassword})
	return req
}

// withSlug attaches a chi route param so handlers can be called directly.
func withSlug(req *http.Request, slug string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("slug", slug)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
