package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cybeaster/BlogWebsite/internal/auth"
	"github.com/Cybeaster/BlogWebsite/internal/models"
	"github.com/Cybeaster/BlogWebsite/internal/store"
)

func newTestPostsHandler(t *testing.T) (*PostsHandler, *store.Store) {
	t.Helper()
	s := testStore(t)
	return NewPostsHandler(s, auth.NewGate(testPassword, false), nil), s
}

func TestLogin(t *testing.T) {
	h, _ := newTestPostsHandler(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCookie bool
	}{
		{"correct password", LoginRequest{Password: testPassword}, http.StatusOK, true},
		{"wrong password", LoginRequest{Password: "nope"}, http.StatusUnauthorized, false},
		{"empty password", LoginRequest{}, http.StatusUnauthorized, false},
		{"no body", nil, http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Login(rec, jsonRequest(t, http.MethodPost, "/api/admin/login", tt.body))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCookie, len(rec.Result().Cookies()) > 0)
		})
	}
}

func TestLogin_WrongPasswordMessage(t *testing.T) {
	h, _ := newTestPostsHandler(t)

	rec := httptest.NewRecorder()
	h.Login(rec, jsonRequest(t, http.MethodPost, "/api/admin/login", LoginRequest{Password: "x"}))

	assert.JSONEq(t, `{"error":"Invalid password"}`, rec.Body.String())
}

func TestLogin_MalformedBodyIsUnauthorized(t *testing.T) {
	h, _ := newTestPostsHandler(t)

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader("{not json")))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid password"}`, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogout(t *testing.T) {
	h, _ := newTestPostsHandler(t)

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestList_IncludesDraftsAndContent(t *testing.T) {
	h, s := newTestPostsHandler(t)
	seedPost(t, s, models.Post{Slug: "public", Title: "Public", Date: "2024-01-02", Content: "pub"})
	seedPost(t, s, models.Post{Slug: "hidden", Title: "Hidden", Date: "2024-01-01", Draft: true, Content: "secret"})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/admin/posts", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	posts := body["posts"].([]any)
	require.Len(t, posts, 2)
	first := posts[0].(map[string]any)
	second := posts[1].(map[string]any)
	assert.Equal(t, "public", first["slug"])
	assert.Equal(t, "pub", first["content"])
	assert.Equal(t, "hidden", second["slug"])
	assert.Equal(t, true, second["draft"])
	assert.Equal(t, "secret", second["content"])
}

func TestList_EmptyStore(t *testing.T) {
	h, _ := newTestPostsHandler(t)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/admin/posts", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"posts":[]}`, rec.Body.String())
}

func TestGet(t *testing.T) {
	h, s := newTestPostsHandler(t)
	seedPost(t, s, models.Post{Slug: "draft-post", Title: "Draft", Draft: true, Tags: []string{"a"}})

	rec := httptest.NewRecorder()
	h.Get(rec, withSlug(httptest.NewRequest(http.MethodGet, "/api/admin/posts/draft-post", nil), "draft-post"))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Draft", body["title"])
	assert.Equal(t, true, body["draft"])
	assert.Equal(t, []any{"a"}, body["tags"])

	rec = httptest.NewRecorder()
	h.Get(rec, withSlug(httptest.NewRequest(http.MethodGet, "/api/admin/posts/missing", nil), "missing"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreate(t *testing.T) {
	h, s := newTestPostsHandler(t)

	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(t, http.MethodPost, "/api/admin/posts", CreatePostRequest{
		Slug:  "hello-world",
		Title: "Hello",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"slug":"hello-world"}`, rec.Body.String())

	post, err := s.GetPost(context.Background(), "hello-world")
	require.NoError(t, err)
	assert.Equal(t, "Hello", post.Title)
	assert.False(t, post.Draft)
}

func TestCreate_Validation(t *testing.T) {
	h, _ := newTestPostsHandler(t)

	tests := []struct {
		name string
		req  CreatePostRequest
		want string
	}{
		{"missing slug", CreatePostRequest{Title: "T"}, "slug"},
		{"missing title", CreatePostRequest{Slug: "t"}, "title"},
		{"bad slug", CreatePostRequest{Slug: "Bad Slug", Title: "T"}, "slug"},
		{"traversal slug", CreatePostRequest{Slug: "../x", Title: "T"}, "slug"},
		{"bad date", CreatePostRequest{Slug: "t", Title: "T", Date: "yesterday"}, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Create(rec, jsonRequest(t, http.MethodPost, "/api/admin/posts", tt.req))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeBody(t, rec)["error"], tt.want)
		})
	}
}

func TestCreate_InvalidJSON(t *testing.T) {
	h, _ := newTestPostsHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/posts", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreate_Conflict(t *testing.T) {
	h, s := newTestPostsHandler(t)
	seedPost(t, s, models.Post{Slug: "taken", Title: "Original"})

	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(t, http.MethodPost, "/api/admin/posts", CreatePostRequest{Slug: "taken", Title: "Other"}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"Post already exists"}`, rec.Body.String())

	post, err := s.GetPost(context.Background(), "taken")
	require.NoError(t, err)
	assert.Equal(t, "Original", post.Title)
}

func TestUpdate(t *testing.T) {
	h, s := newTestPostsHandler(t)
	seedPost(t, s, models.Post{Slug: "post", Title: "Old"})

	rec := httptest.NewRecorder()
	req := jsonRequest(t, http.MethodPut, "/api/admin/posts/post", UpdatePostRequest{Title: "New", Draft: true})
	h.Update(rec, withSlug(req, "post"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"slug":"post"}`, rec.Body.String())

	post, err := s.GetPost(context.Background(), "post")
	require.NoError(t, err)
	assert.Equal(t, "New", post.Title)
	assert.True(t, post.Draft)
}

func TestUpdate_Rename(t *testing.T) {
	h, s := newTestPostsHandler(t)
	seedPost(t, s, models.Post{Slug: "old-slug", Title: "Post"})

	rec := httptest.NewRecorder()
	req := jsonRequest(t, http.MethodPut, "/api/admin/posts/old-slug", UpdatePostRequest{NewSlug: "new-slug", Title: "Post"})
	h.Update(rec, withSlug(req, "old-slug"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"slug":"new-slug"}`, rec.Body.String())

	_, err := s.GetPost(context.Background(), "old-slug")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdate_Errors(t *testing.T) {
	h, s := newTestPostsHandler(t)
	seedPost(t, s, models.Post{Slug: "a", Title: "A"})
	seedPost(t, s, models.Post{Slug: "b", Title: "B"})

	tests := []struct {
		name       string
		slug       string
		req        UpdatePostRequest
		wantStatus int
	}{
		{"missing post", "zzz", UpdatePostRequest{Title: "x"}, http.StatusNotFound},
		{"missing post without title", "zzz", UpdatePostRequest{}, http.StatusNotFound},
		{"rename onto existing", "a", UpdatePostRequest{NewSlug: "b", Title: "A"}, http.StatusConflict},
		{"missing title", "a", UpdatePostRequest{}, http.StatusBadRequest},
		{"invalid new slug", "a", UpdatePostRequest{NewSlug: "B!", Title: "A"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := jsonRequest(t, http.MethodPut, "/api/admin/posts/"+tt.slug, tt.req)
			h.Update(rec, withSlug(req, tt.slug))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}

	a, err := s.GetPost(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "A", a.Title)
	b, err := s.GetPost(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "B", b.Title)
}

func TestUpdate_OverwritesUnparsablePost(t *testing.T) {
	h, s := newTestPostsHandler(t)
	require.NoError(t, os.MkdirAll(s.Dir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "broken.md"), []byte("---\ntitle: [unclosed\n---\n"), 0o644))

	rec := httptest.NewRecorder()
	req := jsonRequest(t, http.MethodPut, "/api/admin/posts/broken", UpdatePostRequest{Title: "Fixed"})
	h.Update(rec, withSlug(req, "broken"))

	require.Equal(t, http.StatusOK, rec.Code)
	post, err := s.GetPost(context.Background(), "broken")
	require.NoError(t, err)
	assert.Equal(t, "Fixed", post.Title)
}

func TestDelete(t *testing.T) {
	h, s := newTestPostsHandler(t)
	seedPost(t, s, models.Post{Slug: "bye", Title: "Bye"})

	rec := httptest.NewRecorder()
	h.Delete(rec, withSlug(httptest.NewRequest(http.MethodDelete, "/api/admin/posts/bye", nil), "bye"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Delete(rec, withSlug(httptest.NewRequest(http.MethodDelete, "/api/admin/posts/bye", nil), "bye"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type brokenRepository struct {
	PostRepository
}

func (brokenRepository) ListPosts(context.Context) ([]models.Post, error) {
	return nil, errors.New("open /srv/content/posts: permission denied")
}

func (brokenRepository) DeletePost(context.Context, string) error {
	return errors.New("remove /srv/content/posts/x.md: read-only file system")
}

func TestUnexpectedErrorsDoNotLeakDetails(t *testing.T) {
	h := NewPostsHandler(brokenRepository{}, auth.NewGate(testPassword, false), nil)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/admin/posts", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch posts"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Delete(rec, withSlug(httptest.NewRequest(http.MethodDelete, "/api/admin/posts/x", nil), "x"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "/srv")
}
