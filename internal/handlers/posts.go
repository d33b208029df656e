package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/Cybeaster/BlogWebsite/internal/auth"
	"github.com/Cybeaster/BlogWebsite/internal/models"
	"github.com/Cybeaster/BlogWebsite/internal/store"
)

// PostRepository is the part of the post store the admin API needs.
type PostRepository interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, slug string) (*models.Post, error)
	CreatePost(ctx context.Context, post models.Post) (*models.Post, error)
	UpdatePost(ctx context.Context, slug string, post models.Post) (*models.Post, error)
	DeletePost(ctx context.Context, slug string) error
}

type LoginRequest struct {
	Password string `json:"password"`
}

type CreatePostRequest struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Draft       bool     `json:"draft"`
	Content     string   `json:"content"`
}

func (r CreatePostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Slug, validation.Required, validation.Match(models.SlugPattern).Error("must contain only a-z, 0-9 and -")),
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Date, validation.Date(models.DateLayout)),
	)
}

// UpdatePostRequest replaces every field of a post. NewSlug, when set and
// different from the current slug, moves the post.
type UpdatePostRequest struct {
	NewSlug     string   `json:"newSlug"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Draft       bool     `json:"draft"`
	Content     string   `json:"content"`
}

func (r UpdatePostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewSlug, validation.Match(models.SlugPattern).Error("must contain only a-z, 0-9 and -")),
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Date, validation.Date(models.DateLayout)),
	)
}

type PostsResponse struct {
	Posts []models.Post `json:"posts"`
}

type MutationResponse struct {
	Success bool   `json:"success"`
	Slug    string `json:"slug,omitempty"`
}

// PostsHandler serves the admin API. Routes must be wrapped in
// middleware.RequireSession except Login and Logout.
type PostsHandler struct {
	posts PostRepository
	gate  *auth.Gate
	log   *zap.Logger
}

func NewPostsHandler(posts PostRepository, gate *auth.Gate, log *zap.Logger) *PostsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostsHandler{posts: posts, gate: gate, log: log}
}

// Login checks the shared admin password and issues the session cookie.
func (h *PostsHandler) Login(w http.ResponseWriter, r *http.Request) {
	// An unreadable body is just a missing password.
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		req = LoginRequest{}
	}
	if !h.gate.Login(w, req.Password) {
		h.log.Info("admin login failed", zap.String("remote", r.RemoteAddr))
		respondError(w, http.StatusUnauthorized, "Invalid password")
		return
	}
	respondJSON(w, http.StatusOK, MutationResponse{Success: true})
}

func (h *PostsHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.gate.Logout(w)
	respondJSON(w, http.StatusOK, MutationResponse{Success: true})
}

// List returns every post including drafts and their Markdown bodies.
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListPosts(r.Context())
	if err != nil {
		h.log.Error("list posts failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}
	respondJSON(w, http.StatusOK, PostsResponse{Posts: posts})
}

func (h *PostsHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	post, err := h.posts.GetPost(r.Context(), slug)
	if err != nil {
		h.storeError(w, "fetch", slug, err)
		return
	}
	respondJSON(w, http.StatusOK, post)
}

func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.posts.CreatePost(r.Context(), models.Post{
		Slug:        req.Slug,
		Title:       req.Title,
		Date:        req.Date,
		Description: req.Description,
		Tags:        req.Tags,
		Draft:       req.Draft,
		Content:     req.Content,
	})
	if err != nil {
		h.storeError(w, "create", req.Slug, err)
		return
	}
	h.log.Info("post created", zap.String("slug", created.Slug))
	respondJSON(w, http.StatusOK, MutationResponse{Success: true, Slug: created.Slug})
}

// Update answers 404 for an unknown slug before looking at the body. A post
// that exists but fails to parse can still be overwritten.
func (h *PostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if _, err := h.posts.GetPost(r.Context(), slug); errors.Is(err, store.ErrNotFound) {
		h.storeError(w, "update", slug, err)
		return
	}

	var req UpdatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.posts.UpdatePost(r.Context(), slug, models.Post{
		Slug:        req.NewSlug,
		Title:       req.Title,
		Date:        req.Date,
		Description: req.Description,
		Tags:        req.Tags,
		Draft:       req.Draft,
		Content:     req.Content,
	})
	if err != nil {
		h.storeError(w, "update", slug, err)
		return
	}
	h.log.Info("post updated", zap.String("slug", slug), zap.String("new_slug", updated.Slug))
	respondJSON(w, http.StatusOK, MutationResponse{Success: true, Slug: updated.Slug})
}

func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := h.posts.DeletePost(r.Context(), slug); err != nil {
		h.storeError(w, "delete", slug, err)
		return
	}
	h.log.Info("post deleted", zap.String("slug", slug))
	respondJSON(w, http.StatusOK, MutationResponse{Success: true})
}

// storeError maps repository errors to responses. Unexpected errors are
// logged and answered with a generic message so no path leaks to the client.
func (h *PostsHandler) storeError(w http.ResponseWriter, op, slug string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "Post not found")
	case errors.Is(err, store.ErrConflict):
		if op == "update" {
			respondError(w, http.StatusConflict, "New slug already exists")
			return
		}
		respondError(w, http.StatusConflict, "Post already exists")
	case errors.Is(err, store.ErrInvalidSlug):
		respondError(w, http.StatusBadRequest, "Invalid slug")
	default:
		h.log.Error("post "+op+" failed", zap.String("slug", slug), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to "+op+" post")
	}
}
