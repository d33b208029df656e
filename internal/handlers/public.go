package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Cybeaster/BlogWebsite/internal/models"
	"github.com/Cybeaster/BlogWebsite/internal/render"
	"github.com/Cybeaster/BlogWebsite/internal/store"
	"github.com/Cybeaster/BlogWebsite/internal/web"
)

const latestPostsOnHome = 3

// PublishedPosts is the read-only view of the store the public pages use.
type PublishedPosts interface {
	ListPublished(ctx context.Context) ([]models.Post, error)
	GetPublishedPost(ctx context.Context, slug string) (*models.Post, error)
	PublishedSlugs(ctx context.Context) ([]string, error)
}

// PostPage is a post ready for the detail template.
type PostPage struct {
	models.PostListItem
	HTML template.HTML
}

type PublicHandler struct {
	posts    PublishedPosts
	markdown *render.Markdown
	views    *web.Renderer
	log      *zap.Logger
}

func NewPublicHandler(posts PublishedPosts, markdown *render.Markdown, views *web.Renderer, log *zap.Logger) *PublicHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PublicHandler{posts: posts, markdown: markdown, views: views, log: log}
}

func (h *PublicHandler) Home(w http.ResponseWriter, r *http.Request) {
	items, ok := h.listItems(w, r)
	if !ok {
		return
	}
	if len(items) > latestPostsOnHome {
		items = items[:latestPostsOnHome]
	}
	h.render(w, http.StatusOK, "home", web.Page{Active: "home", Data: items})
}

func (h *PublicHandler) Blog(w http.ResponseWriter, r *http.Request) {
	items, ok := h.listItems(w, r)
	if !ok {
		return
	}
	h.render(w, http.StatusOK, "blog", web.Page{Title: "Blog", Active: "blog", Data: items})
}

// Post renders one published post. Drafts, unknown slugs and broken files
// all look the same to the reader: not found.
func (h *PublicHandler) Post(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	post, err := h.posts.GetPublishedPost(r.Context(), slug)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Error("load post failed", zap.String("slug", slug), zap.Error(err))
		}
		h.NotFound(w, r)
		return
	}

	html, err := h.markdown.Render(post.Content)
	if err != nil {
		h.log.Error("render post failed", zap.String("slug", slug), zap.Error(err))
		h.NotFound(w, r)
		return
	}

	h.render(w, http.StatusOK, "post", web.Page{
		Title:  post.Title,
		Active: "blog",
		Data:   PostPage{PostListItem: post.ListItem(), HTML: html},
	})
}

// Sitemap lists the home page, the listing and every published post as
// absolute URLs, one per line.
func (h *PublicHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	slugs, err := h.posts.PublishedSlugs(r.Context())
	if err != nil {
		h.log.Error("list published slugs failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	base := scheme + "://" + r.Host

	var b strings.Builder
	b.WriteString(base + "/\n")
	b.WriteString(base + "/blog\n")
	for _, slug := range slugs {
		b.WriteString(base + "/blog/" + slug + "\n")
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

func (h *PublicHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusNotFound, "notfound", web.Page{Title: "Not found"})
}

func (h *PublicHandler) listItems(w http.ResponseWriter, r *http.Request) ([]models.PostListItem, bool) {
	posts, err := h.posts.ListPublished(r.Context())
	if err != nil {
		h.log.Error("list published posts failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}
	items := make([]models.PostListItem, len(posts))
	for i, post := range posts {
		items[i] = post.ListItem()
	}
	return items, true
}

func (h *PublicHandler) render(w http.ResponseWriter, status int, name string, page web.Page) {
	if err := h.views.Render(w, status, name, page); err != nil {
		h.log.Error("render page failed", zap.String("page", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
