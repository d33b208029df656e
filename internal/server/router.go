package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Cybeaster/BlogWebsite/internal/auth"
	"github.com/Cybeaster/BlogWebsite/internal/handlers"
	appmiddleware "github.com/Cybeaster/BlogWebsite/internal/middleware"
	"github.com/Cybeaster/BlogWebsite/internal/render"
	"github.com/Cybeaster/BlogWebsite/internal/store"
	"github.com/Cybeaster/BlogWebsite/internal/web"
)

// Deps are the collaborators the router wires together.
type Deps struct {
	Store              *store.Store
	Gate               *auth.Gate
	Views              *web.Renderer
	Logger             *zap.Logger
	CorsAllowedOrigins []string
	// LoginRateLimit caps login attempts per IP per minute; 0 disables it.
	LoginRateLimit int
}

func NewRouter(deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appmiddleware.RequestLogger(log))
	r.Use(middleware.Recoverer)

	public := handlers.NewPublicHandler(deps.Store, render.NewMarkdown(), deps.Views, log)
	adminUI := handlers.NewAdminUIHandler(deps.Gate, deps.Views, log)
	postsHandler := handlers.NewPostsHandler(deps.Store, deps.Gate, log)

	r.NotFound(public.NotFound)
	r.Get("/health", handlers.Health)
	r.Handle("/static/*", http.StripPrefix("/static/", web.Static()))

	r.Get("/", public.Home)
	r.Get("/blog", public.Blog)
	r.Get("/blog/{slug}", public.Post)
	r.Get("/sitemap.txt", public.Sitemap)

	r.Get("/admin", adminUI.Dashboard)
	r.Get("/admin/login", adminUI.LoginPage)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   deps.CorsAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}).Handler)
		r.NotFound(handlers.APINotFound)

		if deps.LoginRateLimit > 0 {
			loginLimiter := appmiddleware.NewRateLimiter(deps.LoginRateLimit, time.Minute)
			r.With(loginLimiter.Limit).Post("/login", postsHandler.Login)
		} else {
			r.Post("/login", postsHandler.Login)
		}
		r.Post("/logout", postsHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.RequireSession(deps.Gate))
			r.Get("/posts", postsHandler.List)
			r.Post("/posts", postsHandler.Create)
			r.Get("/posts/{slug}", postsHandler.Get)
			r.Put("/posts/{slug}", postsHandler.Update)
			r.Delete("/posts/{slug}", postsHandler.Delete)
		})
	})

	return r
}
