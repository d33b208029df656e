package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Cybeaster/BlogWebsite/internal/auth"
	"github.com/Cybeaster/BlogWebsite/internal/web"
)

// AdminUIHandler serves the browser pages that drive the admin API.
type AdminUIHandler struct {
	gate  *auth.Gate
	views *web.Renderer
	log   *zap.Logger
}

func NewAdminUIHandler(gate *auth.Gate, views *web.Renderer, log *zap.Logger) *AdminUIHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminUIHandler{gate: gate, views: views, log: log}
}

func (h *AdminUIHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if !h.gate.Authenticated(r) {
		http.Redirect(w, r, "/admin/login", http.StatusFound)
		return
	}
	h.render(w, "admin", web.Page{Title: "Admin"})
}

func (h *AdminUIHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.gate.Authenticated(r) {
		http.Redirect(w, r, "/admin", http.StatusFound)
		return
	}
	h.render(w, "login", web.Page{Title: "Admin login"})
}

func (h *AdminUIHandler) render(w http.ResponseWriter, name string, page web.Page) {
	w.Header().Set("Cache-Control", "no-store")
	if err := h.views.Render(w, http.StatusOK, name, page); err != nil {
		h.log.Error("render page failed", zap.String("page", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
