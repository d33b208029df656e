// Package web holds the embedded HTML templates and static assets for the
// public reader and the admin UI.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/Cybeaster/BlogWebsite/internal/models"
)

//go:embed templates
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

const baseLayout = "templates/base.html"

// Page is the data every template receives.
type Page struct {
	SiteTitle string
	Title     string
	Active    string
	Data      any
}

// Renderer executes page templates, each parsed together with the base
// layout.
type Renderer struct {
	siteTitle string
	templates map[string]*template.Template
}

func NewRenderer(siteTitle string) (*Renderer, error) {
	r := &Renderer{
		siteTitle: siteTitle,
		templates: make(map[string]*template.Template),
	}

	pages, err := fs.Glob(templatesFS, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".html")
		tmpl, err := template.New(path.Base(baseLayout)).Funcs(funcs).ParseFS(templatesFS, baseLayout, page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Render writes the named page with status. The page is rendered to a buffer
// first so a template error never produces a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	page.SiteTitle = r.siteTitle

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, page); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded assets; mount it under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

var funcs = template.FuncMap{
	"formatDate": FormatDate,
}

// FormatDate renders a post date as "Jan 2, 2006". Values that are not a
// recognised date are returned unchanged.
func FormatDate(value string) string {
	for _, layout := range []string{models.DateLayout, time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return value
}
