package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/serroba/golinks/internal/links"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageHome  = "home"
	pageEdit  = "edit"
	pageError = "error"
	pageLogin = "login"
)

type homePage struct {
	Title string
	Host  string
	Links []links.Link
}

type editPage struct {
	Title        string
	Host         string
	Name         string
	OriginalName string
	URL          string
	Exists       bool
}

type errorPage struct {
	Title   string
	Message string
}

type loginPage struct {
	Title       string
	ClientID    string
	LoginDomain string
}

// Pages renders the HTML surface. Each page shares the layout template.
type Pages struct {
	templates map[string]*template.Template
}

func NewPages() (*Pages, error) {
	funcs := template.FuncMap{"quote": links.QuotePath}
	pages := &Pages{templates: make(map[string]*template.Template)}

	for _, name := range []string{pageHome, pageEdit, pageError, pageLogin} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}

		pages.templates[name] = t
	}

	return pages, nil
}

// Render executes page into a buffer first so a template failure never
// leaves a half-written response.
func (p *Pages) Render(w http.ResponseWriter, status int, page string, data any) error {
	t, ok := p.templates[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)

	return err
}
