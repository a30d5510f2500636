package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/serroba/golinks/internal/acme"
	"github.com/serroba/golinks/internal/links"
	"github.com/serroba/golinks/internal/middleware"
	"go.uber.org/zap"
)

// WebConfig carries the settings the HTML surface shows to users.
type WebConfig struct {
	// Host is the short host shown in front of names, e.g. "go.example.com".
	Host        string
	ClientID    string
	LoginDomain string
}

// WebHandler serves redirects and the HTML pages for managing links.
type WebHandler struct {
	service  *links.Service
	resolver *links.Resolver
	canon    *middleware.Canonicalizer
	keys     *acme.Keys
	pages    *Pages
	config   WebConfig
	logger   *zap.Logger
}

func NewWebHandler(
	service *links.Service,
	resolver *links.Resolver,
	canon *middleware.Canonicalizer,
	keys *acme.Keys,
	pages *Pages,
	config WebConfig,
	logger *zap.Logger,
) *WebHandler {
	return &WebHandler{
		service:  service,
		resolver: resolver,
		canon:    canon,
		keys:     keys,
		pages:    pages,
		config:   config,
		logger:   logger,
	}
}

// Go redirects a shortcut path to its destination, or to the edit page when
// nothing matches.
func (h *WebHandler) Go(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")

	res, err := h.resolver.Resolve(r.Context(), name, r.URL.RawQuery)
	if err != nil {
		h.fail(w, r, err)

		return
	}

	if !res.Found {
		http.Redirect(w, r, "/.edit?name="+links.QuotePath(res.SuggestedName), http.StatusFound)

		return
	}

	http.Redirect(w, r, res.Target, http.StatusFound)
}

// Home lists every link.
func (h *WebHandler) Home(w http.ResponseWriter, r *http.Request) {
	if !h.canon.IsBase(middleware.ActualURL(r)) {
		http.Redirect(w, r, h.canon.Base(), http.StatusFound)

		return
	}

	all, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, r, err)

		return
	}

	h.render(w, http.StatusOK, pageHome, homePage{
		Title: "Where do you want to go/ today?",
		Host:  h.config.Host,
		Links: all,
	})
}

// Edit shows the form for one link. A new link is prefilled with the
// normalized name unless that name is taken too.
func (h *WebHandler) Edit(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimLeft(r.URL.Query().Get("name"), ".")
	if name == "" {
		http.Redirect(w, r, "/", http.StatusFound)

		return
	}

	link, err := h.service.Get(r.Context(), name)
	if err != nil && !errors.Is(err, links.ErrNotFound) {
		h.fail(w, r, err)

		return
	}

	page := editPage{Host: h.config.Host, Name: name}

	if link != nil {
		page.Exists = true
		page.OriginalName = name
		page.URL = link.URL
		page.Title = fmt.Sprintf("Edit %s/%s", h.config.Host, name)
	} else {
		normalized := links.Normalize(name)
		if _, err := h.service.Get(r.Context(), normalized); errors.Is(err, links.ErrNotFound) {
			page.Name = normalized
		}

		page.Title = fmt.Sprintf("Create %s/%s", h.config.Host, page.Name)
	}

	h.render(w, http.StatusOK, pageEdit, page)
}

// Save creates, updates or deletes a link from the edit form.
func (h *WebHandler) Save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.showError(w, "The form could not be read.")

		return
	}

	original := strings.TrimLeft(r.PostForm.Get("original_name"), ".")
	name := strings.TrimLeft(r.PostForm.Get("name"), ".")
	url := r.PostForm.Get("url")

	if err := links.Validate(name, url); err != nil {
		h.showError(w, h.message(err, original, name))

		return
	}

	ctx := r.Context()

	if r.PostForm.Get("delete") != "" {
		if err := h.service.Delete(ctx, original); err != nil {
			h.fail(w, r, err)

			return
		}

		http.Redirect(w, r, "/", http.StatusFound)

		return
	}

	var err error
	if original != "" {
		err = h.service.Update(ctx, original, name, url)
	} else {
		err = h.service.Create(ctx, name, url)
	}

	if err != nil {
		if msg := h.message(err, original, name); msg != "" {
			h.showError(w, msg)

			return
		}

		h.fail(w, r, err)

		return
	}

	http.Redirect(w, r, "/.edit?name="+links.QuotePath(name), http.StatusFound)
}

// Login serves the sign-in page. It is only reachable over HTTPS when login
// is enabled.
func (h *WebHandler) Login(w http.ResponseWriter, r *http.Request) {
	actual := middleware.ActualURL(r)
	if h.config.ClientID != "" && strings.HasPrefix(actual, "http:") {
		http.Redirect(w, r, "https:"+strings.TrimPrefix(actual, "http:"), http.StatusMovedPermanently)

		return
	}

	h.render(w, http.StatusOK, pageLogin, loginPage{
		Title:       "Authentication",
		ClientID:    h.config.ClientID,
		LoginDomain: h.config.LoginDomain,
	})
}

// ACMEChallenge proves control of the domain to Let's Encrypt.
func (h *WebHandler) ACMEChallenge(w http.ResponseWriter, r *http.Request) {
	key, ok := h.keys.Find(chi.URLParam(r, "token"))
	if !ok {
		http.NotFound(w, r)

		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(key))
}

// RenderPanic is the diagnostic page shown after a recovered panic.
func (h *WebHandler) RenderPanic(w http.ResponseWriter, _ *http.Request, message string) {
	h.render(w, http.StatusInternalServerError, pageError, errorPage{Title: "Error", Message: message})
}

// message turns a domain error into the text shown on the error page. It
// returns "" for errors users cannot act on.
func (h *WebHandler) message(err error, original, name string) string {
	switch {
	case errors.Is(err, links.ErrInvalidName):
		return "The shortcut must be made of letters."
	case errors.Is(err, links.ErrInvalidURLScheme):
		return "URLs must start with http:// or https://."
	case errors.Is(err, links.ErrUpdateConflict):
		return fmt.Sprintf("Someone else renamed %s/%s.", h.config.Host, original)
	case errors.Is(err, links.ErrDuplicateName):
		return fmt.Sprintf("%s/%s already exists.", h.config.Host, name)
	default:
		return ""
	}
}

func (h *WebHandler) showError(w http.ResponseWriter, message string) {
	h.render(w, http.StatusOK, pageError, errorPage{Title: "Error", Message: message})
}

// fail logs an unexpected error and shows the diagnostic page.
func (h *WebHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)

	h.render(w, http.StatusInternalServerError, pageError, errorPage{Title: "Error", Message: err.Error()})
}

func (h *WebHandler) render(w http.ResponseWriter, status int, page string, data any) {
	if err := h.pages.Render(w, status, page, data); err != nil {
		h.logger.Error("render failed", zap.String("page", page), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
