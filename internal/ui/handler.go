// Package ui renders the Abbot landing page and turns each of its buttons
// into a form post that drives the visitor's landing.Controller.
package ui

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"abbot-web/internal/landing"
	"abbot-web/internal/logging"
	"abbot-web/internal/sessions"
)

//go:embed static/*
var staticFS embed.FS

// Options configures the landing page handler.
type Options struct {
	Sessions *sessions.Store
	Site     Site
	Logger   logging.Logger
	// AssetsDir optionally serves extra files (images, favicon, whitepaper)
	// from disk at their URL path, e.g. <dir>/static/abbot.jpg. Embedded
	// assets take precedence.
	AssetsDir string
}

// Handler serves the landing page, its form actions and static assets.
type Handler struct {
	sessions  *sessions.Store
	site      Site
	logger    logging.Logger
	templates *template.Template
	static    http.Handler
	assets    http.Handler
}

// New parses the embedded templates and builds a Handler.
func New(opts Options) (*Handler, error) {
	if opts.Sessions == nil {
		return nil, errors.New("ui: session store is required")
	}
	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	h := &Handler{
		sessions:  opts.Sessions,
		site:      opts.Site,
		logger:    opts.Logger,
		templates: tmpl,
		static:    staticHandler(),
	}
	if dir := strings.TrimSpace(opts.AssetsDir); dir != "" {
		h.assets = http.FileServer(http.Dir(dir))
	}
	return h, nil
}

// Register mounts the page routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/", h.servePage)
	mux.Handle("/static/", h.serveStatic())
	mux.HandleFunc("/platform", h.postOnly(h.selectPlatform))
	mux.HandleFunc("/back", h.postOnly(h.back))
	mux.HandleFunc("/channel", h.postOnly(h.channel))
	mux.HandleFunc("/telegram/quick-add", h.postOnly(h.quickAdd))
	mux.HandleFunc("/telegram/manual-add", h.postOnly(h.manualAdd))
	mux.HandleFunc("/invite", h.postOnly(h.submitInvite))
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		if h.assets != nil && r.Method == http.MethodGet {
			h.assets.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess := h.sessions.Load(w, r)
	h.render(w, newPageData(h.site, sess.Controller.Snapshot(), sess.TakeFlashes()))
}

// postOnly loads the visitor's session, runs action and redirects back to
// the page (post/redirect/get).
func (h *Handler) postOnly(action func(*sessions.Session, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form body", http.StatusBadRequest)
			return
		}
		sess := h.sessions.Load(w, r)
		action(sess, r)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (h *Handler) selectPlatform(sess *sessions.Session, r *http.Request) {
	platform, err := landing.ParsePlatform(r.PostForm.Get("platform"))
	if err != nil {
		h.logf("ignoring platform selection: %v", err)
		return
	}
	_ = sess.Controller.SelectPlatform(platform)
}

func (h *Handler) back(sess *sessions.Session, _ *http.Request) {
	sess.Controller.Reset()
}

func (h *Handler) channel(sess *sessions.Session, _ *http.Request) {
	sess.Controller.EnterChannelMode()
}

// The page only offers the add panels for Telegram; posts for any other
// platform are ignored the same way the buttons are never shown.
func (h *Handler) quickAdd(sess *sessions.Session, _ *http.Request) {
	if sess.Controller.Snapshot().Platform != landing.PlatformTelegram {
		return
	}
	sess.Controller.SelectQuickAdd()
}

func (h *Handler) manualAdd(sess *sessions.Session, _ *http.Request) {
	if sess.Controller.Snapshot().Platform != landing.PlatformTelegram {
		return
	}
	sess.Controller.SelectManualAdd()
}

func (h *Handler) submitInvite(sess *sessions.Session, r *http.Request) {
	// A submission runs to completion even if the visitor navigates away;
	// the dispatcher's own timeout bounds it.
	ctx := context.WithoutCancel(r.Context())
	sub := landing.Submission{Identifier: r.PostForm.Get("channel_id")}
	if _, err := sess.Controller.SubmitWith(ctx, sub); err != nil {
		if errors.Is(err, landing.ErrSubmitInFlight) {
			sess.Notify("An invite is already being sent, hang tight.")
			return
		}
		h.logf("invite submission failed: %v", err)
	}
}

func (h *Handler) serveStatic() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/static/")
		if name == "" || name == "/static" {
			http.NotFound(w, r)
			return
		}
		if _, err := fs.Stat(staticFS, path.Join("static", name)); err == nil {
			h.static.ServeHTTP(w, r)
			return
		}
		if h.assets != nil {
			h.assets.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return http.NotFoundHandler()
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

func (h *Handler) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
