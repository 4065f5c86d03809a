package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"abbot-web/internal/landing"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// PageData is the view model of the landing page.
type PageData struct {
	Title            string
	Site             Site
	State            landing.State
	Flashes          []string
	ChannelIDPattern string

	IsNostr              bool
	IsTelegram           bool
	ShowQuickAdd         bool
	ShowManualAdd        bool
	IdentifierLooksValid bool

	ATLBitLabURL     string
	EstablishedURL   string
	EstablishedBlock string
	HelpContactURL   string
	HelpContact      string
}

func loadTemplates() (*template.Template, error) {
	tmpl, err := template.New("page").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	return tmpl, nil
}

func newPageData(site Site, state landing.State, flashes []string) PageData {
	return PageData{
		Title:                pageTitle,
		Site:                 site,
		State:                state,
		Flashes:              flashes,
		ChannelIDPattern:     landing.ChannelIDPattern,
		IsNostr:              state.Platform == landing.PlatformNostr,
		IsTelegram:           state.Platform == landing.PlatformTelegram,
		ShowQuickAdd:         state.ShowsPanel(landing.PanelQuickAdd),
		ShowManualAdd:        state.ShowsPanel(landing.PanelManualAdd),
		IdentifierLooksValid: landing.LooksLikeChannelID(state.Identifier),
		ATLBitLabURL:         atlBitLabURL,
		EstablishedURL:       establishedURL,
		EstablishedBlock:     establishedBlock,
		HelpContactURL:       helpContactURL,
		HelpContact:          helpContact,
	}
}

// render executes the page into a buffer first so a template error never
// leaves a half written response.
func (h *Handler) render(w http.ResponseWriter, data PageData) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, "page", data); err != nil {
		h.logf("render landing page: %v", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}
