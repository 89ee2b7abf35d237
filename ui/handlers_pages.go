package ui

import (
	"html/template"
	"net/http"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"femstat/internal/errors"
	"femstat/internal/session"
)

// handleIndex renders the upload page. Always reachable: it is the reset
// point of the workflow.
func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	view := IndexView{
		BaseView:    a.base("Upload", "upload"),
		MaxUploadMB: a.cfg.Upload.MaxUploadMB,
		AllowedExts: a.cfg.Upload.AllowedExtensions,
	}
	a.renderTemplate(w, "index.html", view)
}

// handleConfigure renders the analysis configuration page. Requires a
// loaded schema; with a ?session= id it first tries to recover the schema
// of a still-live backend session, so a resumed session (for example from
// the reports page after a frontend restart) lands here configured.
func (a *App) handleConfigure(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("session"); id != "" && !a.store.Phase().AtLeast(session.PhaseSchemaLoaded) {
		schema, err := a.client.Variables(r.Context(), id)
		if err != nil {
			a.store.SetError(errors.UserMessage(err), session.SeverityBanner)
			a.redirect(w, r, "/")
			return
		}
		if schema.SessionID == "" {
			schema.SessionID = id
		}
		a.store.SetSchema(schema)
	}

	snap, ok := a.requirePhase(w, r, session.PhaseSchemaLoaded)
	if !ok {
		return
	}
	view := ConfigureView{
		BaseView: a.base("Configure", "configure"),
		Schema:   snap.Schema,
		Settings: snap.Settings,
	}
	a.renderTemplate(w, "configure.html", view)
}

// handleResults renders the results page. Requires a completed analysis.
func (a *App) handleResults(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.requirePhase(w, r, session.PhaseResultsReady)
	if !ok {
		return
	}
	view := a.buildResultsView(snap)
	view.SavedDir = r.URL.Query().Get("saved")
	a.renderTemplate(w, "results.html", view)
}

// handleReports renders the durable report registry. No session required:
// the list outlives backend sessions.
func (a *App) handleReports(w http.ResponseWriter, r *http.Request) {
	entries, err := a.registry.List()
	if err != nil {
		a.logger.Error("listing reports: %v", err)
	}
	view := ReportsView{
		BaseView: a.base("Reports", "reports"),
		Reports:  entries,
	}
	a.renderTemplate(w, "reports.html", view)
}

// handleMethods renders the embedded methodology document. The markdown
// is static, so it is rendered once.
func (a *App) handleMethods(w http.ResponseWriter, r *http.Request) {
	a.methodsOnce.Do(func() {
		src, err := embeddedFiles.ReadFile("methods.md")
		if err != nil {
			a.logger.Error("reading methods.md: %v", err)
			return
		}
		p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
		renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
		a.methodsHTML = template.HTML(markdown.ToHTML(src, p, renderer))
	})

	view := MethodsView{
		BaseView: a.base("Methods", "methods"),
		Content:  a.methodsHTML,
	}
	a.renderTemplate(w, "methods.html", view)
}

// handleErrorDismiss clears the current banner or modal error and
// re-renders the error area.
func (a *App) handleErrorDismiss(w http.ResponseWriter, r *http.Request) {
	a.store.ClearError()
	if isHTMX(r) {
		w.WriteHeader(http.StatusOK)
		return
	}
	target := r.Referer()
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
