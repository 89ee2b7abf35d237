package ui

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"femstat/internal/errors"
	"femstat/internal/forms"
	"femstat/internal/session"
	"femstat/models"
)

// handleUpload receives the dataset, enforces the local size and extension
// limits before any network call, and streams the file to the backend. A
// successful upload replaces the whole workflow state.
func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(a.cfg.Upload.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20) // multipart overhead

	file, header, err := r.FormFile("file")
	if err != nil {
		a.store.SetError("Choose a file to upload", session.SeverityBanner)
		a.redirect(w, r, "/")
		return
	}
	defer file.Close()

	if header.Size > maxBytes {
		a.store.SetError(fmt.Sprintf("File too large. Maximum size: %dMB", a.cfg.Upload.MaxUploadMB), session.SeverityBanner)
		a.redirect(w, r, "/")
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !a.extensionAllowed(ext) {
		a.store.SetError(fmt.Sprintf("Unsupported file type %q. Allowed: %s", ext, strings.Join(a.cfg.Upload.AllowedExtensions, ", ")), session.SeverityBanner)
		a.redirect(w, r, "/")
		return
	}

	a.store.SetLoading(true)
	schema, err := a.client.Upload(r.Context(), header.Filename, file)
	a.store.SetLoading(false)
	if err != nil {
		a.store.SetError(errors.UserMessage(err), session.SeverityBanner)
		a.redirect(w, r, "/")
		return
	}

	a.store.SetSchema(schema)
	a.redirect(w, r, "/configure")
}

func (a *App) extensionAllowed(ext string) bool {
	for _, allowed := range a.cfg.Upload.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// handleAnalyze validates the configuration form and runs the analysis.
// Validation failure re-renders the form with the user's values and makes
// no backend call; nothing is committed to the store. A backend failure
// surfaces as a modal and leaves phase and results untouched.
func (a *App) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.requirePhase(w, r, session.PhaseSchemaLoaded)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		a.store.SetError("The form could not be read", session.SeverityBanner)
		a.redirect(w, r, "/configure")
		return
	}

	form := forms.Parse(r.PostForm)
	if formErrors := form.Validate(snap.Schema); formErrors.Any() {
		view := ConfigureView{
			BaseView:   a.base("Configure", "configure"),
			Schema:     snap.Schema,
			Settings:   form.Settings,
			FormErrors: formErrors,
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		a.renderTemplate(w, "configure.html", view)
		return
	}

	a.store.SetAnalysisSettings(form.Settings)

	request := models.AnalysisRequest{
		SessionID:        snap.SessionID,
		AnalysisSettings: form.Settings,
	}

	a.store.SetLoading(true)
	results, err := a.client.RunAnalysis(r.Context(), request)
	a.store.SetLoading(false)
	if err != nil {
		a.store.SetError(errors.UserMessage(err), session.SeverityModal)
		a.redirect(w, r, "/configure")
		return
	}

	a.store.SetAnalysisResults(results)
	a.redirect(w, r, "/results")
}

// handleReport generates a report for the current results and records it
// in the durable registry.
func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.requirePhase(w, r, session.PhaseResultsReady)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		a.store.SetError("The form could not be read", session.SeverityBanner)
		a.redirect(w, r, "/results")
		return
	}

	request := models.ReportRequest{
		SessionID:    snap.SessionID,
		Title:        strings.TrimSpace(r.PostForm.Get("title")),
		Organization: strings.TrimSpace(r.PostForm.Get("organization")),
		Notes:        strings.TrimSpace(r.PostForm.Get("notes")),
	}
	if authors := strings.TrimSpace(r.PostForm.Get("authors")); authors != "" {
		for _, author := range strings.Split(authors, ",") {
			if author = strings.TrimSpace(author); author != "" {
				request.Authors = append(request.Authors, author)
			}
		}
	}

	a.store.SetLoading(true)
	report, err := a.client.GenerateReport(r.Context(), request)
	a.store.SetLoading(false)
	if err != nil {
		a.store.SetError(errors.UserMessage(err), session.SeverityModal)
		a.redirect(w, r, "/results")
		return
	}

	entry := models.ReportEntry{
		SessionID: snap.SessionID,
		Title:     request.Title,
		HTMLURL:   report.HTMLURL,
		PDFURL:    report.PDFURL,
		DocxURL:   report.DocxURL,
	}
	if err := a.registry.Append(entry); err != nil {
		a.logger.Error("recording report: %v", err)
		a.store.SetError("The report was generated but could not be recorded locally", session.SeverityBanner)
	}

	a.redirect(w, r, "/reports")
}

// handleReportDelete removes every registry row for one session.
func (a *App) handleReportDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := a.registry.Remove(sessionID); err != nil {
		a.logger.Error("removing reports for %s: %v", sessionID, err)
	}
	if isHTMX(r) {
		a.handleReportsFragment(w, r)
		return
	}
	a.redirect(w, r, "/reports")
}

// handleDownload proxies one export or report file from the backend with
// an attachment disposition.
func (a *App) handleDownload(w http.ResponseWriter, r *http.Request) {
	fileURL := r.URL.Query().Get("u")
	if fileURL == "" {
		http.Error(w, "missing file url", http.StatusBadRequest)
		return
	}

	body, filename, size, err := a.client.Download(r.Context(), fileURL)
	if err != nil {
		a.store.SetError(errors.UserMessage(err), session.SeverityBanner)
		a.redirect(w, r, "/results")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Type", "application/octet-stream")
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	if _, err := io.Copy(w, body); err != nil {
		a.logger.Error("streaming download %s: %v", filename, err)
	}
}

// handleDownloadAll saves all three analysis exports into the local data
// directory in one action. The app serves a single local user, so "save
// everything to disk" lands next to the registry database rather than
// streaming an archive.
func (a *App) handleDownloadAll(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.requirePhase(w, r, session.PhaseResultsReady)
	if !ok {
		return
	}

	dir := filepath.Join(a.cfg.Storage.DataDir, "downloads", snap.SessionID)
	a.store.SetLoading(true)
	err := a.client.DownloadAll(r.Context(), snap.Results.Files, dir)
	a.store.SetLoading(false)
	if err != nil {
		a.store.SetError(errors.UserMessage(err), session.SeverityBanner)
		a.redirect(w, r, "/results")
		return
	}
	a.redirect(w, r, "/results?saved="+url.QueryEscape(dir))
}

// handlePurge deletes the backend session and resets the workflow.
func (a *App) handlePurge(w http.ResponseWriter, r *http.Request) {
	snap := a.store.Snapshot()
	if snap.SessionID == "" {
		a.redirect(w, r, "/")
		return
	}

	if err := a.client.Purge(r.Context(), snap.SessionID); err != nil {
		// The backend session may already have expired; reset anyway.
		a.logger.Warn("purge %s: %v", snap.SessionID, err)
	}
	a.store.Reset()
	a.redirect(w, r, "/")
}
