// Package ui is the web frontend: a chi server rendering the upload,
// configure, results and reports pages over the injected session store,
// backend client and local registry. Pages are server-rendered html with
// htmx fragments; no state lives in handlers.
package ui

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"femstat/internal"
	"femstat/internal/config"
	"femstat/internal/registry"
	"femstat/internal/session"
	"femstat/models"
)

//go:embed templates/* static/* methods.md
var embeddedFiles embed.FS

// Backend is the slice of the API client the pages use. Narrowed to an
// interface so workflow tests can count calls.
type Backend interface {
	Health(ctx context.Context) error
	Upload(ctx context.Context, filename string, r io.Reader) (*models.SchemaResponse, error)
	Variables(ctx context.Context, sessionID string) (*models.SchemaResponse, error)
	RunAnalysis(ctx context.Context, request models.AnalysisRequest) (*models.AnalysisResponse, error)
	GenerateReport(ctx context.Context, request models.ReportRequest) (*models.ReportResponse, error)
	Login(ctx context.Context, creds models.UserLogin) (*models.Token, error)
	Signup(ctx context.Context, user models.UserCreate) (*models.Token, error)
	Purge(ctx context.Context, sessionID string) error
	Download(ctx context.Context, fileURL string) (io.ReadCloser, string, int64, error)
	DownloadAll(ctx context.Context, urls models.FileUrls, dir string) error
}

// App is the frontend application.
type App struct {
	router    *chi.Mux
	store     *session.Store
	client    Backend
	registry  *registry.Registry
	cfg       *config.Config
	templates *template.Template
	logger    *internal.Logger

	methodsOnce sync.Once
	methodsHTML template.HTML
}

// NewApp wires the frontend against its dependencies.
func NewApp(cfg *config.Config, store *session.Store, client Backend, reg *registry.Registry) (*App, error) {
	templates, err := template.New("").Funcs(funcMap()).ParseFS(embeddedFiles, "templates/*.html", "templates/fragments/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		router:    chi.NewRouter(),
		store:     store,
		client:    client,
		registry:  reg,
		cfg:       cfg,
		templates: templates,
		logger:    internal.DefaultLogger.WithPrefix("[UI]"),
	}

	app.setupMiddleware()
	app.setupRoutes()

	return app, nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
		"fmtFloat": func(v float64) string {
			return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
		},
		// fmtP accepts float64 or *float64 so adjusted p-values render
		// without template gymnastics.
		"fmtP": func(v any) string {
			var p float64
			switch t := v.(type) {
			case float64:
				p = t
			case *float64:
				if t == nil {
					return ""
				}
				p = *t
			default:
				return ""
			}
			if p < 0.001 {
				return "<0.001"
			}
			return fmt.Sprintf("%.4f", p)
		},
		"humanTime": func(t time.Time) string { return humanize.Time(t) },
		"humanSize": func(n int64) string { return humanize.Bytes(uint64(n)) },
		"add":       func(a, b int) int { return a + b },
		"seq": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i
			}
			return out
		},
		"json": func(v any) (template.JS, error) {
			b, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return template.JS(b), nil
		},
	}
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))

	staticFS := http.FileServer(http.FS(embeddedFiles))
	a.router.Handle("/static/*", staticFS)
}

func (a *App) setupRoutes() {
	// Workflow pages
	a.router.Get("/", a.handleIndex)
	a.router.Post("/upload", a.handleUpload)
	a.router.Get("/configure", a.handleConfigure)
	a.router.Post("/analyze", a.handleAnalyze)
	a.router.Get("/results", a.handleResults)
	a.router.Post("/report", a.handleReport)
	a.router.Post("/purge", a.handlePurge)

	// Report registry
	a.router.Get("/reports", a.handleReports)
	a.router.Post("/reports/{sessionID}/delete", a.handleReportDelete)
	a.router.Get("/download", a.handleDownload)
	a.router.Post("/download-all", a.handleDownloadAll)

	// Auth
	a.router.Get("/login", a.handleLoginPage)
	a.router.Post("/login", a.handleLogin)
	a.router.Get("/signup", a.handleSignupPage)
	a.router.Post("/signup", a.handleSignup)
	a.router.Post("/logout", a.handleLogout)

	// Methodology and live state
	a.router.Get("/methods", a.handleMethods)
	a.router.Get("/events", a.handleEvents)

	// HTMX fragments
	a.router.Get("/fragments/backend-status", a.handleBackendStatus)
	a.router.Get("/fragments/mappings", a.handleMappingsFragment)
	a.router.Post("/fragments/mappings/row", a.handleMappingRowFragment)
	a.router.Get("/fragments/reports", a.handleReportsFragment)
	a.router.Post("/error/dismiss", a.handleErrorDismiss)
}

// Handler exposes the router for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

// Start blocks serving HTTP on the configured port.
func (a *App) Start() error {
	addr := ":" + a.cfg.Server.Port
	a.logger.Info("listening on %s (backend %s)", addr, a.cfg.Backend.BaseURL)
	return http.ListenAndServe(addr, a.router)
}

func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		a.logger.Error("template %s: %v", templateName, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func (a *App) renderPartial(w http.ResponseWriter, templateName string, data interface{}) {
	a.renderTemplate(w, templateName, data)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirect sends the user to another page, honoring htmx requests with an
// HX-Redirect header instead of a 303.
func (a *App) redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// requirePhase is the page guard: when the workflow has not reached the
// minimum phase the user lands on the earliest page that can take them
// forward.
func (a *App) requirePhase(w http.ResponseWriter, r *http.Request, min session.Phase) (session.Snapshot, bool) {
	snap := a.store.Snapshot()
	if snap.Phase.AtLeast(min) {
		return snap, true
	}
	target := "/"
	if min == session.PhaseResultsReady && snap.Phase.AtLeast(session.PhaseSchemaLoaded) {
		target = "/configure"
	}
	a.redirect(w, r, target)
	return snap, false
}
