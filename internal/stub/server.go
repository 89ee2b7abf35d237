// Package stub is the development statistics backend: a gin server
// implementing the upload/analyze/report contract the workflow client
// depends on, so the application runs end-to-end without the production
// service. It mirrors the production behavior (TTL sessions, schema
// inference, gender-stratified tests, small-cell suppression, exports)
// at development fidelity, not production scale.
package stub

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"femstat/internal"
	"femstat/internal/config"
	"femstat/internal/errors"
	"femstat/models"
)

// Server is the development backend.
type Server struct {
	router   *gin.Engine
	cfg      config.StatSrvConfig
	sessions *sessionCache
	users    *userStore
	logger   *internal.Logger
	stop     chan struct{}
}

// NewServer wires the routes. Call Close to stop the session janitor.
func NewServer(cfg config.StatSrvConfig) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router:   gin.Default(),
		cfg:      cfg,
		sessions: newSessionCache(cfg.SessionTTL),
		users:    newUserStore(),
		logger:   internal.DefaultLogger.WithPrefix("[StatSrv]"),
		stop:     make(chan struct{}),
	}
	s.sessions.StartJanitor(5*time.Minute, s.stop)
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.POST("/api/upload", s.handleUpload)
	s.router.GET("/api/variables", s.handleVariables)
	s.router.POST("/api/analyze", s.handleAnalyze)
	s.router.POST("/api/report", s.handleReport)
	s.router.GET("/api/reports", s.handleReportsList)
	s.router.POST("/api/purge/:session_id", s.handlePurge)
	s.router.POST("/api/auth/signup", s.handleSignup)
	s.router.POST("/api/auth/login", s.handleLogin)
	s.router.GET("/api/auth/stats", s.handleAuthStats)

	// Exports and reports are plain files under the data directory.
	s.router.Static("/static/exports", filepath.Join(s.cfg.DataDir, "exports"))
	s.router.Static("/static/reports", filepath.Join(s.cfg.DataDir, "reports"))
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP on the configured port.
func (s *Server) Start() error {
	s.logger.Info("listening on :%s (data dir %s, session TTL %s)", s.cfg.Port, s.cfg.DataDir, s.cfg.SessionTTL)
	return s.router.Run(":" + s.cfg.Port)
}

// Close stops the background janitor.
func (s *Server) Close() {
	close(s.stop)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessions.Len()})
}

var allowedUploadExts = map[string]bool{
	".csv": true, ".xlsx": true, ".xls": true,
	".sav": true, ".dta": true, ".parquet": true,
}

func (s *Server) handleUpload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "No file in request"})
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedUploadExts[ext] {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"detail": fmt.Sprintf("Unsupported file type %q", ext)})
		return
	}
	if maxBytes := int64(s.cfg.MaxUploadMB) << 20; header.Size > maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": fmt.Sprintf("File too large. Maximum size: %dMB", s.cfg.MaxUploadMB)})
		return
	}
	// Formats the dev backend cannot parse are still accepted by
	// extension, then rejected with a parse error if unreadable.
	if ext != ".csv" && ext != ".xlsx" && ext != ".xls" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": fmt.Sprintf("The development backend cannot parse %s files; use csv or xlsx", ext)})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Could not read upload"})
		return
	}
	defer file.Close()

	dataset, err := ReadDataset(file, ext)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": errors.UserMessage(err)})
		return
	}

	variables, candidates := InferSchema(dataset)
	schema := &models.SchemaResponse{
		Schema:           variables,
		GenderCandidates: candidates,
		FileInfo: models.FileInfo{
			Filename:  header.Filename,
			SizeBytes: header.Size,
			SizeMB:    roundTo(float64(header.Size)/(1<<20), 3),
			Modified:  float64(time.Now().Unix()),
		},
	}
	schema.SessionID = s.sessions.Create(dataset, schema)

	s.logger.Info("upload %s: session=%s rows=%d cols=%d", header.Filename, schema.SessionID, dataset.NRows(), len(dataset.Headers))
	c.JSON(http.StatusOK, schema)
}

func (s *Server) handleVariables(c *gin.Context) {
	entry, ok := s.sessions.Get(c.Query("session_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Session not found or expired"})
		return
	}
	c.JSON(http.StatusOK, entry.schema)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req models.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid analysis request: " + err.Error()})
		return
	}

	entry, ok := s.sessions.Get(req.SessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Session not found or expired"})
		return
	}
	if req.SuppressThreshold < 1 {
		req.SuppressThreshold = 5
	}
	if len(req.CategoriesOrder) == 0 {
		req.CategoriesOrder = []string{models.GenderFemale, models.GenderMale, models.GenderOther, models.GenderMissing}
	}

	resp, err := RunAnalysis(entry.dataset, req, s.cfg.EmitHistograms)
	if err != nil {
		status := http.StatusBadRequest
		if errors.GetCode(err) == errors.CodeValidationError {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"detail": errors.UserMessage(err)})
		return
	}

	if err := writeExports(s.cfg.DataDir, req.SessionID, resp); err != nil {
		s.logger.Error("export write failed for %s: %v", req.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to write export files"})
		return
	}

	s.sessions.SetResults(req.SessionID, resp)
	s.logger.Info("analyze session=%s continuous=%d categorical=%d", req.SessionID, len(resp.Continuous), len(resp.Categorical))
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleReport(c *gin.Context) {
	var req models.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid report request: " + err.Error()})
		return
	}

	entry, ok := s.sessions.Get(req.SessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Session not found or expired"})
		return
	}
	if entry.results == nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "No analysis results found. Please run analysis first."})
		return
	}

	resp, err := generateReport(s.cfg.DataDir, req, entry.results)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": errors.UserMessage(err)})
		return
	}
	s.logger.Info("report generated for session=%s", req.SessionID)
	c.JSON(http.StatusOK, resp)
}

// handleReportsList lists the report files on disk, newest first.
func (s *Server) handleReportsList(c *gin.Context) {
	dir := filepath.Join(s.cfg.DataDir, "reports")
	entries, err := os.ReadDir(dir)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"reports": []string{}})
		return
	}

	type fileEntry struct {
		Name     string `json:"name"`
		URL      string `json:"url"`
		Modified int64  `json:"modified"`
	}
	var files []fileEntry
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileEntry{
			Name:     entry.Name(),
			URL:      "/static/reports/" + entry.Name(),
			Modified: info.ModTime().Unix(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"reports": files})
}

func (s *Server) handlePurge(c *gin.Context) {
	sessionID := c.Param("session_id")
	if !s.sessions.Delete(sessionID) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Session not found"})
		return
	}
	// Derived files go with the session.
	for _, pattern := range []string{
		filepath.Join(s.cfg.DataDir, "exports", sessionID+"_*"),
		filepath.Join(s.cfg.DataDir, "reports", sessionID+"_*"),
	} {
		matches, _ := filepath.Glob(pattern)
		for _, path := range matches {
			os.Remove(path)
		}
	}
	s.logger.Info("purged session=%s", sessionID)
	c.JSON(http.StatusOK, gin.H{"status": "purged", "session_id": sessionID})
}

func (s *Server) handleSignup(c *gin.Context) {
	var req models.UserCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid signup request"})
		return
	}
	token, err := s.users.Signup(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": errors.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, token)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req models.UserLogin
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid login request"})
		return
	}
	token, err := s.users.Login(req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": errors.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, token)
}

func (s *Server) handleAuthStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"total_users": s.users.Count()})
}
