package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"femstat/internal/config"
	"femstat/internal/errors"
	"femstat/models"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.BackendConfig{BaseURL: srv.URL}), srv
}

func TestUpload_Success(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/upload" {
			t.Errorf("path = %s", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer file.Close()
		if header.Filename != "survey.csv" {
			t.Errorf("filename = %s", header.Filename)
		}
		content, _ := io.ReadAll(file)
		if string(content) != "a,b\n1,2\n" {
			t.Errorf("content = %q", content)
		}
		json.NewEncoder(w).Encode(models.SchemaResponse{
			SessionID:        "s1",
			Schema:           []models.VariableInfo{{Name: "a"}, {Name: "b"}},
			GenderCandidates: []string{"sex"},
		})
	}))

	schema, err := client.Upload(context.Background(), "survey.csv", strings.NewReader("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if schema.SessionID != "s1" || len(schema.Schema) != 2 {
		t.Errorf("schema = %+v", schema)
	}
	if len(schema.GenderCandidates) != 1 || schema.GenderCandidates[0] != "sex" {
		t.Errorf("candidates = %v", schema.GenderCandidates)
	}
}

func TestUpload_BackendRejection(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"detail passthrough", 422, `{"detail":"File appears to be empty"}`, "File appears to be empty"},
		{"oversize", 413, ``, "file too large"},
		{"bad format", 415, ``, "file format not supported"},
		{"opaque error", 500, `boom`, "upload rejected by the backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))

			_, err := client.Upload(context.Background(), "f.csv", strings.NewReader("x"))
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.GetCode(err) != errors.CodeUploadFailed {
				t.Errorf("code = %s", errors.GetCode(err))
			}
			if got := errors.UserMessage(err); got != tt.message {
				t.Errorf("message = %q, want %q", got, tt.message)
			}
		})
	}
}

func TestVariables_RecoversSchema(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/variables" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("session_id"); got != "s1" {
			t.Errorf("session_id = %q", got)
		}
		io.WriteString(w, `{"session_id":"s1","schema":[{"name":"age","variable_type":"continuous"}],"gender_candidates":[]}`)
	}))

	schema, err := client.Variables(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Variables: %v", err)
	}
	if schema.SessionID != "s1" || len(schema.Schema) != 1 || schema.Schema[0].Name != "age" {
		t.Errorf("schema = %+v", schema)
	}
}

func TestVariables_ExpiredSession(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail":"Session not found or expired"}`)
	}))

	_, err := client.Variables(context.Background(), "dead")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.GetCode(err) != errors.CodeNotFound {
		t.Errorf("code = %s", errors.GetCode(err))
	}
	if got := errors.UserMessage(err); got != "Session not found or expired" {
		t.Errorf("message = %q", got)
	}
}

func TestRunAnalysis_DetailMessageVerbatim(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"detail":"Insufficient sample size for analysis"}`)
	}))

	_, err := client.RunAnalysis(context.Background(), models.AnalysisRequest{SessionID: "s1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.GetCode(err) != errors.CodeAnalysisFailed {
		t.Errorf("code = %s", errors.GetCode(err))
	}
	if got := errors.UserMessage(err); got != "Insufficient sample size for analysis" {
		t.Errorf("message = %q", got)
	}
}

func TestRunAnalysis_SingleAttempt(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	if _, err := client.RunAnalysis(context.Background(), models.AnalysisRequest{}); err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("backend saw %d requests, want exactly 1", n)
	}
}

func TestRunAnalysis_RequestBody(t *testing.T) {
	var received models.AnalysisRequest
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(models.AnalysisResponse{})
	}))

	req := models.AnalysisRequest{
		SessionID: "s9",
		AnalysisSettings: models.AnalysisSettings{
			GenderCol: "sex",
			GenderMap: []models.GenderMapping{{FromValue: "F", ToValue: "female"}},
		},
	}
	if _, err := client.RunAnalysis(context.Background(), req); err != nil {
		t.Fatalf("RunAnalysis: %v", err)
	}
	if received.SessionID != "s9" || received.GenderCol != "sex" || len(received.GenderMap) != 1 {
		t.Errorf("backend received %+v", received)
	}
}

func TestGenerateReport(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.ReportRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Title != "Q3 Survey" {
			t.Errorf("title = %q", req.Title)
		}
		json.NewEncoder(w).Encode(models.ReportResponse{HTMLURL: "/static/reports/s1_report.html"})
	}))

	report, err := client.GenerateReport(context.Background(), models.ReportRequest{SessionID: "s1", Title: "Q3 Survey"})
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if report.HTMLURL != "/static/reports/s1_report.html" {
		t.Errorf("html url = %q", report.HTMLURL)
	}
}

func TestLogin_Failure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"Incorrect email or password"}`)
	}))

	_, err := client.Login(context.Background(), models.UserLogin{Email: "a@b.c", Password: "nope"})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.GetCode(err) != errors.CodeAuthFailed {
		t.Errorf("code = %s", errors.GetCode(err))
	}
	if got := errors.UserMessage(err); got != "Incorrect email or password" {
		t.Errorf("message = %q", got)
	}
}

func TestDownload_RelativeURLAndFilename(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/static/exports/s1_wide.csv" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, "col\nval\n")
	}))

	body, name, _, err := client.Download(context.Background(), "/static/exports/s1_wide.csv")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer body.Close()
	if name != "s1_wide.csv" {
		t.Errorf("filename = %q", name)
	}
	content, _ := io.ReadAll(body)
	if string(content) != "col\nval\n" {
		t.Errorf("content = %q", content)
	}
}

func TestDownload_Gone(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, _, _, err := client.Download(context.Background(), "/static/exports/gone.csv")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.GetCode(err) != errors.CodeDownloadFailed {
		t.Errorf("code = %s", errors.GetCode(err))
	}
}

func TestDownloadAll(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data for "+r.URL.Path)
	}))

	dir := t.TempDir()
	urls := models.FileUrls{
		CSVWideURL: "/static/exports/s1_wide.csv",
		CSVLongURL: "/static/exports/s1_long.csv",
		JSONURL:    "/static/exports/s1_metadata.json",
	}
	if err := client.DownloadAll(context.Background(), urls, dir); err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	for _, name := range []string{"s1_wide.csv", "s1_long.csv", "s1_metadata.json"} {
		if _, err := os.ReadFile(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestPurge(t *testing.T) {
	var purged string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		purged = r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"status": "purged"})
	}))

	if err := client.Purge(context.Background(), "s1"); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if purged != "/api/purge/s1" {
		t.Errorf("purge path = %q", purged)
	}
}
