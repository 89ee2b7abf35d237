// Package backend is the typed HTTP client for the statistics backend.
// Every call is a single attempt: no retry, no backoff, no queueing. The
// caller owns the consequences of a failure (surfacing it in the session
// store and deciding whether to resubmit).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"

	"femstat/internal"
	"femstat/internal/config"
	"femstat/internal/errors"
	"femstat/models"
)

// Client talks to one backend instance. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *internal.Logger
}

// NewClient builds a client from the backend config section. A zero
// timeout leaves the transport default in place.
func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     internal.DefaultLogger.WithPrefix("[Backend]"),
	}
}

// Health checks the backend's liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return errors.BackendUnreachable(err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.BackendUnreachable(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.BackendUnreachable(fmt.Errorf("health returned %s", resp.Status))
	}
	return nil
}

// Upload streams a dataset to POST /api/upload and returns the inferred
// schema. The reader is consumed exactly once; the file is never buffered
// whole in memory here.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*models.SchemaResponse, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		return nil, errors.UploadFailed("could not build upload request", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.UploadFailed("upload failed: backend unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.UploadFailed(c.detailOrStatus(resp, uploadStatusText(resp.StatusCode)), nil)
	}

	var schema models.SchemaResponse
	if err := json.NewDecoder(resp.Body).Decode(&schema); err != nil {
		return nil, errors.UploadFailed("upload succeeded but the schema response was unreadable", err)
	}
	c.logger.Info("uploaded %s: session=%s columns=%d", filename, schema.SessionID, len(schema.Schema))
	return &schema, nil
}

func uploadStatusText(status int) string {
	switch status {
	case http.StatusRequestEntityTooLarge:
		return "file too large"
	case http.StatusUnsupportedMediaType:
		return "file format not supported"
	default:
		return "upload rejected by the backend"
	}
}

// Variables re-fetches the schema for a still-live backend session.
func (c *Client) Variables(ctx context.Context, sessionID string) (*models.SchemaResponse, error) {
	u := c.baseURL + "/api/variables?session_id=" + url.QueryEscape(sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not build variables request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.BackendUnreachable(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.CodeNotFound, c.detailOrStatus(resp, "session not found or expired"))
	}
	var schema models.SchemaResponse
	if err := json.NewDecoder(resp.Body).Decode(&schema); err != nil {
		return nil, errors.Wrap(err, "variables response was unreadable")
	}
	return &schema, nil
}

// RunAnalysis submits the full configuration to POST /api/analyze. On a
// non-2xx response the backend's detail string becomes the error message
// verbatim so the UI can show exactly what the service said.
func (c *Client) RunAnalysis(ctx context.Context, request models.AnalysisRequest) (*models.AnalysisResponse, error) {
	var results models.AnalysisResponse
	if err := c.postJSON(ctx, "/api/analyze", request, &results, func(msg string, cause error) error {
		return errors.AnalysisFailed(msg, cause)
	}); err != nil {
		return nil, err
	}
	return &results, nil
}

// GenerateReport asks the backend to render a report for an analyzed
// session.
func (c *Client) GenerateReport(ctx context.Context, request models.ReportRequest) (*models.ReportResponse, error) {
	var report models.ReportResponse
	if err := c.postJSON(ctx, "/api/report", request, &report, func(msg string, cause error) error {
		return errors.ReportFailed(msg, cause)
	}); err != nil {
		return nil, err
	}
	return &report, nil
}

// Login exchanges credentials for a token. The token is persisted by the
// caller but is not attached to later analysis or report calls; that gap
// is part of the current backend contract and deliberately left open.
func (c *Client) Login(ctx context.Context, creds models.UserLogin) (*models.Token, error) {
	var token models.Token
	if err := c.postJSON(ctx, "/api/auth/login", creds, &token, func(msg string, cause error) error {
		return errors.AuthFailed(msg, cause)
	}); err != nil {
		return nil, err
	}
	return &token, nil
}

// Signup registers a new account and returns its first token.
func (c *Client) Signup(ctx context.Context, user models.UserCreate) (*models.Token, error) {
	var token models.Token
	if err := c.postJSON(ctx, "/api/auth/signup", user, &token, func(msg string, cause error) error {
		return errors.AuthFailed(msg, cause)
	}); err != nil {
		return nil, err
	}
	return &token, nil
}

// Purge deletes the backend session and every file derived from it.
func (c *Client) Purge(ctx context.Context, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/purge/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return errors.Wrap(err, "could not build purge request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.BackendUnreachable(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.CodeInternalError, c.detailOrStatus(resp, "purge failed"))
	}
	return nil
}

// Download fetches one export or report artifact. The URL may be absolute
// or backend-relative. The caller must close the returned body.
func (c *Client) Download(ctx context.Context, fileURL string) (io.ReadCloser, string, int64, error) {
	u := fileURL
	if strings.HasPrefix(u, "/") {
		u = c.baseURL + u
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", 0, errors.DownloadFailed("could not build download request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", 0, errors.DownloadFailed("download failed: backend unreachable", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", 0, errors.DownloadFailed("file is no longer available", fmt.Errorf("download returned %s", resp.Status))
	}

	return resp.Body, downloadFilename(resp, u), resp.ContentLength, nil
}

// downloadFilename prefers the Content-Disposition name and falls back to
// the URL path.
func downloadFilename(resp *http.Response, u string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			return params["filename"]
		}
	}
	if parsed, err := url.Parse(u); err == nil {
		if name := path.Base(parsed.Path); name != "." && name != "/" {
			return name
		}
	}
	return "download"
}

// postJSON sends one JSON request and decodes one JSON response. wrap
// turns failures into the workflow error for the endpoint.
func (c *Client) postJSON(ctx context.Context, endpoint string, body, out any, wrap func(string, error) error) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return wrap("could not encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return wrap("could not build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrap("statistics backend is unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return wrap(c.detailOrStatus(resp, "request rejected by the backend"), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return wrap("backend response was unreadable", err)
	}
	return nil
}

// detailOrStatus extracts the backend's {"detail": "..."} message, falling
// back to the given generic text.
func (c *Client) detailOrStatus(resp *http.Response, generic string) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil {
		var payload struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Detail != "" {
			return payload.Detail
		}
	}
	c.logger.Debug("no detail in %d response", resp.StatusCode)
	return generic
}
