package models

import "time"

// ReportRequest is the POST /api/report body.
type ReportRequest struct {
	SessionID    string   `json:"session_id"`
	Title        string   `json:"title"`
	Organization string   `json:"organization,omitempty"`
	Authors      []string `json:"authors,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// DefaultReportTitle is used when the report form leaves the title blank.
const DefaultReportTitle = "Gender Analysis Report"

// ReportResponse carries the generated artifact URLs. PDF and DOCX are
// optional: not every backend build renders them.
type ReportResponse struct {
	HTMLURL string `json:"html_url"`
	PDFURL  string `json:"pdf_url,omitempty"`
	DocxURL string `json:"docx_url,omitempty"`
}

// ReportEntry is one row of the local report registry. The registry
// outlives backend sessions; links may go stale once the backend purges
// the underlying files, and removal is the only reconciliation.
type ReportEntry struct {
	ID          string    `json:"id" db:"id"`
	SessionID   string    `json:"session_id" db:"session_id"`
	Title       string    `json:"title" db:"title"`
	HTMLURL     string    `json:"html_url" db:"html_url"`
	PDFURL      string    `json:"pdf_url" db:"pdf_url"`
	DocxURL     string    `json:"docx_url" db:"docx_url"`
	GeneratedAt time.Time `json:"generated_at" db:"generated_at"`
}
