package registry

import (
	"path/filepath"
	"testing"
	"time"

	"femstat/internal/errors"
	"femstat/models"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := Open(filepath.Join(t.TempDir(), "femstat.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestReports_RoundTrip(t *testing.T) {
	reg := openTestRegistry(t)

	older := models.ReportEntry{
		SessionID:   "s1",
		Title:       "First report",
		HTMLURL:     "/static/reports/s1_report.html",
		GeneratedAt: time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
	}
	newer := models.ReportEntry{
		SessionID:   "s2",
		Title:       "Second report",
		HTMLURL:     "/static/reports/s2_report.html",
		GeneratedAt: time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC),
	}

	if err := reg.Append(older); err != nil {
		t.Fatalf("Append older: %v", err)
	}
	if err := reg.Append(newer); err != nil {
		t.Fatalf("Append newer: %v", err)
	}

	entries, err := reg.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List returned %d entries", len(entries))
	}
	if entries[0].SessionID != "s2" || entries[1].SessionID != "s1" {
		t.Errorf("order = [%s %s], want newest first", entries[0].SessionID, entries[1].SessionID)
	}
	if entries[0].ID == "" {
		t.Error("Append should assign an id")
	}

	removed, err := reg.Remove("s1")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed != 1 {
		t.Errorf("Remove deleted %d rows", removed)
	}

	entries, err = reg.List()
	if err != nil {
		t.Fatalf("List after remove: %v", err)
	}
	if len(entries) != 1 || entries[0].SessionID != "s2" {
		t.Errorf("entries after remove = %+v", entries)
	}
}

func TestReports_RemoveAllRowsForSession(t *testing.T) {
	reg := openTestRegistry(t)

	// Two reports off the same session: Remove reconciles both at once.
	for i := 0; i < 2; i++ {
		if err := reg.Append(models.ReportEntry{SessionID: "s1", Title: "r"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	removed, err := reg.Remove("s1")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed != 2 {
		t.Errorf("Remove deleted %d rows, want 2", removed)
	}
}

func TestReports_DefaultsFilledOnAppend(t *testing.T) {
	reg := openTestRegistry(t)

	if err := reg.Append(models.ReportEntry{SessionID: "s1"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	entries, err := reg.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if entries[0].Title != models.DefaultReportTitle {
		t.Errorf("title = %q", entries[0].Title)
	}
	if entries[0].GeneratedAt.IsZero() {
		t.Error("generated_at should default to now")
	}
}

func TestToken_Lifecycle(t *testing.T) {
	reg := openTestRegistry(t)

	if _, err := reg.CurrentToken(); errors.GetCode(err) != errors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND before save, got %v", err)
	}

	if err := reg.SaveToken("tok-1", "researcher@example.org"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	token, err := reg.CurrentToken()
	if err != nil {
		t.Fatalf("CurrentToken: %v", err)
	}
	if token.AccessToken != "tok-1" || token.Email != "researcher@example.org" {
		t.Errorf("token = %+v", token)
	}

	// Saving again replaces, never accumulates.
	if err := reg.SaveToken("tok-2", "researcher@example.org"); err != nil {
		t.Fatalf("SaveToken replace: %v", err)
	}
	token, err = reg.CurrentToken()
	if err != nil {
		t.Fatalf("CurrentToken after replace: %v", err)
	}
	if token.AccessToken != "tok-2" {
		t.Errorf("token after replace = %q", token.AccessToken)
	}

	if err := reg.ClearToken(); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if _, err := reg.CurrentToken(); errors.GetCode(err) != errors.CodeNotFound {
		t.Errorf("expected NOT_FOUND after clear, got %v", err)
	}
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "femstat.db")
	reg, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	reg.Close()
}
