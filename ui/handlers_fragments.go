package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"femstat/internal/mapping"
	"femstat/internal/session"
	"femstat/models"
)

// BackendStatusView is the status pill fragment.
type BackendStatusView struct {
	Healthy bool
	Detail  string
}

// handleBackendStatus probes the backend and renders the status pill.
func (a *App) handleBackendStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	view := BackendStatusView{Healthy: true, Detail: "backend reachable"}
	if err := a.client.Health(ctx); err != nil {
		view = BackendStatusView{Healthy: false, Detail: "backend unreachable"}
	}
	a.renderPartial(w, "backend_status", view)
}

// MappingRowsView is the mapping table fragment.
type MappingRowsView struct {
	Rows []models.GenderMapping
}

// handleMappingsFragment re-infers default mappings when the gender column
// changes. Inference only fills an empty list: once the user has rows,
// switching columns never regenerates or discards them.
func (a *App) handleMappingsFragment(w http.ResponseWriter, r *http.Request) {
	snap := a.store.Snapshot()
	if snap.Schema == nil {
		http.Error(w, "no dataset loaded", http.StatusConflict)
		return
	}

	rows := snap.Settings.GenderMap
	if len(rows) == 0 {
		genderCol := r.URL.Query().Get("gender_col")
		rows = mapping.InferForColumn(snap.Schema, genderCol)
	}
	a.renderPartial(w, "mapping_rows", MappingRowsView{Rows: rows})
}

// MappingRowView is one blank or prefilled mapping row.
type MappingRowView struct {
	Index int
	Row   models.GenderMapping
}

// handleMappingRowFragment returns one blank mapping row for the "add row"
// button. The index keeps the parallel form arrays aligned.
func (a *App) handleMappingRowFragment(w http.ResponseWriter, r *http.Request) {
	index := 0
	if err := r.ParseForm(); err == nil {
		fmt.Sscanf(r.PostForm.Get("next_index"), "%d", &index)
	}
	a.renderPartial(w, "mapping_row", MappingRowView{Index: index})
}

// handleReportsFragment renders the registry list fragment.
func (a *App) handleReportsFragment(w http.ResponseWriter, r *http.Request) {
	entries, err := a.registry.List()
	if err != nil {
		a.logger.Error("listing reports: %v", err)
	}
	a.renderPartial(w, "reports_list", ReportsView{
		BaseView: a.base("Reports", "reports"),
		Reports:  entries,
	})
}

// eventPayload is what the SSE stream sends per store change.
type eventPayload struct {
	Phase     session.Phase `json:"phase"`
	SessionID string        `json:"session_id"`
	Loading   bool          `json:"loading"`
	Error     string        `json:"error,omitempty"`
	Severity  string        `json:"severity,omitempty"`
}

// handleEvents streams store snapshots as server-sent events so the nav
// reflects phase and loading changes without reloads.
func (a *App) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates, cancel := a.store.Subscribe()
	defer cancel()

	// Send the current state immediately so a fresh tab is in sync.
	a.writeEvent(w, a.store.Snapshot())
	flusher.Flush()

	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap := <-updates:
			a.writeEvent(w, snap)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func (a *App) writeEvent(w http.ResponseWriter, snap session.Snapshot) {
	payload := eventPayload{
		Phase:     snap.Phase,
		SessionID: snap.SessionID,
		Loading:   snap.Loading,
	}
	if snap.Err != nil {
		payload.Error = snap.Err.Message
		payload.Severity = string(snap.Err.Severity)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		a.logger.Error("encoding event: %v", err)
		return
	}
	fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
}
