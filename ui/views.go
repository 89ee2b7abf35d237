package ui

import (
	"html/template"
	"strings"

	"femstat/internal/charts"
	"femstat/internal/forms"
	"femstat/internal/session"
	"femstat/models"
)

// BaseView carries what every page needs: the nav state, the current
// workflow snapshot and the signed-in email, if any.
type BaseView struct {
	Title      string
	Active     string
	Snap       session.Snapshot
	SignedInAs string
}

// HasBanner reports whether a dismissible banner error is pending.
func (v BaseView) HasBanner() bool {
	return v.Snap.Err != nil && v.Snap.Err.Severity == session.SeverityBanner
}

// HasModal reports whether a modal error overlay is pending.
func (v BaseView) HasModal() bool {
	return v.Snap.Err != nil && v.Snap.Err.Severity == session.SeverityModal
}

// CanConfigure reports whether the configure page is reachable.
func (v BaseView) CanConfigure() bool {
	return v.Snap.Phase.AtLeast(session.PhaseSchemaLoaded)
}

// CanResults reports whether the results page is reachable.
func (v BaseView) CanResults() bool {
	return v.Snap.Phase.AtLeast(session.PhaseResultsReady)
}

// base builds the shared view parts for a page.
func (a *App) base(title, active string) BaseView {
	v := BaseView{
		Title:  title,
		Active: active,
		Snap:   a.store.Snapshot(),
	}
	if token, err := a.registry.CurrentToken(); err == nil {
		v.SignedInAs = token.Email
	}
	return v
}

// IndexView is the upload page.
type IndexView struct {
	BaseView
	MaxUploadMB int
	AllowedExts []string
}

// ConfigureView is the configuration page: the parsed form (or stored
// settings on first render) plus validation errors.
type ConfigureView struct {
	BaseView
	Schema     *models.SchemaResponse
	Settings   models.AnalysisSettings
	FormErrors forms.Errors
}

// MappingRows adapts the current mappings to the table fragment context.
func (v ConfigureView) MappingRows() MappingRowsView {
	return MappingRowsView{Rows: v.Settings.GenderMap}
}

// ContinuousSelected reports whether the column is among the selected
// continuous variables.
func (v ConfigureView) ContinuousSelected(name string) bool {
	return containsString(v.Settings.VarsContinuous, name)
}

// CategoricalSelected reports whether the column is among the selected
// categorical variables.
func (v ConfigureView) CategoricalSelected(name string) bool {
	return containsString(v.Settings.VarsCategorical, name)
}

// CategoriesOrderCSV renders the category order as the comma list the form
// round-trips.
func (v ConfigureView) CategoriesOrderCSV() string {
	return strings.Join(v.Settings.CategoriesOrder, ", ")
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// ResultsView is the results page with pre-shaped chart payloads.
type ResultsView struct {
	BaseView
	Results     *models.AnalysisResponse
	Continuous  []charts.ContinuousChart
	Categorical []charts.CategoricalChart
	Missingness []charts.MissingBar
	SavedDir    string
}

// ReportsView is the registry page.
type ReportsView struct {
	BaseView
	Reports []models.ReportEntry
}

// AuthView is the login and signup pages.
type AuthView struct {
	BaseView
	Email string
	Error string
}

// MethodsView is the methodology page with rendered markdown.
type MethodsView struct {
	BaseView
	Content template.HTML
}

// buildResultsView shapes results for rendering. Chart order follows the
// configured categories order.
func (a *App) buildResultsView(snap session.Snapshot) ResultsView {
	view := ResultsView{
		BaseView: BaseView{Title: "Results", Active: "results", Snap: snap},
		Results:  snap.Results,
	}
	if token, err := a.registry.CurrentToken(); err == nil {
		view.SignedInAs = token.Email
	}
	if snap.Results == nil {
		return view
	}

	order := snap.Settings.CategoriesOrder
	for _, result := range snap.Results.Continuous {
		view.Continuous = append(view.Continuous, charts.BuildContinuous(result, order))
	}
	for _, result := range snap.Results.Categorical {
		view.Categorical = append(view.Categorical, charts.BuildCategorical(result, order))
	}
	view.Missingness = charts.BuildMissingness(snap.Results.Missingness)
	return view
}
