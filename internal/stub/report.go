package stub

import (
	"html/template"
	"os"
	"path/filepath"
	"time"

	"femstat/internal/errors"
	"femstat/models"
)

// reportTemplate renders the analysis into a self-contained HTML report.
var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Georgia, serif; max-width: 960px; margin: 2rem auto; color: #1a1a1a; }
h1 { border-bottom: 2px solid #444; padding-bottom: .3rem; }
h2 { margin-top: 2rem; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { border: 1px solid #999; padding: .35rem .6rem; text-align: left; font-size: .9rem; }
th { background: #f0f0f0; }
.meta { color: #555; font-size: .9rem; }
.summary { background: #f7f7f2; border-left: 4px solid #888; padding: .8rem 1rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">
Organization: {{.Organization}} · Authors: {{range $i, $a := .Authors}}{{if $i}}, {{end}}{{$a}}{{end}} · Generated: {{.GeneratedAt}}
</p>
{{if .Notes}}<p>{{.Notes}}</p>{{end}}

<h2>Sample</h2>
<table>
<tr><th>Gender</th><th>N</th><th>%</th></tr>
{{range .Results.ByGender}}<tr><td>{{.Gender}}</td><td>{{.N}}</td><td>{{printf "%.1f" .Pct}}</td></tr>
{{end}}
</table>

<h2>Continuous variables</h2>
{{range .Results.Continuous}}
<h3>{{.Var}}</h3>
<table>
<tr><th>Gender</th><th>N</th><th>Mean</th><th>SD</th><th>Median</th><th>IQR</th><th>Min</th><th>Max</th></tr>
{{range .Table}}<tr><td>{{.Gender}}</td><td>{{.N}}</td><td>{{.Mean}}</td><td>{{.SD}}</td><td>{{.Median}}</td><td>{{.IQR}}</td><td>{{.Min}}</td><td>{{.Max}}</td></tr>
{{end}}
</table>
<p>Test: {{.Test.Name}}, p = {{.Test.P}}{{if .PAdjusted}} (adjusted {{printf "%.4f" .PAdjusted}}){{end}}.
{{range .Effects}} {{.Name}} = {{.Value}} ({{.Interpretation}}).{{end}}</p>
{{end}}

<h2>Categorical variables</h2>
{{range .Results.Categorical}}
<h3>{{.Var}}</h3>
<table>
<tr><th>Level</th><th>Gender</th><th>N</th><th>%</th></tr>
{{range .Table}}<tr><td>{{.Level}}</td><td>{{.Gender}}</td><td>{{.N}}</td><td>{{.Pct}}</td></tr>
{{end}}
</table>
<p>Test: {{.Test.Name}}, p = {{.Test.P}}{{if .PAdjusted}} (adjusted {{printf "%.4f" .PAdjusted}}){{end}}.
{{range .Effects}} {{.Name}} = {{.Value}} ({{.Interpretation}}).{{end}}</p>
{{end}}

{{if .Results.GenderBias}}
<h2>Gender bias assessment</h2>
<p class="summary">{{.Results.GenderBias.OverallSummary}}</p>
<ul>
{{range .Results.GenderBias.Recommendations}}<li>{{.}}</li>
{{end}}
</ul>
{{end}}

<p class="meta">Cells below the suppression threshold of {{.Results.Settings.SuppressThreshold}} are shown as &lt;{{.Results.Settings.SuppressThreshold}}.</p>
</body>
</html>
`))

type reportData struct {
	Title        string
	Organization string
	Authors      []string
	Notes        string
	GeneratedAt  string
	Results      *models.AnalysisResponse
}

// generateReport writes the HTML report for an analyzed session and
// returns the URLs. PDF and DOCX output is not rendered by this backend;
// those requests produce the HTML artifact with the note carried in the
// missing URLs.
func generateReport(dataDir string, req models.ReportRequest, results *models.AnalysisResponse) (*models.ReportResponse, error) {
	dir := filepath.Join(dataDir, "reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create reports directory")
	}

	title := req.Title
	if title == "" {
		title = models.DefaultReportTitle
	}
	org := req.Organization
	if org == "" {
		org = "Not specified"
	}
	authors := req.Authors
	if len(authors) == 0 {
		authors = []string{"Analysis Tool"}
	}

	name := reportFileName(req.SessionID, "html")
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, errors.ReportFailed("failed to create report file", err)
	}
	defer f.Close()

	data := reportData{
		Title:        title,
		Organization: org,
		Authors:      authors,
		Notes:        req.Notes,
		GeneratedAt:  time.Now().Format("2006-01-02 15:04:05"),
		Results:      results,
	}
	if err := reportTemplate.Execute(f, data); err != nil {
		return nil, errors.ReportFailed("failed to render report", err)
	}

	return &models.ReportResponse{HTMLURL: "/static/reports/" + name}, nil
}
