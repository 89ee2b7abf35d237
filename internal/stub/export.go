package stub

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"femstat/internal/errors"
	"femstat/models"
)

// writeExports renders the analysis into its three downloadable
// artifacts under dataDir/exports and fills in the URLs they are served
// at.
func writeExports(dataDir, sessionID string, resp *models.AnalysisResponse) error {
	dir := filepath.Join(dataDir, "exports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create exports directory")
	}

	wide := sessionID + "_wide.csv"
	long := sessionID + "_long.csv"
	meta := sessionID + "_metadata.json"

	if err := writeWideCSV(filepath.Join(dir, wide), resp); err != nil {
		return err
	}
	if err := writeLongCSV(filepath.Join(dir, long), resp); err != nil {
		return err
	}
	if err := writeMetadataJSON(filepath.Join(dir, meta), resp); err != nil {
		return err
	}

	resp.Files = models.FileUrls{
		CSVWideURL: "/static/exports/" + wide,
		CSVLongURL: "/static/exports/" + long,
		JSONURL:    "/static/exports/" + meta,
	}
	return nil
}

// writeWideCSV is one row per variable x group with the summary columns
// side by side.
func writeWideCSV(path string, resp *models.AnalysisResponse) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create wide export")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"variable", "gender", "n", "mean", "sd", "median", "iqr", "min", "max"}); err != nil {
		return errors.Wrap(err, "failed to write wide export")
	}
	for _, result := range resp.Continuous {
		for _, row := range result.Table {
			record := []string{
				result.Var, row.Gender,
				row.N.String(), row.Mean.String(), row.SD.String(),
				row.Median.String(), row.IQR.String(), row.Min.String(), row.Max.String(),
			}
			if err := w.Write(record); err != nil {
				return errors.Wrap(err, "failed to write wide export")
			}
		}
	}
	return nil
}

// writeLongCSV is one row per statistic, stacking continuous summaries,
// categorical cells and test outcomes in a tidy layout.
func writeLongCSV(path string, resp *models.AnalysisResponse) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create long export")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"variable", "gender", "level", "statistic", "value"}); err != nil {
		return errors.Wrap(err, "failed to write long export")
	}

	write := func(record ...string) error { return w.Write(record) }

	for _, result := range resp.Continuous {
		for _, row := range result.Table {
			cells := map[string]models.Suppressible{
				"n": row.N, "mean": row.Mean, "sd": row.SD,
				"median": row.Median, "iqr": row.IQR, "min": row.Min, "max": row.Max,
			}
			for _, stat := range []string{"n", "mean", "sd", "median", "iqr", "min", "max"} {
				if err := write(result.Var, row.Gender, "", stat, cells[stat].String()); err != nil {
					return errors.Wrap(err, "failed to write long export")
				}
			}
		}
		if err := write(result.Var, "", "", "p_"+result.Test.Name, result.Test.P.String()); err != nil {
			return errors.Wrap(err, "failed to write long export")
		}
	}
	for _, result := range resp.Categorical {
		for _, cell := range result.Table {
			if err := write(result.Var, cell.Gender, cell.Level, "n", cell.N.String()); err != nil {
				return errors.Wrap(err, "failed to write long export")
			}
			if err := write(result.Var, cell.Gender, cell.Level, "pct", cell.Pct.String()); err != nil {
				return errors.Wrap(err, "failed to write long export")
			}
		}
		if err := write(result.Var, "", "", "p_"+result.Test.Name, result.Test.P.String()); err != nil {
			return errors.Wrap(err, "failed to write long export")
		}
	}
	return nil
}

func writeMetadataJSON(path string, resp *models.AnalysisResponse) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create metadata export")
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return errors.Wrap(err, "failed to write metadata export")
	}
	return nil
}

// reportFileName is the on-disk and URL name of a generated report.
func reportFileName(sessionID, format string) string {
	return fmt.Sprintf("%s_report.%s", sessionID, format)
}
