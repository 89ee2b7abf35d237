package testkit

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// WriteCSV writes the header plus participant rows as CSV.
func (g *SurveyDataGenerator) WriteCSV(w io.Writer, participants []Participant) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range g.Rows(participants) {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the participants as a single-sheet xlsx workbook.
// Numeric cells are written as numbers so schema inference sees real
// types, not strings.
func (g *SurveyDataGenerator) WriteXLSX(w io.Writer, participants []Participant) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	if err := f.SetSheetRow(sheet, "A1", &Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, p := range participants {
		row := []any{
			p.ID,
			p.GenderRaw,
			anyOrNil(p.Age),
			anyOrNil(p.Income),
			anyOrNil(p.WeeklyHours),
			anyOrNil(p.WellbeingScore),
			anyOrNil(p.BMI),
			p.Smoker,
			p.Education,
			p.Region,
			p.Diagnosis,
			p.EnrolledAt.Format("2006-01-02"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile writes participants to path, choosing the format from the
// extension (.csv or .xlsx). Parent directories are created as needed.
func (g *SurveyDataGenerator) WriteFile(path string, participants []Participant) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	switch ext := filepath.Ext(path); ext {
	case ".csv":
		return g.WriteCSV(f, participants)
	case ".xlsx":
		return g.WriteXLSX(f, participants)
	default:
		return fmt.Errorf("unsupported output format %q", ext)
	}
}

// anyOrNil unwraps a pointer cell for excelize; nil stays nil and renders
// as an empty cell.
func anyOrNil[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
