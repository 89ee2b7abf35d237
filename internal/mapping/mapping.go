// Package mapping infers gender value mappings and seeds analysis
// defaults from a freshly received schema. Inference is deliberately
// conservative: only exact, case-sensitive synonyms are mapped, everything
// else is left for the user.
package mapping

import (
	"femstat/models"
)

// synonyms is the fixed case-sensitive dictionary of known raw values.
var synonyms = map[string]string{
	"F":                 models.GenderFemale,
	"Female":            models.GenderFemale,
	"Woman":             models.GenderFemale,
	"M":                 models.GenderMale,
	"Male":              models.GenderMale,
	"Man":               models.GenderMale,
	"Non-binary":        models.GenderOther,
	"Other":             models.GenderOther,
	"Missing":           models.GenderMissing,
	"Prefer not to say": models.GenderMissing,
}

// DefaultSelectionLimit caps how many variables of each kind are
// pre-selected from the schema.
const DefaultSelectionLimit = 3

// Infer produces default mappings for the observed sample values. Values
// outside the dictionary yield no row; duplicates collapse to the first
// occurrence; input order is preserved.
func Infer(values []string) []models.GenderMapping {
	var out []models.GenderMapping
	seen := make(map[string]bool, len(values))
	for _, raw := range values {
		if raw == "" || seen[raw] {
			continue
		}
		seen[raw] = true
		if target, ok := synonyms[raw]; ok {
			out = append(out, models.GenderMapping{FromValue: raw, ToValue: target})
		}
	}
	return out
}

// InferForColumn runs Infer over the named column's sample values.
func InferForColumn(schema *models.SchemaResponse, column string) []models.GenderMapping {
	v, ok := schema.Variable(column)
	if !ok {
		return nil
	}
	return Infer(v.SampleValues)
}

// DefaultSelections picks the first few continuous and categorical columns
// in schema order. The chosen gender column is excluded from the
// categorical side only.
func DefaultSelections(schema *models.SchemaResponse, genderCol string) (continuous, categorical []string) {
	continuous = truncate(schema.ContinuousNames(), DefaultSelectionLimit)
	categorical = truncate(schema.CategoricalNames(genderCol), DefaultSelectionLimit)
	return continuous, categorical
}

func truncate(names []string, n int) []string {
	if len(names) > n {
		return names[:n]
	}
	return names
}

// DefaultSettings returns the backend's documented defaults.
func DefaultSettings() models.AnalysisSettings {
	return models.AnalysisSettings{
		CategoriesOrder: []string{
			models.GenderFemale,
			models.GenderMale,
			models.GenderOther,
			models.GenderMissing,
		},
		MissingPolicy:     models.MissingListwise,
		SuppressThreshold: 5,
	}
}

// ApplyDefaults fills every unset field of the settings from the schema.
// It runs once, when the schema arrives; fields the user already touched
// are never overwritten. This is the single place defaults are decided.
func ApplyDefaults(schema *models.SchemaResponse, settings models.AnalysisSettings) models.AnalysisSettings {
	if settings.GenderCol == "" && len(schema.GenderCandidates) > 0 {
		settings.GenderCol = schema.GenderCandidates[0]
	}
	if len(settings.GenderMap) == 0 && settings.GenderCol != "" {
		settings.GenderMap = InferForColumn(schema, settings.GenderCol)
	}
	if len(settings.VarsContinuous) == 0 && len(settings.VarsCategorical) == 0 {
		settings.VarsContinuous, settings.VarsCategorical = DefaultSelections(schema, settings.GenderCol)
	}
	defaults := DefaultSettings()
	if len(settings.CategoriesOrder) == 0 {
		settings.CategoriesOrder = defaults.CategoriesOrder
	}
	if settings.MissingPolicy == "" {
		settings.MissingPolicy = defaults.MissingPolicy
	}
	if settings.SuppressThreshold == 0 {
		settings.SuppressThreshold = defaults.SuppressThreshold
	}
	return settings
}
