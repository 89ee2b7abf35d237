package stub

import (
	"strings"
	"time"

	"femstat/models"
)

// genderKeywords flags candidate gender columns by name, matching the
// candidate detection the production backend documents.
var genderKeywords = []string{
	"gender", "sex", "gend", "sexe", "sesso", "genere", "geschlecht", "género", "genero", "sexo",
}

const maxSampleValues = 5

// InferSchema builds the per-column schema of a dataset: dtype sniffing,
// uniqueness, missingness, sample values and the variable-type call the
// workflow configuration is driven by.
func InferSchema(dataset *Dataset) ([]models.VariableInfo, []string) {
	variables := make([]models.VariableInfo, 0, len(dataset.Headers))
	var candidates []string

	for _, name := range dataset.Headers {
		column := dataset.Column(name)
		info := inferColumn(name, column)
		variables = append(variables, info)
		if isGenderCandidate(name) {
			candidates = append(candidates, name)
		}
	}

	return variables, candidates
}

func inferColumn(name string, column []string) models.VariableInfo {
	var (
		present  int
		numeric  int
		integers int
		dates    int
		uniques  = map[string]bool{}
		samples  []string
	)

	for _, cell := range column {
		if cell == "" {
			continue
		}
		present++
		if !uniques[cell] {
			uniques[cell] = true
			if len(samples) < maxSampleValues {
				samples = append(samples, cell)
			}
		}
		if v, ok := parseNumber(cell); ok {
			numeric++
			if v == float64(int64(v)) {
				integers++
			}
			continue
		}
		if looksLikeDate(cell) {
			dates++
		}
	}

	info := models.VariableInfo{
		Name:         name,
		UniqueN:      len(uniques),
		SampleValues: samples,
	}
	if n := len(column); n > 0 {
		info.MissingPct = roundTo(float64(n-present)/float64(n)*100, 2)
	}

	switch {
	case present == 0:
		info.Dtype = "object"
		info.VariableType = models.VariableCategorical
	case dates == present:
		info.Dtype = "datetime64"
		info.VariableType = models.VariableDatetime
	case numeric == present:
		if integers == numeric {
			info.Dtype = "int64"
		} else {
			info.Dtype = "float64"
		}
		info.VariableType = numericVariableType(len(uniques), present)
	case isBooleanColumn(uniques):
		info.Dtype = "bool"
		info.VariableType = models.VariableBoolean
	default:
		info.Dtype = "object"
		info.VariableType = models.VariableCategorical
	}

	return info
}

// numericVariableType treats low-cardinality numerics as categorical, the
// same call pandas-style inference makes for coded variables.
func numericVariableType(uniqueN, present int) models.VariableType {
	if present > 0 && uniqueN <= 20 && float64(uniqueN)/float64(present) < 0.1 {
		return models.VariableCategorical
	}
	return models.VariableContinuous
}

var boolPairs = [][2]string{
	{"true", "false"},
	{"yes", "no"},
	{"y", "n"},
}

func isBooleanColumn(uniques map[string]bool) bool {
	if len(uniques) == 0 || len(uniques) > 2 {
		return false
	}
	lowered := make(map[string]bool, len(uniques))
	for v := range uniques {
		lowered[strings.ToLower(v)] = true
	}
	for _, pair := range boolPairs {
		if len(lowered) == 2 && lowered[pair[0]] && lowered[pair[1]] {
			return true
		}
		if len(lowered) == 1 && (lowered[pair[0]] || lowered[pair[1]]) {
			return true
		}
	}
	return false
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"02.01.2006",
}

func looksLikeDate(cell string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, cell); err == nil {
			return true
		}
	}
	return false
}

func isGenderCandidate(name string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range genderKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
