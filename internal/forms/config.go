// Package forms parses and validates the analysis configuration form.
// Validation failures never touch the session store: the handler re-renders
// the form with these errors and the user's values intact.
package forms

import (
	"net/url"
	"strconv"
	"strings"

	"femstat/models"
)

// Errors maps field names to messages. The "gender_map" key is the
// form-level error for the mapping table, distinct from per-field errors.
type Errors map[string]string

// Any reports whether validation failed.
func (e Errors) Any() bool {
	return len(e) > 0
}

// Field returns the message for one field, empty when clean.
func (e Errors) Field(name string) string {
	return e[name]
}

// ConfigForm is the parsed analysis configuration plus the raw strings
// needed to re-render exactly what the user typed.
type ConfigForm struct {
	Settings      models.AnalysisSettings
	RawThreshold  string
	RawCategories string
}

var validCategories = map[string]bool{
	models.GenderFemale:  true,
	models.GenderMale:    true,
	models.GenderOther:   true,
	models.GenderMissing: true,
}

var validPolicies = map[models.MissingPolicy]bool{
	models.MissingListwise: true,
	models.MissingPairwise: true,
	models.MissingFlag:     true,
}

// Parse reads the POSTed form values. Parsing is total; all judgment lives
// in Validate.
func Parse(values url.Values) ConfigForm {
	form := ConfigForm{
		RawThreshold:  strings.TrimSpace(values.Get("suppress_threshold")),
		RawCategories: strings.TrimSpace(values.Get("categories_order")),
	}

	s := &form.Settings
	s.GenderCol = strings.TrimSpace(values.Get("gender_col"))
	s.VarsContinuous = cleanList(values["vars_continuous"])
	s.VarsCategorical = cleanList(values["vars_categorical"])
	s.WeightCol = strings.TrimSpace(values.Get("weight_col"))
	s.ClusterID = strings.TrimSpace(values.Get("cluster_id"))
	s.RobustSE = values.Get("robust_se") != ""
	s.FDR = values.Get("fdr") != ""

	s.MissingPolicy = models.MissingPolicy(strings.TrimSpace(values.Get("missing_policy")))
	if s.MissingPolicy == "" {
		s.MissingPolicy = models.MissingListwise
	}

	if form.RawCategories != "" {
		for _, c := range strings.Split(form.RawCategories, ",") {
			if c = strings.TrimSpace(c); c != "" {
				s.CategoriesOrder = append(s.CategoriesOrder, c)
			}
		}
	}

	if n, err := strconv.Atoi(form.RawThreshold); err == nil {
		s.SuppressThreshold = n
	}

	s.GenderMap = parseMappingRows(values)

	return form
}

// parseMappingRows zips the parallel mapping_from / mapping_to arrays and
// keeps only the rows whose index appears in mapping_use (the per-row
// include checkbox). Incomplete checked rows are kept so Validate can
// point at them.
func parseMappingRows(values url.Values) []models.GenderMapping {
	from := values["mapping_from"]
	to := values["mapping_to"]
	use := make(map[int]bool, len(values["mapping_use"]))
	for _, idx := range values["mapping_use"] {
		if i, err := strconv.Atoi(idx); err == nil {
			use[i] = true
		}
	}

	var rows []models.GenderMapping
	for i := range from {
		if !use[i] {
			continue
		}
		var t string
		if i < len(to) {
			t = strings.TrimSpace(to[i])
		}
		rows = append(rows, models.GenderMapping{
			FromValue: strings.TrimSpace(from[i]),
			ToValue:   t,
		})
	}
	return rows
}

// Validate checks every constraint against the schema. It returns an empty
// map when the form may be submitted to the backend.
func (f *ConfigForm) Validate(schema *models.SchemaResponse) Errors {
	errs := Errors{}
	s := f.Settings

	switch {
	case s.GenderCol == "":
		errs["gender_col"] = "select a gender column"
	case !contains(schema.GenderCandidates, s.GenderCol):
		errs["gender_col"] = "gender column must be one of the detected candidates"
	}

	if len(s.CategoriesOrder) == 0 {
		errs["categories_order"] = "at least one category is required"
	} else {
		for _, c := range s.CategoriesOrder {
			if !validCategories[c] {
				errs["categories_order"] = "unknown category " + strconv.Quote(c)
				break
			}
		}
	}

	if len(s.VarsContinuous) == 0 {
		errs["vars_continuous"] = "select at least one continuous variable"
	} else {
		for _, v := range s.VarsContinuous {
			info, ok := schema.Variable(v)
			if !ok || info.VariableType != models.VariableContinuous {
				errs["vars_continuous"] = strconv.Quote(v) + " is not a continuous column"
				break
			}
		}
	}

	if len(s.VarsCategorical) == 0 {
		errs["vars_categorical"] = "select at least one categorical variable"
	} else {
		for _, v := range s.VarsCategorical {
			if v == s.GenderCol {
				errs["vars_categorical"] = "the gender column cannot be analyzed against itself"
				break
			}
			info, ok := schema.Variable(v)
			if !ok || (info.VariableType != models.VariableCategorical && info.VariableType != models.VariableBoolean) {
				errs["vars_categorical"] = strconv.Quote(v) + " is not a categorical column"
				break
			}
		}
	}

	if s.SuppressThreshold < 1 || s.SuppressThreshold > 100 {
		errs["suppress_threshold"] = "suppression threshold must be a whole number between 1 and 100"
	}

	if !validPolicies[s.MissingPolicy] {
		errs["missing_policy"] = "unknown missing-data policy"
	}

	if s.WeightCol != "" && !schema.HasColumn(s.WeightCol) {
		errs["weight_col"] = "weight column not in dataset"
	}
	if s.ClusterID != "" && !schema.HasColumn(s.ClusterID) {
		errs["cluster_id"] = "cluster column not in dataset"
	}

	validateMappings(s.GenderMap, errs)

	return errs
}

// validateMappings enforces the submit gate: at least one complete row,
// every included row complete, from-values unique, targets standardized.
func validateMappings(rows []models.GenderMapping, errs Errors) {
	complete := 0
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if row.FromValue == "" || row.ToValue == "" {
			errs["gender_map"] = "every included mapping row needs both a raw value and a category"
			continue
		}
		if !validCategories[row.ToValue] {
			errs["gender_map"] = "mappings must target female, male, other or missing"
			continue
		}
		if seen[row.FromValue] {
			errs["gender_map"] = "raw value " + strconv.Quote(row.FromValue) + " is mapped twice"
			continue
		}
		seen[row.FromValue] = true
		complete++
	}
	if complete == 0 && errs["gender_map"] == "" {
		errs["gender_map"] = "at least one complete gender mapping is required"
	}
}

func cleanList(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
