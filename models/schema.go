package models

// VariableType classifies a dataset column from backend inference.
type VariableType string

const (
	VariableContinuous  VariableType = "continuous"
	VariableCategorical VariableType = "categorical"
	VariableDatetime    VariableType = "datetime"
	VariableBoolean     VariableType = "boolean"
)

// VariableInfo is one column descriptor from the inferred schema.
type VariableInfo struct {
	Name         string       `json:"name"`
	Dtype        string       `json:"dtype"`
	UniqueN      int          `json:"unique_n"`
	SampleValues SampleValues `json:"sample_values"`
	MissingPct   float64      `json:"missing_pct"`
	VariableType VariableType `json:"variable_type"`
}

// FileInfo is upload metadata echoed by the backend.
type FileInfo struct {
	Filename  string  `json:"filename"`
	SizeBytes int64   `json:"size_bytes"`
	SizeMB    float64 `json:"size_mb"`
	Modified  float64 `json:"modified"`
}

// SchemaResponse is the POST /api/upload response: the inferred schema
// plus candidate gender columns. Immutable once received; replaced
// wholesale on a new upload.
type SchemaResponse struct {
	SessionID        string         `json:"session_id"`
	Schema           []VariableInfo `json:"schema"`
	GenderCandidates []string       `json:"gender_candidates"`
	FileInfo         FileInfo       `json:"file_info"`
}

// ContinuousNames returns schema-ordered names of continuous columns.
func (s *SchemaResponse) ContinuousNames() []string {
	var names []string
	for _, v := range s.Schema {
		if v.VariableType == VariableContinuous {
			names = append(names, v.Name)
		}
	}
	return names
}

// CategoricalNames returns schema-ordered names of categorical and boolean
// columns, excluding the given column (the chosen gender column).
func (s *SchemaResponse) CategoricalNames(exclude string) []string {
	var names []string
	for _, v := range s.Schema {
		if v.Name == exclude {
			continue
		}
		if v.VariableType == VariableCategorical || v.VariableType == VariableBoolean {
			names = append(names, v.Name)
		}
	}
	return names
}

// Variable looks a column up by name.
func (s *SchemaResponse) Variable(name string) (VariableInfo, bool) {
	for _, v := range s.Schema {
		if v.Name == name {
			return v, true
		}
	}
	return VariableInfo{}, false
}

// HasColumn reports whether the schema contains the named column.
func (s *SchemaResponse) HasColumn(name string) bool {
	_, ok := s.Variable(name)
	return ok
}
