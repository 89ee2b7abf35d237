package models

// Standardized gender categories every mapping targets.
const (
	GenderFemale  = "female"
	GenderMale    = "male"
	GenderOther   = "other"
	GenderMissing = "missing"
)

// MissingPolicy selects how rows with missing values enter the analysis.
type MissingPolicy string

const (
	MissingListwise MissingPolicy = "listwise"
	MissingPairwise MissingPolicy = "pairwise"
	MissingFlag     MissingPolicy = "flag"
)

// GenderMapping translates one raw dataset value to a standardized
// category. FromValue is unique within a mapping list.
type GenderMapping struct {
	FromValue string `json:"from_value"`
	ToValue   string `json:"to_value"`
}

// AnalysisSettings is the full analysis configuration. Mutated only by the
// configuration form; persisted in the session store across navigation.
type AnalysisSettings struct {
	GenderCol         string          `json:"gender_col"`
	GenderMap         []GenderMapping `json:"gender_map"`
	CategoriesOrder   []string        `json:"categories_order"`
	VarsContinuous    []string        `json:"vars_continuous"`
	VarsCategorical   []string        `json:"vars_categorical"`
	WeightCol         string          `json:"weight_col,omitempty"`
	ClusterID         string          `json:"cluster_id,omitempty"`
	RobustSE          bool            `json:"robust_se"`
	MissingPolicy     MissingPolicy   `json:"missing_policy"`
	SuppressThreshold int             `json:"suppress_threshold"`
	FDR               bool            `json:"fdr"`
}

// AnalysisRequest is the POST /api/analyze body: the settings flattened
// alongside the session identifier.
type AnalysisRequest struct {
	SessionID string `json:"session_id"`
	AnalysisSettings
}

// GenderSummary is one per-group row of the sample breakdown.
type GenderSummary struct {
	Gender     string  `json:"gender"`
	N          int     `json:"n"`
	Pct        float64 `json:"pct"`
	MissingPct float64 `json:"missing_pct"`
}

// ContinuousStats is one group's descriptive row for a continuous
// variable. Every cell may arrive suppressed.
type ContinuousStats struct {
	Gender string       `json:"gender"`
	N      Suppressible `json:"n"`
	Mean   Suppressible `json:"mean"`
	SD     Suppressible `json:"sd"`
	Median Suppressible `json:"median"`
	IQR    Suppressible `json:"iqr"`
	Min    Suppressible `json:"min"`
	Max    Suppressible `json:"max"`
}

// TestResult is the inferential test attached to one variable.
type TestResult struct {
	Name           string       `json:"name"`
	P              Suppressible `json:"p"`
	Statistic      Suppressible `json:"statistic"`
	DF             Suppressible `json:"df,omitempty"`
	AssumptionsMet bool         `json:"assumptions_met"`
	Note           string       `json:"note,omitempty"`
}

// EffectSize is one effect estimate with optional confidence bounds.
type EffectSize struct {
	Name           string        `json:"name"`
	Value          Suppressible  `json:"value"`
	CILower        *Suppressible `json:"ci_lower,omitempty"`
	CIUpper        *Suppressible `json:"ci_upper,omitempty"`
	Interpretation string        `json:"interpretation,omitempty"`
}

// HistogramBin is one bin of a per-group distribution. Backends that bin
// the raw data let charts render real distributions instead of curves
// reconstructed from summary statistics.
type HistogramBin struct {
	RangeStart float64 `json:"range_start"`
	RangeEnd   float64 `json:"range_end"`
	Count      int     `json:"count"`
}

// ContinuousResult is the full analysis block for one continuous variable.
type ContinuousResult struct {
	Var       string                    `json:"var"`
	Table     []ContinuousStats         `json:"table"`
	Test      TestResult                `json:"test"`
	Effects   []EffectSize              `json:"effects"`
	PAdjusted *float64                  `json:"p_adjusted,omitempty"`
	Histogram map[string][]HistogramBin `json:"histogram,omitempty"`
}

// CategoricalLevel is one contingency cell (level x group).
type CategoricalLevel struct {
	Level  string       `json:"level"`
	Gender string       `json:"gender"`
	N      Suppressible `json:"n"`
	Pct    Suppressible `json:"pct"`
}

// CategoricalResult is the full analysis block for one categorical
// variable.
type CategoricalResult struct {
	Var       string             `json:"var"`
	Table     []CategoricalLevel `json:"table"`
	Test      TestResult         `json:"test"`
	Effects   []EffectSize       `json:"effects"`
	PAdjusted *float64           `json:"p_adjusted,omitempty"`
}

// MissingnessInfo is one variable x group missing-data row.
type MissingnessInfo struct {
	Var        string  `json:"var"`
	Gender     string  `json:"gender"`
	MissingN   int     `json:"missing_n"`
	MissingPct float64 `json:"missing_pct"`
}

// NormalityTest is one per-variable, per-group normality check.
type NormalityTest struct {
	Var       string       `json:"var"`
	Gender    string       `json:"gender"`
	Test      string       `json:"test"`
	P         Suppressible `json:"p"`
	Statistic Suppressible `json:"statistic"`
}

// MultipleTesting records whether and how p-values were adjusted.
type MultipleTesting struct {
	FDRMethod string `json:"fdr_method,omitempty"`
	Adjusted  bool   `json:"adjusted"`
}

// Diagnostics carries assumption checks and the adjustment record.
type Diagnostics struct {
	Normality       []NormalityTest `json:"normality"`
	MultipleTesting MultipleTesting `json:"multiple_testing"`
}

// BiasFinding is one entry of the gender-bias assessment. Fields are a
// union across finding types; absent ones are omitted.
type BiasFinding struct {
	Variable       string   `json:"variable,omitempty"`
	Type           string   `json:"type,omitempty"`
	Gender         string   `json:"gender,omitempty"`
	Level          string   `json:"level,omitempty"`
	PValue         *float64 `json:"p_value,omitempty"`
	EffectSize     *float64 `json:"effect_size,omitempty"`
	EffectReading  string   `json:"effect_interpretation,omitempty"`
	Percentage     *float64 `json:"percentage,omitempty"`
	Severity       string   `json:"severity,omitempty"`
	Interpretation string   `json:"interpretation"`
}

// GenderBiasAssessment is the qualitative layer on top of the numbers.
type GenderBiasAssessment struct {
	OverallSummary        string        `json:"overall_summary"`
	Disparities           []BiasFinding `json:"statistical_disparities"`
	RepresentationGaps    []BiasFinding `json:"representation_gaps"`
	MissingDataBias       []BiasFinding `json:"missing_data_bias"`
	PracticalSignificance []BiasFinding `json:"practical_significance"`
	Recommendations       []string      `json:"recommendations"`
	TransformativeNotes   []string      `json:"gender_transformative_insights"`
}

// FileUrls are the export artifacts of one analysis run.
type FileUrls struct {
	CSVWideURL string `json:"csv_wide_url"`
	CSVLongURL string `json:"csv_long_url"`
	JSONURL    string `json:"json_url"`
}

// AnalysisResponse is the POST /api/analyze response. Read-only from this
// side: the backend owns every number in it.
type AnalysisResponse struct {
	Settings    AnalysisSettings      `json:"settings"`
	ByGender    []GenderSummary       `json:"by_gender"`
	Continuous  []ContinuousResult    `json:"continuous"`
	Categorical []CategoricalResult   `json:"categorical"`
	Missingness []MissingnessInfo     `json:"missingness"`
	Diagnostics Diagnostics           `json:"diagnostics"`
	GenderBias  *GenderBiasAssessment `json:"gender_bias,omitempty"`
	Files       FileUrls              `json:"files"`
}
