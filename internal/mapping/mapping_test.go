package mapping

import (
	"testing"

	"femstat/models"
)

func TestInfer_DictionaryLookup(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []models.GenderMapping
	}{
		{
			name:   "known and unknown mixed",
			values: []string{"F", "Male", "X"},
			want: []models.GenderMapping{
				{FromValue: "F", ToValue: "female"},
				{FromValue: "Male", ToValue: "male"},
			},
		},
		{
			name:   "case sensitive",
			values: []string{"f", "female", "MALE"},
			want:   nil,
		},
		{
			name:   "duplicates collapse to first",
			values: []string{"F", "F", "Female"},
			want: []models.GenderMapping{
				{FromValue: "F", ToValue: "female"},
				{FromValue: "Female", ToValue: "female"},
			},
		},
		{
			name:   "other and missing synonyms",
			values: []string{"Non-binary", "Prefer not to say", "Missing", "Other"},
			want: []models.GenderMapping{
				{FromValue: "Non-binary", ToValue: "other"},
				{FromValue: "Prefer not to say", ToValue: "missing"},
				{FromValue: "Missing", ToValue: "missing"},
				{FromValue: "Other", ToValue: "other"},
			},
		},
		{
			name:   "empty strings skipped",
			values: []string{"", "Woman", ""},
			want: []models.GenderMapping{
				{FromValue: "Woman", ToValue: "female"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Infer(tt.values)
			if len(got) != len(tt.want) {
				t.Fatalf("Infer(%v) = %v, want %v", tt.values, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Infer(%v)[%d] = %v, want %v", tt.values, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func surveySchema() *models.SchemaResponse {
	return &models.SchemaResponse{
		SessionID: "s1",
		Schema: []models.VariableInfo{
			{Name: "age", VariableType: models.VariableContinuous},
			{Name: "income", VariableType: models.VariableContinuous},
			{Name: "weekly_hours", VariableType: models.VariableContinuous},
			{Name: "wellbeing_score", VariableType: models.VariableContinuous},
			{Name: "gender", VariableType: models.VariableCategorical,
				SampleValues: models.SampleValues{"F", "Male", "X"}},
			{Name: "smoker", VariableType: models.VariableBoolean},
			{Name: "education", VariableType: models.VariableCategorical},
			{Name: "region", VariableType: models.VariableCategorical},
		},
		GenderCandidates: []string{"gender"},
	}
}

func TestDefaultSelections_PicksAtMostThree(t *testing.T) {
	schema := surveySchema()
	cont, cat := DefaultSelections(schema, "gender")

	if len(cont) != 3 {
		t.Fatalf("continuous = %v, want 3 entries", cont)
	}
	if cont[0] != "age" || cont[1] != "income" || cont[2] != "weekly_hours" {
		t.Errorf("continuous = %v, want schema order", cont)
	}
	if len(cat) != 3 {
		t.Fatalf("categorical = %v, want 3 entries", cat)
	}
	for _, c := range cat {
		if c == "gender" {
			t.Errorf("gender column leaked into categorical selection: %v", cat)
		}
	}
}

func TestDefaultSelections_EmptyWhenNoneAvailable(t *testing.T) {
	schema := &models.SchemaResponse{
		Schema: []models.VariableInfo{
			{Name: "sex", VariableType: models.VariableCategorical},
		},
		GenderCandidates: []string{"sex"},
	}
	cont, cat := DefaultSelections(schema, "sex")
	if len(cont) != 0 || len(cat) != 0 {
		t.Errorf("selections = %v / %v, want none", cont, cat)
	}
}

func TestApplyDefaults_SeedsEverythingOnce(t *testing.T) {
	schema := surveySchema()
	settings := ApplyDefaults(schema, models.AnalysisSettings{})

	if settings.GenderCol != "gender" {
		t.Errorf("GenderCol = %q", settings.GenderCol)
	}
	if len(settings.GenderMap) != 2 {
		t.Fatalf("GenderMap = %v, want F and Male only", settings.GenderMap)
	}
	if settings.SuppressThreshold != 5 {
		t.Errorf("SuppressThreshold = %d", settings.SuppressThreshold)
	}
	if settings.MissingPolicy != models.MissingListwise {
		t.Errorf("MissingPolicy = %q", settings.MissingPolicy)
	}
	if len(settings.CategoriesOrder) != 4 || settings.CategoriesOrder[0] != "female" {
		t.Errorf("CategoriesOrder = %v", settings.CategoriesOrder)
	}
	if len(settings.VarsContinuous) != 3 || len(settings.VarsCategorical) != 3 {
		t.Errorf("selections = %v / %v", settings.VarsContinuous, settings.VarsCategorical)
	}
}

func TestApplyDefaults_NeverOverwritesUserChoices(t *testing.T) {
	schema := surveySchema()
	userEdited := models.AnalysisSettings{
		GenderCol: "gender",
		GenderMap: []models.GenderMapping{
			{FromValue: "X", ToValue: "other"},
		},
		VarsContinuous:    []string{"wellbeing_score"},
		SuppressThreshold: 10,
	}

	settings := ApplyDefaults(schema, userEdited)

	if len(settings.GenderMap) != 1 || settings.GenderMap[0].FromValue != "X" {
		t.Errorf("user mappings regenerated: %v", settings.GenderMap)
	}
	if len(settings.VarsContinuous) != 1 || settings.VarsContinuous[0] != "wellbeing_score" {
		t.Errorf("user continuous selection overwritten: %v", settings.VarsContinuous)
	}
	if settings.SuppressThreshold != 10 {
		t.Errorf("user threshold overwritten: %d", settings.SuppressThreshold)
	}
}

func TestInferForColumn_MissingColumn(t *testing.T) {
	schema := surveySchema()
	if got := InferForColumn(schema, "no_such_column"); got != nil {
		t.Errorf("InferForColumn on absent column = %v, want nil", got)
	}
}
