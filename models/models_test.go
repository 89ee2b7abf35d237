package models

import (
	"encoding/json"
	"testing"
)

func TestSuppressible_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		wantDisplay    string
		wantValue      float64
		wantSuppressed bool
	}{
		{name: "integer count", input: `42`, wantDisplay: "42", wantValue: 42},
		{name: "float stat", input: `3.25`, wantDisplay: "3.25", wantValue: 3.25},
		{name: "suppressed marker", input: `"<5"`, wantDisplay: "<5", wantSuppressed: true},
		{name: "suppressed word", input: `"suppressed"`, wantDisplay: "suppressed", wantSuppressed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Suppressible
			if err := json.Unmarshal([]byte(tt.input), &s); err != nil {
				t.Fatalf("unmarshal %q: %v", tt.input, err)
			}
			if s.Display != tt.wantDisplay {
				t.Errorf("Display = %q, want %q", s.Display, tt.wantDisplay)
			}
			if s.Suppressed != tt.wantSuppressed {
				t.Errorf("Suppressed = %v, want %v", s.Suppressed, tt.wantSuppressed)
			}
			if !tt.wantSuppressed && s.Value != tt.wantValue {
				t.Errorf("Value = %v, want %v", s.Value, tt.wantValue)
			}
		})
	}
}

func TestSuppressible_MarshalRoundTrip(t *testing.T) {
	row := ContinuousStats{
		Gender: "female",
		N:      Masked("<5"),
		Mean:   Num(12.5),
	}
	out, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back ContinuousStats
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.N.Suppressed || back.N.Display != "<5" {
		t.Errorf("suppressed cell lost through round trip: %+v", back.N)
	}
	if back.Mean.Value != 12.5 {
		t.Errorf("Mean = %v, want 12.5", back.Mean.Value)
	}
}

func TestSampleValues_MixedTypes(t *testing.T) {
	var sv SampleValues
	if err := json.Unmarshal([]byte(`["F", 1, 2.5, true, null]`), &sv); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{"F", "1", "2.5", "true"}
	if len(sv) != len(want) {
		t.Fatalf("got %d values %v, want %d", len(sv), sv, len(want))
	}
	for i := range want {
		if sv[i] != want[i] {
			t.Errorf("sv[%d] = %q, want %q", i, sv[i], want[i])
		}
	}
}

func TestAnalysisRequest_FlattensSettings(t *testing.T) {
	req := AnalysisRequest{
		SessionID: "abc123_00000001",
		AnalysisSettings: AnalysisSettings{
			GenderCol:         "gender",
			GenderMap:         []GenderMapping{{FromValue: "F", ToValue: GenderFemale}},
			CategoriesOrder:   []string{GenderFemale, GenderMale, GenderOther, GenderMissing},
			VarsContinuous:    []string{"age"},
			VarsCategorical:   []string{"smoker"},
			MissingPolicy:     MissingListwise,
			SuppressThreshold: 5,
		},
	}
	out, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(out, &flat); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	for _, key := range []string{"session_id", "gender_col", "gender_map", "vars_continuous", "suppress_threshold", "missing_policy"} {
		if _, ok := flat[key]; !ok {
			t.Errorf("flattened request missing %q key: %s", key, out)
		}
	}
	if _, ok := flat["AnalysisSettings"]; ok {
		t.Errorf("settings nested instead of flattened: %s", out)
	}
}

func TestSchemaResponse_Selectors(t *testing.T) {
	schema := SchemaResponse{
		SessionID: "s1",
		Schema: []VariableInfo{
			{Name: "participant_id", VariableType: VariableContinuous},
			{Name: "gender", VariableType: VariableCategorical},
			{Name: "age", VariableType: VariableContinuous},
			{Name: "smoker", VariableType: VariableBoolean},
			{Name: "region", VariableType: VariableCategorical},
			{Name: "enrolled_at", VariableType: VariableDatetime},
		},
		GenderCandidates: []string{"gender"},
	}

	cont := schema.ContinuousNames()
	if len(cont) != 2 || cont[0] != "participant_id" || cont[1] != "age" {
		t.Errorf("ContinuousNames = %v", cont)
	}

	cats := schema.CategoricalNames("gender")
	if len(cats) != 2 || cats[0] != "smoker" || cats[1] != "region" {
		t.Errorf("CategoricalNames excluding gender = %v", cats)
	}

	if !schema.HasColumn("region") || schema.HasColumn("income") {
		t.Error("HasColumn lookup wrong")
	}

	v, ok := schema.Variable("age")
	if !ok || v.VariableType != VariableContinuous {
		t.Errorf("Variable(age) = %+v, %v", v, ok)
	}
}
