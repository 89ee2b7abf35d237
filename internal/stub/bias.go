package stub

import (
	"fmt"
	"math"

	"femstat/models"
)

// assessGenderBias layers a qualitative reading over the computed
// numbers: which differences are statistically and practically
// meaningful, where representation or missingness is lopsided, and what
// to do about it.
func assessGenderBias(resp *models.AnalysisResponse) *models.GenderBiasAssessment {
	assessment := &models.GenderBiasAssessment{
		Disparities:           assessDisparities(resp),
		RepresentationGaps:    assessRepresentation(resp.ByGender),
		MissingDataBias:       assessMissingBias(resp.Missingness),
		PracticalSignificance: assessPracticalSignificance(resp.Continuous),
	}
	assessment.Recommendations = recommendations(assessment)
	assessment.TransformativeNotes = transformativeNotes(assessment, resp)
	assessment.OverallSummary = overallSummary(assessment)
	return assessment
}

func assessDisparities(resp *models.AnalysisResponse) []models.BiasFinding {
	var findings []models.BiasFinding

	check := func(variable string, test models.TestResult, adjusted *float64, effects []models.EffectSize) {
		p := effectiveP(test, adjusted)
		if p == nil || *p >= 0.05 {
			return
		}
		finding := models.BiasFinding{
			Variable:       variable,
			Type:           "statistical_disparity",
			PValue:         p,
			Severity:       "moderate",
			Interpretation: fmt.Sprintf("Significant gender difference in %s (%s, p=%.4f)", variable, test.Name, *p),
		}
		for _, effect := range effects {
			if effect.Value.Suppressed {
				continue
			}
			v := effect.Value.Value
			finding.EffectSize = &v
			finding.EffectReading = effect.Interpretation
			switch effect.Interpretation {
			case "large":
				finding.Severity = "large"
			case "small", "negligible":
				finding.Severity = "small"
			}
			break
		}
		findings = append(findings, finding)
	}

	for _, r := range resp.Continuous {
		check(r.Var, r.Test, r.PAdjusted, r.Effects)
	}
	for _, r := range resp.Categorical {
		check(r.Var, r.Test, r.PAdjusted, r.Effects)
	}
	return findings
}

// effectiveP prefers the FDR-adjusted p when present.
func effectiveP(test models.TestResult, adjusted *float64) *float64 {
	if adjusted != nil {
		return adjusted
	}
	if test.P.Suppressed {
		return nil
	}
	v := test.P.Value
	return &v
}

func assessRepresentation(byGender []models.GenderSummary) []models.BiasFinding {
	var findings []models.BiasFinding
	for _, summary := range byGender {
		if summary.Gender == models.GenderMissing {
			continue
		}
		if summary.Pct > 60 {
			findings = append(findings, models.BiasFinding{
				Type:           "representation_gap",
				Gender:         summary.Gender,
				Percentage:     ptr(summary.Pct),
				Severity:       severityForShare(summary.Pct),
				Interpretation: fmt.Sprintf("The %s group makes up %.1f%% of the sample; findings may not generalize to other groups", summary.Gender, summary.Pct),
			})
		}
	}
	return findings
}

func severityForShare(pct float64) string {
	if pct > 70 {
		return "large"
	}
	return "moderate"
}

// assessMissingBias flags variables whose missingness differs by more
// than 10 percentage points between groups.
func assessMissingBias(missingness []models.MissingnessInfo) []models.BiasFinding {
	byVar := map[string][]models.MissingnessInfo{}
	for _, entry := range missingness {
		byVar[entry.Var] = append(byVar[entry.Var], entry)
	}

	var findings []models.BiasFinding
	for variable, entries := range byVar {
		lo, hi := math.Inf(1), math.Inf(-1)
		var hiGender string
		for _, entry := range entries {
			if entry.MissingPct < lo {
				lo = entry.MissingPct
			}
			if entry.MissingPct > hi {
				hi = entry.MissingPct
				hiGender = entry.Gender
			}
		}
		if diff := hi - lo; diff > 10 {
			findings = append(findings, models.BiasFinding{
				Variable:       variable,
				Type:           "missing_data_bias",
				Gender:         hiGender,
				Percentage:     ptr(roundTo(diff, 2)),
				Severity:       "moderate",
				Interpretation: fmt.Sprintf("Missing data for %s is %.1f points higher in the %s group; estimates for that group may be biased", variable, diff, hiGender),
			})
		}
	}
	return findings
}

// assessPracticalSignificance reports effects that matter in magnitude
// regardless of p-values.
func assessPracticalSignificance(continuous []models.ContinuousResult) []models.BiasFinding {
	var findings []models.BiasFinding
	for _, result := range continuous {
		for _, effect := range result.Effects {
			if effect.Name != "Cohen's d" || effect.Value.Suppressed {
				continue
			}
			if d := effect.Value.Value; math.Abs(d) >= 0.5 {
				findings = append(findings, models.BiasFinding{
					Variable:       result.Var,
					Type:           "practical_significance",
					EffectSize:     ptr(d),
					EffectReading:  effect.Interpretation,
					Severity:       effect.Interpretation,
					Interpretation: fmt.Sprintf("The gender difference in %s is %s in practical terms (d=%.2f)", result.Var, effect.Interpretation, d),
				})
			}
		}
	}
	return findings
}

func recommendations(a *models.GenderBiasAssessment) []string {
	var recs []string
	for _, finding := range a.Disparities {
		if finding.Severity == "large" {
			recs = append(recs, "Large gender disparities were detected; investigate their drivers before drawing programmatic conclusions.")
			break
		}
	}
	if len(a.RepresentationGaps) > 0 {
		recs = append(recs, "The sample is unbalanced across gender groups; consider weighting or targeted recruitment in future waves.")
	}
	if len(a.MissingDataBias) > 0 {
		recs = append(recs, "Missingness differs by gender; review the data collection process for systematic gaps.")
	}
	recs = append(recs,
		"Report suppressed cells as suppressed rather than zero to avoid misreading small groups.",
		"Interpret effect sizes alongside p-values; statistical significance alone does not imply practical importance.",
	)
	return recs
}

func transformativeNotes(a *models.GenderBiasAssessment, resp *models.AnalysisResponse) []string {
	var notes []string
	if len(a.Disparities) > 0 {
		notes = append(notes, fmt.Sprintf("%d variable(s) show statistically significant gender differences; disaggregated reporting is warranted.", len(a.Disparities)))
	}
	if len(a.RepresentationGaps) > 0 {
		notes = append(notes, "Underrepresented groups limit what this analysis can say about them; absence of evidence is not evidence of absence.")
	}
	if len(resp.Continuous)+len(resp.Categorical) > 0 {
		notes = append(notes, "Consider whether observed differences reflect structural factors rather than inherent group characteristics.")
	}
	return notes
}

func overallSummary(a *models.GenderBiasAssessment) string {
	issues := len(a.Disparities) + len(a.RepresentationGaps) + len(a.MissingDataBias)
	switch {
	case issues == 0:
		return "No notable gender bias indicators were detected in this analysis."
	case len(a.Disparities) > 0 && len(a.RepresentationGaps) > 0:
		return fmt.Sprintf("Detected %d significant gender disparity(ies) alongside sample representation gaps; interpret group comparisons with caution.", len(a.Disparities))
	case len(a.Disparities) > 0:
		return fmt.Sprintf("Detected %d significant gender disparity(ies); see the disparity findings for affected variables.", len(a.Disparities))
	default:
		return "No significant disparities, but data quality indicators (representation or missingness) warrant attention."
	}
}

func ptr(v float64) *float64 { return &v }
