package charts

import (
	"math"
	"testing"

	"femstat/models"
)

func contRow(gender string, n int, mean, sd float64) models.ContinuousStats {
	return models.ContinuousStats{
		Gender: gender,
		N:      models.Num(float64(n)),
		Mean:   models.Num(mean),
		SD:     models.Num(sd),
	}
}

func TestBuildContinuous_BinsAreExact(t *testing.T) {
	result := models.ContinuousResult{
		Var: "income",
		Table: []models.ContinuousStats{
			contRow("female", 40, 52000, 9000),
			contRow("male", 35, 58000, 11000),
		},
		Histogram: map[string][]models.HistogramBin{
			"female": {{RangeStart: 30000, RangeEnd: 40000, Count: 8}},
			"male":   {{RangeStart: 35000, RangeEnd: 45000, Count: 6}},
		},
	}

	chart := BuildContinuous(result, []string{"female", "male", "other", "missing"})

	if chart.Approximate {
		t.Fatal("chart with backend histograms must not be flagged approximate")
	}
	if len(chart.Curves) != 2 {
		t.Fatalf("curves = %d, want 2", len(chart.Curves))
	}
	for _, c := range chart.Curves {
		if len(c.Bins) == 0 || len(c.Points) != 0 {
			t.Errorf("group %s: want bins only, got %d bins %d points", c.Gender, len(c.Bins), len(c.Points))
		}
	}
}

func TestBuildContinuous_SynthesizedCurveIsApproximate(t *testing.T) {
	result := models.ContinuousResult{
		Var: "wellbeing_score",
		Table: []models.ContinuousStats{
			contRow("female", 40, 6.8, 1.2),
			contRow("male", 35, 6.1, 1.4),
		},
	}

	chart := BuildContinuous(result, []string{"female", "male"})

	if !chart.Approximate {
		t.Fatal("synthesized curves must be flagged approximate")
	}
	if len(chart.Curves) != 2 {
		t.Fatalf("curves = %d, want 2", len(chart.Curves))
	}
	curve := chart.Curves[0]
	if len(curve.Points) != curvePoints {
		t.Fatalf("points = %d, want %d", len(curve.Points), curvePoints)
	}
	// Density peaks at the mean for a normal reconstruction.
	peak := curve.Points[0]
	for _, p := range curve.Points {
		if p.Y > peak.Y {
			peak = p
		}
	}
	if math.Abs(peak.X-6.8) > 0.3 {
		t.Errorf("density peak at x=%.2f, want near mean 6.8", peak.X)
	}
}

func TestBuildContinuous_SuppressedGroupHasBarNoCurve(t *testing.T) {
	result := models.ContinuousResult{
		Var: "age",
		Table: []models.ContinuousStats{
			contRow("female", 40, 44.2, 12.1),
			{Gender: "other", N: models.Masked("<5"), Mean: models.Masked("<5"), SD: models.Masked("<5")},
		},
	}

	chart := BuildContinuous(result, []string{"female", "male", "other"})

	if len(chart.Bars) != 2 {
		t.Fatalf("bars = %d, want 2", len(chart.Bars))
	}
	suppressed := chart.Bars[1]
	if suppressed.Gender != "other" || !suppressed.Suppressed {
		t.Errorf("bar[1] = %+v, want suppressed other", suppressed)
	}
	if len(chart.Curves) != 1 || chart.Curves[0].Gender != "female" {
		t.Errorf("curves = %+v, want only female", chart.Curves)
	}
}

func TestBuildContinuous_ConfidenceWhiskersBracketMean(t *testing.T) {
	result := models.ContinuousResult{
		Var:   "bmi",
		Table: []models.ContinuousStats{contRow("female", 30, 24.5, 3.0)},
	}

	chart := BuildContinuous(result, []string{"female"})

	bar := chart.Bars[0]
	if !(bar.CILow < bar.Mean && bar.Mean < bar.CIHigh) {
		t.Fatalf("CI [%.3f, %.3f] does not bracket mean %.3f", bar.CILow, bar.CIHigh, bar.Mean)
	}
	// t(29, 0.975) ~ 2.045, margin ~ 2.045 * 3 / sqrt(30).
	wantMargin := 2.045 * 3.0 / math.Sqrt(30)
	if math.Abs((bar.CIHigh-bar.Mean)-wantMargin) > 0.01 {
		t.Errorf("margin = %.4f, want ~%.4f", bar.CIHigh-bar.Mean, wantMargin)
	}
}

func TestBuildContinuous_GroupOrderFollowsCategories(t *testing.T) {
	result := models.ContinuousResult{
		Var: "age",
		Table: []models.ContinuousStats{
			contRow("male", 35, 41.0, 11.0),
			contRow("nonstandard", 12, 39.0, 10.0),
			contRow("female", 40, 44.0, 12.0),
		},
	}

	chart := BuildContinuous(result, []string{"female", "male", "other", "missing"})

	var got []string
	for _, b := range chart.Bars {
		got = append(got, b.Gender)
	}
	want := []string{"female", "male", "nonstandard"}
	if len(got) != len(want) {
		t.Fatalf("groups = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("groups = %v, want %v", got, want)
		}
	}
}

func TestBuildCategorical_StackedShares(t *testing.T) {
	result := models.CategoricalResult{
		Var: "smoker",
		Table: []models.CategoricalLevel{
			{Level: "no", Gender: "female", N: models.Num(30), Pct: models.Num(75)},
			{Level: "yes", Gender: "female", N: models.Num(10), Pct: models.Num(25)},
			{Level: "no", Gender: "male", N: models.Num(20), Pct: models.Num(57.1)},
			{Level: "yes", Gender: "male", N: models.Masked("<5"), Pct: models.Masked("<5")},
		},
	}

	chart := BuildCategorical(result, []string{"female", "male"})

	if len(chart.Levels) != 2 || chart.Levels[0] != "no" || chart.Levels[1] != "yes" {
		t.Fatalf("levels = %v, want first-seen order [no yes]", chart.Levels)
	}
	if len(chart.Groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(chart.Groups))
	}
	female := chart.Groups[0]
	if female.Gender != "female" || female.Segments[0].Pct != 75 || female.Segments[1].N != 10 {
		t.Errorf("female group = %+v", female)
	}
	maleYes := chart.Groups[1].Segments[1]
	if !maleYes.Suppressed {
		t.Errorf("masked cell must mark its segment suppressed: %+v", maleYes)
	}
}

func TestBuildCategorical_MissingCellIsEmptySegment(t *testing.T) {
	result := models.CategoricalResult{
		Var: "diagnosis",
		Table: []models.CategoricalLevel{
			{Level: "a", Gender: "female", N: models.Num(12), Pct: models.Num(100)},
			{Level: "b", Gender: "male", N: models.Num(9), Pct: models.Num(100)},
		},
	}

	chart := BuildCategorical(result, []string{"female", "male"})

	femaleB := chart.Groups[0].Segments[1]
	if femaleB.Level != "b" || femaleB.Pct != 0 || femaleB.N != 0 {
		t.Errorf("absent cell should render an empty segment, got %+v", femaleB)
	}
}

func TestBuildMissingness(t *testing.T) {
	bars := BuildMissingness([]models.MissingnessInfo{
		{Var: "income", Gender: "female", MissingN: 3, MissingPct: 7.5},
		{Var: "income", Gender: "male", MissingN: 1, MissingPct: 2.9},
	})

	if len(bars) != 2 {
		t.Fatalf("bars = %d, want 2", len(bars))
	}
	if bars[0].Var != "income" || bars[0].Gender != "female" || bars[0].Pct != 7.5 {
		t.Errorf("bars[0] = %+v", bars[0])
	}
}

func TestSynthesizeCurve_RefusesDegenerateInputs(t *testing.T) {
	if pts := synthesizeCurve(5, 0, 30); pts != nil {
		t.Errorf("sd=0: got %d points, want nil", len(pts))
	}
	if pts := synthesizeCurve(5, 1.5, 1); pts != nil {
		t.Errorf("n=1: got %d points, want nil", len(pts))
	}
	if pts := synthesizeCurve(5, math.NaN(), 30); pts != nil {
		t.Errorf("sd=NaN: got %d points, want nil", len(pts))
	}
}
