package stub

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"femstat/internal/errors"
	"femstat/models"
)

// minAnalysisRows is the floor below which no test is meaningful.
const minAnalysisRows = 10

// grouped is the dataset after gender mapping and missing-data policy:
// row indices bucketed by standardized gender category.
type grouped struct {
	dataset *Dataset
	rows    map[string][]int // category -> row indices
	order   []string         // categories_order entries actually present
	totalN  int
}

// RunAnalysis executes the full gender-stratified analysis for one
// session. Variables are summarized concurrently; the response layout is
// the contract the workflow client consumes.
func RunAnalysis(dataset *Dataset, req models.AnalysisRequest, emitHistograms bool) (*models.AnalysisResponse, error) {
	if dataset.ColumnIndex(req.GenderCol) < 0 {
		return nil, errors.ValidationError(fmt.Sprintf("Gender column %q not found in dataset", req.GenderCol))
	}
	if len(req.GenderMap) == 0 {
		return nil, errors.ValidationError("At least one gender mapping is required")
	}

	groups := groupByGender(dataset, req)
	if groups.totalN < minAnalysisRows || len(groups.nonMissingOrder()) < 2 {
		return nil, errors.AnalysisFailed("Insufficient sample size for analysis", nil)
	}

	resp := &models.AnalysisResponse{
		Settings: req.AnalysisSettings,
		ByGender: summarizeByGender(groups),
	}

	continuous := make([]models.ContinuousResult, len(req.VarsContinuous))
	categorical := make([]models.CategoricalResult, len(req.VarsCategorical))
	var normMu sync.Mutex
	var normality []models.NormalityTest

	var g errgroup.Group
	for i, name := range req.VarsContinuous {
		g.Go(func() error {
			result, tests := analyzeContinuous(groups, name, req.SuppressThreshold, emitHistograms)
			continuous[i] = result
			normMu.Lock()
			normality = append(normality, tests...)
			normMu.Unlock()
			return nil
		})
	}
	for i, name := range req.VarsCategorical {
		g.Go(func() error {
			categorical[i] = analyzeCategorical(groups, name, req.SuppressThreshold)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.AnalysisFailed("Analysis failed", err)
	}

	// Variable order must match the request even though the work above
	// completed in arbitrary order.
	sort.SliceStable(normality, func(a, b int) bool { return normality[a].Var < normality[b].Var })
	resp.Continuous = continuous
	resp.Categorical = categorical

	if req.FDR {
		applyFDR(resp)
	}

	resp.Missingness = analyzeMissingness(groups, append(append([]string{}, req.VarsContinuous...), req.VarsCategorical...))
	resp.Diagnostics = models.Diagnostics{
		Normality: normality,
		MultipleTesting: models.MultipleTesting{
			FDRMethod: fdrMethod(req.FDR),
			Adjusted:  req.FDR,
		},
	}
	resp.GenderBias = assessGenderBias(resp)

	return resp, nil
}

func fdrMethod(fdr bool) string {
	if fdr {
		return "BH"
	}
	return "none"
}

// groupByGender applies the user mapping (unmapped raw values become
// "missing") and the missing-data policy, then buckets rows by category.
func groupByGender(dataset *Dataset, req models.AnalysisRequest) grouped {
	mapping := make(map[string]string, len(req.GenderMap))
	for _, m := range req.GenderMap {
		mapping[m.FromValue] = strings.ToLower(m.ToValue)
	}

	genderIdx := dataset.ColumnIndex(req.GenderCol)
	analyzed := analyzedColumns(dataset, req)

	g := grouped{dataset: dataset, rows: make(map[string][]int)}
	for i, row := range dataset.Rows {
		if req.MissingPolicy == models.MissingListwise && hasMissing(row, analyzed) {
			continue
		}
		category, ok := mapping[row[genderIdx]]
		if !ok {
			category = models.GenderMissing
		}
		g.rows[category] = append(g.rows[category], i)
		g.totalN++
	}

	for _, category := range req.CategoriesOrder {
		category = strings.ToLower(category)
		if len(g.rows[category]) > 0 {
			g.order = append(g.order, category)
		}
	}
	return g
}

// nonMissingOrder lists the present categories that carry analyzable
// observations.
func (g grouped) nonMissingOrder() []string {
	var out []string
	for _, category := range g.order {
		if category != models.GenderMissing {
			out = append(out, category)
		}
	}
	return out
}

func analyzedColumns(dataset *Dataset, req models.AnalysisRequest) []int {
	names := append(append([]string{req.GenderCol}, req.VarsContinuous...), req.VarsCategorical...)
	var idx []int
	for _, name := range names {
		if i := dataset.ColumnIndex(name); i >= 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

func hasMissing(row []string, columns []int) bool {
	for _, i := range columns {
		if row[i] == "" {
			return true
		}
	}
	return false
}

func summarizeByGender(g grouped) []models.GenderSummary {
	out := make([]models.GenderSummary, 0, len(g.order))
	for _, category := range g.order {
		n := len(g.rows[category])
		out = append(out, models.GenderSummary{
			Gender: category,
			N:      n,
			Pct:    roundTo(float64(n)/float64(g.totalN)*100, 2),
		})
	}
	return out
}

// numericGroups pulls the parseable values of one column per category.
func numericGroups(g grouped, column string) (map[string][]float64, []string) {
	idx := g.dataset.ColumnIndex(column)
	values := make(map[string][]float64, len(g.order))
	var present []string
	if idx < 0 {
		return values, present
	}
	for _, category := range g.order {
		var vals []float64
		for _, row := range g.rows[category] {
			if v, ok := parseNumber(g.dataset.Rows[row][idx]); ok {
				vals = append(vals, v)
			}
		}
		if len(vals) > 0 {
			values[category] = vals
			present = append(present, category)
		}
	}
	return values, present
}

func analyzeContinuous(g grouped, name string, threshold int, emitHistograms bool) (models.ContinuousResult, []models.NormalityTest) {
	result := models.ContinuousResult{Var: name}
	values, present := numericGroups(g, name)

	var normality []models.NormalityTest
	allNormal := true
	marker := fmt.Sprintf("<%d", threshold)

	for _, category := range present {
		vals := values[category]
		if len(vals) < threshold {
			result.Table = append(result.Table, models.ContinuousStats{
				Gender: category,
				N:      models.Masked(marker),
				Mean:   models.Masked(marker),
				SD:     models.Masked(marker),
				Median: models.Masked(marker),
				IQR:    models.Masked(marker),
				Min:    models.Masked(marker),
				Max:    models.Masked(marker),
			})
			continue
		}

		d := describeValues(vals)
		result.Table = append(result.Table, models.ContinuousStats{
			Gender: category,
			N:      models.Num(float64(d.N)),
			Mean:   models.Num(roundTo(d.Mean, 3)),
			SD:     models.Num(roundTo(d.SD, 3)),
			Median: models.Num(roundTo(d.Median, 3)),
			IQR:    models.Num(roundTo(d.IQR, 3)),
			Min:    models.Num(roundTo(d.Min, 3)),
			Max:    models.Num(roundTo(d.Max, 3)),
		})

		if stat, p := jarqueBera(vals); !math.IsNaN(p) {
			normality = append(normality, models.NormalityTest{
				Var:       name,
				Gender:    category,
				Test:      "Jarque-Bera",
				P:         models.Num(roundTo(p, 4)),
				Statistic: models.Num(roundTo(stat, 4)),
			})
			if p < 0.05 {
				allNormal = false
			}
		}
	}

	result.Test, result.Effects = continuousTest(values, present, allNormal)

	if emitHistograms {
		result.Histogram = buildHistograms(values, present)
	}

	return result, normality
}

// continuousTest picks and runs the group-difference test: parametric
// when every group passed the normality check, rank-based otherwise.
func continuousTest(values map[string][]float64, present []string, allNormal bool) (models.TestResult, []models.EffectSize) {
	groups := make([][]float64, 0, len(present))
	for _, category := range present {
		if category != models.GenderMissing {
			groups = append(groups, values[category])
		}
	}

	if len(groups) < 2 {
		return models.TestResult{
			Name: "insufficient_data",
			Note: "Less than 2 groups with data",
		}, nil
	}

	if len(groups) == 2 {
		var effects []models.EffectSize
		if d, ok := cohensD(groups[0], groups[1]); ok {
			effects = append(effects, models.EffectSize{
				Name:           "Cohen's d",
				Value:          models.Num(roundTo(d, 3)),
				Interpretation: interpretCohensD(d),
			})
		}
		if gVal, ok := hedgesG(groups[0], groups[1]); ok {
			effects = append(effects, models.EffectSize{
				Name:           "Hedges' g",
				Value:          models.Num(roundTo(gVal, 3)),
				Interpretation: interpretCohensD(gVal),
			})
		}

		if allNormal {
			t, df, p := welchTTest(groups[0], groups[1])
			return testResult("welch_ttest", t, df, p, "Welch's t-test (unequal variances assumed)"), effects
		}
		u, p := mannWhitney(groups[0], groups[1])
		return testResult("mann_whitney", u, math.NaN(), p, "Mann-Whitney U test (non-parametric)"), effects
	}

	if allNormal {
		f, df1, df2, p := welchANOVA(groups)
		var effects []models.EffectSize
		if eta := etaSquaredFromF(f, df1, df2); !math.IsNaN(eta) {
			effects = append(effects, models.EffectSize{
				Name:           "Eta-squared",
				Value:          models.Num(roundTo(eta, 3)),
				Interpretation: interpretEtaSquared(eta),
			})
			effects = append(effects, models.EffectSize{
				Name:           "Epsilon-squared",
				Value:          models.Num(roundTo(eta*0.95, 3)),
				Interpretation: interpretEtaSquared(eta * 0.95),
			})
		}
		return testResult("welch_anova", f, df1, p, "Welch's ANOVA (unequal variances assumed)"), effects
	}

	h, df, p := kruskalWallis(groups)
	return testResult("kruskal_wallis", h, df, p, "Kruskal-Wallis H test (non-parametric)"), nil
}

func testResult(name string, statistic, df, p float64, note string) models.TestResult {
	result := models.TestResult{Name: name, AssumptionsMet: true, Note: note}
	if math.IsNaN(statistic) || math.IsNaN(p) {
		result.Statistic = models.Masked("N/A")
		result.P = models.Masked("N/A")
		result.AssumptionsMet = false
		return result
	}
	result.Statistic = models.Num(roundTo(statistic, 4))
	result.P = models.Num(roundTo(p, 4))
	if !math.IsNaN(df) {
		result.DF = models.Num(roundTo(df, 2))
	}
	return result
}

const histogramBins = 10

// buildHistograms bins every group over the variable's pooled range so
// bar charts can show real distributions instead of curves rebuilt from
// mean and sd.
func buildHistograms(values map[string][]float64, present []string) map[string][]models.HistogramBin {
	var lo, hi float64
	first := true
	for _, category := range present {
		for _, v := range values[category] {
			if first || v < lo {
				lo = v
			}
			if first || v > hi {
				hi = v
			}
			first = false
		}
	}
	if first || lo == hi {
		return nil
	}

	width := (hi - lo) / histogramBins
	out := make(map[string][]models.HistogramBin, len(present))
	for _, category := range present {
		bins := make([]models.HistogramBin, histogramBins)
		for i := range bins {
			bins[i].RangeStart = roundTo(lo+float64(i)*width, 4)
			bins[i].RangeEnd = roundTo(lo+float64(i+1)*width, 4)
		}
		for _, v := range values[category] {
			idx := int((v - lo) / width)
			if idx >= histogramBins {
				idx = histogramBins - 1
			}
			bins[idx].Count++
		}
		out[category] = bins
	}
	return out
}

func analyzeCategorical(g grouped, name string, threshold int) models.CategoricalResult {
	result := models.CategoricalResult{Var: name}
	idx := g.dataset.ColumnIndex(name)
	if idx < 0 {
		result.Test = models.TestResult{Name: "insufficient_data", Note: fmt.Sprintf("Variable %q not found", name)}
		return result
	}

	// Levels in first-seen row order, shared across groups.
	var levels []string
	seen := map[string]bool{}
	counts := map[string]map[string]int{}
	for _, category := range g.order {
		counts[category] = map[string]int{}
		for _, row := range g.rows[category] {
			cell := g.dataset.Rows[row][idx]
			if cell == "" {
				continue
			}
			if !seen[cell] {
				seen[cell] = true
				levels = append(levels, cell)
			}
			counts[category][cell]++
		}
	}

	marker := fmt.Sprintf("<%d", threshold)
	for _, category := range g.order {
		groupTotal := 0
		for _, level := range levels {
			groupTotal += counts[category][level]
		}
		for _, level := range levels {
			n := counts[category][level]
			if n < threshold {
				result.Table = append(result.Table, models.CategoricalLevel{
					Level:  level,
					Gender: category,
					N:      models.Masked(marker),
					Pct:    models.Masked(marker),
				})
				continue
			}
			pct := 0.0
			if groupTotal > 0 {
				pct = float64(n) / float64(groupTotal) * 100
			}
			result.Table = append(result.Table, models.CategoricalLevel{
				Level:  level,
				Gender: category,
				N:      models.Num(float64(n)),
				Pct:    models.Num(roundTo(pct, 1)),
			})
		}
	}

	result.Test, result.Effects = categoricalTest(counts, levels, g.nonMissingOrder())
	return result
}

// categoricalTest runs independence testing over the unsuppressed counts:
// chi-square by default, Fisher's exact for sparse 2x2 tables.
func categoricalTest(counts map[string]map[string]int, levels, categories []string) (models.TestResult, []models.EffectSize) {
	if len(levels) < 2 || len(categories) < 2 {
		return models.TestResult{
			Name: "insufficient_data",
			Note: "Insufficient data for contingency table",
		}, nil
	}

	table := make([][]float64, len(levels))
	var total float64
	for i, level := range levels {
		table[i] = make([]float64, len(categories))
		for j, category := range categories {
			table[i][j] = float64(counts[category][level])
			total += table[i][j]
		}
	}

	chi2, df, p, minExpected := chiSquareTest(table)
	var effects []models.EffectSize
	if v := cramersV(chi2, total, len(levels), len(categories)); !math.IsNaN(v) {
		effects = append(effects, models.EffectSize{
			Name:           "Cramér's V",
			Value:          models.Num(roundTo(v, 3)),
			Interpretation: interpretCramersV(v),
		})
	}

	if len(levels) == 2 && len(categories) == 2 {
		if or, ciLow, ciHigh, ok := oddsRatio2x2(table[0][0], table[0][1], table[1][0], table[1][1]); ok {
			low := models.Num(roundTo(ciLow, 3))
			high := models.Num(roundTo(ciHigh, 3))
			effects = append(effects, models.EffectSize{
				Name:           "Odds Ratio",
				Value:          models.Num(roundTo(or, 3)),
				CILower:        &low,
				CIUpper:        &high,
				Interpretation: interpretOddsRatio(or),
			})
		}
		if minExpected < 5 {
			fp := fisherExact2x2(table[0][0], table[0][1], table[1][0], table[1][1])
			result := testResult("fisher_exact", math.NaN(), math.NaN(), fp, "Fisher's exact test (small expected frequencies)")
			result.P = models.Num(roundTo(fp, 4))
			result.Statistic = models.Masked("N/A")
			result.AssumptionsMet = true
			return result, effects
		}
	}

	result := testResult("chi_square", chi2, df, p, "Chi-square test of independence")
	if minExpected < 5 {
		result.AssumptionsMet = false
		result.Note = "Chi-square test of independence (warning: expected frequencies below 5)"
	}
	return result, effects
}

// applyFDR adjusts the continuous and categorical test p-values together,
// in response order, with Benjamini-Hochberg.
func applyFDR(resp *models.AnalysisResponse) {
	raw := make([]float64, 0, len(resp.Continuous)+len(resp.Categorical))
	for _, r := range resp.Continuous {
		raw = append(raw, rawP(r.Test))
	}
	for _, r := range resp.Categorical {
		raw = append(raw, rawP(r.Test))
	}

	adjusted := bhAdjust(raw)
	for i := range resp.Continuous {
		if v := adjusted[i]; !math.IsNaN(v) {
			rounded := roundTo(v, 4)
			resp.Continuous[i].PAdjusted = &rounded
		}
	}
	offset := len(resp.Continuous)
	for i := range resp.Categorical {
		if v := adjusted[offset+i]; !math.IsNaN(v) {
			rounded := roundTo(v, 4)
			resp.Categorical[i].PAdjusted = &rounded
		}
	}
}

func rawP(test models.TestResult) float64 {
	if test.P.Suppressed {
		return math.NaN()
	}
	return test.P.Value
}

// analyzeMissingness counts blanks per variable per group after the
// missing-data policy ran, so listwise analyses report zeros by
// construction.
func analyzeMissingness(g grouped, variables []string) []models.MissingnessInfo {
	var out []models.MissingnessInfo
	for _, name := range variables {
		idx := g.dataset.ColumnIndex(name)
		if idx < 0 {
			continue
		}
		for _, category := range g.order {
			missing := 0
			for _, row := range g.rows[category] {
				if g.dataset.Rows[row][idx] == "" {
					missing++
				}
			}
			n := len(g.rows[category])
			pct := 0.0
			if n > 0 {
				pct = float64(missing) / float64(n) * 100
			}
			out = append(out, models.MissingnessInfo{
				Var:        name,
				Gender:     category,
				MissingN:   missing,
				MissingPct: roundTo(pct, 2),
			})
		}
	}
	return out
}
