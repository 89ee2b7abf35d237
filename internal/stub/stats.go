package stub

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// describe is one group's descriptive summary of a continuous variable.
type describe struct {
	N      int
	Mean   float64
	SD     float64
	Median float64
	IQR    float64
	Min    float64
	Max    float64
}

func describeValues(values []float64) describe {
	d := describe{N: len(values)}
	if d.N == 0 {
		return d
	}
	d.Mean, _ = mstats.Mean(values)
	d.Median, _ = mstats.Median(values)
	d.Min, _ = mstats.Min(values)
	d.Max, _ = mstats.Max(values)
	if d.N > 1 {
		d.SD, _ = mstats.StandardDeviationSample(values)
		q1, _ := mstats.Percentile(values, 25)
		q3, _ := mstats.Percentile(values, 75)
		d.IQR = q3 - q1
	}
	return d
}

// welchTTest runs Welch's unequal-variance t-test for two groups. The
// degrees of freedom follow Welch-Satterthwaite; p is two-tailed.
func welchTTest(g1, g2 []float64) (t, df, p float64) {
	d1, d2 := describeValues(g1), describeValues(g2)
	if d1.N < 2 || d2.N < 2 {
		return math.NaN(), 0, math.NaN()
	}

	v1 := d1.SD * d1.SD / float64(d1.N)
	v2 := d2.SD * d2.SD / float64(d2.N)
	if v1+v2 == 0 {
		return math.NaN(), 0, math.NaN()
	}

	t = (d1.Mean - d2.Mean) / math.Sqrt(v1+v2)
	df = (v1 + v2) * (v1 + v2) / (v1*v1/float64(d1.N-1) + v2*v2/float64(d2.N-1))
	p = tTestPValue(t, df)
	return t, df, p
}

func tTestPValue(t, df float64) float64 {
	if df <= 0 || math.IsNaN(t) {
		return math.NaN()
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * (1 - dist.CDF(math.Abs(t)))
}

// mannWhitney runs the two-sided Mann-Whitney U test with the normal
// approximation and tie correction.
func mannWhitney(g1, g2 []float64) (u, p float64) {
	n1, n2 := len(g1), len(g2)
	if n1 < 2 || n2 < 2 {
		return math.NaN(), math.NaN()
	}

	all := make([]float64, 0, n1+n2)
	all = append(all, g1...)
	all = append(all, g2...)
	ranks, tieTerm := rankWithTies(all)

	var r1 float64
	for i := 0; i < n1; i++ {
		r1 += ranks[i]
	}
	u1 := r1 - float64(n1*(n1+1))/2
	u2 := float64(n1*n2) - u1
	u = math.Min(u1, u2)

	n := float64(n1 + n2)
	mu := float64(n1*n2) / 2
	sigma2 := float64(n1*n2) / 12 * ((n + 1) - tieTerm/(n*(n-1)))
	if sigma2 <= 0 {
		return u, math.NaN()
	}
	z := (u - mu) / math.Sqrt(sigma2)
	p = 2 * distuv.UnitNormal.CDF(-math.Abs(z))
	return u, p
}

// rankWithTies assigns midranks and returns the tie correction term
// sum(t^3 - t) over tie groups.
func rankWithTies(values []float64) (ranks []float64, tieTerm float64) {
	type indexed struct {
		v float64
		i int
	}
	sorted := make([]indexed, len(values))
	for i, v := range values {
		sorted[i] = indexed{v, i}
	}
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].v < sorted[b].v })

	ranks = make([]float64, len(values))
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j].v == sorted[i].v {
			j++
		}
		mid := float64(i+j+1) / 2 // average of 1-based ranks i+1..j
		for k := i; k < j; k++ {
			ranks[sorted[k].i] = mid
		}
		t := float64(j - i)
		tieTerm += t*t*t - t
		i = j
	}
	return ranks, tieTerm
}

// welchANOVA runs the unequal-variance one-way ANOVA for 3+ groups.
func welchANOVA(groups [][]float64) (f, df1, df2, p float64) {
	k := len(groups)
	if k < 2 {
		return math.NaN(), 0, 0, math.NaN()
	}

	weights := make([]float64, k)
	means := make([]float64, k)
	var sumW, sumWM float64
	for i, g := range groups {
		d := describeValues(g)
		if d.N < 2 || d.SD == 0 {
			return math.NaN(), 0, 0, math.NaN()
		}
		weights[i] = float64(d.N) / (d.SD * d.SD)
		means[i] = d.Mean
		sumW += weights[i]
		sumWM += weights[i] * d.Mean
	}
	grand := sumWM / sumW

	var num, lambda float64
	for i, g := range groups {
		num += weights[i] * (means[i] - grand) * (means[i] - grand)
		h := (1 - weights[i]/sumW)
		lambda += h * h / float64(len(g)-1)
	}
	kf := float64(k)
	num /= kf - 1
	den := 1 + 2*(kf-2)/(kf*kf-1)*lambda

	f = num / den
	df1 = kf - 1
	df2 = (kf*kf - 1) / (3 * lambda)
	dist := distuv.F{D1: df1, D2: df2}
	p = 1 - dist.CDF(f)
	return f, df1, df2, p
}

// kruskalWallis runs the rank-based k-group test with the chi-square
// approximation.
func kruskalWallis(groups [][]float64) (h, df, p float64) {
	k := len(groups)
	if k < 2 {
		return math.NaN(), 0, math.NaN()
	}

	var all []float64
	sizes := make([]int, k)
	for i, g := range groups {
		sizes[i] = len(g)
		all = append(all, g...)
	}
	n := float64(len(all))
	if n < 3 {
		return math.NaN(), 0, math.NaN()
	}

	ranks, tieTerm := rankWithTies(all)

	offset := 0
	var sum float64
	for i := 0; i < k; i++ {
		var ri float64
		for j := 0; j < sizes[i]; j++ {
			ri += ranks[offset+j]
		}
		sum += ri * ri / float64(sizes[i])
		offset += sizes[i]
	}

	h = 12/(n*(n+1))*sum - 3*(n+1)
	if correction := 1 - tieTerm/(n*n*n-n); correction > 0 {
		h /= correction
	}
	df = float64(k - 1)
	p = 1 - distuv.ChiSquared{K: df}.CDF(h)
	return h, df, p
}

// jarqueBera is the sample-moment normality check used to pick between
// parametric and rank tests.
func jarqueBera(values []float64) (stat, p float64) {
	n := float64(len(values))
	if n < 8 {
		return math.NaN(), math.NaN()
	}

	mean, _ := mstats.Mean(values)
	var m2, m3, m4 float64
	for _, v := range values {
		d := v - mean
		m2 += d * d
		m3 += d * d * d
		m4 += d * d * d * d
	}
	m2 /= n
	m3 /= n
	m4 /= n
	if m2 == 0 {
		return math.NaN(), math.NaN()
	}

	skew := m3 / math.Pow(m2, 1.5)
	kurt := m4/(m2*m2) - 3

	stat = n / 6 * (skew*skew + kurt*kurt/4)
	p = 1 - distuv.ChiSquared{K: 2}.CDF(stat)
	return stat, p
}

// cohensD is the pooled-SD standardized mean difference.
func cohensD(g1, g2 []float64) (float64, bool) {
	d1, d2 := describeValues(g1), describeValues(g2)
	if d1.N < 2 || d2.N < 2 {
		return 0, false
	}
	n1, n2 := float64(d1.N), float64(d2.N)
	pooled := math.Sqrt(((n1-1)*d1.SD*d1.SD + (n2-1)*d2.SD*d2.SD) / (n1 + n2 - 2))
	if pooled == 0 {
		return 0, false
	}
	return (d1.Mean - d2.Mean) / pooled, true
}

// hedgesG applies the small-sample bias correction to Cohen's d.
func hedgesG(g1, g2 []float64) (float64, bool) {
	d, ok := cohensD(g1, g2)
	if !ok {
		return 0, false
	}
	n := float64(len(g1) + len(g2))
	return d * (1 - 3/(4*n-9)), true
}

// etaSquaredFromF approximates the multi-group effect size from the
// Welch ANOVA statistic.
func etaSquaredFromF(f, df1, df2 float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return math.NaN()
	}
	return f * df1 / (f*df1 + df2)
}

// chiSquareTest runs the test of independence over an r x c count table.
func chiSquareTest(table [][]float64) (chi2, df, p, minExpected float64) {
	r := len(table)
	if r < 2 || len(table[0]) < 2 {
		return math.NaN(), 0, math.NaN(), 0
	}
	c := len(table[0])

	rowSums := make([]float64, r)
	colSums := make([]float64, c)
	var total float64
	for i := range table {
		for j := range table[i] {
			rowSums[i] += table[i][j]
			colSums[j] += table[i][j]
			total += table[i][j]
		}
	}
	if total == 0 {
		return math.NaN(), 0, math.NaN(), 0
	}

	minExpected = math.Inf(1)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			expected := rowSums[i] * colSums[j] / total
			if expected < minExpected {
				minExpected = expected
			}
			if expected > 0 {
				diff := table[i][j] - expected
				chi2 += diff * diff / expected
			}
		}
	}

	df = float64((r - 1) * (c - 1))
	p = 1 - distuv.ChiSquared{K: df}.CDF(chi2)
	return chi2, df, p, minExpected
}

// fisherExact2x2 computes the two-sided exact p for a 2x2 table by
// summing hypergeometric probabilities no larger than the observed one.
func fisherExact2x2(a, b, c, d float64) float64 {
	rowA := a + b
	rowC := c + d
	colA := a + c
	n := rowA + rowC
	if n == 0 {
		return math.NaN()
	}

	prob := func(x float64) float64 {
		return math.Exp(logChoose(rowA, x) + logChoose(rowC, colA-x) - logChoose(n, colA))
	}

	observed := prob(a)
	lo := math.Max(0, colA-rowC)
	hi := math.Min(colA, rowA)

	var p float64
	for x := lo; x <= hi; x++ {
		if px := prob(x); px <= observed*(1+1e-9) {
			p += px
		}
	}
	return math.Min(p, 1)
}

func logChoose(n, k float64) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	lg := func(x float64) float64 {
		v, _ := math.Lgamma(x + 1)
		return v
	}
	return lg(n) - lg(k) - lg(n-k)
}

// cramersV is the chi-square based association strength for an r x c table.
func cramersV(chi2, total float64, rows, cols int) float64 {
	minDim := rows - 1
	if cols-1 < minDim {
		minDim = cols - 1
	}
	if minDim <= 0 || total <= 0 || math.IsNaN(chi2) {
		return math.NaN()
	}
	return math.Sqrt(chi2 / (total * float64(minDim)))
}

// oddsRatio2x2 returns the odds ratio with its 95% CI on the log scale.
func oddsRatio2x2(a, b, c, d float64) (or, ciLow, ciHigh float64, ok bool) {
	if b == 0 || c == 0 || a == 0 || d == 0 {
		return 0, 0, 0, false
	}
	or = (a * d) / (b * c)
	se := math.Sqrt(1/a + 1/b + 1/c + 1/d)
	logOR := math.Log(or)
	ciLow = math.Exp(logOR - 1.96*se)
	ciHigh = math.Exp(logOR + 1.96*se)
	return or, ciLow, ciHigh, true
}

// bhAdjust applies the Benjamini-Hochberg step-up adjustment. NaN entries
// stay NaN; adjusted values are monotone in the raw ordering and capped
// at 1.
func bhAdjust(ps []float64) []float64 {
	type indexed struct {
		p float64
		i int
	}
	var valid []indexed
	for i, p := range ps {
		if !math.IsNaN(p) {
			valid = append(valid, indexed{p, i})
		}
	}

	out := make([]float64, len(ps))
	for i := range out {
		out[i] = math.NaN()
	}
	m := len(valid)
	if m == 0 {
		return out
	}

	sort.Slice(valid, func(a, b int) bool { return valid[a].p < valid[b].p })

	adjusted := make([]float64, m)
	running := 1.0
	for i := m - 1; i >= 0; i-- {
		candidate := valid[i].p * float64(m) / float64(i+1)
		if candidate < running {
			running = candidate
		}
		adjusted[i] = running
	}
	for i, entry := range valid {
		out[entry.i] = adjusted[i]
	}
	return out
}

// Effect-size reading bands, matching the conventional thresholds.
func interpretCohensD(d float64) string {
	switch abs := math.Abs(d); {
	case abs < 0.2:
		return "negligible"
	case abs < 0.5:
		return "small"
	case abs < 0.8:
		return "medium"
	default:
		return "large"
	}
}

func interpretEtaSquared(eta2 float64) string {
	switch {
	case eta2 < 0.01:
		return "negligible"
	case eta2 < 0.06:
		return "small"
	case eta2 < 0.14:
		return "medium"
	default:
		return "large"
	}
}

func interpretCramersV(v float64) string {
	switch {
	case v < 0.1:
		return "negligible"
	case v < 0.3:
		return "small"
	case v < 0.5:
		return "medium"
	default:
		return "large"
	}
}

func interpretOddsRatio(or float64) string {
	switch {
	case or < 0.5:
		return "strong negative association"
	case or < 0.8:
		return "moderate negative association"
	case or < 1.2:
		return "negligible association"
	case or < 2.0:
		return "moderate positive association"
	default:
		return "strong positive association"
	}
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
