package stub

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestDescribeValues(t *testing.T) {
	d := describeValues([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if d.N != 8 {
		t.Fatalf("N = %d, want 8", d.N)
	}
	if !almostEqual(d.Mean, 5, 1e-9) {
		t.Errorf("Mean = %v, want 5", d.Mean)
	}
	if !almostEqual(d.Median, 4.5, 1e-9) {
		t.Errorf("Median = %v, want 4.5", d.Median)
	}
	if d.Min != 2 || d.Max != 9 {
		t.Errorf("Min/Max = %v/%v, want 2/9", d.Min, d.Max)
	}
	// Sample SD of this classic set is sqrt(32/7).
	if !almostEqual(d.SD, math.Sqrt(32.0/7.0), 1e-9) {
		t.Errorf("SD = %v, want %v", d.SD, math.Sqrt(32.0/7.0))
	}
}

func TestWelchTTest(t *testing.T) {
	t.Run("identical groups", func(t *testing.T) {
		g := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		stat, _, p := welchTTest(g, g)
		if !almostEqual(stat, 0, 1e-9) {
			t.Errorf("t = %v, want 0", stat)
		}
		if !almostEqual(p, 1, 1e-9) {
			t.Errorf("p = %v, want 1", p)
		}
	})

	t.Run("clearly separated groups", func(t *testing.T) {
		g1 := []float64{1, 2, 1.5, 2.5, 2, 1.8, 2.2, 1.9}
		g2 := []float64{10, 11, 10.5, 11.5, 11, 10.8, 11.2, 10.9}
		stat, df, p := welchTTest(g1, g2)
		if stat >= 0 {
			t.Errorf("t = %v, want negative", stat)
		}
		if df <= 0 {
			t.Errorf("df = %v, want positive", df)
		}
		if p >= 0.001 {
			t.Errorf("p = %v, want < 0.001", p)
		}
	})

	t.Run("degenerate input", func(t *testing.T) {
		stat, _, p := welchTTest([]float64{1}, []float64{2, 3})
		if !math.IsNaN(stat) || !math.IsNaN(p) {
			t.Errorf("single observation should yield NaN, got t=%v p=%v", stat, p)
		}
	})
}

func TestMannWhitney(t *testing.T) {
	g1 := []float64{1, 2, 3, 4, 5}
	g2 := []float64{6, 7, 8, 9, 10}
	u, p := mannWhitney(g1, g2)
	if u != 0 {
		t.Errorf("U = %v, want 0 for fully separated groups", u)
	}
	if p >= 0.05 {
		t.Errorf("p = %v, want < 0.05", p)
	}
}

func TestRankWithTies(t *testing.T) {
	ranks, tieTerm := rankWithTies([]float64{3, 1, 3, 2})
	// Value 3 appears twice at positions 3 and 4: midrank 3.5 each.
	want := []float64{3.5, 1, 3.5, 2}
	for i := range want {
		if !almostEqual(ranks[i], want[i], 1e-9) {
			t.Errorf("rank[%d] = %v, want %v", i, ranks[i], want[i])
		}
	}
	// One tie group of size 2: t^3 - t = 6.
	if !almostEqual(tieTerm, 6, 1e-9) {
		t.Errorf("tieTerm = %v, want 6", tieTerm)
	}
}

func TestKruskalWallis(t *testing.T) {
	groups := [][]float64{
		{1, 2, 3, 4, 5},
		{11, 12, 13, 14, 15},
		{21, 22, 23, 24, 25},
	}
	h, df, p := kruskalWallis(groups)
	if df != 2 {
		t.Errorf("df = %v, want 2", df)
	}
	if h <= 0 {
		t.Errorf("H = %v, want positive", h)
	}
	if p >= 0.01 {
		t.Errorf("p = %v, want < 0.01", p)
	}
}

func TestCohensDAndHedgesG(t *testing.T) {
	g1 := []float64{1, 2, 3, 4, 5}
	g2 := []float64{3, 4, 5, 6, 7}
	d, ok := cohensD(g1, g2)
	if !ok {
		t.Fatal("cohensD not computable")
	}
	// Mean diff -2, pooled SD sqrt(2.5).
	if !almostEqual(d, -2/math.Sqrt(2.5), 1e-9) {
		t.Errorf("d = %v, want %v", d, -2/math.Sqrt(2.5))
	}

	g, ok := hedgesG(g1, g2)
	if !ok {
		t.Fatal("hedgesG not computable")
	}
	if math.Abs(g) >= math.Abs(d) {
		t.Errorf("|g| = %v should shrink toward zero relative to |d| = %v", math.Abs(g), math.Abs(d))
	}
}

func TestFisherExact2x2(t *testing.T) {
	// The lady-tasting-tea table: two-sided p = 34/70.
	p := fisherExact2x2(3, 1, 1, 3)
	if !almostEqual(p, 34.0/70.0, 1e-6) {
		t.Errorf("p = %v, want %v", p, 34.0/70.0)
	}

	// Independence: p = 1.
	p = fisherExact2x2(5, 5, 5, 5)
	if !almostEqual(p, 1, 1e-6) {
		t.Errorf("p = %v, want 1", p)
	}
}

func TestChiSquareTest(t *testing.T) {
	// Perfectly balanced table: chi2 = 0, p = 1.
	table := [][]float64{{20, 20}, {30, 30}}
	chi2, df, p, minExpected := chiSquareTest(table)
	if !almostEqual(chi2, 0, 1e-9) {
		t.Errorf("chi2 = %v, want 0", chi2)
	}
	if df != 1 {
		t.Errorf("df = %v, want 1", df)
	}
	if !almostEqual(p, 1, 1e-9) {
		t.Errorf("p = %v, want 1", p)
	}
	if minExpected != 20 {
		t.Errorf("minExpected = %v, want 20", minExpected)
	}
}

func TestOddsRatio2x2(t *testing.T) {
	or, lo, hi, ok := oddsRatio2x2(10, 20, 30, 15)
	if !ok {
		t.Fatal("odds ratio not computable")
	}
	if !almostEqual(or, 0.25, 1e-9) {
		t.Errorf("OR = %v, want 0.25", or)
	}
	if lo >= or || hi <= or {
		t.Errorf("CI [%v, %v] must bracket OR %v", lo, hi, or)
	}

	if _, _, _, ok := oddsRatio2x2(0, 20, 30, 15); ok {
		t.Error("zero cell should make the odds ratio non-computable")
	}
}

func TestBHAdjust(t *testing.T) {
	t.Run("classic cummin case", func(t *testing.T) {
		adjusted := bhAdjust([]float64{0.01, 0.04, 0.03, 0.02})
		for i, v := range adjusted {
			if !almostEqual(v, 0.04, 1e-9) {
				t.Errorf("adjusted[%d] = %v, want 0.04", i, v)
			}
		}
	})

	t.Run("monotone and capped", func(t *testing.T) {
		ps := []float64{0.005, 0.011, 0.02, 0.04, 0.9}
		adjusted := bhAdjust(ps)
		type pair struct{ raw, adj float64 }
		pairs := make([]pair, len(ps))
		for i := range ps {
			pairs[i] = pair{ps[i], adjusted[i]}
			if adjusted[i] < ps[i] {
				t.Errorf("adjusted[%d] = %v below raw %v", i, adjusted[i], ps[i])
			}
			if adjusted[i] > 1 {
				t.Errorf("adjusted[%d] = %v exceeds 1", i, adjusted[i])
			}
		}
		// Sorted by raw p, the adjusted values must be non-decreasing.
		for i := 1; i < len(pairs); i++ {
			if pairs[i].adj < pairs[i-1].adj {
				t.Errorf("adjusted values not monotone at %d: %v < %v", i, pairs[i].adj, pairs[i-1].adj)
			}
		}
	})

	t.Run("NaN preserved and excluded", func(t *testing.T) {
		adjusted := bhAdjust([]float64{0.01, math.NaN(), 0.04})
		if !math.IsNaN(adjusted[1]) {
			t.Errorf("adjusted[1] = %v, want NaN", adjusted[1])
		}
		// m = 2 for the valid entries: 0.01*2/1 = 0.02.
		if !almostEqual(adjusted[0], 0.02, 1e-9) {
			t.Errorf("adjusted[0] = %v, want 0.02", adjusted[0])
		}
	})
}

func TestJarqueBera(t *testing.T) {
	// Symmetric near-normal sample should not reject.
	values := []float64{-2, -1.5, -1, -0.5, 0, 0, 0.5, 1, 1.5, 2}
	_, p := jarqueBera(values)
	if math.IsNaN(p) {
		t.Fatal("p is NaN for a valid sample")
	}
	if p < 0.05 {
		t.Errorf("p = %v, symmetric sample should not reject normality", p)
	}

	if _, p := jarqueBera([]float64{1, 2, 3}); !math.IsNaN(p) {
		t.Errorf("small sample should yield NaN, got %v", p)
	}
}

func TestInterpretations(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"cohens d negligible", interpretCohensD(0.1), "negligible"},
		{"cohens d small", interpretCohensD(-0.3), "small"},
		{"cohens d medium", interpretCohensD(0.6), "medium"},
		{"cohens d large", interpretCohensD(-0.9), "large"},
		{"cramers v negligible", interpretCramersV(0.05), "negligible"},
		{"cramers v large", interpretCramersV(0.6), "large"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}
