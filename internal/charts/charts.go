// Package charts shapes analysis results into plottable series for the
// static SVG renderer. When the backend supplies per-group histogram bins
// the curves are exact; otherwise points are synthesized from mean/sd,
// which misrepresents skewed distributions and is therefore flagged so the
// UI can caption the chart as approximate.
package charts

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"femstat/models"
)

// curvePoints is how many samples a synthesized density curve gets.
const curvePoints = 41

// Point is one x/y pair of a density series.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GroupBar is one group's mean bar with a 95% confidence whisker.
type GroupBar struct {
	Gender     string  `json:"gender"`
	Mean       float64 `json:"mean"`
	CILow      float64 `json:"ci_low"`
	CIHigh     float64 `json:"ci_high"`
	N          int     `json:"n"`
	Suppressed bool    `json:"suppressed"`
}

// DensitySeries is one group's distribution, either binned or synthesized.
type DensitySeries struct {
	Gender string               `json:"gender"`
	Points []Point              `json:"points,omitempty"`
	Bins   []models.HistogramBin `json:"bins,omitempty"`
}

// ContinuousChart is the render payload for one continuous variable.
type ContinuousChart struct {
	Var         string          `json:"var"`
	Bars        []GroupBar      `json:"bars"`
	Curves      []DensitySeries `json:"curves"`
	Approximate bool            `json:"approximate"`
}

// BuildContinuous shapes one continuous result. Groups follow the given
// category order; groups absent from the result are skipped. Suppressed
// cells produce a bar marked suppressed and no curve.
func BuildContinuous(result models.ContinuousResult, order []string) ContinuousChart {
	chart := ContinuousChart{Var: result.Var}

	byGender := make(map[string]models.ContinuousStats, len(result.Table))
	for _, row := range result.Table {
		byGender[row.Gender] = row
	}

	for _, gender := range orderedGenders(order, result.Table) {
		row := byGender[gender]
		if row.N.Suppressed || row.Mean.Suppressed || row.SD.Suppressed {
			chart.Bars = append(chart.Bars, GroupBar{Gender: gender, Suppressed: true})
			continue
		}

		n := row.N.Int()
		mean, sd := row.Mean.Value, row.SD.Value
		low, high := confidenceInterval(mean, sd, n)
		chart.Bars = append(chart.Bars, GroupBar{
			Gender: gender,
			Mean:   mean,
			CILow:  low,
			CIHigh: high,
			N:      n,
		})

		if bins, ok := result.Histogram[gender]; ok && len(bins) > 0 {
			chart.Curves = append(chart.Curves, DensitySeries{Gender: gender, Bins: bins})
			continue
		}
		if points := synthesizeCurve(mean, sd, n); points != nil {
			chart.Curves = append(chart.Curves, DensitySeries{Gender: gender, Points: points})
			chart.Approximate = true
		}
	}

	return chart
}

// synthesizeCurve reconstructs a normal density from summary statistics.
// It is a presentation convenience only: the real distribution may be
// nothing like it.
func synthesizeCurve(mean, sd float64, n int) []Point {
	if n < 2 || sd <= 0 || math.IsNaN(sd) {
		return nil
	}
	dist := distuv.Normal{Mu: mean, Sigma: sd}
	points := make([]Point, 0, curvePoints)
	lo, hi := mean-4*sd, mean+4*sd
	step := (hi - lo) / float64(curvePoints-1)
	for i := 0; i < curvePoints; i++ {
		x := lo + float64(i)*step
		points = append(points, Point{X: x, Y: dist.Prob(x)})
	}
	return points
}

// confidenceInterval is the 95% t-interval for the group mean.
func confidenceInterval(mean, sd float64, n int) (low, high float64) {
	if n < 2 || sd <= 0 {
		return mean, mean
	}
	tCritical := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}.Quantile(0.975)
	margin := tCritical * sd / math.Sqrt(float64(n))
	return mean - margin, mean + margin
}

// Segment is one level's share within a group's stacked bar.
type Segment struct {
	Level      string  `json:"level"`
	Pct        float64 `json:"pct"`
	N          int     `json:"n"`
	Suppressed bool    `json:"suppressed"`
}

// StackedGroup is one group's full stacked bar.
type StackedGroup struct {
	Gender   string    `json:"gender"`
	Segments []Segment `json:"segments"`
}

// CategoricalChart is the render payload for one categorical variable.
type CategoricalChart struct {
	Var    string         `json:"var"`
	Levels []string       `json:"levels"`
	Groups []StackedGroup `json:"groups"`
}

// BuildCategorical shapes one contingency table into stacked percentage
// bars, one per group, segments in first-seen level order.
func BuildCategorical(result models.CategoricalResult, order []string) CategoricalChart {
	chart := CategoricalChart{Var: result.Var}

	var levels []string
	levelSeen := make(map[string]bool)
	cells := make(map[string]map[string]models.CategoricalLevel)
	var genders []models.ContinuousStats // reused only for gender ordering

	for _, cell := range result.Table {
		if !levelSeen[cell.Level] {
			levelSeen[cell.Level] = true
			levels = append(levels, cell.Level)
		}
		if cells[cell.Gender] == nil {
			cells[cell.Gender] = make(map[string]models.CategoricalLevel)
			genders = append(genders, models.ContinuousStats{Gender: cell.Gender})
		}
		cells[cell.Gender][cell.Level] = cell
	}
	chart.Levels = levels

	for _, gender := range orderedGenders(order, genders) {
		group := StackedGroup{Gender: gender}
		for _, level := range levels {
			cell, ok := cells[gender][level]
			if !ok {
				group.Segments = append(group.Segments, Segment{Level: level})
				continue
			}
			group.Segments = append(group.Segments, Segment{
				Level:      level,
				Pct:        cell.Pct.Value,
				N:          cell.N.Int(),
				Suppressed: cell.N.Suppressed || cell.Pct.Suppressed,
			})
		}
		chart.Groups = append(chart.Groups, group)
	}

	return chart
}

// MissingBar is one variable x group missingness bar.
type MissingBar struct {
	Var    string  `json:"var"`
	Gender string  `json:"gender"`
	Pct    float64 `json:"pct"`
}

// BuildMissingness flattens the missingness table for plotting.
func BuildMissingness(entries []models.MissingnessInfo) []MissingBar {
	bars := make([]MissingBar, 0, len(entries))
	for _, e := range entries {
		bars = append(bars, MissingBar{Var: e.Var, Gender: e.Gender, Pct: e.MissingPct})
	}
	return bars
}

// orderedGenders returns the groups present in the table, sorted by the
// requested category order with unknown groups appended in table order.
func orderedGenders(order []string, table []models.ContinuousStats) []string {
	present := make(map[string]bool, len(table))
	var tableOrder []string
	for _, row := range table {
		if !present[row.Gender] {
			present[row.Gender] = true
			tableOrder = append(tableOrder, row.Gender)
		}
	}

	var out []string
	taken := make(map[string]bool, len(tableOrder))
	for _, g := range order {
		if present[g] && !taken[g] {
			taken[g] = true
			out = append(out, g)
		}
	}
	for _, g := range tableOrder {
		if !taken[g] {
			out = append(out, g)
		}
	}
	return out
}
