package dataset

import (
	"errors"
	"math"
	"slices"

	"github.com/samber/lo"
)

// DefaultTop is the number of rows listed at each end of the summary.
const DefaultTop = 5

// ErrNoScores is returned when every score cell is missing.
var ErrNoScores = errors.New("no score values")

// Stats mirrors the numeric rows of a pandas describe().
// Std is the sample deviation and is zero when Count is 1.
type Stats struct {
	Count int     `json:"count" yaml:"count"`
	Mean  float64 `json:"mean" yaml:"mean"`
	Std   float64 `json:"std" yaml:"std"`
	Min   float64 `json:"min" yaml:"min"`
	P25   float64 `json:"p25" yaml:"p25"`
	P50   float64 `json:"p50" yaml:"p50"`
	P75   float64 `json:"p75" yaml:"p75"`
	Max   float64 `json:"max" yaml:"max"`
}

// Summary is the exploration view of a dataset.
type Summary struct {
	Rows    int            `json:"rows" yaml:"rows"`
	Columns []string       `json:"columns" yaml:"columns"`
	Missing map[string]int `json:"missing" yaml:"missing"`
	Score   Stats          `json:"score" yaml:"score"`
	Head    []*Row         `json:"head" yaml:"head"`
	Tail    []*Row         `json:"tail" yaml:"tail"`
	Lowest  []*Row         `json:"lowest" yaml:"lowest"`
	Highest []*Row         `json:"highest" yaml:"highest"`
}

// Describe computes count, mean, sample std, min, quartiles and max.
// Quartiles use linear interpolation between closest ranks.
func Describe(values []float64) (Stats, error) {
	if len(values) == 0 {
		return Stats{}, ErrNoScores
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	n := len(sorted)
	mean := lo.Sum(sorted) / float64(n)

	var std float64
	if n > 1 {
		ss := lo.SumBy(sorted, func(v float64) float64 {
			return (v - mean) * (v - mean)
		})
		std = math.Sqrt(ss / float64(n-1))
	}

	return Stats{
		Count: n,
		Mean:  mean,
		Std:   std,
		Min:   sorted[0],
		P25:   quantile(sorted, 0.25),
		P50:   quantile(sorted, 0.5),
		P75:   quantile(sorted, 0.75),
		Max:   sorted[n-1],
	}, nil
}

func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	return sorted[lower] + (sorted[upper]-sorted[lower])*(pos-float64(lower))
}

// Summarize builds the summary of ds listing top rows at each end.
// Rows with a missing score are left out of the stats and the rankings.
func Summarize(ds *Dataset, top int) (*Summary, error) {
	if ds == nil {
		return nil, errors.New("dataset required")
	}
	if top <= 0 {
		top = DefaultTop
	}

	scored := lo.Filter(ds.Rows, func(r *Row, _ int) bool { return !r.Missing })
	stats, err := Describe(lo.Map(scored, func(r *Row, _ int) float64 { return r.Score }))
	if err != nil {
		return nil, err
	}

	ranked := slices.Clone(scored)
	slices.SortStableFunc(ranked, func(a, b *Row) int {
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		default:
			return 0
		}
	})

	highest := slices.Clone(ranked[len(ranked)-min(top, len(ranked)):])
	slices.Reverse(highest)

	return &Summary{
		Rows:    len(ds.Rows),
		Columns: ds.Columns,
		Missing: ds.Missing,
		Score:   stats,
		Head:    ds.Rows[:min(top, len(ds.Rows))],
		Tail:    ds.Rows[len(ds.Rows)-min(top, len(ds.Rows)):],
		Lowest:  ranked[:min(top, len(ranked))],
		Highest: highest,
	}, nil
}
