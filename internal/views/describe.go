package views

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/KaramelBytes/mediaintel-cli/internal/dataset"
)

// NumericSummary is the descriptive statistics of the engagement column.
type NumericSummary struct {
	Count int64   `json:"count"`
	Sum   int64   `json:"sum"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   int64   `json:"min"`
	P25   float64 `json:"25%"`
	P50   float64 `json:"50%"`
	P75   float64 `json:"75%"`
	Max   int64   `json:"max"`
}

// CategorySummary describes one categorical column.
type CategorySummary struct {
	Count  int    `json:"count"`
	Unique int    `json:"unique"`
	Top    string `json:"top"`
	Freq   int    `json:"freq"`
}

// Summary is a compact description of a dataset used as context for summaries and Q&A.
type Summary struct {
	Rows        int                        `json:"rows"`
	FirstDate   string                     `json:"first_date,omitempty"`
	LastDate    string                     `json:"last_date,omitempty"`
	Engagements NumericSummary             `json:"engagements"`
	Columns     map[string]CategorySummary `json:"columns"`
}

// Describe summarizes ds. An empty dataset yields zero statistics.
func Describe(ds *dataset.Dataset) Summary {
	s := Summary{Rows: ds.Len(), Columns: map[string]CategorySummary{}}
	if ds.Empty() {
		return s
	}
	if first, last, ok := ds.Bounds(); ok {
		s.FirstDate, s.LastDate = first.Format(dateKey), last.Format(dateKey)
	}
	vals := make([]int64, 0, ds.Len())
	for _, r := range ds.Records {
		vals = append(vals, r.Engagements)
	}
	s.Engagements = describeNumbers(vals)
	for name, field := range map[string]func(dataset.Record) string{
		dataset.ColSentiment: func(r dataset.Record) string { return r.Sentiment },
		dataset.ColPlatform:  func(r dataset.Record) string { return r.Platform },
		dataset.ColMediaType: func(r dataset.Record) string { return r.MediaType },
		dataset.ColLocation:  func(r dataset.Record) string { return r.Location },
	} {
		s.Columns[name] = describeCategory(ds, field)
	}
	return s
}

// JSON renders the summary; map keys are emitted sorted.
func (s Summary) JSON() string {
	b, _ := json.Marshal(s)
	return string(b)
}

func describeNumbers(vals []int64) NumericSummary {
	sorted := append([]int64(nil), vals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	n := NumericSummary{Count: int64(len(sorted)), Min: sorted[0], Max: sorted[len(sorted)-1]}
	for _, v := range sorted {
		n.Sum += v
	}
	n.Mean = float64(n.Sum) / float64(n.Count)
	if n.Count > 1 {
		var sq float64
		for _, v := range sorted {
			d := float64(v) - n.Mean
			sq += d * d
		}
		n.Std = math.Sqrt(sq / float64(n.Count-1))
	}
	n.P25, n.P50, n.P75 = quantile(sorted, 0.25), quantile(sorted, 0.5), quantile(sorted, 0.75)
	return n
}

// quantile interpolates linearly between closest ranks.
func quantile(sorted []int64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[hi]-sorted[lo])
}

func describeCategory(ds *dataset.Dataset, field func(dataset.Record) string) CategorySummary {
	counts := map[string]int{}
	var order []string
	for _, r := range ds.Records {
		v := field(r)
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}
	c := CategorySummary{Count: ds.Len(), Unique: len(counts)}
	for _, v := range order {
		if counts[v] > c.Freq {
			c.Top, c.Freq = v, counts[v]
		}
	}
	return c
}

// BestPlatform returns the platform with the largest summed engagement, or
// dataset.NotAvailable for an empty dataset. Ties go to the first seen.
func BestPlatform(ds *dataset.Dataset) string {
	res := PlatformEngagement(ds)
	if len(res.Points) == 0 {
		return dataset.NotAvailable
	}
	return res.Points[0].Category
}
