package filter

import (
	"sort"
	"time"

	"github.com/KaramelBytes/mediaintel-cli/internal/dataset"
)

// Options lists the values a caller can offer for each filter dimension.
type Options struct {
	Platforms  []string  `json:"platforms"`
	Sentiments []string  `json:"sentiments"`
	MediaTypes []string  `json:"media_types"`
	Locations  []string  `json:"locations"`
	MinDate    time.Time `json:"min_date"`
	MaxDate    time.Time `json:"max_date"`
}

// OptionsFor collects the sorted distinct values of every dimension in ds.
func OptionsFor(ds *dataset.Dataset) Options {
	var o Options
	if ds.Empty() {
		o.Platforms, o.Sentiments, o.MediaTypes, o.Locations = []string{}, []string{}, []string{}, []string{}
		return o
	}
	o.Platforms = distinct(ds, func(r dataset.Record) string { return r.Platform })
	o.Sentiments = distinct(ds, func(r dataset.Record) string { return r.Sentiment })
	o.MediaTypes = distinct(ds, func(r dataset.Record) string { return r.MediaType })
	o.Locations = distinct(ds, func(r dataset.Record) string { return r.Location })
	o.MinDate, o.MaxDate, _ = ds.Bounds()
	return o
}

func distinct(ds *dataset.Dataset, field func(dataset.Record) string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range ds.Records {
		v := field(r)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Expand replaces a selection containing SelectAll with every available value.
// Other selections are returned unchanged, including nil.
func Expand(selection, available []string) []string {
	for _, v := range selection {
		if v == SelectAll {
			out := make([]string, len(available))
			copy(out, available)
			return out
		}
	}
	return selection
}

// Resolve expands SelectAll in every dimension of c against the options of ds.
func Resolve(c Criteria, ds *dataset.Dataset) Criteria {
	o := OptionsFor(ds)
	c.Platforms = Expand(c.Platforms, o.Platforms)
	c.Sentiments = Expand(c.Sentiments, o.Sentiments)
	c.MediaTypes = Expand(c.MediaTypes, o.MediaTypes)
	c.Locations = Expand(c.Locations, o.Locations)
	return c
}
