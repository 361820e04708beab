// Package views turns a filtered dataset into chart-ready summary tables.
package views

import (
	"fmt"
	"strings"
	"time"
)

// ChartKey identifies one of the five aggregation views.
type ChartKey string

const (
	Sentiment ChartKey = "sentiment"
	Trend     ChartKey = "trend"
	Platform  ChartKey = "platform"
	MediaType ChartKey = "mediaType"
	Location  ChartKey = "location"
)

// Keys lists every chart in display order.
var Keys = []ChartKey{Sentiment, Trend, Platform, MediaType, Location}

var titles = map[ChartKey]string{
	Sentiment: "Sentiment Analysis",
	Trend:     "Engagement Trend",
	Platform:  "Engagement per Platform",
	MediaType: "Media Type Distribution",
	Location:  "Top 5 Locations",
}

// Title returns the display title of a chart.
func (k ChartKey) Title() string {
	if t, ok := titles[k]; ok {
		return t
	}
	return string(k)
}

// Valid reports whether k names one of the five views.
func (k ChartKey) Valid() bool {
	_, ok := titles[k]
	return ok
}

// ParseKey resolves a chart key case-insensitively; "media_type" and "media-type" are accepted.
func ParseKey(s string) (ChartKey, error) {
	n := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(s)))
	for _, k := range Keys {
		if strings.ToLower(string(k)) == n {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown chart %q (use sentiment|trend|platform|mediaType|location)", s)
}

// Point is one aggregated value. Trend points carry Date; the others carry Category.
type Point struct {
	Category string    `json:"category,omitempty"`
	Date     time.Time `json:"date,omitzero"`
	Value    int64     `json:"value"`
}

// ChartResult is the output of one view over a dataset of Rows records.
// A result computed from zero rows is empty and has no points.
type ChartResult struct {
	Key    ChartKey `json:"key"`
	Points []Point  `json:"points"`
	Rows   int      `json:"rows"`
}

// Empty reports whether the result was computed from an empty dataset.
func (c ChartResult) Empty() bool { return c.Rows == 0 }

// Total sums the values of all points.
func (c ChartResult) Total() int64 {
	var t int64
	for _, p := range c.Points {
		t += p.Value
	}
	return t
}
