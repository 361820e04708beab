package views

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/mediaintel-cli/internal/dataset"
)

// SentimentBreakdown counts records per sentiment in first-seen order.
func SentimentBreakdown(ds *dataset.Dataset) ChartResult { return aggregate(ds, viewDefs[Sentiment]) }

// EngagementTrend sums engagements per calendar day, ascending by date.
func EngagementTrend(ds *dataset.Dataset) ChartResult { return aggregate(ds, viewDefs[Trend]) }

// PlatformEngagement sums engagements per platform and keeps the ten largest.
// Ties keep first-seen order.
func PlatformEngagement(ds *dataset.Dataset) ChartResult { return aggregate(ds, viewDefs[Platform]) }

// MediaTypeMix counts records per media type in first-seen order.
func MediaTypeMix(ds *dataset.Dataset) ChartResult { return aggregate(ds, viewDefs[MediaType]) }

// TopLocations sums engagements per location and keeps the five largest.
func TopLocations(ds *dataset.Dataset) ChartResult { return aggregate(ds, viewDefs[Location]) }

// Compute runs the view named by key.
func Compute(ds *dataset.Dataset, key ChartKey) (ChartResult, error) {
	s, ok := viewDefs[key]
	if !ok {
		return ChartResult{}, fmt.Errorf("unknown chart %q", key)
	}
	return aggregate(ds, s), nil
}

// All computes every view in Keys order.
func All(ds *dataset.Dataset) []ChartResult {
	out := make([]ChartResult, 0, len(Keys))
	for _, k := range Keys {
		out = append(out, aggregate(ds, viewDefs[k]))
	}
	return out
}

func parseDateKey(s string) (time.Time, error) {
	return time.ParseInLocation(dateKey, s, time.UTC)
}
