package dataset

import "time"

// NotAvailable fills categorical values that are absent from the upload.
const NotAvailable = "N/A"

// Canonical column names of an upload.
const (
	ColDate        = "Date"
	ColEngagements = "Engagements"
	ColSentiment   = "Sentiment"
	ColPlatform    = "Platform"
	ColMediaType   = "Media Type"
	ColLocation    = "Location"
	ColHeadline    = "Headline"
)

// CategoricalColumns lists the free-form string columns that are defaulted to NotAvailable.
var CategoricalColumns = []string{ColPlatform, ColSentiment, ColMediaType, ColLocation, ColHeadline}

// Record is one normalized media mention.
type Record struct {
	// Date is the calendar day of the mention (UTC midnight, time-of-day dropped).
	Date        time.Time `json:"date"`
	Engagements int64     `json:"engagements"`
	Platform    string    `json:"platform"`
	Sentiment   string    `json:"sentiment"`
	MediaType   string    `json:"media_type"`
	Location    string    `json:"location"`
	Headline    string    `json:"headline"`
}

// Dataset is an ordered collection of Records. Every Record has a valid Date and Engagements.
type Dataset struct {
	Source  string   `json:"source,omitempty"`
	Records []Record `json:"records"`
	// Skipped counts source rows dropped because Date or Engagements could not be parsed.
	Skipped int `json:"skipped"`
}

// Len returns the number of records; a nil Dataset has none.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Empty reports whether the dataset holds no records.
func (d *Dataset) Empty() bool { return d.Len() == 0 }

// Bounds returns the earliest and latest record dates. ok is false for an empty dataset.
func (d *Dataset) Bounds() (first, last time.Time, ok bool) {
	if d.Empty() {
		return time.Time{}, time.Time{}, false
	}
	first, last = d.Records[0].Date, d.Records[0].Date
	for _, r := range d.Records[1:] {
		if r.Date.Before(first) {
			first = r.Date
		}
		if r.Date.After(last) {
			last = r.Date
		}
	}
	return first, last, true
}

// Subset returns a new Dataset with the given records, keeping the source name.
func (d *Dataset) Subset(records []Record) *Dataset {
	out := &Dataset{Records: records}
	if d != nil {
		out.Source = d.Source
	}
	return out
}

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, dd := t.Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}
