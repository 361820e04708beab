// Package filter selects the records of a dataset that satisfy a set of optional predicates.
package filter

import (
	"time"

	"github.com/KaramelBytes/mediaintel-cli/internal/dataset"
)

// SelectAll is the token that expands to every available value of a dimension.
const SelectAll = "*"

// Criteria is a conjunction of optional predicates.
//
// A nil slice leaves its dimension unrestricted. A non-nil empty slice restricts the
// dimension to the empty set and so matches nothing. Start and End are inclusive and
// compared on the calendar date only; either may be nil for an open bound.
type Criteria struct {
	Start      *time.Time `json:"start,omitempty"`
	End        *time.Time `json:"end,omitempty"`
	Platforms  []string   `json:"platforms"`
	Sentiments []string   `json:"sentiments"`
	MediaTypes []string   `json:"media_types"`
	Locations  []string   `json:"locations"`
}

// IsZero reports whether no predicate is active.
func (c Criteria) IsZero() bool {
	return c.Start == nil && c.End == nil &&
		c.Platforms == nil && c.Sentiments == nil && c.MediaTypes == nil && c.Locations == nil
}

// Apply returns the records of ds that satisfy every active predicate, in input order.
// It never mutates ds.
func Apply(ds *dataset.Dataset, c Criteria) *dataset.Dataset {
	if ds == nil {
		return &dataset.Dataset{Records: []dataset.Record{}}
	}
	m := newMatcher(c)
	out := make([]dataset.Record, 0, len(ds.Records))
	for _, r := range ds.Records {
		if m.match(r) {
			out = append(out, r)
		}
	}
	return ds.Subset(out)
}

type matcher struct {
	start, end *time.Time
	platforms  set
	sentiments set
	mediaTypes set
	locations  set
}

// set is nil when its dimension is unrestricted.
type set map[string]struct{}

func newSet(values []string) set {
	if values == nil {
		return nil
	}
	s := make(set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s set) allows(v string) bool {
	if s == nil {
		return true
	}
	_, ok := s[v]
	return ok
}

func newMatcher(c Criteria) matcher {
	m := matcher{
		platforms:  newSet(c.Platforms),
		sentiments: newSet(c.Sentiments),
		mediaTypes: newSet(c.MediaTypes),
		locations:  newSet(c.Locations),
	}
	if c.Start != nil {
		d := dataset.Day(*c.Start)
		m.start = &d
	}
	if c.End != nil {
		d := dataset.Day(*c.End)
		m.end = &d
	}
	return m
}

func (m matcher) match(r dataset.Record) bool {
	d := dataset.Day(r.Date)
	if m.start != nil && d.Before(*m.start) {
		return false
	}
	if m.end != nil && d.After(*m.end) {
		return false
	}
	return m.platforms.allows(r.Platform) &&
		m.sentiments.allows(r.Sentiment) &&
		m.mediaTypes.allows(r.MediaType) &&
		m.locations.allows(r.Location)
}
