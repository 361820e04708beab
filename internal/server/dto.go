package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/mediaintel-cli/internal/filter"
	"github.com/KaramelBytes/mediaintel-cli/internal/insight"
	"github.com/KaramelBytes/mediaintel-cli/internal/views"
)

// CriteriaRequest is the wire form of filter.Criteria. Dates are YYYY-MM-DD or RFC3339.
type CriteriaRequest struct {
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Platforms  []string `json:"platforms"`
	Sentiments []string `json:"sentiments"`
	MediaTypes []string `json:"media_types"`
	Locations  []string `json:"locations"`
}

func (r *CriteriaRequest) toCriteria() (filter.Criteria, error) {
	c := filter.Criteria{
		Platforms:  r.Platforms,
		Sentiments: r.Sentiments,
		MediaTypes: r.MediaTypes,
		Locations:  r.Locations,
	}
	var err error
	if c.Start, err = parseBound(r.Start); err != nil {
		return c, fmt.Errorf("start: %w", err)
	}
	if c.End, err = parseBound(r.End); err != nil {
		return c, fmt.Errorf("end: %w", err)
	}
	return c, nil
}

func parseBound(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
}

type ChartsRequest struct {
	Criteria *CriteriaRequest `json:"criteria"`
}

type InsightRequest struct {
	Chart    string           `json:"chart" binding:"required"`
	Persona  string           `json:"persona"`
	Criteria *CriteriaRequest `json:"criteria"`
}

type AskRequest struct {
	Question string         `json:"question" binding:"required"`
	History  []insight.Turn `json:"history"`
}

type UploadResponse struct {
	Source  string `json:"source"`
	Version string `json:"version"`
	Rows    int    `json:"rows"`
	Skipped int    `json:"skipped"`
}

type SessionResponse struct {
	Loaded       bool            `json:"loaded"`
	Source       string          `json:"source,omitempty"`
	Version      string          `json:"version,omitempty"`
	LoadedAt     string          `json:"loaded_at,omitempty"`
	Rows         int             `json:"rows"`
	Skipped      int             `json:"skipped"`
	FilteredRows int             `json:"filtered_rows"`
	Criteria     filter.Criteria `json:"criteria"`
	Insights     int             `json:"insights"`
}

type ChartsResponse struct {
	Version  string              `json:"version"`
	Rows     int                 `json:"rows"`
	Criteria filter.Criteria     `json:"criteria"`
	Charts   []views.ChartResult `json:"charts"`
}

type InsightsResponse struct {
	Version  string            `json:"version"`
	Insights []insight.Insight `json:"insights"`
}
