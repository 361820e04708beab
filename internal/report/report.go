// Package report assembles charts and generated insights into an exportable document.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/mediaintel-cli/internal/dataset"
	"github.com/KaramelBytes/mediaintel-cli/internal/filter"
	"github.com/KaramelBytes/mediaintel-cli/internal/insight"
	"github.com/KaramelBytes/mediaintel-cli/internal/views"
)

// Placeholder stands in for any insight that has not been generated.
const Placeholder = "No insight yet."

// Renderer turns a chart into its exported body (a Markdown table by default).
type Renderer func(views.ChartResult) (string, error)

// Input is everything a report may contain. Every field is optional.
type Input struct {
	Source   string
	Version  string
	Criteria filter.Criteria
	Dataset  *dataset.Dataset // filtered
	Skipped  int
	Insights []insight.Insight
	Summary  *insight.Insight
	PostIdea *insight.Insight
}

// Options customize Build.
type Options struct {
	Render   Renderer
	Personas []string
	Now      func() time.Time
}

type Report struct {
	ID          string          `json:"id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Source      string          `json:"source,omitempty"`
	Version     string          `json:"version,omitempty"`
	Rows        int             `json:"rows"`
	Skipped     int             `json:"skipped"`
	Criteria    filter.Criteria `json:"criteria"`
	Summary     string          `json:"campaign_summary"`
	PostIdea    string          `json:"post_idea"`
	Charts      []Chart         `json:"charts"`
}

type Chart struct {
	Key      views.ChartKey `json:"key"`
	Title    string         `json:"title"`
	Empty    bool           `json:"empty"`
	Body     string         `json:"body,omitempty"`
	Data     []views.Point  `json:"data"`
	Error    string         `json:"error,omitempty"`
	Insights []Entry        `json:"insights"`
}

// Entry is one persona's insight for a chart.
type Entry struct {
	Persona string `json:"persona"`
	Label   string `json:"label"`
	Text    string `json:"text"`
}

// Build computes the five charts over in.Dataset and attaches whatever insights exist.
// A chart whose renderer fails or panics carries an error note; the others are unaffected.
func Build(in Input, opts Options) *Report {
	if opts.Render == nil {
		opts.Render = func(c views.ChartResult) (string, error) { return c.Markdown(), nil }
	}
	if opts.Personas == nil {
		for _, p := range insight.Personas() {
			opts.Personas = append(opts.Personas, p.ID)
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &Report{
		ID:          uuid.NewString(),
		GeneratedAt: opts.Now().UTC(),
		Source:      in.Source,
		Version:     in.Version,
		Rows:        in.Dataset.Len(),
		Skipped:     in.Skipped,
		Criteria:    in.Criteria,
		Summary:     textOr(in.Summary),
		PostIdea:    textOr(in.PostIdea),
	}
	index := map[views.ChartKey]map[string]string{}
	for _, ins := range in.Insights {
		if ins.Kind != insight.KindChart && ins.Kind != "" {
			continue
		}
		if index[ins.Chart] == nil {
			index[ins.Chart] = map[string]string{}
		}
		index[ins.Chart][insight.Canonical(ins.Persona)] = ins.Text
	}
	for _, res := range views.All(in.Dataset) {
		c := Chart{Key: res.Key, Title: res.Key.Title(), Empty: res.Empty(), Data: res.Points}
		body, err := safeRender(opts.Render, res)
		if err != nil {
			c.Error = err.Error()
		} else {
			c.Body = body
		}
		for _, id := range opts.Personas {
			p, _ := insight.Lookup(id)
			text := index[res.Key][p.ID]
			if text == "" {
				text = Placeholder
			}
			c.Insights = append(c.Insights, Entry{Persona: p.ID, Label: p.Label, Text: text})
		}
		r.Charts = append(r.Charts, c)
	}
	return r
}

func textOr(in *insight.Insight) string {
	if in == nil || in.Text == "" {
		return Placeholder
	}
	return in.Text
}

func safeRender(render Renderer, res views.ChartResult) (body string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("render %s: %v", res.Key, rec)
		}
	}()
	body, err = render(res)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", res.Key, err)
	}
	return body, nil
}
