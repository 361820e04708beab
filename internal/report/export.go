package report

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/mediaintel-cli/internal/utils"
)

// Format selects the export encoding.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// ParseFormat accepts md, markdown and json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported report format %q (use md|json)", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// Encode renders r in format f.
func (r *Report) Encode(f Format) ([]byte, error) {
	if f == FormatJSON {
		return utils.PrettyJSON(r)
	}
	return []byte(r.Markdown()), nil
}

// Markdown renders the report as a Markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Media Intelligence Report\n\n")
	fmt.Fprintf(&b, "- Generated: %s\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"))
	if r.Source != "" {
		fmt.Fprintf(&b, "- Source: %s\n", r.Source)
	}
	fmt.Fprintf(&b, "- Rows: %d", r.Rows)
	if r.Skipped > 0 {
		fmt.Fprintf(&b, " (%d rows skipped)", r.Skipped)
	}
	b.WriteString("\n")
	if f := describeCriteria(r); f != "" {
		fmt.Fprintf(&b, "- Filters: %s\n", f)
	}
	b.WriteString("\n## Campaign Strategy Summary\n\n")
	b.WriteString(r.Summary)
	b.WriteString("\n\n## Content Idea\n\n")
	b.WriteString(r.PostIdea)
	b.WriteString("\n\n## Charts\n")
	for _, c := range r.Charts {
		b.WriteString("\n")
		if c.Error != "" {
			fmt.Fprintf(&b, "### %s\n\n_Chart could not be exported: %s_\n", c.Title, c.Error)
		} else {
			b.WriteString(c.Body)
		}
		b.WriteString("\n")
		for _, e := range c.Insights {
			fmt.Fprintf(&b, "**%s**\n\n%s\n\n", e.Label, e.Text)
		}
	}
	return b.String()
}

func describeCriteria(r *Report) string {
	c := r.Criteria
	var parts []string
	if c.Start != nil {
		parts = append(parts, "from "+c.Start.Format("2006-01-02"))
	}
	if c.End != nil {
		parts = append(parts, "to "+c.End.Format("2006-01-02"))
	}
	add := func(name string, vals []string) {
		if vals != nil {
			parts = append(parts, fmt.Sprintf("%s=[%s]", name, strings.Join(vals, ", ")))
		}
	}
	add("platform", c.Platforms)
	add("sentiment", c.Sentiments)
	add("media type", c.MediaTypes)
	add("location", c.Locations)
	return strings.Join(parts, "; ")
}
