package views

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Columns returns the label and value column names used when a chart is rendered as a table.
func (c ChartResult) Columns() (label, value string) {
	switch c.Key {
	case Sentiment:
		return "Sentiment", "count"
	case Trend:
		return "Date", "Engagements"
	case Platform:
		return "Platform", "Engagements"
	case MediaType:
		return "Media Type", "count"
	case Location:
		return "Location", "Engagements"
	}
	return "Category", "Value"
}

// Label returns the row label of p as rendered for chart c.
func (c ChartResult) Label(p Point) string {
	if c.Key == Trend {
		return p.Date.Format(dateKey)
	}
	return p.Category
}

// JSON renders the chart as an array of records, for example
// [{"Sentiment":"Positive","count":3}] or [{"Date":"2024-01-01","Engagements":15}].
// Keys keep table column order.
func (c ChartResult) JSON() string {
	label, value := c.Columns()
	lk, _ := json.Marshal(label)
	vk, _ := json.Marshal(value)
	var b bytes.Buffer
	b.WriteByte('[')
	for i, p := range c.Points {
		if i > 0 {
			b.WriteByte(',')
		}
		lv, _ := json.Marshal(c.Label(p))
		fmt.Fprintf(&b, "{%s:%s,%s:%d}", lk, lv, vk, p.Value)
	}
	b.WriteByte(']')
	return b.String()
}

// Markdown renders the chart as a titled Markdown table.
func (c ChartResult) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", c.Key.Title())
	if len(c.Points) == 0 {
		b.WriteString("_No data for the current filters._\n")
		return b.String()
	}
	label, value := c.Columns()
	fmt.Fprintf(&b, "| %s | %s |\n|---|---:|\n", label, value)
	for _, p := range c.Points {
		fmt.Fprintf(&b, "| %s | %d |\n", escapeCell(c.Label(p)), p.Value)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
