package insight

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/mediaintel-cli/internal/views"
)

var topics = map[views.ChartKey]string{
	views.Sentiment: "sentiment distribution",
	views.Trend:     "engagement trend",
	views.Platform:  "engagement per platform",
	views.MediaType: "media type distribution",
	views.Location:  "engagement per location",
}

// Topic returns the human-readable subject of a chart, or "data" for an unknown key.
func Topic(key views.ChartKey) string {
	if t, ok := topics[key]; ok {
		return t
	}
	return "data"
}

// BuildChartPrompt combines the persona instruction, the chart topic and the
// serialized chart data into one prompt.
func BuildChartPrompt(key views.ChartKey, dataJSON, persona string) string {
	p, _ := Lookup(persona)
	return fmt.Sprintf("%s Analyze the data about %s: %s. Present the insights as a clear numbered list.",
		p.Instruction, Topic(key), dataJSON)
}

// BuildSummaryPrompt asks for an executive summary over descriptive statistics.
func BuildSummaryPrompt(statsJSON string) string {
	return fmt.Sprintf("Data: %s. Write an executive summary and 3 strategic recommendations.", statsJSON)
}

// BuildPostIdeaPrompt asks for one post idea targeting platform.
func BuildPostIdeaPrompt(platform string) string {
	return fmt.Sprintf("Create one post idea for the %s platform, including the visual and hashtags.", platform)
}

// Turn is one exchange in a consultant conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildConsultantPrompt frames a user question with the data summary and any prior turns.
func BuildConsultantPrompt(summary, question string, history []Turn) string {
	var b strings.Builder
	b.WriteString("You are an expert, friendly and professional AI media consultant.\n")
	b.WriteString("Your task is to answer the user's questions about media analysis, campaign strategy, or data interpretation.\n")
	b.WriteString("Use the following data summary as context where relevant:\n---\n")
	b.WriteString(summary)
	b.WriteString("\n---\n")
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, t := range history {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
		}
		b.WriteString("---\n")
	}
	fmt.Fprintf(&b, "Answer the following user question: %q\n", question)
	return b.String()
}
