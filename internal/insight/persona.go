// Package insight builds prompts for the text-generation collaborator and turns its
// answers, or its failures, into user-facing insight text.
package insight

import "strings"

// Persona is a fixed answer style. Alias is the model-like name the style was
// first offered under and is accepted wherever an ID is.
type Persona struct {
	ID          string `json:"id"`
	Alias       string `json:"alias"`
	Label       string `json:"label"`
	Instruction string `json:"instruction"`
}

const (
	Critical     = "critical"
	Creative     = "creative"
	Quantitative = "quantitative"
)

var personas = []Persona{
	{
		ID:    Critical,
		Alias: "gemini-2.0-flash",
		Label: "Critical analyst",
		Instruction: "You are a highly critical and skeptical media analyst. Focus on potential risks, " +
			"weaknesses in the data, and unexpected anomalies. Give 3 sharp observations.",
	},
	{
		ID:    Creative,
		Alias: "Mistral 7B Instruct",
		Label: "Creative strategist",
		Instruction: "You are a creative and visionary branding strategist. See this data as a canvas. " +
			"Give 3 innovative, out-of-the-box campaign or content ideas based on the trends present.",
	},
	{
		ID:    Quantitative,
		Alias: "llama-3.3-8b-instruct",
		Label: "Quantitative expert",
		Instruction: "You are a highly quantitative, to-the-point data expert. Give 3 actionable conclusions " +
			"directly supported by the numbers in the data. Cite specific figures where possible.",
	},
}

// Default is used for any persona identifier that is not recognized.
var Default = Persona{
	ID:          "default",
	Label:       "Assistant",
	Instruction: "You are an AI assistant. Give 3 insights from the following data.",
}

// Personas returns the enumerated personas in display order.
func Personas() []Persona {
	out := make([]Persona, len(personas))
	copy(out, personas)
	return out
}

// Lookup resolves an ID or alias case-insensitively. Unknown identifiers yield
// Default and ok=false.
func Lookup(id string) (Persona, bool) {
	id = strings.TrimSpace(id)
	for _, p := range personas {
		if strings.EqualFold(p.ID, id) || strings.EqualFold(p.Alias, id) {
			return p, true
		}
	}
	return Default, false
}

// Canonical maps id to the ID of the persona it resolves to.
func Canonical(id string) string {
	p, _ := Lookup(id)
	return p.ID
}
