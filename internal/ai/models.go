package ai

import "sort"

// Model metadata and simple pricing helpers for dry-run estimates.
// Prices are illustrative.

type ModelInfo struct {
	Name          string
	ContextTokens int     // approximate context window
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
}

var models = map[string]ModelInfo{
	// OpenRouter names
	"google/gemini-2.0-flash-001":         {Name: "google/gemini-2.0-flash-001", ContextTokens: 1048576, InputPerK: 0.0001, OutputPerK: 0.0004},
	"mistralai/mistral-7b-instruct":       {Name: "mistralai/mistral-7b-instruct", ContextTokens: 32768, InputPerK: 0.000028, OutputPerK: 0.000054},
	"meta-llama/llama-3.3-8b-instruct":    {Name: "meta-llama/llama-3.3-8b-instruct", ContextTokens: 128000},
	"meta-llama/llama-3.3-70b-instruct":   {Name: "meta-llama/llama-3.3-70b-instruct", ContextTokens: 131072, InputPerK: 0.00013, OutputPerK: 0.0004},
	"openai/gpt-4o-mini":                  {Name: "openai/gpt-4o-mini", ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
	"anthropic/claude-3.5-haiku":          {Name: "anthropic/claude-3.5-haiku", ContextTokens: 200000, InputPerK: 0.0008, OutputPerK: 0.004},
	"deepseek/deepseek-chat-v3-0324:free": {Name: "deepseek/deepseek-chat-v3-0324:free", ContextTokens: 163840},
	// Native SDK names
	"gemini-2.0-flash": {Name: "gemini-2.0-flash", ContextTokens: 1048576, InputPerK: 0.0001, OutputPerK: 0.0004},
	"gemini-2.5-flash": {Name: "gemini-2.5-flash", ContextTokens: 1048576, InputPerK: 0.0003, OutputPerK: 0.0025},
	"claude-haiku-4-5": {Name: "claude-haiku-4-5", ContextTokens: 200000, InputPerK: 0.001, OutputPerK: 0.005},
	"gpt-4o-mini":      {Name: "gpt-4o-mini", ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
	// Common local (Ollama) tags
	"llama3.1:8b":         {Name: "llama3.1:8b", ContextTokens: 8192},
	"mistral:7b-instruct": {Name: "mistral:7b-instruct", ContextTokens: 8192},
	"gemma2:9b":           {Name: "gemma2:9b", ContextTokens: 8192},
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	inCost := (float64(promptTokens) / 1000.0) * mi.InputPerK
	outCost := (float64(completionTokens) / 1000.0) * mi.OutputPerK
	return inCost + outCost, true
}

// Catalog returns the known models sorted by name.
func Catalog() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, v := range models {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
