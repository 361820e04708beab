package ai

import (
	"context"
	"errors"
	"strings"
)

// Generator adapts a Runtime to the single-prompt text-generation contract used by
// the insight service. Every failure, including an empty answer, is returned as a
// *ServiceError.
type Generator struct {
	Runtime     Runtime
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	// PersonaModels optionally routes a persona to a different model.
	PersonaModels map[string]string
}

// ModelFor returns the model used for persona.
func (g *Generator) ModelFor(persona string) string {
	if m := g.PersonaModels[persona]; m != "" {
		return m
	}
	if g.Model != "" {
		return g.Model
	}
	return DefaultModel(g.Provider)
}

// Generate sends prompt as a single user turn and returns the trimmed answer.
func (g *Generator) Generate(ctx context.Context, prompt, persona string) (string, error) {
	if g == nil || g.Runtime == nil {
		return "", &ServiceError{Err: errors.New("no text generation runtime configured")}
	}
	resp, err := g.Runtime.Generate(ctx, GenerateRequest{
		Model:       g.ModelFor(persona),
		Messages:    []Message{{Role: "user", Content: prompt}},
		MaxTokens:   g.MaxTokens,
		Temperature: g.Temperature,
	})
	if err != nil {
		return "", &ServiceError{Provider: g.Provider, Err: err}
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &ServiceError{Provider: g.Provider, Err: ErrEmptyResponse}
	}
	return text, nil
}
