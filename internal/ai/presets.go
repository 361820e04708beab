package ai

// DefaultModel returns the model used when none is configured for provider.
// An empty provider means OpenRouter.
func DefaultModel(provider string) string {
	switch provider {
	case "", ProviderOpenRouter:
		return "google/gemini-2.0-flash-001"
	case ProviderGemini:
		return "gemini-2.0-flash"
	case ProviderAnthropic:
		return "claude-haiku-4-5"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderOllama:
		return "llama3.1:8b"
	}
	return ""
}

// RecommendModel returns a recommended model name for a given tier and provider.
// If provider is empty, defaults to "openrouter". Tiers: cheap|balanced.
func RecommendModel(provider, tier string) (string, bool) {
	if provider == "" {
		provider = ProviderOpenRouter
	}
	switch tier {
	case "cheap":
		switch provider {
		case ProviderOpenRouter:
			return "deepseek/deepseek-chat-v3-0324:free", true
		case ProviderGemini:
			return "gemini-2.0-flash", true
		case ProviderAnthropic:
			return "claude-haiku-4-5", true
		case ProviderOpenAI:
			return "gpt-4o-mini", true
		case ProviderOllama:
			return "mistral:7b-instruct", true
		}
	case "balanced":
		switch provider {
		case ProviderOpenRouter:
			return "meta-llama/llama-3.3-70b-instruct", true
		case ProviderGemini:
			return "gemini-2.5-flash", true
		case ProviderAnthropic:
			return "claude-haiku-4-5", true
		case ProviderOpenAI:
			return "gpt-4o-mini", true
		case ProviderOllama:
			return "llama3.1:8b", true
		}
	}
	return "", false
}
