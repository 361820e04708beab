package ai

import "testing"

func TestDefaultModelCoversProviders(t *testing.T) {
	for _, p := range Providers() {
		name := DefaultModel(p)
		if name == "" {
			t.Fatalf("no default model for %s", p)
		}
		if _, ok := LookupModel(name); !ok {
			t.Fatalf("default model %q for %s missing from catalog", name, p)
		}
	}
	if DefaultModel("") != DefaultModel(ProviderOpenRouter) {
		t.Fatalf("empty provider should fall back to openrouter")
	}
}

func TestRecommendModel(t *testing.T) {
	if name, ok := RecommendModel("", "cheap"); !ok || name != "deepseek/deepseek-chat-v3-0324:free" {
		t.Fatalf("unexpected recommendation for openrouter/cheap: %s", name)
	}
	if name, ok := RecommendModel(ProviderGemini, "balanced"); !ok || name != "gemini-2.5-flash" {
		t.Fatalf("unexpected recommendation for gemini/balanced: %s", name)
	}
	if _, ok := RecommendModel("", "unknown"); ok {
		t.Fatalf("expected unknown tier to be false")
	}
}

func TestEstimateCostUSD(t *testing.T) {
	cost, ok := EstimateCostUSD("gpt-4o-mini", 1000, 1000)
	if !ok {
		t.Fatalf("expected known model")
	}
	if cost < 0.00074 || cost > 0.00076 {
		t.Fatalf("unexpected cost %f", cost)
	}
	if _, ok := EstimateCostUSD("nope", 1, 1); ok {
		t.Fatalf("unknown model should not be priced")
	}
}
