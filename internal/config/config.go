package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/mediaintel-cli/internal/ai"
)

// Global configuration structure.
type Global struct {
	Provider      string            `mapstructure:"provider" yaml:"provider"`
	Model         string            `mapstructure:"model" yaml:"model"`
	PersonaModels map[string]string `mapstructure:"persona_models" yaml:"persona_models,omitempty"`
	MaxTokens     int               `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature   float64           `mapstructure:"temperature" yaml:"temperature"`

	// Credentials, one per hosted provider. APIKey is the OpenRouter key.
	APIKey          string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	GeminiAPIKey    string `mapstructure:"gemini_api_key" yaml:"gemini_api_key,omitempty"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key" yaml:"anthropic_api_key,omitempty"`
	OpenAIAPIKey    string `mapstructure:"openai_api_key" yaml:"openai_api_key,omitempty"`
	BaseURL         string `mapstructure:"base_url" yaml:"base_url,omitempty"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`

	// HTTP server
	ServerAddr     string   `mapstructure:"server_addr" yaml:"server_addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	MaxUploadMB    int      `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

const dirName = ".mediaintel"

func defaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.mediaintel/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := defaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from .env, environment, config file and defaults.
// Precedence: env > config file > defaults. A .env file in the working directory
// is loaded first and never overrides variables that are already set.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("MEDIAINTEL")
	v.AutomaticEnv()
	// Vendor variable names are honoured as fallbacks.
	_ = v.BindEnv("api_key", "MEDIAINTEL_API_KEY", "OPENROUTER_API_KEY")
	_ = v.BindEnv("gemini_api_key", "MEDIAINTEL_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	_ = v.BindEnv("anthropic_api_key", "MEDIAINTEL_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("openai_api_key", "MEDIAINTEL_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("ollama_host", "MEDIAINTEL_OLLAMA_HOST", "OLLAMA_HOST")

	v.SetDefault("provider", ai.ProviderOpenRouter)
	v.SetDefault("model", "")
	v.SetDefault("max_tokens", 1024)
	v.SetDefault("temperature", 0.7)
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("max_upload_mb", 20)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, dirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Provider = NormalizeProvider(c.Provider)
	return &c, nil
}

// NormalizeProvider maps aliases to registered provider names. Unknown values are returned lowercased.
func NormalizeProvider(p string) string {
	switch s := strings.ToLower(strings.TrimSpace(p)); s {
	case "", ai.ProviderOpenRouter:
		return ai.ProviderOpenRouter
	case "local", ai.ProviderOllama:
		return ai.ProviderOllama
	case "google", ai.ProviderGemini:
		return ai.ProviderGemini
	case "claude", ai.ProviderAnthropic:
		return ai.ProviderAnthropic
	case ai.ProviderOpenAI:
		return ai.ProviderOpenAI
	default:
		return s
	}
}

// ProviderKey returns the credential for the selected provider.
func (c *Global) ProviderKey() string {
	switch c.Provider {
	case ai.ProviderGemini:
		return c.GeminiAPIKey
	case ai.ProviderAnthropic:
		return c.AnthropicAPIKey
	case ai.ProviderOpenAI:
		return c.OpenAIAPIKey
	case ai.ProviderOllama:
		return ""
	}
	return c.APIKey
}

// EffectiveModel returns the configured model or the provider default.
func (c *Global) EffectiveModel() string {
	if c.Model != "" {
		return c.Model
	}
	return ai.DefaultModel(c.Provider)
}

// RuntimeConfig maps the configuration onto ai.RuntimeConfig.
func (c *Global) RuntimeConfig() ai.RuntimeConfig {
	return ai.RuntimeConfig{
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      c.ProviderKey(),
		BaseURL:     c.BaseURL,
		Host:        c.OllamaHost,
	}
}

// Generator builds the text-generation adapter for the selected provider.
func (c *Global) Generator() (*ai.Generator, error) {
	rt, err := ai.NewRuntime(c.Provider, c.RuntimeConfig())
	if err != nil {
		return nil, err
	}
	return &ai.Generator{
		Runtime:       rt,
		Provider:      c.Provider,
		Model:         c.EffectiveModel(),
		MaxTokens:     c.MaxTokens,
		Temperature:   c.Temperature,
		PersonaModels: c.PersonaModels,
	}, nil
}

// Keys lists the settable scalar keys in display order.
var Keys = []string{
	"provider", "model", "max_tokens", "temperature",
	"api_key", "gemini_api_key", "anthropic_api_key", "openai_api_key", "base_url",
	"http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms",
	"ollama_host", "server_addr", "allowed_origins", "max_upload_mb",
}

// Set assigns one key from its string form. persona_models.<persona> routes a persona to a model.
func (c *Global) Set(key, val string) error {
	if p, ok := strings.CutPrefix(key, "persona_models."); ok {
		if c.PersonaModels == nil {
			c.PersonaModels = map[string]string{}
		}
		if val == "" {
			delete(c.PersonaModels, p)
		} else {
			c.PersonaModels[p] = val
		}
		return nil
	}
	intVal := func(dst *int, min int) error {
		i, err := strconv.Atoi(val)
		if err != nil || i < min {
			return fmt.Errorf("invalid int for %s: %q", key, val)
		}
		*dst = i
		return nil
	}
	switch key {
	case "provider":
		p := NormalizeProvider(val)
		if !slices.Contains(ai.Providers(), p) {
			return fmt.Errorf("invalid provider: %s (use %s)", val, strings.Join(ai.Providers(), "|"))
		}
		c.Provider = p
	case "model":
		c.Model = val
	case "max_tokens":
		return intVal(&c.MaxTokens, 1)
	case "temperature":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("invalid float for temperature: %q", val)
		}
		c.Temperature = f
	case "api_key":
		c.APIKey = val
	case "gemini_api_key":
		c.GeminiAPIKey = val
	case "anthropic_api_key":
		c.AnthropicAPIKey = val
	case "openai_api_key":
		c.OpenAIAPIKey = val
	case "base_url":
		c.BaseURL = val
	case "http_timeout_sec":
		return intVal(&c.HTTPTimeoutSec, 1)
	case "retry_max_attempts":
		return intVal(&c.RetryMaxAttempts, 1)
	case "retry_base_delay_ms":
		return intVal(&c.RetryBaseDelayMs, 0)
	case "retry_max_delay_ms":
		return intVal(&c.RetryMaxDelayMs, 0)
	case "ollama_host":
		c.OllamaHost = val
	case "server_addr":
		c.ServerAddr = val
	case "allowed_origins":
		c.AllowedOrigins = nil
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	case "max_upload_mb":
		return intVal(&c.MaxUploadMB, 1)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// Mask hides all but the edges of a secret.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
