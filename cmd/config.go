package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/mediaintel-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set mediaintel configuration",
}

var secretKeys = map[string]bool{
	"api_key": true, "gemini_api_key": true, "anthropic_api_key": true, "openai_api_key": true,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		values := map[string]string{
			"provider":            c.Provider,
			"model":               c.EffectiveModel(),
			"max_tokens":          fmt.Sprint(c.MaxTokens),
			"temperature":         fmt.Sprintf("%.3f", c.Temperature),
			"api_key":             c.APIKey,
			"gemini_api_key":      c.GeminiAPIKey,
			"anthropic_api_key":   c.AnthropicAPIKey,
			"openai_api_key":      c.OpenAIAPIKey,
			"base_url":            c.BaseURL,
			"http_timeout_sec":    fmt.Sprint(c.HTTPTimeoutSec),
			"retry_max_attempts":  fmt.Sprint(c.RetryMaxAttempts),
			"retry_base_delay_ms": fmt.Sprint(c.RetryBaseDelayMs),
			"retry_max_delay_ms":  fmt.Sprint(c.RetryMaxDelayMs),
			"ollama_host":         c.OllamaHost,
			"server_addr":         c.ServerAddr,
			"allowed_origins":     strings.Join(c.AllowedOrigins, ","),
			"max_upload_mb":       fmt.Sprint(c.MaxUploadMB),
		}
		for _, k := range cfgpkg.Keys {
			v := values[k]
			if v == "" {
				continue
			}
			if secretKeys[k] {
				v = cfgpkg.Mask(v)
			}
			fmt.Fprintf(out, "%s: %s\n", k, v)
		}
		personas := make([]string, 0, len(c.PersonaModels))
		for p := range c.PersonaModels {
			personas = append(personas, p)
		}
		sort.Strings(personas)
		for _, p := range personas {
			fmt.Fprintf(out, "persona_models.%s: %s\n", p, c.PersonaModels[p])
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: "Set a config value and save to disk. Keys: " + strings.Join(cfgpkg.Keys, ", ") +
		", persona_models.<persona>.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if err := c.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
