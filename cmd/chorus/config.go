package main

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/viper"

	"github.com/chorushq/chorus/providers/ai"
)

// loadProviderConfigs reads the declarative provider list. A chorus.yaml
// holds tagged provider entries; when no file names any, well-known CHORUS_*
// variables synthesize single-provider configs so the CLI works with nothing
// but a .env.
//
// Precedence, highest first: environment, config file, built-in defaults.
func loadProviderConfigs(configPath string) ([]ai.ProviderConfig, error) {
	v := viper.New()
	v.SetConfigName("chorus")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/chorus")
	}

	setDefaults(v)
	v.SetEnvPrefix("CHORUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, the environment can still carry keys.
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if entries, ok := v.Get("providers").([]any); ok && len(entries) > 0 {
		return decodeProviderEntries(entries)
	}
	return envProviderConfigs(v), nil
}

// decodeProviderEntries routes each raw YAML map through the tagged-union
// decoder, so the file format matches the JSON config format exactly.
func decodeProviderEntries(entries []any) ([]ai.ProviderConfig, error) {
	configs := make([]ai.ProviderConfig, 0, len(entries))
	for i, entry := range entries {
		raw, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("provider entry %d: %w", i, err)
		}
		config, err := ai.UnmarshalConfig(raw)
		if err != nil {
			return nil, fmt.Errorf("provider entry %d: %w", i, err)
		}
		configs = append(configs, config)
	}
	return configs, nil
}

// envProviderConfigs builds one config per vendor whose API key is present
// in the environment.
func envProviderConfigs(v *viper.Viper) []ai.ProviderConfig {
	var configs []ai.ProviderConfig
	if key := v.GetString("openai_api_key"); key != "" {
		configs = append(configs, ai.OpenAIConfig{
			APIKey:           key,
			Model:            v.GetString("openai_model"),
			ReasoningSummary: v.GetString("openai_reasoning_summary"),
		})
	}
	if key := v.GetString("gemini_api_key"); key != "" {
		configs = append(configs, ai.GeminiConfig{
			APIKey:          key,
			Model:           v.GetString("gemini_model"),
			IncludeThoughts: v.GetBool("gemini_include_thoughts"),
		})
	}
	if key := v.GetString("grok_api_key"); key != "" {
		configs = append(configs, ai.GrokConfig{
			APIKey: key,
			Model:  v.GetString("grok_model"),
		})
	}
	if key := v.GetString("openrouter_api_key"); key != "" {
		configs = append(configs, ai.OpenRouterConfig{
			APIKey: key,
			Model:  v.GetString("openrouter_model"),
		})
	}
	return configs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("openai_model", "gpt-5-mini")
	v.SetDefault("openai_reasoning_summary", "auto")
	v.SetDefault("gemini_model", "gemini-2.5-flash")
	v.SetDefault("gemini_include_thoughts", true)
	v.SetDefault("grok_model", "grok-4")
	v.SetDefault("openrouter_model", "openai/gpt-5-mini")
}
