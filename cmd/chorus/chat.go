package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/chorushq/chorus/providers/ai"
	"github.com/chorushq/chorus/providers/ai/factory"
)

const (
	dim   = "\x1b[2m"
	reset = "\x1b[0m"
)

const chatLongDesc = `Stream one chat turn to stdout.

Thinking (when the provider surfaces it) is printed dimmed ahead of the
answer. Without --provider the first configured provider is used.

Examples:
  chorus chat -m "What broke in the 1.25 release?"
  chorus chat -p grok -m "What happened today?"
  chorus chat -p gemini -s "Answer in one sentence" -m "Why is the sky blue?"`

func newChatCmd() *cobra.Command {
	var (
		providerType string
		message      string
		system       string
		maxTokens    int
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Stream one chat turn to stdout",
		Long:  chatLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("nothing to send: pass -m")
			}

			configPath, _ := cmd.Flags().GetString("config")
			configs, err := loadProviderConfigs(configPath)
			if err != nil {
				return err
			}
			if len(configs) == 0 {
				return fmt.Errorf("no providers configured: create a chorus.yaml or set CHORUS_*_API_KEY")
			}

			registry := ai.NewRegistry()
			providers, buildErr := factory.CreateAndRegisterProviders(registry, configs)
			if buildErr != nil {
				slog.Warn("some providers failed to initialize", "error", buildErr)
			}
			if len(providers) == 0 {
				return fmt.Errorf("no provider could be initialized")
			}

			chosen := providers[0].Type()
			if providerType != "" {
				chosen = ai.ProviderType(providerType)
			}
			provider, exists := registry.Get(chosen)
			if !exists {
				return fmt.Errorf("provider %q is not configured", chosen)
			}

			var messages []ai.Message
			if system != "" {
				messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: system})
			}
			messages = append(messages, ai.Message{Role: ai.RoleUser, Content: message})

			var options *ai.StreamOptions
			if maxTokens > 0 {
				options = &ai.StreamOptions{MaxTokens: maxTokens}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return streamToStdout(ctx, provider, messages, options)
		},
	}

	cmd.Flags().StringVarP(&providerType, "provider", "p", "", "provider type (openai, gemini, grok, openrouter, openai_compat)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "the user message to send")
	cmd.Flags().StringVarP(&system, "system", "s", "", "optional system prompt")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "cap the completion length (0 leaves the vendor default)")

	return cmd
}

// streamToStdout drains one chat stream, printing thinking dimmed and
// content as-is. A ctrl-C surfaces as an aborted error and exits cleanly.
func streamToStdout(ctx context.Context, provider ai.Provider, messages []ai.Message, options *ai.StreamOptions) error {
	stream, err := provider.StreamChat(ctx, messages, options)
	if err != nil {
		return err
	}

	var (
		usage    *ai.Usage
		finish   *ai.FinishReason
		sources  []ai.SearchResult
		thinking bool
	)
	for chunk, chunkErr := range stream.Iter() {
		if chunkErr != nil {
			var providerErr *ai.ProviderError
			if errors.As(chunkErr, &providerErr) && providerErr.Type == ai.ErrorTypeAborted {
				fmt.Printf("%s\n%sinterrupted%s\n", reset, dim, reset)
				return nil
			}
			fmt.Println(reset)
			return chunkErr
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		if delta.Thinking != "" {
			if !thinking {
				fmt.Print(dim)
				thinking = true
			}
			fmt.Print(delta.Thinking)
		}
		if delta.Content != "" {
			if thinking {
				fmt.Print(reset + "\n\n")
				thinking = false
			}
			fmt.Print(delta.Content)
		}

		if chunk.Choices[0].FinishReason != nil {
			finish = chunk.Choices[0].FinishReason
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		if chunk.Metadata != nil && len(chunk.Metadata.SearchResults) > 0 {
			sources = chunk.Metadata.SearchResults
		}
	}
	if thinking {
		fmt.Print(reset)
	}
	fmt.Println()

	if len(sources) > 0 {
		printSources(sources)
	}
	if usage != nil {
		line := fmt.Sprintf("%d prompt + %d completion = %d tokens", usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
		if finish != nil && finish.Early() {
			line += fmt.Sprintf(", finished early: %s", *finish)
		}
		fmt.Fprintf(os.Stderr, "%s%s%s\n", dim, line, reset)
	}
	return nil
}

func printSources(results []ai.SearchResult) {
	fmt.Printf("\n%ssources:%s\n", dim, reset)
	for _, result := range results {
		if result.Title != "" {
			fmt.Printf("  %s (%s)\n", result.Title, result.URL)
			continue
		}
		fmt.Printf("  %s\n", result.URL)
	}
}
