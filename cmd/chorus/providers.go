package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chorushq/chorus/providers/ai/factory"
)

const providersLongDesc = `List the configured providers and their capabilities.

Providers come from a chorus.yaml config file or CHORUS_* environment
variables; entries that fail to initialize are reported but do not hide
the rest.`

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List configured providers and their capabilities",
		Long:  providersLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			configs, err := loadProviderConfigs(configPath)
			if err != nil {
				return err
			}

			providers, buildErr := factory.CreateProviders(configs)
			if buildErr != nil {
				slog.Warn("some providers failed to initialize", "error", buildErr)
			}
			if len(providers) == 0 {
				fmt.Println("no providers configured")
				fmt.Printf("supported types: %s\n", supportedTypeList())
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "TYPE\tNAME\tREASONING\tSEARCH\tCONTEXT\tMODELS")
			for _, provider := range providers {
				capabilities := provider.Capabilities()
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%d\t%s\n",
					provider.Type(),
					provider.Name(),
					yesNo(capabilities.Reasoning),
					yesNo(capabilities.Search),
					capabilities.MaxContextTokens,
					strings.Join(capabilities.ModelIDs(), ", "),
				)
			}
			return writer.Flush()
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func supportedTypeList() string {
	types := factory.SupportedTypes()
	names := make([]string, len(types))
	for i, providerType := range types {
		names[i] = string(providerType)
	}
	return strings.Join(names, ", ")
}
