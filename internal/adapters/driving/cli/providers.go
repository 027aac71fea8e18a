package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered providers",
	Long:  `Lists every registered provider and the item categories it serves.`,
	RunE:  runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if registryService == nil {
		return errors.New("provider registry not configured")
	}

	providers := registryService.List()
	if len(providers) == 0 {
		cmd.Println("No providers registered. Enable providers in config.toml.")
		return nil
	}

	cmd.Printf("%d providers:\n\n", len(providers))
	for _, p := range providers {
		cats := make([]string, 0, len(p.Categories()))
		for _, c := range p.Categories() {
			cats = append(cats, string(c))
		}
		cmd.Printf("  %s\n", titleStyle.Render(p.Name()))
		cmd.Printf("      %s\n", metaStyle.Render(strings.Join(cats, ", ")))
	}
	return nil
}
