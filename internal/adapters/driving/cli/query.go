package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/crosswire-labs/intelstream/internal/core/domain"
)

var (
	queryCategory     string
	queryTarget       string
	queryMax          int
	queryTimeout      time.Duration
	querySince        time.Duration
	queryMinRelevance float64
	queryJSON         bool
	queryStream       bool
)

var queryCmd = &cobra.Command{
	Use:   "query [topics...]",
	Short: "Aggregate items across all matching providers",
	Long: `Runs one aggregation across every provider matching the query.
Items are deduplicated by source URL and returned in arrival order.
Provider failures are reported but never abort the run.`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryCategory, "category", "c", "", "restrict to one category (news, legislative-record, corporate-announcement, social)")
	queryCmd.Flags().StringVarP(&queryTarget, "target", "t", "", "narrow providers by target type (e.g. corporation)")
	queryCmd.Flags().IntVarP(&queryMax, "max", "n", 25, "maximum number of items")
	queryCmd.Flags().DurationVar(&queryTimeout, "timeout", 15*time.Second, "overall aggregation deadline")
	queryCmd.Flags().DurationVar(&querySince, "since", 0, "only items published within this window (e.g. 72h)")
	queryCmd.Flags().Float64Var(&queryMinRelevance, "min-relevance", 0, "drop scored items below this floor")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output items as JSON")
	queryCmd.Flags().BoolVar(&queryStream, "stream", false, "print items as they arrive")
	rootCmd.AddCommand(queryCmd)
}

func buildQuery(args []string) (domain.Query, error) {
	q := domain.Query{
		Topics:     args,
		TargetType: queryTarget,
		MaxItems:   queryMax,
		Timeout:    queryTimeout,
	}
	if queryCategory != "" {
		cat, err := domain.ParseCategory(queryCategory)
		if err != nil {
			return q, err
		}
		q.Category = cat
	}
	if querySince > 0 {
		q.Timeframe.From = time.Now().Add(-querySince)
	}
	return q, q.Validate()
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if aggregatorService == nil {
		return errors.New("aggregation service not configured")
	}

	q, err := buildQuery(args)
	if err != nil {
		return err
	}

	if queryStream {
		return streamQuery(cmd, q)
	}

	items, err := aggregatorService.Gather(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}
	items = applyRelevanceFloor(items, queryMinRelevance)

	if queryJSON {
		return outputItemsJSON(cmd, items)
	}
	return outputItemsTable(cmd, items)
}

// streamQuery prints each event as it arrives instead of waiting for
// the run to finish.
func streamQuery(cmd *cobra.Command, q domain.Query) error {
	events, err := aggregatorService.StreamEvents(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}

	for ev := range events {
		switch ev.Type {
		case domain.EventItem:
			if ev.Item.RelevanceScore != nil && queryMinRelevance > 0 && *ev.Item.RelevanceScore < queryMinRelevance {
				continue
			}
			cmd.Printf("%s  %-24s  %s\n", itemTimestamp(*ev.Item), ev.Item.Provider, ev.Item.Title)
			cmd.Printf("    %s\n", ev.Item.SourceURL)
		case domain.EventError:
			cmd.Printf("!  %s: %s\n", ev.Provider, ev.Message)
		case domain.EventComplete:
			cmd.Printf("done: %d items in %dms\n", ev.TotalYielded, ev.ElapsedMs)
		}
	}
	return nil
}

// applyRelevanceFloor drops scored items below the floor. Unscored
// items always pass.
func applyRelevanceFloor(items []domain.Item, floor float64) []domain.Item {
	if floor <= 0 {
		return items
	}
	kept := items[:0]
	for _, item := range items {
		if item.RelevanceScore != nil && *item.RelevanceScore < floor {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

func outputItemsJSON(cmd *cobra.Command, items []domain.Item) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	metaStyle     = lipgloss.NewStyle().Faint(true)
)

func outputItemsTable(cmd *cobra.Command, items []domain.Item) error {
	if len(items) == 0 {
		cmd.Println("No items found.")
		return nil
	}

	cmd.Printf("%d items:\n\n", len(items))
	for i, item := range items {
		score := ""
		if item.RelevanceScore != nil {
			score = fmt.Sprintf(" (%.2f)", *item.RelevanceScore)
		}
		cmd.Printf("  [%d] %s%s\n", i+1, titleStyle.Render(item.Title), score)
		cmd.Printf("      %s via %s, %s\n",
			categoryStyle.Render(string(item.Category)), item.Provider, itemTimestamp(item))
		cmd.Printf("      %s\n", metaStyle.Render(item.SourceURL))
		if len(item.Entities) > 0 {
			names := make([]string, 0, len(item.Entities))
			for _, e := range item.Entities {
				names = append(names, e.Name)
			}
			cmd.Printf("      %s\n", metaStyle.Render(strings.Join(names, ", ")))
		}
		cmd.Println()
	}
	return nil
}

func itemTimestamp(item domain.Item) string {
	if item.PublishedAt.IsZero() {
		return "unknown"
	}
	return item.PublishedAt.Local().Format("2006-01-02 15:04")
}
