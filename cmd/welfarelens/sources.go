package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/welfarelens/internal/sources"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect and refresh data sources",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered data sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.collector.AvailableSources(cmd.Context())
		if err != nil {
			return err
		}
		for _, s := range list {
			lastFetch := "never"
			if s.LastFetch != nil {
				lastFetch = s.LastFetch.Format("2006-01-02 15:04")
			}
			fmt.Printf("  %-10s %-8s %-22s last fetch: %s\n", s.Type, s.Status, s.Name, lastFetch)
			if rel, ok := s.Metadata["latest_release"].(map[string]any); ok {
				fmt.Printf("             latest release: %v\n", rel["title"])
			}
		}
		return nil
	},
}

var sourcesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Probe every source and record its status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		status, err := a.collector.RefreshSources(cmd.Context())
		if err != nil {
			return err
		}
		names := make([]string, 0, len(status))
		for name := range status {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s: %s\n", name, status[name])
		}
		return nil
	},
}

var sourcesIndicatorsCmd = &cobra.Command{
	Use:   "indicators [source]",
	Short: "Show the indicators a source provides per topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, ok := sources.ParseKind(args[0])
		if !ok {
			return fmt.Errorf("unknown source %q; expected one of %s", args[0], kindList())
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		indicators, ok := a.collector.SourceIndicators(kind)
		if !ok {
			return fmt.Errorf("source %s is not registered", kind)
		}
		out, err := json.MarshalIndent(indicators, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var sourcesClearCacheCmd = &cobra.Command{
	Use:   "clear-cache [pattern]",
	Short: "Invalidate cached source data",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := "*"
		if len(args) == 1 {
			pattern = args[0]
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.collector.ClearCache(pattern)
		if err != nil {
			return err
		}
		fmt.Printf("Cleared %d cached entries matching %q\n", n, pattern)
		return nil
	},
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesRefreshCmd)
	sourcesCmd.AddCommand(sourcesIndicatorsCmd)
	sourcesCmd.AddCommand(sourcesClearCacheCmd)
}

func kindList() string {
	names := make([]string, 0, len(sources.Kinds))
	for _, k := range sources.Kinds {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}
