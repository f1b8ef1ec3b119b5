package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/welfarelens/internal/pipeline"
)

var (
	analyzeSources []string
	analyzeTopics  []string
	analyzeRegion  string
	analyzeStart   string
	analyzeEnd     string
	analyzeUser    string
	reportType     string
	reportFormat   string
	reportOut      string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Aggregate source data and run an analysis",
	Long: `Aggregate indicators from the selected sources, run the analysis and print the results.

With --report the analysis is rendered as a report for --user and written to --out.`,
	Example: `  welfarelens analyze --sources UNICEF,WHO --topics health,education
  welfarelens analyze --sources WORLDBANK --topics poverty --user alice --report summary --format pdf --out ghana.pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		params := map[string]any{
			"sources": toAny(analyzeSources),
			"topics":  toAny(analyzeTopics),
		}
		if analyzeRegion != "" {
			params["region"] = analyzeRegion
		} else if cfg.Sources.DefaultRegion != "" {
			params["region"] = cfg.Sources.DefaultRegion
		}
		if analyzeStart != "" {
			params["start_date"] = analyzeStart
		}
		if analyzeEnd != "" {
			params["end_date"] = analyzeEnd
		}
		req, err := pipeline.ParseAnalysisParams(params)
		if err != nil {
			return err
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		var requester *int64
		if analyzeUser != "" {
			u, err := a.db.GetUserByUsername(ctx, analyzeUser)
			if err != nil {
				return err
			}
			if u == nil {
				return fmt.Errorf("user %q not found", analyzeUser)
			}
			requester = &u.ID
		} else if reportType != "" {
			return fmt.Errorf("--report requires --user")
		}

		analysis, err := a.pipeline.Analyses.Run(ctx, requester, req)
		if err != nil {
			return err
		}
		fmt.Printf("Analysis %d %s\n\n", analysis.ID, analysis.Status)

		if reportType == "" {
			var pretty map[string]any
			if err := json.Unmarshal(analysis.AnalysisResults, &pretty); err != nil {
				return err
			}
			out, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Println(string(out))
			return nil
		}

		rreq, err := pipeline.ParseReportParams(map[string]any{
			"analysis_id": analysis.ID,
			"type":        reportType,
			"format":      reportFormat,
		})
		if err != nil {
			return err
		}
		report, err := a.pipeline.Reports.Generate(ctx, *requester, rreq)
		if err != nil {
			return err
		}
		doc, err := a.pipeline.Reports.Render(ctx, *requester, report.ID)
		if err != nil {
			return err
		}

		target := reportOut
		if target == "" {
			target = doc.Filename
		}
		if err := os.WriteFile(target, doc.Body, 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("Report %d written to %s\n", report.ID, target)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringSliceVarP(&analyzeSources, "sources", "s", []string{"UNICEF", "WHO", "WORLDBANK"}, "Sources to aggregate")
	analyzeCmd.Flags().StringSliceVarP(&analyzeTopics, "topics", "t", []string{"health"}, "Topics to request")
	analyzeCmd.Flags().StringVar(&analyzeRegion, "region", "", "ISO3 country code (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeStart, "start", "", "Start date, YYYY-MM-DD")
	analyzeCmd.Flags().StringVar(&analyzeEnd, "end", "", "End date, YYYY-MM-DD")
	analyzeCmd.Flags().StringVarP(&analyzeUser, "user", "u", "", "Run as this user")
	analyzeCmd.Flags().StringVar(&reportType, "report", "", "Also generate a report: summary, policy_brief or full_report")
	analyzeCmd.Flags().StringVar(&reportFormat, "format", "json", "Report format: pdf, json or html")
	analyzeCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Report output path")
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
