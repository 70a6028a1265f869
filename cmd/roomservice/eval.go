package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"roomservice/internal/evaluation"

	"github.com/spf13/cobra"
)

func newEvalCmd(a *app) *cobra.Command {
	var (
		scenariosPath string
		only          []string
		asJSON        bool
		minPassRate   float64
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Replay scripted conversations and report the pass rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			evaluator := evaluation.NewEvaluator(evaluation.NewMetricsCollector(), a.logger)
			if scenariosPath != "" {
				scenarios, err := evaluation.LoadScenarios(scenariosPath)
				if err != nil {
					return err
				}
				for _, s := range scenarios {
					evaluator.AddScenario(s)
				}
			}

			service, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer service.Close()

			report, err := evaluator.Evaluate(cmd.Context(), service, only...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printReport(out, report)
			}

			if report.PassRate < minPassRate {
				return fmt.Errorf("pass rate %.2f is below the required %.2f", report.PassRate, minPassRate)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scenariosPath, "scenarios", "", "YAML file with additional scenarios")
	cmd.Flags().StringSliceVar(&only, "only", nil, "Scenario ids to run (default all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().Float64Var(&minPassRate, "min-pass-rate", 0, "Fail when the pass rate is below this value")
	return cmd
}

func printReport(out io.Writer, report *evaluation.Report) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tRESULT\tDURATION\tDETAIL")
	for _, r := range report.Results {
		result, detail := "pass", ""
		if !r.Passed {
			result = "FAIL"
			detail = r.Error
			for _, step := range r.Steps {
				if !step.Passed && len(step.Failures) > 0 {
					detail = fmt.Sprintf("%q: %s", step.Utterance, step.Failures[0])
					break
				}
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Scenario, result, r.Duration.Round(time.Millisecond), detail)
	}
	w.Flush()
	fmt.Fprintf(out, "\n%d/%d passed (%.0f%%)\n", report.Passed, report.Total, report.PassRate*100)
}
