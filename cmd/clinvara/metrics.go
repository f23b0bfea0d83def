package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/clinvara/trial-criteria/internal/metrics"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics <study>",
	Short: "Score the latest match run and write a metrics report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		study := args[0]
		trace := metrics.Trace{
			ModelVersion:    "1.0",
			CriteriaVersion: "extracted_" + study,
			PatientDataset:  filepath.Base(a.ws.PatientsCSVPath(study)),
		}
		if run, err := a.svc.LatestRun(cmd.Context(), study); err == nil {
			trace.MatchRunID = run.ID.String()
		}

		rep, err := a.metrics.Compute(a.ws.MatchResultsPath(study), trace)
		if err != nil {
			return err
		}

		out := filepath.Join(a.ws.ExportsDir(study), "metrics.json")
		if err := rep.WriteJSON(out); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"precision: %.2f\nrecall: %.2f\nf1: %.2f\naccuracy: %.2f\n",
			rep.Precision, rep.Recall, rep.F1, rep.Accuracy)
		if rep.SelfLabelled {
			fmt.Fprintln(cmd.OutOrStdout(), "note: no true_eligible column; predictions scored against themselves")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "report: %s\n", out)
		return nil
	},
}
