package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match <study>",
	Short: "Evaluate patient eligibility for a study",
	Long: `Reads the study's patients/processed.csv, marks each patient eligible
against the configured age threshold, and writes matches/match_results.csv.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		study := args[0]
		res, err := a.matcher.Run(a.ws.PatientsCSVPath(study), a.ws.MatchResultsPath(study))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "matched %d/%d patients eligible in %.2fs\nresults: %s\n",
			res.Eligible, res.Total, res.Latency.Seconds(), res.OutputPath)
		return nil
	},
}
