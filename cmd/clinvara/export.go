package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/clinvara/trial-criteria/internal/common"
)

var exportCmd = &cobra.Command{
	Use:   "export <study>",
	Short: "Export criteria and match results to the study's exports dir",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		study := args[0]
		path, err := a.exporter.WriteWorkbook(study)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "criteria workbook: %s\n", path)

		csv, err := a.exporter.MatchResultsCSV(study)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "no match results yet; run `clinvara match` first")
				return nil
			}
			return err
		}
		dest := filepath.Join(a.ws.ExportsDir(study), "match_results.csv")
		if err := os.WriteFile(dest, csv, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "match results: %s\n", dest)
		return nil
	},
}
