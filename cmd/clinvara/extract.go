package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <study>",
	Short: "Run consensus criteria extraction for a study's protocol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		run, err := a.svc.Extract(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(),
			"run %s: %s\ninclusion: %d\nexclusion: %d\nstrategy candidates: heuristic=%d ocr=%d llm=%d\n",
			run.ID, run.Status, run.InclusionCount, run.ExclusionCount,
			run.HeuristicCount, run.OCRCount, run.LLMCount,
		)
		return nil
	},
}
