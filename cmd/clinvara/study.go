package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Manage study workspaces",
}

var studyCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new study workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		study, err := a.svc.CreateStudy(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created study %s (%s)\n", study.Name, study.Path)
		return nil
	},
}

var studyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered studies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		studies, err := a.svc.ListStudies(cmd.Context())
		if err != nil {
			return err
		}
		if len(studies) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no studies yet")
			return nil
		}
		for _, s := range studies {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", s.ID, s.Name, s.CreatedAt.Format("2006-01-02"))
		}
		return nil
	},
}

var studyUploadCmd = &cobra.Command{
	Use:   "upload <name> <protocol-file>",
	Short: "Store a protocol document in the study workspace",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		dest, err := a.svc.UploadProtocol(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "protocol stored at %s\n", dest)
		return nil
	},
}

var studyUploadPatientsCmd = &cobra.Command{
	Use:   "upload-patients <name> <csv-file>",
	Short: "Store a patient data CSV in the study workspace",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		dest, err := a.svc.UploadPatients(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "patient data stored at %s\n", dest)
		return nil
	},
}

func init() {
	studyCmd.AddCommand(studyCreateCmd, studyListCmd, studyUploadCmd, studyUploadPatientsCmd)
}
