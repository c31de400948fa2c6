package cmd

import (
	"github.com/spf13/cobra"

	"aeroqualify/internal/bootstrap"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/usecase/capa"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Documents, flight documents, audits and contractors registers",
}

var registerImportCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Upsert register rows and risks from a YAML or JSON file",
	Long: `The file holds any of the top-level lists documents, flight_docs, audits,
contractors and risks. Rows without an id get a generated one. The whole
file is saved in one transaction.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		raw, err := readInput(cmd, cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		batch, err := capa.ParseRegisterBatch(raw)
		if err != nil {
			return err
		}
		summary, err := svc.SaveRegisters(cmd.Context(), actor, batch)
		if err != nil {
			return errs.Wrap(err, "import registers")
		}
		return printJSON(cmd, summary)
	}),
}

var registerListCmd = &cobra.Command{
	Use:   "list <kind>",
	Short: "List one register (documents|flight_docs|audits|contractors)",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		kind, err := qms.ParseRegisterKind(cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		rows, err := svc.ListRegister(cmd.Context(), kind)
		if err != nil {
			return errs.Wrap(err, "list register")
		}
		return printJSON(cmd, rows)
	}),
}

var registerDeleteCmd = &cobra.Command{
	Use:   "delete <kind> <id>",
	Short: "Delete one register row (admin)",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		kind, err := qms.ParseRegisterKind(cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		id := cmd.Flags().Arg(1)
		if err := svc.DeleteRegisterRecord(cmd.Context(), actor, kind, id); err != nil {
			return errs.Wrap(err, "delete register row")
		}
		return printf(cmd, "deleted %s: %s\n", kind, id)
	}),
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.AddCommand(registerImportCmd, registerListCmd, registerDeleteCmd)
}
