package cmd

import (
	"github.com/spf13/cobra"

	"aeroqualify/internal/bootstrap"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/infrastructure/roster"
	"aeroqualify/internal/usecase/capa"
)

var managerCmd = &cobra.Command{
	Use:   "manager",
	Short: "Responsible-manager roster used to route notifications",
}

var managerSetCmd = &cobra.Command{
	Use:   "set <role-title>",
	Short: "Create or update the roster entry for a role title (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		m := qms.ResponsibleManager{RoleTitle: cmd.Flags().Arg(0)}
		m.PersonName, _ = cmd.Flags().GetString("name")
		m.Email, _ = cmd.Flags().GetString("email")

		saved, err := svc.SetManager(cmd.Context(), actor, m)
		if err != nil {
			return errs.Wrap(err, "set manager")
		}
		return printJSON(cmd, saved)
	}),
}

var managerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the roster",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		list, err := svc.ListManagers(cmd.Context())
		if err != nil {
			return errs.Wrap(err, "list managers")
		}
		for _, m := range list {
			if err := printf(cmd, "%s\t%s\t%s\t%s\n", m.ID, m.RoleTitle, m.PersonName, m.Email); err != nil {
				return err
			}
		}
		return nil
	}),
}

var managerDeleteCmd = &cobra.Command{
	Use:   "delete <manager-id>",
	Short: "Delete a roster entry (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		id := cmd.Flags().Arg(0)
		if err := svc.DeleteManager(cmd.Context(), actor, id); err != nil {
			return errs.Wrap(err, "delete manager")
		}
		return printf(cmd, "deleted manager: %s\n", id)
	}),
}

var managerImportCmd = &cobra.Command{
	Use:   "import [roster.toml]",
	Short: "Apply a roster TOML file (defaults to roster.file)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *capa.Service) error {
		path := app.Config.Roster.File
		if cmd.Flags().NArg() == 1 {
			path = cmd.Flags().Arg(0)
		}
		if path == "" {
			return errs.Validation(errs.Wrap(errMissingRosterFile, "manager import"))
		}
		list, err := roster.LoadFile(path)
		if err != nil {
			return err
		}
		saved, err := svc.ApplyRoster(cmd.Context(), capa.RosterActor, list)
		if err != nil {
			return errs.Wrap(err, "apply roster")
		}
		return printf(cmd, "roster applied: %d entries from %s\n", len(saved), path)
	}),
}

func init() {
	rootCmd.AddCommand(managerCmd)
	managerCmd.AddCommand(managerSetCmd, managerListCmd, managerDeleteCmd, managerImportCmd)
	managerSetCmd.Flags().String("name", "", "Person name")
	managerSetCmd.Flags().String("email", "", "E-mail address")
}
