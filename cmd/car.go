package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"aeroqualify/internal/bootstrap"
	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/usecase/capa"
)

var carCmd = &cobra.Command{
	Use:   "car",
	Short: "Raise, edit and inspect Corrective Action Requests",
}

var carRaiseCmd = &cobra.Command{
	Use:   "raise",
	Short: "Raise a new CAR",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		input := capa.RaiseCARInput{}
		input.ID, _ = flags.GetString("id")
		input.Title, _ = flags.GetString("title")
		input.FindingDescription, _ = flags.GetString("finding")
		input.QMSClause, _ = flags.GetString("clause")
		input.Severity, _ = flags.GetString("severity")
		input.Department, _ = flags.GetString("department")
		input.ResponsibleManager, _ = flags.GetString("manager")
		input.ResponsibleManagerEmail, _ = flags.GetString("manager-email")
		input.DateRaised, _ = flags.GetString("date-raised")
		input.DueDate, _ = flags.GetString("due")

		car, err := svc.RaiseCAR(ctx, actor, input)
		if err != nil {
			logging.Error(ctx, "raise car failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "raise car")
		}
		return printJSON(cmd, car)
	}),
}

var carEditCmd = &cobra.Command{
	Use:   "edit <car-id>",
	Short: "Edit CAR fields; status is never changed here",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}

		patch, err := carPatchFromFlags(cmd)
		if err != nil {
			return err
		}
		car, err := svc.EditCAR(ctx, actor, capa.EditCARInput{ID: cmd.Flags().Arg(0), Patch: patch})
		if err != nil {
			return errs.Wrap(err, "edit car")
		}
		return printJSON(cmd, car)
	}),
}

var carDeleteCmd = &cobra.Command{
	Use:   "delete <car-id>",
	Short: "Delete a CAR with its CAP and verification (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		id := cmd.Flags().Arg(0)
		if err := svc.DeleteCAR(cmd.Context(), actor, id); err != nil {
			return errs.Wrap(err, "delete car")
		}
		return printf(cmd, "deleted car: %s\n", id)
	}),
}

var carListCmd = &cobra.Command{
	Use:   "list",
	Short: "List CARs",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		status, _ := cmd.Flags().GetString("status")
		search, _ := cmd.Flags().GetString("search")
		cars, err := svc.ListCARs(cmd.Context(), capa.ListCARsFilter{Status: status, Search: search})
		if err != nil {
			return errs.Wrap(err, "list cars")
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd, cars)
		}
		for _, car := range cars {
			if err := printf(cmd, "%s\t%s\t%s\t%s\t%s\n", car.ID, car.Status, car.Severity, car.DueDate, car.Title); err != nil {
				return err
			}
		}
		return nil
	}),
}

var carShowCmd = &cobra.Command{
	Use:   "show <car-id>",
	Short: "Show a CAR with its CAP, verification and due state",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		detail, err := svc.GetCAR(cmd.Context(), cmd.Flags().Arg(0))
		if err != nil {
			return errs.Wrap(err, "get car")
		}
		return printJSON(cmd, detail)
	}),
}

// carPatchFromFlags only sets the fields whose flags were given.
func carPatchFromFlags(cmd *cobra.Command) (qms.CARPatch, error) {
	flags := cmd.Flags()
	var patch qms.CARPatch
	text := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}
	patch.Title = text("title")
	patch.FindingDescription = text("finding")
	patch.QMSClause = text("clause")
	patch.Department = text("department")
	patch.ResponsibleManager = text("manager")
	patch.ResponsibleManagerEmail = text("manager-email")

	if raw := text("severity"); raw != nil {
		severity, err := qms.ParseSeverity(*raw)
		if err != nil {
			return qms.CARPatch{}, errs.Validation(err)
		}
		patch.Severity = &severity
	}
	for name, dst := range map[string]**qms.Date{"date-raised": &patch.DateRaised, "due": &patch.DueDate} {
		if raw := text(name); raw != nil {
			d, err := qms.ParseDate(*raw)
			if err != nil {
				return qms.CARPatch{}, errs.Validation(errs.Wrapf(err, "--%s", name))
			}
			*dst = &d
		}
	}
	return patch, nil
}

func addCARFieldFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Title (defaults to the finding's first 80 characters)")
	cmd.Flags().String("finding", "", "Finding description")
	cmd.Flags().String("clause", "", "QMS clause reference")
	cmd.Flags().String("severity", "", "Minor|Major|Critical")
	cmd.Flags().String("department", "", "Department")
	cmd.Flags().String("manager", "", "Responsible manager role title")
	cmd.Flags().String("manager-email", "", "Responsible manager e-mail override")
	cmd.Flags().String("date-raised", "", "Date raised (YYYY-MM-DD, default today)")
	cmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")
}

func init() {
	rootCmd.AddCommand(carCmd)
	carCmd.AddCommand(carRaiseCmd, carEditCmd, carDeleteCmd, carListCmd, carShowCmd)

	addCARFieldFlags(carRaiseCmd)
	carRaiseCmd.Flags().String("id", "", "Explicit CAR id (default CAR-XXXXXXXX)")
	_ = carRaiseCmd.MarkFlagRequired("finding")

	addCARFieldFlags(carEditCmd)

	carListCmd.Flags().String("status", "", "Status filter")
	carListCmd.Flags().String("search", "", "Case-insensitive text search")
	carListCmd.Flags().Bool("json", false, "Print JSON")
}
