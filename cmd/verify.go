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

var verifyCmd = &cobra.Command{
	Use:   "verify <car-id>",
	Short: "Record the quality manager's verification of a CAR pending verification",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		check := func(name string) bool {
			v, _ := flags.GetBool(name)
			return v
		}
		input := capa.SubmitVerificationInput{
			CARID: flags.Arg(0),
			Checklist: qms.Checklist{
				ImmediateActionOK:   check("immediate-ok"),
				RootCauseOK:         check("root-cause-ok"),
				CorrectiveActionOK:  check("corrective-ok"),
				PreventiveActionOK:  check("preventive-ok"),
				EvidenceOK:          check("evidence-ok"),
				RecurrencePrevented: check("recurrence-prevented"),
			},
		}
		if check("all") {
			input.Checklist = qms.Checklist{
				ImmediateActionOK:   true,
				RootCauseOK:         true,
				CorrectiveActionOK:  true,
				PreventiveActionOK:  true,
				EvidenceOK:          true,
				RecurrencePrevented: true,
			}
		}
		input.EffectivenessRating, _ = flags.GetString("effectiveness")
		input.Status, _ = flags.GetString("status")
		input.VerifierComments, _ = flags.GetString("comments")

		result, err := svc.SubmitVerification(ctx, actor, input)
		if err != nil {
			logging.Error(ctx, "submit verification failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "submit verification")
		}
		return printJSON(cmd, result)
	}),
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().Bool("immediate-ok", false, "Immediate action adequate")
	verifyCmd.Flags().Bool("root-cause-ok", false, "Root cause analysis adequate")
	verifyCmd.Flags().Bool("corrective-ok", false, "Corrective action adequate")
	verifyCmd.Flags().Bool("preventive-ok", false, "Preventive action adequate")
	verifyCmd.Flags().Bool("evidence-ok", false, "Evidence adequate")
	verifyCmd.Flags().Bool("recurrence-prevented", false, "Recurrence prevented")
	verifyCmd.Flags().Bool("all", false, "Tick every checklist item")
	verifyCmd.Flags().String("effectiveness", "", "Pending|Effective|Not Effective")
	verifyCmd.Flags().String("status", "", "Pending|Closed|Overdue")
	verifyCmd.Flags().String("comments", "", "Verifier comments")
}
