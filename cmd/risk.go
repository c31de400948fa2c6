package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"aeroqualify/internal/bootstrap"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/usecase/capa"
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Maintain the risk register and rate risks",
}

var riskSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Create or update a risk; ratings are derived from severity and likelihood",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		var risk qms.RiskEntry
		risk.ID, _ = flags.GetString("id")
		risk.Category, _ = flags.GetString("category")
		risk.HazardDescription, _ = flags.GetString("hazard")
		risk.Consequence, _ = flags.GetString("consequence")
		risk.Severity, _ = flags.GetInt("severity")
		risk.Likelihood, _ = flags.GetInt("likelihood")
		risk.ResidualSeverity, _ = flags.GetInt("residual-severity")
		risk.ResidualLikelihood, _ = flags.GetInt("residual-likelihood")
		risk.ExistingControls, _ = flags.GetString("controls")
		risk.TreatmentAction, _ = flags.GetString("treatment")
		risk.ResponsiblePerson, _ = flags.GetString("owner")
		risk.LinkedCARID, _ = flags.GetString("car")
		risk.ReviewNotes, _ = flags.GetString("notes")

		rawStatus, _ := flags.GetString("status")
		if strings.TrimSpace(rawStatus) != "" {
			status, err := qms.ParseRiskStatus(rawStatus)
			if err != nil {
				return errs.Validation(err)
			}
			risk.Status = status
		}
		rawTarget, _ := flags.GetString("target")
		if risk.TargetDate, err = qms.ParseDate(rawTarget); err != nil {
			return errs.Validation(errs.Wrap(err, "--target"))
		}

		saved, err := svc.SaveRisk(cmd.Context(), actor, risk)
		if err != nil {
			return errs.Wrap(err, "save risk")
		}
		return printJSON(cmd, saved)
	}),
}

var riskDeleteCmd = &cobra.Command{
	Use:   "delete <risk-id>",
	Short: "Delete a risk (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		id := cmd.Flags().Arg(0)
		if err := svc.DeleteRisk(cmd.Context(), actor, id); err != nil {
			return errs.Wrap(err, "delete risk")
		}
		return printf(cmd, "deleted risk: %s\n", id)
	}),
}

var riskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List risks with register statistics",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		view, err := svc.ListRisks(cmd.Context())
		if err != nil {
			return errs.Wrap(err, "list risks")
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd, view)
		}
		for _, r := range view.Risks {
			if err := printf(cmd, "%s\t%s\tinherent=%d %s\tresidual=%d %s\t%s\n",
				r.ID, r.Status, r.InherentIndex, r.InherentRating, r.ResidualIndex, r.ResidualRating, r.HazardDescription); err != nil {
				return err
			}
		}
		return printf(cmd, "total=%d critical=%d high=%d open=%d\n", view.Stats.Total, view.Stats.Critical, view.Stats.High, view.Stats.Open)
	}),
}

var riskRateCmd = &cobra.Command{
	Use:   "rate <severity> <likelihood>",
	Short: "Rate a severity/likelihood pair (1-5 each)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		severity, err := strconv.Atoi(args[0])
		if err != nil {
			return errs.Wrap(err, "parse severity")
		}
		likelihood, err := strconv.Atoi(args[1])
		if err != nil {
			return errs.Wrap(err, "parse likelihood")
		}
		rating, err := qms.Rate(severity, likelihood)
		if err != nil {
			return err
		}
		return printf(cmd, "%s x %s = %d %s\n", qms.SeverityLabel(severity), qms.LikelihoodLabel(likelihood), rating.Index, rating.Band)
	},
}

var riskMatrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Print the 5x5 risk matrix",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printf(cmd, "%s\n", renderMatrix(qms.Matrix()))
	},
}

var bandColors = map[qms.RiskBand]lipgloss.Color{
	qms.BandLow:      lipgloss.Color("42"),
	qms.BandMedium:   lipgloss.Color("220"),
	qms.BandHigh:     lipgloss.Color("208"),
	qms.BandCritical: lipgloss.Color("196"),
}

func renderMatrix(rows [][]qms.MatrixCell) string {
	cell := lipgloss.NewStyle().Width(13).Align(lipgloss.Center)
	label := lipgloss.NewStyle().Width(22)

	var b strings.Builder
	b.WriteString(label.Render(""))
	for l := 1; l <= 5; l++ {
		b.WriteString(cell.Render(fmt.Sprintf("L%d", l)))
	}
	b.WriteString("\n")
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		b.WriteString(label.Render(fmt.Sprintf("S%d %s", row[0].Severity, qms.SeverityLabel(row[0].Severity))))
		for _, c := range row {
			b.WriteString(cell.Foreground(bandColors[c.Rating.Band]).Render(fmt.Sprintf("%d %s", c.Rating.Index, c.Rating.Band)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(riskCmd)
	riskCmd.AddCommand(riskSaveCmd, riskDeleteCmd, riskListCmd, riskRateCmd, riskMatrixCmd)

	f := riskSaveCmd.Flags()
	f.String("id", "", "Risk id (default RSK-XXXXXXXX)")
	f.String("category", "", "Risk category")
	f.String("hazard", "", "Hazard description")
	f.String("consequence", "", "Consequence")
	f.Int("severity", 0, "Inherent severity 1-5")
	f.Int("likelihood", 0, "Inherent likelihood 1-5")
	f.Int("residual-severity", 0, "Residual severity 1-5 (default inherent)")
	f.Int("residual-likelihood", 0, "Residual likelihood 1-5 (default inherent)")
	f.String("controls", "", "Existing controls")
	f.String("treatment", "", "Treatment action")
	f.String("owner", "", "Responsible person")
	f.String("target", "", "Target date (YYYY-MM-DD)")
	f.String("status", "", "Open|Under Treatment|Monitoring|Closed")
	f.String("car", "", "Linked CAR id")
	f.String("notes", "", "Review notes")

	riskListCmd.Flags().Bool("json", false, "Print JSON")
}
