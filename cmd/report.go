package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"aeroqualify/internal/bootstrap"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/usecase/capa"
	"aeroqualify/internal/usecase/qmsconsole"
)

var errMissingRosterFile = errors.New("no roster file given and roster.file is empty")

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute the compliance score from the current records",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		report, err := svc.Score(cmd.Context())
		if err != nil {
			return errs.Wrap(err, "score")
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd, report)
		}
		return printf(cmd, "%s\n", renderScore(report))
	}),
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List overdue and approaching items across all registers",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		report, err := svc.Alerts(cmd.Context())
		if err != nil {
			return errs.Wrap(err, "alerts")
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd, report)
		}
		for _, a := range report.Alerts {
			if err := printf(cmd, "%s\t%s\t%s\t%s\t%s\t%d\n", a.State, a.Source, a.ID, a.Due, a.Title, a.Days); err != nil {
				return err
			}
		}
		return printDegraded(cmd, report.Degraded)
	}),
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Re-derive CAR statuses from their CAP and verification and report drift",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		drift, err := svc.Check(cmd.Context())
		if err != nil {
			return errs.Wrap(err, "check")
		}
		if len(drift) == 0 {
			return printf(cmd, "all CAR statuses consistent\n")
		}
		for _, d := range drift {
			if err := printf(cmd, "%s\tstored=%s\tderived=%s\n", d.CARID, d.Stored, d.Derived); err != nil {
				return err
			}
		}
		return fmt.Errorf("%d CARs drifted", len(drift))
	}),
}

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show the change log, most recent first",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := svc.Changes(cmd.Context(), limit)
		if err != nil {
			return errs.Wrap(err, "changes")
		}
		for _, e := range entries {
			if err := printf(cmd, "%s\t%s\t%s\t%s\t%s\n", e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), e.ActorID, e.Action, e.Table, e.RecordID); err != nil {
				return err
			}
		}
		return nil
	}),
}

func renderScore(report capa.ScoreReport) string {
	s := report.Score
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	var b strings.Builder
	b.WriteString(qmsconsole.ScoreStyle(s.Band).Render(fmt.Sprintf("Compliance %d/100  %s", s.Total, s.Band)))
	b.WriteString(dim.Render(fmt.Sprintf("  (%s)", report.Today)))
	b.WriteString("\n")
	for _, p := range s.Pillars {
		b.WriteString(fmt.Sprintf("  %-28s %2d/%-2d  %s\n", p.Label, p.Score, p.Max, dim.Render(p.Description)))
	}
	if s.RiskPenalty != 0 || s.RiskBonus != 0 {
		b.WriteString(dim.Render(fmt.Sprintf("  risk penalty=%d bonus=%d", s.RiskPenalty, s.RiskBonus)))
		b.WriteString("\n")
	}
	if len(report.Degraded) > 0 {
		b.WriteString(fmt.Sprintf("  degraded: %s\n", strings.Join(report.Degraded, ",")))
	}
	return b.String()
}

func printDegraded(cmd *cobra.Command, degraded []string) error {
	if len(degraded) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not load %s\n", strings.Join(degraded, ","))
	return err
}

func init() {
	rootCmd.AddCommand(scoreCmd, alertsCmd, checkCmd, changesCmd)
	scoreCmd.Flags().Bool("json", false, "Print JSON")
	alertsCmd.Flags().Bool("json", false, "Print JSON")
	changesCmd.Flags().Int("limit", capa.DefaultChangeLimit, "Maximum entries")
}
