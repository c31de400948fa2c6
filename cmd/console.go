package cmd

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"aeroqualify/internal/bootstrap"
	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/usecase/capa"
	"aeroqualify/internal/usecase/qmsconsole"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the terminal dashboard (CARs, alerts, score)",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		ctx, cancel := context.WithCancel(logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath())))
		defer cancel()

		status, _ := cmd.Flags().GetString("status")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")
		if refreshInterval <= 0 {
			refreshInterval = 30 * time.Second
		}

		model := qmsconsole.NewModel(ctx, svc, qmsconsole.Options{
			StatusFilter:    status,
			RefreshInterval: refreshInterval,
		})
		program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

		go func() {
			err := svc.WatchChanges(ctx, func(report capa.DashboardReport) {
				program.Send(qmsconsole.ReloadMsg{Report: report})
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logging.Warn(ctx, "console live updates stopped", slog.Any("err", errs.Loggable(err)))
			}
		}()

		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return errs.Wrap(err, "run console")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().String("status", "", "Initial CAR status filter (Open|In Progress|Pending Verification|Closed|Overdue)")
	consoleCmd.Flags().Duration("refresh-interval", 30*time.Second, "Auto refresh interval")
}
