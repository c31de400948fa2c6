/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"aeroqualify/internal/bootstrap"
	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/usecase/capa"
)

// initDbCmd represents the initDb command
var initDbCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Initialize database schema",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, _ *capa.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		logging.Info(ctx, "start init-db")

		if err := app.InitSchema(ctx); err != nil {
			logging.Error(ctx, "initialize schema failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "initialize schema")
		}
		version, err := app.SchemaVersion(ctx)
		if err != nil {
			return err
		}

		logging.Info(ctx, "init-db finished", slog.String("database_dsn", app.Config.Database.DSN))
		return printf(cmd, "database schema initialized: %s (version %s)\n", app.Config.Database.DSN, version)
	}),
}

func init() {
	rootCmd.AddCommand(initDbCmd)
}
